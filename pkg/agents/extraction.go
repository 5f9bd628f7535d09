package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Vikram2406/Hackathon-DQ/pkg/dataset"
	"github.com/Vikram2406/Hackathon-DQ/pkg/llm"
	"github.com/Vikram2406/Hackathon-DQ/pkg/models"
	"github.com/Vikram2406/Hackathon-DQ/pkg/prompts"
)

// Columns already dedicated to a single field; nothing to extract there.
var extractionExcludedKeywords = []string{"email", "phone", "url", "name", "id"}

var (
	embeddedEmailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	embeddedURLPattern   = regexp.MustCompile(`(?:https?://|www\.)[^\s,;]+`)
)

const (
	// A column qualifies for extraction when its sampled values run long
	// enough to plausibly hold free text.
	extractionMinSampleLen = 20
	// Individual cells below this are too short to hide anything.
	extractionMinCellLen = 10
)

// ExtractionAgent pulls structured fields (emails, URLs) out of free-text
// columns. Regex finds the obvious ones; the gateway reads cells that hint
// at an embedded field the patterns missed.
type ExtractionAgent struct{}

func NewExtractionAgent() *ExtractionAgent { return &ExtractionAgent{} }

func (a *ExtractionAgent) Name() string { return models.CategoryExtraction }

func (a *ExtractionAgent) Detect(ctx context.Context, run *Run) ([]models.Issue, error) {
	// A dedicated column means the field already has a home; nothing to
	// surface from free text then.
	hasEmailCol, hasURLCol := a.dedicatedColumns(run)

	var issues []models.Issue
	for _, col := range run.Dataset.Columns {
		if !a.eligible(run, col) {
			continue
		}
		issues = append(issues, a.detectColumn(ctx, run, col, hasEmailCol, hasURLCol)...)
	}

	run.Logger.Info("extraction finished", zap.Int("issues", len(issues)))
	return issues, nil
}

func (a *ExtractionAgent) dedicatedColumns(run *Run) (hasEmail, hasURL bool) {
	urlKeywords := []string{"url", "website", "link", "homepage"}
	for _, col := range run.Dataset.Columns {
		if columnMatchesAny(col, emailColumnKeywords) || run.Profiles[col].Type == models.ColumnTypeEmail {
			hasEmail = true
		}
		if columnMatchesAny(col, urlKeywords) {
			hasURL = true
		}
	}
	return hasEmail, hasURL
}

// eligible keeps text columns with long sample values whose name does not
// already promise a single field.
func (a *ExtractionAgent) eligible(run *Run, col string) bool {
	if columnMatchesAny(col, extractionExcludedKeywords) {
		return false
	}
	profile := run.Profiles[col]
	if profile.Type != models.ColumnTypeText {
		return false
	}
	for _, v := range profile.SampleValues {
		if len(v) > extractionMinSampleLen {
			return true
		}
	}
	return false
}

func (a *ExtractionAgent) detectColumn(ctx context.Context, run *Run, col string, hasEmailCol, hasURLCol bool) []models.Issue {
	var issues []models.Issue
	for i, row := range run.Dataset.Rows {
		value := strings.TrimSpace(dataset.CellString(row[col]))
		if dataset.IsNullish(value) || len(value) <= extractionMinCellLen {
			continue
		}

		// One issue per embedded field; a cell can hold both.
		found := false
		if email := embeddedEmailPattern.FindString(value); email != "" {
			found = true
			if !hasEmailCol {
				issues = append(issues, a.extractionIssue(i, col, value, "email", email, 0.90))
			}
		}
		if url := embeddedURLPattern.FindString(value); url != "" {
			found = true
			if !hasURLCol {
				issues = append(issues, a.extractionIssue(i, col, value, "url", url, 0.90))
			}
		}
		if found {
			continue
		}

		// Regex found nothing but the cell hints at an embedded field;
		// let the gateway read it.
		if !strings.ContainsAny(value, "@") &&
			!strings.Contains(strings.ToLower(value), "http") &&
			!strings.Contains(strings.ToLower(value), "www") {
			continue
		}
		field, extracted, ok := a.llmExtract(ctx, run, col, value)
		if !ok {
			continue
		}
		if (field == "email" && hasEmailCol) || (field == "url" && hasURLCol) {
			continue
		}
		issues = append(issues, a.extractionIssue(i, col, value, field, extracted, 0.70))
	}
	return issues
}

func (a *ExtractionAgent) extractionIssue(rowIdx int, col, value, field, extracted string, conf float64) models.Issue {
	suggestion := fmt.Sprintf("Extract %s: %s", field, extracted)
	return models.NewIssue(models.CategoryExtraction, models.IssueMetadataScraping,
		models.IntPtr(rowIdx), col, value, models.StringPtr(suggestion), conf,
		fmt.Sprintf("Free-text cell embeds a %s (%s) that belongs in its own field.", field, extracted),
		"Read the free text for embedded structured fields instead of checking the column's own format.")
}

func (a *ExtractionAgent) llmExtract(ctx context.Context, run *Run, col, value string) (field, extracted string, ok bool) {
	response, err := run.LLM.Complete(ctx,
		[]llm.Message{llm.User(prompts.BuildExtractionPrompt(col, value))},
		defaultTemperature, defaultMaxTokens)
	if err != nil {
		return "", "", false
	}
	parsed, err := llm.ParseResponse[struct {
		Field *string `json:"field"`
		Value *string `json:"value"`
	}](response)
	if err != nil || parsed.Field == nil || parsed.Value == nil {
		return "", "", false
	}

	field = strings.TrimSpace(*parsed.Field)
	extracted = strings.TrimSpace(*parsed.Value)
	if field == "" || extracted == "" || !strings.Contains(value, extracted) {
		return "", "", false
	}
	return field, extracted, true
}
