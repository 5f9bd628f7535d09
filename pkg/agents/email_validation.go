package agents

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Vikram2406/Hackathon-DQ/pkg/analyzer"
	"github.com/Vikram2406/Hackathon-DQ/pkg/dataset"
	"github.com/Vikram2406/Hackathon-DQ/pkg/llm"
	"github.com/Vikram2406/Hackathon-DQ/pkg/models"
	"github.com/Vikram2406/Hackathon-DQ/pkg/prompts"
)

var emailColumnKeywords = []string{"email", "e-mail", "mail"}

var validEmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// structural defects worth calling out even when the overall pattern fails
// for other reasons
var emailDefects = []struct {
	pattern *regexp.Regexp
	reason  string
}{
	{regexp.MustCompile(`@.*@`), "multiple @ signs"},
	{regexp.MustCompile(`\.\.`), "consecutive dots"},
	{regexp.MustCompile(`^\.`), "leading dot"},
	{regexp.MustCompile(`\.$`), "trailing dot"},
	{regexp.MustCompile(`@\.`), "dot immediately after @"},
	{regexp.MustCompile(`\.@`), "dot immediately before @"},
}

// EmailValidationAgent flags malformed addresses and proposes repairs,
// preferring the mail provider that dominates the column.
type EmailValidationAgent struct{}

func NewEmailValidationAgent() *EmailValidationAgent { return &EmailValidationAgent{} }

func (a *EmailValidationAgent) Name() string { return models.CategoryEmailValidation }

func (a *EmailValidationAgent) Detect(ctx context.Context, run *Run) ([]models.Issue, error) {
	columns := a.emailColumns(run)
	if len(columns) == 0 {
		return nil, nil
	}

	type target struct {
		row    int
		column string
		value  string
		reason string
	}

	var targets []target
	for _, col := range columns {
		for i, row := range run.Dataset.Rows {
			if dataset.IsNullish(row[col]) {
				continue
			}
			value := dataset.CellString(row[col])
			if reason, bad := diagnoseEmail(value); bad {
				targets = append(targets, target{row: i, column: col, value: value, reason: reason})
			}
		}
	}
	if len(targets) == 0 {
		return nil, nil
	}

	// One distribution summary per column, shared by every repair prompt.
	colContext := make(map[string]string, len(columns))
	for _, col := range columns {
		colContext[col] = analyzer.DataContext(run.Dataset, col)
	}

	items := make([]llm.WorkItem[models.Issue], len(targets))
	for i, tgt := range targets {
		tgt := tgt
		provider := run.Profiles[tgt.column].MostCommonDomain
		dataCtx := colContext[tgt.column]
		items[i] = llm.WorkItem[models.Issue]{
			ID: fmt.Sprintf("%s:%d", tgt.column, tgt.row),
			Execute: func(ctx context.Context) (models.Issue, error) {
				return a.repair(ctx, run, tgt.row, tgt.column, tgt.value, tgt.reason, provider, dataCtx), nil
			},
		}
	}

	results := llm.Process(ctx, run.Pool, items, nil)
	issues := make([]models.Issue, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			issues = append(issues, r.Result)
		}
	}
	sortIssues(issues)

	run.Logger.Info("email validation finished",
		zap.Int("columns", len(columns)),
		zap.Int("issues", len(issues)))
	return issues, nil
}

func (a *EmailValidationAgent) emailColumns(run *Run) []string {
	var out []string
	for _, col := range run.Dataset.Columns {
		if columnMatchesAny(col, emailColumnKeywords) || run.Profiles[col].Type == models.ColumnTypeEmail {
			out = append(out, col)
		}
	}
	return out
}

// repair asks the gateway for a fix and falls back to a deterministic
// provider-based repair when the gateway is unavailable or unhelpful.
func (a *EmailValidationAgent) repair(ctx context.Context, run *Run, rowIdx int, col, value, reason, provider, dataCtx string) models.Issue {
	rowID := models.IntPtr(rowIdx)

	if fixed, ok := a.llmFix(ctx, run, value, provider, dataCtx); ok {
		return models.NewIssue(models.CategoryEmailValidation, models.IssueInvalidEmail,
			rowID, col, value, models.StringPtr(fixed), 0.85,
			fmt.Sprintf("Address is malformed (%s); repaired using the column's dominant provider as context.", reason),
			"The model repaired the address against the column's own provider mix.")
	}

	if fixed, ok := fallbackEmail(value); ok {
		return models.NewIssue(models.CategoryEmailValidation, models.IssueInvalidEmail,
			rowID, col, value, models.StringPtr(fixed), 0.70,
			fmt.Sprintf("Address is malformed (%s); deterministic repair kept the local part on a generic provider.", reason),
			"Pattern repair preserved the local part instead of discarding the cell.")
	}

	return models.NewIssue(models.CategoryEmailValidation, models.IssueInvalidEmail,
		rowID, col, value, nil, 0.70,
		fmt.Sprintf("Address is malformed (%s) and no plausible repair was found.", reason),
		"Flagged for review; no repair cleared the confidence bar.")
}

func (a *EmailValidationAgent) llmFix(ctx context.Context, run *Run, value, provider, dataCtx string) (string, bool) {
	prompt := prompts.BuildEmailFixPrompt(value, provider, dataCtx)
	response, err := run.LLM.Complete(ctx, []llm.Message{llm.User(prompt)}, defaultTemperature, defaultMaxTokens)
	if err != nil {
		return "", false
	}

	parsed, err := llm.ParseResponse[struct {
		Email *string `json:"email"`
	}](response)
	if err != nil || parsed.Email == nil {
		return "", false
	}

	fixed := strings.TrimSpace(*parsed.Email)
	if !validEmailPattern.MatchString(fixed) {
		return "", false
	}

	// When the input had no @ at all, the model tends to invent a company
	// domain out of thin air. Keep the invented local part but pin the
	// domain to a generic provider.
	if !strings.Contains(value, "@") {
		local, _, _ := strings.Cut(fixed, "@")
		fixed = local + "@gmail.com"
	}
	return fixed, true
}

// diagnoseEmail reports why a value is not a valid address.
func diagnoseEmail(value string) (string, bool) {
	if value != strings.TrimSpace(value) {
		return "surrounding whitespace", true
	}
	for _, d := range emailDefects {
		if d.pattern.MatchString(value) {
			return d.reason, true
		}
	}
	if !validEmailPattern.MatchString(value) {
		return "does not match the address pattern", true
	}
	return "", false
}

// fallbackEmail builds a deterministic repair: the cleaned local part on
// gmail.com.
func fallbackEmail(value string) (string, bool) {
	local := strings.ToLower(strings.TrimSpace(value))
	if at := strings.Index(local, "@"); at >= 0 {
		local = local[:at]
	}
	local = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '%', r == '+', r == '-':
			return r
		default:
			return -1
		}
	}, local)
	local = strings.Trim(local, ".")
	if local == "" {
		return "", false
	}
	return local + "@gmail.com", true
}

// sortIssues orders issues by row then column so concurrent detection stays
// deterministic.
func sortIssues(issues []models.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		ri, rj := -1, -1
		if issues[i].RowID != nil {
			ri = *issues[i].RowID
		}
		if issues[j].RowID != nil {
			rj = *issues[j].RowID
		}
		if ri != rj {
			return ri < rj
		}
		return issues[i].Column < issues[j].Column
	})
}
