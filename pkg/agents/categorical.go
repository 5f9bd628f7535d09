package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Vikram2406/Hackathon-DQ/pkg/dataset"
	"github.com/Vikram2406/Hackathon-DQ/pkg/llm"
	"github.com/Vikram2406/Hackathon-DQ/pkg/models"
	"github.com/Vikram2406/Hackathon-DQ/pkg/normalize"
	"github.com/Vikram2406/Hackathon-DQ/pkg/prompts"
)

const (
	// A column is categorical when its distinct lowercase values land in
	// this open interval over the sampled rows.
	categoricalMinUnique = 1
	categoricalMaxUnique = 50

	// An allowed label needs at least max(2, 2% of rows) occurrences;
	// rarer spellings are treated as typo candidates.
	categoricalMinCount    = 2
	categoricalMinFraction = 0.02

	categoricalSampleRows = 1000
)

// CategoricalAgent learns each text column's allowed label set from value
// frequencies and maps rare deviants back onto it, fuzzily first and through
// the gateway for the stubborn ones.
type CategoricalAgent struct{}

func NewCategoricalAgent() *CategoricalAgent { return &CategoricalAgent{} }

func (a *CategoricalAgent) Name() string { return models.CategoryCategorical }

func (a *CategoricalAgent) Detect(ctx context.Context, run *Run) ([]models.Issue, error) {
	var issues []models.Issue
	for _, col := range run.Dataset.Columns {
		if run.Profiles[col].Type != models.ColumnTypeText {
			continue
		}
		issues = append(issues, a.detectColumn(ctx, run, col)...)
	}

	run.Logger.Info("categorical detection finished", zap.Int("issues", len(issues)))
	return issues, nil
}

func (a *CategoricalAgent) detectColumn(ctx context.Context, run *Run, col string) []models.Issue {
	limit := categoricalSampleRows
	if limit > len(run.Dataset.Rows) {
		limit = len(run.Dataset.Rows)
	}

	// Frequencies over lowercase values; keep the first-seen original
	// spelling for suggestions.
	counts := make(map[string]int)
	original := make(map[string]string)
	total := 0
	for _, row := range run.Dataset.Rows[:limit] {
		if dataset.IsNullish(row[col]) {
			continue
		}
		v := strings.TrimSpace(dataset.CellString(row[col]))
		lower := strings.ToLower(v)
		counts[lower]++
		if _, seen := original[lower]; !seen {
			original[lower] = v
		}
		total++
	}

	unique := len(counts)
	if unique <= categoricalMinUnique || unique >= categoricalMaxUnique {
		return nil
	}

	minCount := categoricalMinCount
	if frac := int(float64(total) * categoricalMinFraction); frac > minCount {
		minCount = frac
	}

	var allowed []string
	allowedSet := make(map[string]struct{})
	var outliers []string
	for lower, n := range counts {
		if n >= minCount {
			allowed = append(allowed, original[lower])
			allowedSet[lower] = struct{}{}
		} else {
			outliers = append(outliers, original[lower])
		}
	}
	if len(allowed) == 0 || len(outliers) == 0 {
		return nil
	}
	sort.Strings(allowed)
	sort.Strings(outliers)

	// Fuzzy pass, then one batched gateway call for the leftovers.
	mapping := make(map[string]string)
	var unresolved []string
	for _, outlier := range outliers {
		if match, _, ok := normalize.BestMatch(outlier, allowed, normalize.DefaultFuzzyThreshold); ok {
			mapping[outlier] = match
		} else {
			unresolved = append(unresolved, outlier)
		}
	}
	llmMapping := a.llmMapping(ctx, run, col, unresolved, allowed, allowedSet)

	var issues []models.Issue
	for i, row := range run.Dataset.Rows {
		if dataset.IsNullish(row[col]) {
			continue
		}
		v := strings.TrimSpace(dataset.CellString(row[col]))
		if _, ok := allowedSet[strings.ToLower(v)]; ok {
			continue
		}

		if want, ok := mapping[v]; ok {
			score := normalize.Similarity(v, want)
			issues = append(issues, models.NewIssue(models.CategoryCategorical, models.IssueFuzzyMapping,
				models.IntPtr(i), col, v, models.StringPtr(want), score,
				fmt.Sprintf("%q appears %d time(s) while %q is an established label in this column.", v, counts[strings.ToLower(v)], want),
				"Fuzzy-matched against the labels the rest of the column established."))
			continue
		}
		if want, ok := llmMapping[v]; ok {
			issues = append(issues, models.NewIssue(models.CategoryCategorical, models.IssueFuzzyMapping,
				models.IntPtr(i), col, v, models.StringPtr(want), 0.75,
				fmt.Sprintf("%q is a rare label; matched to the established %q.", v, want),
				"The model mapped a rare label onto the column's established set."))
		}
	}
	return issues
}

// llmMapping resolves outliers fuzzy matching missed. Answers outside the
// allowed set are discarded.
func (a *CategoricalAgent) llmMapping(ctx context.Context, run *Run, col string, unresolved, allowed []string, allowedSet map[string]struct{}) map[string]string {
	if len(unresolved) == 0 {
		return nil
	}

	response, err := run.LLM.Complete(ctx,
		[]llm.Message{llm.User(prompts.BuildCategoryMappingPrompt(col, unresolved, allowed))},
		defaultTemperature, mappingMaxTokens)
	if err != nil {
		return nil
	}
	parsed, err := llm.ParseResponse[struct {
		Mapping map[string]string `json:"mapping"`
	}](response)
	if err != nil {
		return nil
	}

	out := make(map[string]string)
	for typo, want := range parsed.Mapping {
		if _, ok := allowedSet[strings.ToLower(strings.TrimSpace(want))]; ok {
			out[typo] = strings.TrimSpace(want)
		}
	}
	return out
}
