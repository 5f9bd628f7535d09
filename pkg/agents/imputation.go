package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Vikram2406/Hackathon-DQ/pkg/dataset"
	"github.com/Vikram2406/Hackathon-DQ/pkg/llm"
	"github.com/Vikram2406/Hackathon-DQ/pkg/models"
	"github.com/Vikram2406/Hackathon-DQ/pkg/prompts"
)

// Spellings of "missing" the imputation agent fills. Narrower than the
// generic null check on purpose: "nan" or "undefined" in a text column may
// be a legitimate label.
var imputationMissing = map[string]struct{}{
	"": {}, "null": {}, "none": {}, "n/a": {}, "na": {},
}

// ImputationAgent proposes fills for missing cells from the rest of the
// row. It is entirely gateway-driven: no response, no suggestion.
type ImputationAgent struct{}

func NewImputationAgent() *ImputationAgent { return &ImputationAgent{} }

func (a *ImputationAgent) Name() string { return models.CategoryImputation }

func (a *ImputationAgent) Detect(ctx context.Context, run *Run) ([]models.Issue, error) {
	columns := a.targetColumns(run)
	if len(columns) == 0 {
		return nil, nil
	}

	type target struct {
		row    int
		column string
	}
	var targets []target
	for _, col := range columns {
		for i, row := range run.Dataset.Rows {
			if isImputationMissing(row[col]) {
				targets = append(targets, target{row: i, column: col})
			}
		}
	}
	if len(targets) == 0 {
		return nil, nil
	}

	items := make([]llm.WorkItem[*models.Issue], len(targets))
	for i, tgt := range targets {
		tgt := tgt
		items[i] = llm.WorkItem[*models.Issue]{
			ID: fmt.Sprintf("%s:%d", tgt.column, tgt.row),
			Execute: func(ctx context.Context) (*models.Issue, error) {
				return a.impute(ctx, run, tgt.row, tgt.column), nil
			},
		}
	}

	results := llm.Process(ctx, run.Pool, items, nil)
	var issues []models.Issue
	for _, r := range results {
		if r.Err == nil && r.Result != nil {
			issues = append(issues, *r.Result)
		}
	}
	sortIssues(issues)

	run.Logger.Info("imputation finished",
		zap.Int("missing_cells", len(targets)),
		zap.Int("issues", len(issues)))
	return issues, nil
}

// targetColumns applies the configured allow-list; empty means every column.
func (a *ImputationAgent) targetColumns(run *Run) []string {
	if len(run.ImputationColumns) == 0 {
		return run.Dataset.Columns
	}
	allowed := make(map[string]struct{}, len(run.ImputationColumns))
	for _, col := range run.ImputationColumns {
		allowed[strings.ToLower(col)] = struct{}{}
	}
	var out []string
	for _, col := range run.Dataset.Columns {
		if _, ok := allowed[strings.ToLower(col)]; ok {
			out = append(out, col)
		}
	}
	return out
}

func (a *ImputationAgent) impute(ctx context.Context, run *Run, rowIdx int, col string) *models.Issue {
	row := run.Dataset.Rows[rowIdx]

	// Context is the rest of the record; without any filled neighbor cells
	// there is nothing to infer from.
	context := make(map[string]string)
	for _, other := range run.Dataset.Columns {
		if other == col || dataset.IsNullish(row[other]) {
			continue
		}
		context[other] = dataset.CellString(row[other])
	}
	if len(context) == 0 {
		return nil
	}

	response, err := run.LLM.Complete(ctx,
		[]llm.Message{llm.User(prompts.BuildImputationPrompt(col, context))},
		defaultTemperature, defaultMaxTokens)
	if err != nil {
		return nil
	}
	parsed, err := llm.ParseResponse[struct {
		Value      *string `json:"value"`
		Confidence float64 `json:"confidence"`
	}](response)
	if err != nil || parsed.Value == nil {
		return nil
	}

	value := strings.TrimSpace(*parsed.Value)
	if value == "" {
		return nil
	}
	conf := parsed.Confidence
	if conf <= 0 || conf > 1 {
		conf = 0.60
	}

	iss := models.NewIssue(models.CategoryImputation, models.IssueContextualFill,
		models.IntPtr(rowIdx), col, dataset.CellString(row[col]), models.StringPtr(value), conf,
		fmt.Sprintf("Cell is empty; the other fields of this record imply %q.", value),
		"Inferred from the other fields of the same record, not from the column's distribution.")
	return &iss
}

func isImputationMissing(v any) bool {
	if v == nil {
		return true
	}
	s := strings.ToLower(strings.TrimSpace(dataset.CellString(v)))
	_, ok := imputationMissing[s]
	return ok
}
