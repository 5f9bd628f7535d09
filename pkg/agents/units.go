package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Vikram2406/Hackathon-DQ/pkg/dataset"
	"github.com/Vikram2406/Hackathon-DQ/pkg/llm"
	"github.com/Vikram2406/Hackathon-DQ/pkg/models"
	"github.com/Vikram2406/Hackathon-DQ/pkg/normalize"
	"github.com/Vikram2406/Hackathon-DQ/pkg/prompts"
)

var measurementColumnKeywords = []string{
	"height", "weight", "length", "width", "distance", "size", "measurement",
}

// UnitsAgent flags measurement cells whose unit deviates from the column's
// canonical unit and suggests the converted value. The canonical unit is
// the column default (kg for weights, cm otherwise) unless a different
// parseable unit dominates the data.
type UnitsAgent struct{}

func NewUnitsAgent() *UnitsAgent { return &UnitsAgent{} }

func (a *UnitsAgent) Name() string { return models.CategoryUnits }

func (a *UnitsAgent) Detect(ctx context.Context, run *Run) ([]models.Issue, error) {
	columns := columnsMatching(run.Dataset.Columns, measurementColumnKeywords)
	if len(columns) == 0 {
		return nil, nil
	}

	var issues []models.Issue
	for _, col := range columns {
		issues = append(issues, a.detectColumn(ctx, run, col)...)
	}

	run.Logger.Info("unit detection finished",
		zap.Int("columns", len(columns)),
		zap.Int("issues", len(issues)))
	return issues, nil
}

func (a *UnitsAgent) detectColumn(ctx context.Context, run *Run, col string) []models.Issue {
	canonical := a.canonicalUnit(run, col)

	var issues []models.Issue
	for i, row := range run.Dataset.Rows {
		if dataset.IsNullish(row[col]) {
			continue
		}
		value := strings.TrimSpace(dataset.CellString(row[col]))

		// Bare numbers are assumed to already be in the canonical unit;
		// the applier reformats them during standardization.
		if _, bare := normalize.ParseBareNumber(value); bare {
			continue
		}

		m, conf, ok := normalize.ParseMeasurement(value)
		if !ok {
			if suggestion, llmConf, llmOK := a.llmParse(ctx, run, col, value, canonical); llmOK {
				issues = append(issues, models.NewIssue(models.CategoryUnits, models.IssueScaleMismatch,
					models.IntPtr(i), col, value, models.StringPtr(suggestion), llmConf,
					fmt.Sprintf("Value %q is not a parseable measurement; interpreted and converted to %s.", value, canonical),
					"The model read a value the measurement parser could not."))
			}
			continue
		}

		if m.Unit == canonical {
			// Right unit; only flag when the spelling deviates from the
			// canonical "{value} {unit}" shape (compound heights parse
			// straight to cm and land here too).
			formatted := m.Format()
			if formatted != value {
				issues = append(issues, models.NewIssue(models.CategoryUnits, models.IssueScaleMismatch,
					models.IntPtr(i), col, value, models.StringPtr(formatted), conf,
					fmt.Sprintf("Measurement %q standardized to the column's %s convention.", value, canonical),
					"Judged against the unit mix of the whole column, not the cell alone."))
			}
			continue
		}

		converted, convOK := normalize.ConvertUnit(m.Value, m.Unit, canonical)
		if !convOK {
			// Cross-dimension value, e.g. a weight in a height column.
			issues = append(issues, models.NewIssue(models.CategoryUnits, models.IssueScaleMismatch,
				models.IntPtr(i), col, value, nil, 0.60,
				fmt.Sprintf("Measurement %q uses %s, which cannot convert to the column's %s.", value, m.Unit, canonical),
				"Compared the cell's dimension with what the rest of the column measures."))
			continue
		}

		suggestion := normalize.Measurement{Value: converted, Unit: canonical}.Format()
		issues = append(issues, models.NewIssue(models.CategoryUnits, models.IssueScaleMismatch,
			models.IntPtr(i), col, value, models.StringPtr(suggestion), conf,
			fmt.Sprintf("Measurement %q is in %s; column standardizes on %s.", value, m.Unit, canonical),
			"Target unit inferred from the column's dominant convention."))
	}
	return issues
}

// canonicalUnit picks the column's target unit: the most common parsed unit
// when one dominates, otherwise the name-based default.
func (a *UnitsAgent) canonicalUnit(run *Run, col string) string {
	counts := make(map[string]int)
	for _, row := range run.Dataset.Rows {
		if dataset.IsNullish(row[col]) {
			continue
		}
		if m, _, ok := normalize.ParseMeasurement(dataset.CellString(row[col])); ok {
			counts[m.Unit]++
		}
	}

	best := ""
	bestCount := 0
	for unit, n := range counts {
		if n > bestCount || (n == bestCount && unit < best) {
			best = unit
			bestCount = n
		}
	}
	if best == "" {
		return normalize.CanonicalUnitFor(col)
	}
	return best
}

func (a *UnitsAgent) llmParse(ctx context.Context, run *Run, col, value, targetUnit string) (string, float64, bool) {
	response, err := run.LLM.Complete(ctx,
		[]llm.Message{llm.User(prompts.BuildUnitParsePrompt(col, value, targetUnit))},
		defaultTemperature, defaultMaxTokens)
	if err != nil {
		return "", 0, false
	}
	parsed, err := llm.ParseResponse[struct {
		Value      *float64 `json:"value"`
		Confidence float64  `json:"confidence"`
	}](response)
	if err != nil || parsed.Value == nil {
		return "", 0, false
	}

	conf := parsed.Confidence
	if conf <= 0 || conf > 1 {
		conf = 0.70
	}
	return normalize.Measurement{Value: *parsed.Value, Unit: targetUnit}.Format(), conf, true
}
