package apply

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Vikram2406/Hackathon-DQ/pkg/dataset"
	"github.com/Vikram2406/Hackathon-DQ/pkg/models"
	"github.com/Vikram2406/Hackathon-DQ/pkg/normalize"
)

// Mode selects what happens to the repaired dataset.
type Mode string

const (
	// ModePreview returns the repaired CSV without persisting anything.
	ModePreview Mode = "preview"
	// ModeExport writes the repaired CSV to the sink.
	ModeExport Mode = "export"
	// ModeCommit writes the repaired CSV to the sink as the new source.
	ModeCommit Mode = "commit"
)

// Change records one cell rewrite.
type Change struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// ChangeMap indexes changes by "{row}_{column}".
type ChangeMap map[string]Change

// Options controls one apply pass.
type Options struct {
	// SelectedIDs limits the pass to these issue IDs; empty applies all.
	SelectedIDs []string
	// UnitPreferences maps measurement columns to their target unit,
	// overriding what the detected issues imply.
	UnitPreferences map[string]string
	Mode            Mode
	// SourceKey names the input artifact; the cleaned key derives from it.
	SourceKey string
}

// Result is the outcome of one apply pass.
type Result struct {
	Dataset  *dataset.Dataset
	Changes  ChangeMap
	Applied  int
	Skipped  int
	CSV      []byte
	Location string
}

// Columns whose values are identities rather than data defects. Suggested
// rewrites never touch them; a wrong "fix" here destroys information.
var protectedColumnKeywords = []string{
	"name", "firstname", "first_name", "lastname", "last_name", "fullname", "full_name",
	"username", "user_name", "person", "customer", "employee", "contact",
	"city", "town", "location", "place",
}

// Applier rewrites dataset cells from accepted issues. The input dataset is
// never mutated; every pass works on a clone.
type Applier struct {
	sink   dataset.Sink
	logger *zap.Logger
}

func NewApplier(sink dataset.Sink, logger *zap.Logger) *Applier {
	return &Applier{sink: sink, logger: logger.Named("applier")}
}

// Apply executes the selected fixes and serializes the result per the mode.
func (a *Applier) Apply(ctx context.Context, ds *dataset.Dataset, issues []models.Issue, opts Options) (*Result, error) {
	clone := ds.Clone()
	selected := selectIssues(issues, opts.SelectedIDs)

	changes := make(ChangeMap)
	fixed := make(map[string]struct{})

	unitChanges := a.standardizeUnits(clone, selected, opts.UnitPreferences, changes, fixed)

	applied, skipped := a.applyIssues(clone, selected, changes, fixed)
	applied += unitChanges

	csvBytes, err := dataset.MarshalCSV(clone)
	if err != nil {
		return nil, fmt.Errorf("serialize repaired dataset: %w", err)
	}

	result := &Result{
		Dataset: clone,
		Changes: changes,
		Applied: applied,
		Skipped: skipped,
		CSV:     csvBytes,
	}

	switch opts.Mode {
	case ModeExport, ModeCommit:
		location, err := a.sink.Put(ctx, dataset.CleanedKey(opts.SourceKey), csvBytes, "text/csv")
		if err != nil {
			return nil, fmt.Errorf("store repaired dataset: %w", err)
		}
		result.Location = location
	}

	a.logger.Info("apply finished",
		zap.String("mode", string(opts.Mode)),
		zap.Int("selected", len(selected)),
		zap.Int("applied", result.Applied),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// standardizeUnits rewrites whole measurement columns to "{value:.2f} {unit}".
// Target units come from the accepted scale issues' suggestions, overridden
// by explicit preferences. Bare numbers are assumed to already be in the
// target unit.
func (a *Applier) standardizeUnits(ds *dataset.Dataset, selected []models.Issue, preferences map[string]string, changes ChangeMap, fixed map[string]struct{}) int {
	targets := unitTargets(selected, preferences)
	if len(targets) == 0 {
		return 0
	}

	columns := make([]string, 0, len(targets))
	for col := range targets {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	rewritten := 0
	for _, col := range columns {
		unit := targets[col]
		for i, row := range ds.Rows {
			if dataset.IsNullish(row[col]) {
				continue
			}
			old := strings.TrimSpace(dataset.CellString(row[col]))

			var formatted string
			if v, bare := normalize.ParseBareNumber(old); bare {
				formatted = normalize.Measurement{Value: v, Unit: unit}.Format()
			} else if m, _, ok := normalize.ParseMeasurement(old); ok {
				value := m.Value
				if m.Unit != unit {
					converted, convOK := normalize.ConvertUnit(m.Value, m.Unit, unit)
					if !convOK {
						continue
					}
					value = converted
				}
				formatted = normalize.Measurement{Value: value, Unit: unit}.Format()
			} else {
				continue
			}

			if formatted == old {
				continue
			}
			key := cellKey(i, col)
			ds.Rows[i][col] = formatted
			changes[key] = Change{Old: old, New: formatted}
			fixed[key] = struct{}{}
			rewritten++
		}
	}
	return rewritten
}

// applyIssues walks the accepted issues in order. The first write to a cell
// wins; later issues on the same cell are skipped.
func (a *Applier) applyIssues(ds *dataset.Dataset, selected []models.Issue, changes ChangeMap, fixed map[string]struct{}) (applied, skipped int) {
	for _, iss := range selected {
		// Scale mismatches were handled by column standardization, and
		// dataset-level issues carry no cell to rewrite.
		if iss.IssueType == models.IssueScaleMismatch || iss.RowID == nil {
			continue
		}
		if isProtectedColumn(iss.Column) {
			skipped++
			continue
		}
		row := *iss.RowID
		if row < 0 || row >= len(ds.Rows) {
			skipped++
			continue
		}

		key := cellKey(row, iss.Column)
		if _, done := fixed[key]; done {
			skipped++
			continue
		}

		old := dataset.CellString(ds.Rows[row][iss.Column])
		if iss.SuggestedValue == nil || isClearValue(*iss.SuggestedValue) {
			ds.Rows[row][iss.Column] = nil
			changes[key] = Change{Old: old, New: "null"}
		} else {
			ds.Rows[row][iss.Column] = *iss.SuggestedValue
			changes[key] = Change{Old: old, New: *iss.SuggestedValue}
		}
		fixed[key] = struct{}{}
		applied++
	}
	return applied, skipped
}

// unitTargets derives each measurement column's target unit from the
// suggested values of its accepted scale issues, with preferences on top.
func unitTargets(selected []models.Issue, preferences map[string]string) map[string]string {
	unitVotes := make(map[string]map[string]int)
	for _, iss := range selected {
		if iss.IssueType != models.IssueScaleMismatch || iss.SuggestedValue == nil {
			continue
		}
		m, _, ok := normalize.ParseMeasurement(*iss.SuggestedValue)
		if !ok {
			continue
		}
		if unitVotes[iss.Column] == nil {
			unitVotes[iss.Column] = make(map[string]int)
		}
		unitVotes[iss.Column][m.Unit]++
	}

	targets := make(map[string]string)
	for col, votes := range unitVotes {
		best, bestCount := "", 0
		for unit, n := range votes {
			if n > bestCount || (n == bestCount && unit < best) {
				best, bestCount = unit, n
			}
		}
		targets[col] = best
	}
	for col, unit := range preferences {
		if unit != "" {
			targets[col] = unit
		}
	}
	return targets
}

func selectIssues(issues []models.Issue, ids []string) []models.Issue {
	if len(ids) == 0 {
		return issues
	}
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var out []models.Issue
	for _, iss := range issues {
		if _, ok := wanted[iss.ID]; ok {
			out = append(out, iss)
		}
	}
	return out
}

func cellKey(row int, column string) string {
	return fmt.Sprintf("%d_%s", row, column)
}

func isClearValue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "null", "none":
		return true
	}
	return false
}

func isProtectedColumn(column string) bool {
	lower := strings.ToLower(column)
	for _, kw := range protectedColumnKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
