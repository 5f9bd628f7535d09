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

var (
	birthKeywords    = []string{"birth", "dob"}
	jobStartKeywords = []string{"job", "start", "hire"}
	endKeywords      = []string{"end", "termination", "left"}
	createdKeywords  = []string{"created"}
	updatedKeywords  = []string{"updated", "modified"}
)

// LogicAgent finds cross-field contradictions: jobs that start before the
// person was born, ranges that end before they start, and city/state pairs
// that don't exist.
type LogicAgent struct {
	validityCache map[string]*cityStateVerdict
}

type cityStateVerdict struct {
	valid        bool
	correctState string
}

func NewLogicAgent() *LogicAgent {
	return &LogicAgent{validityCache: make(map[string]*cityStateVerdict)}
}

func (a *LogicAgent) Name() string { return models.CategoryLogic }

func (a *LogicAgent) Detect(ctx context.Context, run *Run) ([]models.Issue, error) {
	issues := a.detectTemporalParadoxes(ctx, run)
	issues = append(issues, a.detectRangeInversions(run)...)
	issues = append(issues, a.detectCityStateConflicts(ctx, run)...)

	run.Logger.Info("logic checks finished", zap.Int("issues", len(issues)))
	return issues, nil
}

// detectTemporalParadoxes compares job start dates against birth dates.
func (a *LogicAgent) detectTemporalParadoxes(ctx context.Context, run *Run) []models.Issue {
	dateCols := a.dateColumns(run)
	if len(dateCols) < 2 {
		return nil
	}

	birthCol, startCol := a.identifyTemporalColumns(ctx, run, dateCols)
	if birthCol == "" || startCol == "" || birthCol == startCol {
		return nil
	}

	var issues []models.Issue
	for i, row := range run.Dataset.Rows {
		birth, okB := parseAnyDate(row[birthCol])
		start, okS := parseAnyDate(row[startCol])
		if !okB || !okS {
			continue
		}
		// ISO strings compare chronologically.
		if start < birth {
			issues = append(issues, models.NewIssue(models.CategoryLogic, models.IssueTemporalParadox,
				models.IntPtr(i), startCol, dataset.CellString(row[startCol]), nil, 0.95,
				fmt.Sprintf("Job start %s predates birth date %s; the value cannot be right.", start, birth),
				"Compared two date fields of the same record; each is valid on its own."))
		}
	}
	return issues
}

// detectRangeInversions checks generic start/end and created/updated pairs.
func (a *LogicAgent) detectRangeInversions(run *Run) []models.Issue {
	dateCols := a.dateColumns(run)

	pairs := [][2]string{}
	if s, okS := firstMatch(dateCols, jobStartKeywords); okS {
		if e, okE := firstMatch(dateCols, endKeywords); okE && s != e {
			pairs = append(pairs, [2]string{s, e})
		}
	}
	if c, okC := firstMatch(dateCols, createdKeywords); okC {
		if u, okU := firstMatch(dateCols, updatedKeywords); okU && c != u {
			pairs = append(pairs, [2]string{c, u})
		}
	}

	var issues []models.Issue
	for _, pair := range pairs {
		startCol, endCol := pair[0], pair[1]
		for i, row := range run.Dataset.Rows {
			start, okS := parseAnyDate(row[startCol])
			end, okE := parseAnyDate(row[endCol])
			if !okS || !okE {
				continue
			}
			if end < start {
				issues = append(issues, models.NewIssue(models.CategoryLogic, models.IssueTemporalParadox,
					models.IntPtr(i), endCol, dataset.CellString(row[endCol]), nil, 0.90,
					fmt.Sprintf("%s (%s) is before %s (%s).", endCol, end, startCol, start),
					"Ordered paired date fields of the same record; each is valid on its own."))
			}
		}
	}
	return issues
}

// detectCityStateConflicts verifies each distinct city/state pairing once.
func (a *LogicAgent) detectCityStateConflicts(ctx context.Context, run *Run) []models.Issue {
	cityCol, hasCity := firstColumnMatching(run.Dataset.Columns, cityColumnKeywords)
	stateCol, hasState := firstColumnMatching(run.Dataset.Columns, stateColumnKeywords)
	if !hasCity || !hasState {
		return nil
	}

	var issues []models.Issue
	for i, row := range run.Dataset.Rows {
		city := strings.TrimSpace(dataset.CellString(row[cityCol]))
		state := strings.TrimSpace(dataset.CellString(row[stateCol]))
		if dataset.IsNullish(city) || dataset.IsNullish(state) {
			continue
		}

		verdict := a.verifyCityState(ctx, run, city, state)
		if verdict == nil || verdict.valid {
			continue
		}

		if verdict.correctState != "" {
			issues = append(issues, models.NewIssue(models.CategoryLogic, models.IssueCrossFieldConflict,
				models.IntPtr(i), stateCol, state, models.StringPtr(verdict.correctState), 0.85,
				fmt.Sprintf("City %q is not in %q; it is in %s.", city, state, verdict.correctState),
				"Checked the city/state pair as a pair, not each field in isolation."))
		} else {
			issues = append(issues, models.NewIssue(models.CategoryLogic, models.IssueCrossFieldConflict,
				models.IntPtr(i), stateCol, state, nil, 0.60,
				fmt.Sprintf("City %q does not appear to be in %q.", city, state),
				"Checked the city/state pair as a pair; no replacement was confident."))
		}
	}
	return issues
}

func (a *LogicAgent) verifyCityState(ctx context.Context, run *Run, city, state string) *cityStateVerdict {
	key := strings.ToLower(city) + "|" + strings.ToLower(state)
	if cached, ok := a.validityCache[key]; ok {
		return cached
	}

	response, err := run.LLM.Complete(ctx,
		[]llm.Message{llm.User(prompts.BuildCityStateValidityPrompt(city, state))},
		coldTemperature, defaultMaxTokens)
	if err != nil {
		return nil
	}
	parsed, err := llm.ParseResponse[struct {
		Valid        bool   `json:"valid"`
		CorrectState string `json:"correct_state"`
	}](response)
	if err != nil {
		a.validityCache[key] = &cityStateVerdict{valid: true}
		return a.validityCache[key]
	}

	verdict := &cityStateVerdict{
		valid:        parsed.Valid,
		correctState: strings.TrimSpace(parsed.CorrectState),
	}
	a.validityCache[key] = verdict
	return verdict
}

// identifyTemporalColumns asks the gateway which date columns hold birth
// dates and job starts, with a keyword fallback when it is unavailable.
func (a *LogicAgent) identifyTemporalColumns(ctx context.Context, run *Run, dateCols []string) (birthCol, startCol string) {
	samples := make(map[string][]string, len(dateCols))
	for _, col := range dateCols {
		var vals []string
		for _, row := range run.Dataset.Rows {
			if dataset.IsNullish(row[col]) {
				continue
			}
			vals = append(vals, dataset.CellString(row[col]))
			if len(vals) == 3 {
				break
			}
		}
		samples[col] = vals
	}

	response, err := run.LLM.Complete(ctx,
		[]llm.Message{llm.User(prompts.BuildTemporalColumnsPrompt(samples))},
		coldTemperature, defaultMaxTokens)
	if err == nil {
		parsed, perr := llm.ParseResponse[struct {
			BirthColumn *string `json:"birth_column"`
			StartColumn *string `json:"start_column"`
		}](response)
		if perr == nil {
			if parsed.BirthColumn != nil && containsString(dateCols, *parsed.BirthColumn) {
				birthCol = *parsed.BirthColumn
			}
			if parsed.StartColumn != nil && containsString(dateCols, *parsed.StartColumn) {
				startCol = *parsed.StartColumn
			}
		}
	}

	if birthCol == "" {
		birthCol, _ = firstMatch(dateCols, birthKeywords)
	}
	if startCol == "" {
		for _, col := range dateCols {
			if columnMatchesAny(col, jobStartKeywords) && !columnMatchesAny(col, birthKeywords) {
				startCol = col
				break
			}
		}
	}
	return birthCol, startCol
}

// dateColumns are keyword or profile matches, in stable order.
func (a *LogicAgent) dateColumns(run *Run) []string {
	var out []string
	for _, col := range run.Dataset.Columns {
		if columnMatchesAny(col, dateColumnKeywords) || run.Profiles[col].Type == models.ColumnTypeDate {
			out = append(out, col)
		}
	}
	sort.Strings(out)
	return out
}

func firstMatch(columns []string, keywords []string) (string, bool) {
	for _, col := range columns {
		if columnMatchesAny(col, keywords) {
			return col, true
		}
	}
	return "", false
}

// parseAnyDate reads a cell as an ISO day, accepting canonical values
// directly and normalizing everything else.
func parseAnyDate(v any) (string, bool) {
	s := strings.TrimSpace(dataset.CellString(v))
	if s == "" {
		return "", false
	}
	if normalize.IsISODate(s) {
		return s, true
	}
	iso, _, ok := normalize.ParseDate(s)
	return iso, ok
}
