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

var (
	cityColumnKeywords    = []string{"city", "town", "location", "place"}
	stateColumnKeywords   = []string{"state", "province", "region", "territory", "district", "county"}
	countryColumnKeywords = []string{"country", "nation", "nationality"}
)

// house numbers glued onto state values, e.g. "4521 Texas"
var leadingNumberPattern = regexp.MustCompile(`^\d+\s+`)

// GeographicEnrichmentAgent fills missing states and countries from city
// names and flags values that contradict the geography. Lookups are cached
// per distinct value so a thousand "Austin" rows cost one question.
type GeographicEnrichmentAgent struct {
	stateCache   map[string]*string
	countryCache map[string]*string
}

func NewGeographicEnrichmentAgent() *GeographicEnrichmentAgent {
	return &GeographicEnrichmentAgent{
		stateCache:   make(map[string]*string),
		countryCache: make(map[string]*string),
	}
}

func (a *GeographicEnrichmentAgent) Name() string { return models.CategoryGeographicEnrichment }

func (a *GeographicEnrichmentAgent) Detect(ctx context.Context, run *Run) ([]models.Issue, error) {
	cityCol, hasCity := firstColumnMatching(run.Dataset.Columns, cityColumnKeywords)
	stateCol, hasState := firstColumnMatching(run.Dataset.Columns, stateColumnKeywords)
	countryCol, hasCountry := firstColumnMatching(run.Dataset.Columns, countryColumnKeywords)

	if !hasCity {
		return nil, nil
	}

	var issues []models.Issue
	for i, row := range run.Dataset.Rows {
		city := strings.TrimSpace(dataset.CellString(row[cityCol]))
		if dataset.IsNullish(city) {
			continue
		}
		rowID := models.IntPtr(i)

		if hasState {
			issues = append(issues, a.checkState(ctx, run, rowID, stateCol, city, row)...)
		}
		if hasCountry {
			issues = append(issues, a.checkCountry(ctx, run, rowID, countryCol, stateCol, hasState, city, row)...)
		}
	}

	run.Logger.Info("geographic enrichment finished",
		zap.Bool("state_column", hasState),
		zap.Bool("country_column", hasCountry),
		zap.Int("issues", len(issues)))
	return issues, nil
}

func (a *GeographicEnrichmentAgent) checkState(ctx context.Context, run *Run, rowID *int, stateCol, city string, row dataset.Row) []models.Issue {
	current := dataset.CellString(row[stateCol])

	if dataset.IsNullish(current) {
		expected, available := a.stateForCity(ctx, run, city)
		if !available {
			marker := fmt.Sprintf("[AI failed - please verify state for city '%s']", city)
			return []models.Issue{models.NewIssue(models.CategoryGeographicEnrichment, models.IssueMissingState,
				rowID, stateCol, current, models.StringPtr(marker), 0.40,
				fmt.Sprintf("State is missing and the lookup for city %q was unavailable.", city),
				"City-to-state inference was attempted but the model was unreachable.")}
		}
		if expected == nil {
			return nil
		}
		return []models.Issue{models.NewIssue(models.CategoryGeographicEnrichment, models.IssueMissingState,
			rowID, stateCol, current, models.StringPtr(*expected), 0.85,
			fmt.Sprintf("State is missing; city %q is in %s.", city, *expected),
			"Inferred the state from the city, a cross-field relationship no format rule sees.")}
	}

	expected, available := a.stateForCity(ctx, run, city)
	if !available || expected == nil {
		return nil
	}
	if normalizeGeoValue(current) != normalizeGeoValue(*expected) {
		return []models.Issue{models.NewIssue(models.CategoryGeographicEnrichment, models.IssueIncorrectState,
			rowID, stateCol, current, models.StringPtr(*expected), 0.90,
			fmt.Sprintf("City %q is in %s, not %q.", city, *expected, current),
			"Cross-checked the state against where the city actually is.")}
	}
	return nil
}

func (a *GeographicEnrichmentAgent) checkCountry(ctx context.Context, run *Run, rowID *int, countryCol, stateCol string, hasState bool, city string, row dataset.Row) []models.Issue {
	current := dataset.CellString(row[countryCol])
	state := ""
	if hasState {
		state = strings.TrimSpace(dataset.CellString(row[stateCol]))
	}
	// The state the city is actually in outranks the row's own state value,
	// so a wrong state never drags the country check down with it. The
	// lookup is cached, already warm after checkState.
	if corrected, available := a.stateForCity(ctx, run, city); available && corrected != nil {
		state = *corrected
	}

	if dataset.IsNullish(current) {
		// Prefer the state for the lookup; fall back to the city.
		if state != "" && !dataset.IsNullish(state) {
			expected, available := a.countryForState(ctx, run, state)
			if available && expected != nil {
				return []models.Issue{models.NewIssue(models.CategoryGeographicEnrichment, models.IssueMissingCountry,
					rowID, countryCol, current, models.StringPtr(*expected), 0.85,
					fmt.Sprintf("Country is missing; state %q is in %s.", state, *expected),
					"Inferred the country from the state, not from the cell itself.")}
			}
		}
		expected, available := a.countryForCity(ctx, run, city)
		if !available {
			marker := fmt.Sprintf("[AI failed - please verify country for city '%s']", city)
			return []models.Issue{models.NewIssue(models.CategoryGeographicEnrichment, models.IssueMissingCountry,
				rowID, countryCol, current, models.StringPtr(marker), 0.40,
				fmt.Sprintf("Country is missing and the lookup for city %q was unavailable.", city),
				"City-to-country inference was attempted but the model was unreachable.")}
		}
		if expected == nil {
			return nil
		}
		return []models.Issue{models.NewIssue(models.CategoryGeographicEnrichment, models.IssueMissingCountry,
			rowID, countryCol, current, models.StringPtr(*expected), 0.75,
			fmt.Sprintf("Country is missing; city %q is in %s.", city, *expected),
			"Inferred the country from the city alone; no usable state was available.")}
	}

	if state == "" || dataset.IsNullish(state) {
		return nil
	}
	expected, available := a.countryForState(ctx, run, state)
	if !available || expected == nil {
		return nil
	}
	if normalizeGeoValue(current) != normalizeGeoValue(*expected) {
		return []models.Issue{models.NewIssue(models.CategoryGeographicEnrichment, models.IssueIncorrectCountry,
			rowID, countryCol, current, models.StringPtr(*expected), 0.85,
			fmt.Sprintf("State %q is in %s, not %q.", state, *expected, current),
			"Derived the country from the state the city is actually in.")}
	}
	return nil
}

// stateForCity resolves a city's state through the gateway, caching per
// distinct city. The second return is false when the gateway was
// unavailable for this city.
func (a *GeographicEnrichmentAgent) stateForCity(ctx context.Context, run *Run, city string) (*string, bool) {
	key := strings.ToLower(city) + "_state"
	if cached, ok := a.stateCache[key]; ok {
		return cached, true
	}

	response, err := run.LLM.Complete(ctx,
		[]llm.Message{llm.User(prompts.BuildCityStatePrompt(city, ""))},
		defaultTemperature, defaultMaxTokens)
	if err != nil {
		return nil, false
	}

	parsed, err := llm.ParseResponse[struct {
		State *string `json:"state"`
	}](response)
	if err != nil {
		a.stateCache[key] = nil
		return nil, true
	}
	result := cleanGeoAnswer(parsed.State)
	a.stateCache[key] = result
	return result, true
}

func (a *GeographicEnrichmentAgent) countryForState(ctx context.Context, run *Run, state string) (*string, bool) {
	key := strings.ToLower(state) + "_country"
	if cached, ok := a.countryCache[key]; ok {
		return cached, true
	}

	response, err := run.LLM.Complete(ctx,
		[]llm.Message{llm.User(prompts.BuildStateCountryPrompt(state))},
		defaultTemperature, defaultMaxTokens)
	if err != nil {
		return nil, false
	}

	parsed, err := llm.ParseResponse[struct {
		Country *string `json:"country"`
	}](response)
	if err != nil {
		a.countryCache[key] = nil
		return nil, true
	}
	result := cleanGeoAnswer(parsed.Country)
	a.countryCache[key] = result
	return result, true
}

func (a *GeographicEnrichmentAgent) countryForCity(ctx context.Context, run *Run, city string) (*string, bool) {
	key := strings.ToLower(city) + "_city_country"
	if cached, ok := a.countryCache[key]; ok {
		return cached, true
	}

	response, err := run.LLM.Complete(ctx,
		[]llm.Message{llm.User(prompts.BuildCityCountryPrompt(city))},
		defaultTemperature, defaultMaxTokens)
	if err != nil {
		return nil, false
	}

	parsed, err := llm.ParseResponse[struct {
		Country *string `json:"country"`
	}](response)
	if err != nil {
		a.countryCache[key] = nil
		return nil, true
	}
	result := cleanGeoAnswer(parsed.Country)
	a.countryCache[key] = result
	return result, true
}

// cleanGeoAnswer trims a model answer and drops non-answers.
func cleanGeoAnswer(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" || strings.EqualFold(trimmed, "unknown") || strings.EqualFold(trimmed, "null") {
		return nil
	}
	return &trimmed
}

// normalizeGeoValue makes state/country values comparable: strip a glued
// house number, collapse whitespace, lowercase.
func normalizeGeoValue(s string) string {
	s = leadingNumberPattern.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
