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

var (
	dateColumnKeywords  = []string{"date", "time", "created", "updated", "timestamp", "dob", "birth", "start", "end"}
	phoneColumnKeywords = []string{"phone", "tel", "mobile", "cell"}
)

var usCountryNames = map[string]struct{}{
	"us": {}, "usa": {}, "america": {},
	"united states": {}, "united states of america": {},
}

var indiaCountryNames = map[string]struct{}{
	"in": {}, "india": {}, "bharat": {},
}

// FormattingAgent standardizes dates to ISO and phone numbers to their
// country's convention. The country for a phone comes from, in priority
// order: the row's country column, a dial prefix in the value itself, a
// location lookup through the gateway, and the column's detected hint.
type FormattingAgent struct {
	countryCodeCache map[string]*string
}

func NewFormattingAgent() *FormattingAgent {
	return &FormattingAgent{countryCodeCache: make(map[string]*string)}
}

func (a *FormattingAgent) Name() string { return models.CategoryFormatting }

func (a *FormattingAgent) Detect(ctx context.Context, run *Run) ([]models.Issue, error) {
	issues := a.detectDates(ctx, run)
	issues = append(issues, a.detectPhones(ctx, run)...)

	run.Logger.Info("formatting finished", zap.Int("issues", len(issues)))
	return issues, nil
}

func (a *FormattingAgent) detectDates(ctx context.Context, run *Run) []models.Issue {
	var issues []models.Issue
	for _, col := range run.Dataset.Columns {
		if !columnMatchesAny(col, dateColumnKeywords) && run.Profiles[col].Type != models.ColumnTypeDate {
			continue
		}
		for i, row := range run.Dataset.Rows {
			if dataset.IsNullish(row[col]) {
				continue
			}
			value := strings.TrimSpace(dataset.CellString(row[col]))
			if normalize.IsISODate(value) {
				continue
			}

			if iso, conf, ok := normalize.ParseDate(value); ok {
				issues = append(issues, models.NewIssue(models.CategoryFormatting, models.IssueDateFormatting,
					models.IntPtr(i), col, value, models.StringPtr(iso), conf,
					fmt.Sprintf("Date %q is not in ISO format; parsed to %s.", value, iso),
					"Recognized a non-ISO layout from the value itself."))
				continue
			}

			if iso, ok := a.llmDateFix(ctx, run, value); ok {
				issues = append(issues, models.NewIssue(models.CategoryFormatting, models.IssueDateFormatting,
					models.IntPtr(i), col, value, models.StringPtr(iso), 0.70,
					fmt.Sprintf("Date %q could not be parsed mechanically; interpreted as %s.", value, iso),
					"The model read a date the layout table could not."))
			}
		}
	}
	return issues
}

func (a *FormattingAgent) detectPhones(ctx context.Context, run *Run) []models.Issue {
	var issues []models.Issue

	cityCol, hasCity := firstColumnMatching(run.Dataset.Columns, cityColumnKeywords)
	stateCol, hasState := firstColumnMatching(run.Dataset.Columns, stateColumnKeywords)
	countryCol, hasCountry := firstColumnMatching(run.Dataset.Columns, countryColumnKeywords)

	for _, col := range run.Dataset.Columns {
		if !columnMatchesAny(col, phoneColumnKeywords) && run.Profiles[col].Type != models.ColumnTypePhone {
			continue
		}
		hint := run.Profiles[col].PhoneCountry

		for i, row := range run.Dataset.Rows {
			if dataset.IsNullish(row[col]) {
				continue
			}
			value := strings.TrimSpace(dataset.CellString(row[col]))

			country := a.resolveCountry(ctx, run, row, value, hint,
				countryCol, hasCountry, cityCol, hasCity, stateCol, hasState)

			formatted, conf, ok := normalize.NormalizePhone(value, country)
			if !ok {
				if fixed, fixOK := a.llmPhoneFix(ctx, run, value, country); fixOK {
					issues = append(issues, models.NewIssue(models.CategoryFormatting, models.IssuePhoneNormalization,
						models.IntPtr(i), col, value, models.StringPtr(fixed), 0.70,
						fmt.Sprintf("Phone %q could not be parsed mechanically; formatted for %s.", value, country),
						"The model formatted a number the normalizer could not parse."))
				}
				continue
			}
			if formatted == value {
				continue
			}
			issues = append(issues, models.NewIssue(models.CategoryFormatting, models.IssuePhoneNormalization,
				models.IntPtr(i), col, value, models.StringPtr(formatted), conf,
				fmt.Sprintf("Phone %q is not in the %s convention.", value, country),
				"Country resolved from the row's location fields, not from the number alone."))
		}
	}
	return issues
}

// resolveCountry applies the country priority chain for one phone value.
func (a *FormattingAgent) resolveCountry(ctx context.Context, run *Run, row dataset.Row, value, hint string,
	countryCol string, hasCountry bool, cityCol string, hasCity bool, stateCol string, hasState bool) string {

	// 1. Explicit country column.
	if hasCountry && !dataset.IsNullish(row[countryCol]) {
		if code, ok := countryNameToCode(dataset.CellString(row[countryCol])); ok {
			return code
		}
	}

	// 2. Dial prefix in the value itself.
	cleaned := strings.ReplaceAll(strings.ReplaceAll(value, " ", ""), "-", "")
	if strings.HasPrefix(cleaned, "+91") {
		return "IN"
	}
	if strings.HasPrefix(cleaned, "+1") {
		return "US"
	}

	// 3. Location lookup, city first, then state.
	if hasCity && !dataset.IsNullish(row[cityCol]) {
		if code := a.countryCodeForPlace(ctx, run, dataset.CellString(row[cityCol]), ""); code != "" {
			return code
		}
	} else if hasState && !dataset.IsNullish(row[stateCol]) {
		if code := a.countryCodeForPlace(ctx, run, "", dataset.CellString(row[stateCol])); code != "" {
			return code
		}
	}

	// 4. The column-level hint from the analyzer.
	if hint != "" {
		return hint
	}
	return "US"
}

func (a *FormattingAgent) countryCodeForPlace(ctx context.Context, run *Run, city, state string) string {
	key := strings.ToLower(city + "|" + state)
	if cached, ok := a.countryCodeCache[key]; ok {
		if cached == nil {
			return ""
		}
		return *cached
	}

	response, err := run.LLM.Complete(ctx,
		[]llm.Message{llm.User(prompts.BuildPhoneCountryPrompt(city, state))},
		defaultTemperature, defaultMaxTokens)
	if err != nil {
		return ""
	}

	parsed, err := llm.ParseResponse[struct {
		CountryCode *string `json:"country_code"`
	}](response)
	if err != nil || parsed.CountryCode == nil {
		a.countryCodeCache[key] = nil
		return ""
	}

	code := strings.ToUpper(strings.TrimSpace(*parsed.CountryCode))
	if len(code) != 2 {
		a.countryCodeCache[key] = nil
		return ""
	}
	a.countryCodeCache[key] = &code
	return code
}

func (a *FormattingAgent) llmDateFix(ctx context.Context, run *Run, value string) (string, bool) {
	response, err := run.LLM.Complete(ctx,
		[]llm.Message{llm.User(prompts.BuildDateFixPrompt(value))},
		defaultTemperature, defaultMaxTokens)
	if err != nil {
		return "", false
	}
	parsed, err := llm.ParseResponse[struct {
		Date *string `json:"date"`
	}](response)
	if err != nil || parsed.Date == nil {
		return "", false
	}
	iso := strings.TrimSpace(*parsed.Date)
	if !normalize.IsISODate(iso) {
		return "", false
	}
	return iso, true
}

func (a *FormattingAgent) llmPhoneFix(ctx context.Context, run *Run, value, country string) (string, bool) {
	response, err := run.LLM.Complete(ctx,
		[]llm.Message{llm.User(prompts.BuildPhoneFixPrompt(value, country))},
		defaultTemperature, defaultMaxTokens)
	if err != nil {
		return "", false
	}
	parsed, err := llm.ParseResponse[struct {
		Phone *string `json:"phone"`
	}](response)
	if err != nil || parsed.Phone == nil {
		return "", false
	}
	fixed := strings.TrimSpace(*parsed.Phone)
	if fixed == "" {
		return "", false
	}

	// Indian numbers never carry brackets; re-normalize whatever shape the
	// model produced.
	if country == "IN" {
		if renormalized, _, ok := normalize.NormalizePhone(fixed, "IN"); ok {
			fixed = renormalized
		}
	}
	return fixed, true
}

// countryNameToCode maps a country cell to a 2-letter code. Unknown
// spellings that are already 2 letters pass through uppercased.
func countryNameToCode(value string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if _, ok := usCountryNames[v]; ok {
		return "US", true
	}
	if _, ok := indiaCountryNames[v]; ok {
		return "IN", true
	}
	if len(v) == 2 && isAlpha(v) {
		return strings.ToUpper(v), true
	}
	return "", false
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
