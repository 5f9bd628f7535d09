package prompts

import (
	"fmt"
	"strings"
)

// Every builder elicits a strict JSON answer so responses survive the
// gateway's brace extraction even when the model adds prose around them.

// BuildEmailFixPrompt asks for a corrected email address. The dataset's
// dominant provider steers domain guesses toward what the data shows.
func BuildEmailFixPrompt(value, commonProvider, context string) string {
	var b strings.Builder
	b.WriteString("Fix this invalid email address.\n\n")
	fmt.Fprintf(&b, "Invalid email: %q\n", value)
	if commonProvider != "" {
		fmt.Fprintf(&b, "Most common provider in this dataset: %s\n", commonProvider)
	}
	if context != "" {
		fmt.Fprintf(&b, "Context: %s\n", context)
	}
	b.WriteString("\nRespond with JSON only: {\"email\": \"<fixed address>\", \"confidence\": <0..1>}\n")
	b.WriteString("If the value cannot be repaired into a plausible address, use {\"email\": null}.")
	return b.String()
}

// BuildCityStatePrompt asks which state or province a city belongs to.
func BuildCityStatePrompt(city, country string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Which state or province is the city %q in", city)
	if country != "" {
		fmt.Fprintf(&b, " (country: %s)", country)
	}
	b.WriteString("?\n\nRespond with JSON only: {\"state\": \"<name>\"}. Use {\"state\": null} if unknown or ambiguous.")
	return b.String()
}

// BuildStateCountryPrompt asks which country a state belongs to.
func BuildStateCountryPrompt(state string) string {
	return fmt.Sprintf("Which country is the state or province %q in?\n\n"+
		"Respond with JSON only: {\"country\": \"<name>\"}. Use {\"country\": null} if unknown.", state)
}

// BuildCityCountryPrompt asks which country a city belongs to.
func BuildCityCountryPrompt(city string) string {
	return fmt.Sprintf("Which country is the city %q in?\n\n"+
		"Respond with JSON only: {\"country\": \"<name>\"}. Use {\"country\": null} if unknown or ambiguous.", city)
}

// BuildPhoneCountryPrompt resolves the ISO country for phone formatting from
// location hints. City beats state when both are present.
func BuildPhoneCountryPrompt(city, state string) string {
	var b strings.Builder
	b.WriteString("Determine the 2-letter ISO country code for this location:\n")
	if city != "" {
		fmt.Fprintf(&b, "City: %s\n", city)
	}
	if state != "" {
		fmt.Fprintf(&b, "State: %s\n", state)
	}
	b.WriteString("\nRespond with JSON only: {\"country_code\": \"US\"}. Use {\"country_code\": null} if unknown.")
	return b.String()
}

// BuildDateFixPrompt asks for an ISO rendering of an unparseable date.
func BuildDateFixPrompt(value string) string {
	return fmt.Sprintf("Convert this date to ISO format (YYYY-MM-DD): %q\n\n"+
		"Respond with JSON only: {\"date\": \"YYYY-MM-DD\", \"confidence\": <0..1>}. "+
		"Use {\"date\": null} if it is not a real date.", value)
}

// BuildPhoneFixPrompt asks for a formatted phone number when the
// deterministic normalizer gave up.
func BuildPhoneFixPrompt(value, country string) string {
	return fmt.Sprintf("Format this phone number for country %s: %q\n\n"+
		"Respond with JSON only: {\"phone\": \"<formatted>\", \"confidence\": <0..1>}. "+
		"Use {\"phone\": null} if it is not a phone number.", country, value)
}

// BuildCompanyFromDomainPrompt asks which company owns a corporate email
// domain.
func BuildCompanyFromDomainPrompt(domain string) string {
	return fmt.Sprintf("Which company does the email domain %q belong to?\n\n"+
		"Respond with JSON only: {\"company\": \"<official company name>\"}. "+
		"Use {\"company\": null} if the domain is a generic mail provider or you are not sure.", domain)
}

// BuildCompanyCanonicalPrompt picks the canonical name for each group of
// company spelling variants. Full names are preferred over abbreviations.
func BuildCompanyCanonicalPrompt(groups [][]string) string {
	var b strings.Builder
	b.WriteString("These company names appear with inconsistent spellings. ")
	b.WriteString("For each group, choose the single canonical name, preferring the full official name over abbreviations.\n\n")
	for i, group := range groups {
		fmt.Fprintf(&b, "Group %d: %s\n", i+1, strings.Join(group, " | "))
	}
	b.WriteString("\nRespond with JSON only: {\"canonical\": {\"<variant>\": \"<canonical name>\", ...}} covering every variant.")
	return b.String()
}

// BuildCategoryMappingPrompt maps suspected typos onto the allowed
// category labels.
func BuildCategoryMappingPrompt(column string, typos, allowed []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Column %q holds categorical labels. The allowed values are:\n%s\n\n",
		column, strings.Join(allowed, ", "))
	fmt.Fprintf(&b, "Map each of these suspected typos to an allowed value:\n%s\n\n",
		strings.Join(typos, ", "))
	b.WriteString("Respond with JSON only: {\"mapping\": {\"<typo>\": \"<allowed value>\", ...}}. ")
	b.WriteString("Skip entries you cannot map confidently.")
	return b.String()
}

// BuildUnitParsePrompt extracts a measurement from a value the regex parser
// could not read.
func BuildUnitParsePrompt(column, value, targetUnit string) string {
	return fmt.Sprintf("Column %q holds measurements. Parse this value and convert it to %s: %q\n\n"+
		"Respond with JSON only: {\"value\": <number>, \"unit\": \"%s\", \"confidence\": <0..1>}. "+
		"Use {\"value\": null} if it is not a measurement.", column, targetUnit, value, targetUnit)
}

// BuildImputationPrompt proposes a fill for a missing cell from the rest of
// the row.
func BuildImputationPrompt(column string, context map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A record is missing its %q value. The rest of the record:\n", column)
	for k, v := range context {
		fmt.Fprintf(&b, "  %s: %s\n", k, v)
	}
	b.WriteString("\nInfer the missing value only if the other fields clearly imply it.\n")
	b.WriteString("Respond with JSON only: {\"value\": \"<inferred>\", \"confidence\": <0..1>} or {\"value\": null}.")
	return b.String()
}

// BuildEntityCanonicalPrompt picks a canonical spelling for a group of
// near-duplicate entity names.
func BuildEntityCanonicalPrompt(column string, variants []string) string {
	return fmt.Sprintf("Column %q contains variants of the same entity:\n%s\n\n"+
		"Respond with JSON only: {\"canonical\": \"<best spelling>\"}. "+
		"Use {\"canonical\": null} if they are actually different entities.",
		column, strings.Join(variants, " | "))
}

// BuildTemporalColumnsPrompt identifies birth-date and job-start columns
// from names and samples.
func BuildTemporalColumnsPrompt(columns map[string][]string) string {
	var b strings.Builder
	b.WriteString("Identify which of these date columns is a birth date and which is a job start date.\n\n")
	for col, samples := range columns {
		fmt.Fprintf(&b, "%s: %s\n", col, strings.Join(samples, ", "))
	}
	b.WriteString("\nRespond with JSON only: {\"birth_column\": \"<name or null>\", \"start_column\": \"<name or null>\"}.")
	return b.String()
}

// BuildCityStateValidityPrompt checks whether a city/state pair is real.
func BuildCityStateValidityPrompt(city, state string) string {
	return fmt.Sprintf("Is the city %q actually located in the state or province %q?\n\n"+
		"Respond with JSON only: {\"valid\": true|false, \"correct_state\": \"<state the city is in, if invalid>\"}.",
		city, state)
}

// BuildExtractionPrompt pulls structured fields out of free text.
func BuildExtractionPrompt(column, value string) string {
	return fmt.Sprintf("Extract any email address or URL embedded in this %q value: %q\n\n"+
		"Respond with JSON only: {\"field\": \"email\"|\"url\", \"value\": \"<extracted>\"} "+
		"or {\"field\": null} if nothing is embedded.", column, value)
}
