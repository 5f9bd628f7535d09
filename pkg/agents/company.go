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
	"github.com/Vikram2406/Hackathon-DQ/pkg/prompts"
)

var companyColumnKeywords = []string{
	"company", "organisation", "organization", "org", "corp", "firm", "employer", "business",
}

// columns that merely contain a company keyword substring but are clearly
// something else
var companyExcludedKeywords = []string{
	"height", "weight", "length", "width", "distance", "size", "measurement",
	"city", "state", "country", "address", "street",
	"email", "phone", "date", "time", "birth", "age", "id", "number",
}

// Mail providers that say nothing about an employer.
var genericEmailDomains = map[string]struct{}{
	"gmail.com": {}, "yahoo.com": {}, "hotmail.com": {}, "outlook.com": {},
	"icloud.com": {}, "mail.com": {}, "protonmail.com": {}, "aol.com": {},
	"live.com": {}, "msn.com": {}, "ymail.com": {}, "gmx.com": {},
	"zoho.com": {}, "fastmail.com": {},
}

// CompanyValidationAgent cross-checks company cells against corporate email
// domains, then canonicalizes spelling variants across the column. Rows with
// generic mail providers carry no employer signal and sit out both passes.
type CompanyValidationAgent struct {
	domainCache map[string]*string
}

func NewCompanyValidationAgent() *CompanyValidationAgent {
	return &CompanyValidationAgent{domainCache: make(map[string]*string)}
}

func (a *CompanyValidationAgent) Name() string { return models.CategoryCompanyValidation }

func (a *CompanyValidationAgent) Detect(ctx context.Context, run *Run) ([]models.Issue, error) {
	companyCol, ok := a.companyColumn(run.Dataset.Columns)
	if !ok {
		return nil, nil
	}
	emailCol, hasEmail := a.emailColumn(run)

	var issues []models.Issue
	flagged := make(map[int]struct{})
	generic := make(map[int]struct{})

	if hasEmail {
		mismatches, genericRows := a.detectDomainMismatches(ctx, run, companyCol, emailCol)
		generic = genericRows
		for _, iss := range mismatches {
			flagged[*iss.RowID] = struct{}{}
		}
		issues = append(issues, mismatches...)
	}

	issues = append(issues, a.canonicalize(ctx, run, companyCol, flagged, generic)...)

	run.Logger.Info("company validation finished",
		zap.String("column", companyCol),
		zap.Int("issues", len(issues)))
	return issues, nil
}

func (a *CompanyValidationAgent) companyColumn(columns []string) (string, bool) {
	for _, col := range columns {
		if columnMatchesAny(col, companyColumnKeywords) && !columnMatchesAny(col, companyExcludedKeywords) {
			return col, true
		}
	}
	return "", false
}

func (a *CompanyValidationAgent) emailColumn(run *Run) (string, bool) {
	for _, col := range run.Dataset.Columns {
		if columnMatchesAny(col, emailColumnKeywords) || run.Profiles[col].Type == models.ColumnTypeEmail {
			return col, true
		}
	}
	return "", false
}

// detectDomainMismatches infers each corporate domain's employer and flags
// company cells that disagree. The second return is the set of rows whose
// email uses a generic provider; those are excluded from all company
// validation.
func (a *CompanyValidationAgent) detectDomainMismatches(ctx context.Context, run *Run, companyCol, emailCol string) ([]models.Issue, map[int]struct{}) {
	type occurrence struct {
		row     int
		company string
	}
	byDomain := make(map[string][]occurrence)
	generic := make(map[int]struct{})

	for i, row := range run.Dataset.Rows {
		email := strings.ToLower(strings.TrimSpace(dataset.CellString(row[emailCol])))
		at := strings.LastIndex(email, "@")
		if at < 0 || at+1 >= len(email) {
			continue
		}
		domain := email[at+1:]
		if _, isGeneric := genericEmailDomains[domain]; isGeneric {
			generic[i] = struct{}{}
			continue
		}
		company := strings.TrimSpace(dataset.CellString(row[companyCol]))
		if dataset.IsNullish(company) {
			continue
		}
		byDomain[domain] = append(byDomain[domain], occurrence{row: i, company: company})
	}

	domains := make([]string, 0, len(byDomain))
	for d := range byDomain {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	var issues []models.Issue
	for _, domain := range domains {
		occurrences := byDomain[domain]

		expected := a.companyForDomain(ctx, run, domain)
		if expected == nil {
			// Degraded path: a majority vote among rows sharing the domain
			// still catches the outliers, but needs at least two rows.
			if len(occurrences) < 2 {
				continue
			}
			companies := make([]string, len(occurrences))
			for i, occ := range occurrences {
				companies[i] = occ.company
			}
			expected = models.StringPtr(majorityCompany(companies))
		}

		root := domainRoot(domain)
		for _, occ := range occurrences {
			if normalizeCompany(occ.company) == normalizeCompany(*expected) {
				continue
			}
			issues = append(issues, models.NewIssue(models.CategoryCompanyValidation, models.IssueCompanyMismatch,
				models.IntPtr(occ.row), companyCol, occ.company, expected, 0.95,
				fmt.Sprintf("Email domain %s (%s) implies employer %q, not %q.", domain, root, *expected, occ.company),
				"Inferred the employer from the corporate email domain and compared it with the cell."))
		}
	}
	return issues, generic
}

// companyForDomain resolves the employer behind a corporate domain through
// the gateway, cached per distinct domain. Nil means unavailable or unknown.
func (a *CompanyValidationAgent) companyForDomain(ctx context.Context, run *Run, domain string) *string {
	if cached, ok := a.domainCache[domain]; ok {
		return cached
	}

	response, err := run.LLM.Complete(ctx,
		[]llm.Message{llm.User(prompts.BuildCompanyFromDomainPrompt(domain))},
		defaultTemperature, defaultMaxTokens)
	if err != nil {
		return nil
	}

	parsed, err := llm.ParseResponse[struct {
		Company *string `json:"company"`
	}](response)
	if err != nil || parsed.Company == nil {
		a.domainCache[domain] = nil
		return nil
	}
	company := strings.TrimSpace(*parsed.Company)
	if company == "" {
		a.domainCache[domain] = nil
		return nil
	}
	a.domainCache[domain] = &company
	return &company
}

// canonicalize groups spelling variants of the same company and suggests the
// canonical name for every deviating occurrence. Rows already flagged by the
// domain pass and rows with generic mail providers are skipped.
func (a *CompanyValidationAgent) canonicalize(ctx context.Context, run *Run, companyCol string, alreadyFlagged, generic map[int]struct{}) []models.Issue {
	counts := make(map[string]int)
	for i, row := range run.Dataset.Rows {
		if _, skip := generic[i]; skip {
			continue
		}
		v := strings.TrimSpace(dataset.CellString(row[companyCol]))
		if dataset.IsNullish(v) {
			continue
		}
		counts[v]++
	}

	groups := groupCompanyVariants(counts)
	if len(groups) == 0 {
		return nil
	}

	canonical := a.resolveCanonical(ctx, run, groups, counts)

	var issues []models.Issue
	for i, row := range run.Dataset.Rows {
		if _, skip := alreadyFlagged[i]; skip {
			continue
		}
		if _, skip := generic[i]; skip {
			continue
		}
		v := strings.TrimSpace(dataset.CellString(row[companyCol]))
		if dataset.IsNullish(v) {
			continue
		}
		want, ok := canonical[v]
		if !ok || want == v {
			continue
		}
		issues = append(issues, models.NewIssue(models.CategoryCompanyValidation, models.IssueCompanyValidation,
			models.IntPtr(i), companyCol, v, models.StringPtr(want), 0.85,
			fmt.Sprintf("%q is a spelling variant of %q.", v, want),
			"Clustered spelling variants across the whole column; no single row reveals them."))
	}
	return issues
}

// resolveCanonical asks the gateway to pick canonical names, falling back
// to the longest then most frequent variant per group.
func (a *CompanyValidationAgent) resolveCanonical(ctx context.Context, run *Run, groups [][]string, counts map[string]int) map[string]string {
	canonical := make(map[string]string)

	response, err := run.LLM.Complete(ctx,
		[]llm.Message{llm.User(prompts.BuildCompanyCanonicalPrompt(groups))},
		defaultTemperature, mappingMaxTokens)
	if err == nil {
		parsed, perr := llm.ParseResponse[struct {
			Canonical map[string]string `json:"canonical"`
		}](response)
		if perr == nil && len(parsed.Canonical) > 0 {
			for _, group := range groups {
				for _, variant := range group {
					if want, ok := parsed.Canonical[variant]; ok && strings.TrimSpace(want) != "" {
						canonical[variant] = strings.TrimSpace(want)
					}
				}
			}
		}
	}

	// Deterministic fallback for anything the model did not cover: prefer
	// the longest spelling, then the most frequent.
	for _, group := range groups {
		best := group[0]
		for _, variant := range group[1:] {
			if len(variant) > len(best) || (len(variant) == len(best) && counts[variant] > counts[best]) {
				best = variant
			}
		}
		for _, variant := range group {
			if _, done := canonical[variant]; !done {
				canonical[variant] = best
			}
		}
	}
	return canonical
}

// groupCompanyVariants clusters distinct company spellings that normalize to
// the same key. Only groups with real variation survive.
func groupCompanyVariants(counts map[string]int) [][]string {
	byKey := make(map[string][]string)
	for v := range counts {
		key := normalizeCompany(v)
		if key == "" {
			continue
		}
		byKey[key] = append(byKey[key], v)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var groups [][]string
	for _, k := range keys {
		variants := byKey[k]
		if len(variants) < 2 {
			continue
		}
		sort.Strings(variants)
		groups = append(groups, variants)
	}
	return groups
}

var companySuffixes = []string{"inc", "incorporated", "corp", "corporation", "ltd", "limited", "llc", "co", "company"}

// normalizeCompany reduces a company name to its comparable core: lowercase,
// punctuation stripped, legal suffixes dropped.
func normalizeCompany(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}
	fields := strings.Fields(b.String())
	for len(fields) > 1 {
		last := fields[len(fields)-1]
		isSuffix := false
		for _, s := range companySuffixes {
			if last == s {
				isSuffix = true
				break
			}
		}
		if !isSuffix {
			break
		}
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

// domainRoot extracts the name part of a domain: "acme.io" yields "acme".
func domainRoot(domain string) string {
	root, _, _ := strings.Cut(domain, ".")
	return root
}

// majorityCompany picks the most frequent spelling, ties broken by length
// (longer wins) then lexicographically.
func majorityCompany(companies []string) string {
	counts := make(map[string]int)
	for _, c := range companies {
		counts[c]++
	}
	best := ""
	for c, n := range counts {
		switch {
		case best == "",
			n > counts[best],
			n == counts[best] && len(c) > len(best),
			n == counts[best] && len(c) == len(best) && c < best:
			best = c
		}
	}
	return best
}
