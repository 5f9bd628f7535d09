package analyzer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Vikram2406/Hackathon-DQ/pkg/dataset"
	"github.com/Vikram2406/Hackathon-DQ/pkg/models"
	"github.com/Vikram2406/Hackathon-DQ/pkg/normalize"
)

// Type-detection thresholds over the sampled non-null values. The first
// rule that clears its threshold wins, in this order.
const (
	emailThreshold   = 0.5
	phoneThreshold   = 0.3
	dateThreshold    = 0.3
	numericThreshold = 0.7
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^[+]?[\d\s\-().]{7,}$`)
)

// Analyzer infers a semantic type per column from a bounded sample.
type Analyzer struct {
	sampleLimit int
	logger      *zap.Logger
}

// New creates an analyzer that inspects at most sampleLimit rows per column.
func New(sampleLimit int, logger *zap.Logger) *Analyzer {
	if sampleLimit < 1 {
		sampleLimit = 1000
	}
	return &Analyzer{
		sampleLimit: sampleLimit,
		logger:      logger.Named("analyzer"),
	}
}

// Profile classifies every column of the dataset.
func (a *Analyzer) Profile(ds *dataset.Dataset) map[string]models.ColumnProfile {
	profiles := make(map[string]models.ColumnProfile, len(ds.Columns))
	for _, col := range ds.Columns {
		profiles[col] = a.profileColumn(ds, col)
	}
	a.logger.Debug("profiled columns", zap.Int("columns", len(profiles)))
	return profiles
}

func (a *Analyzer) profileColumn(ds *dataset.Dataset, col string) models.ColumnProfile {
	values := a.sampleValues(ds, col)
	profile := models.ColumnProfile{Name: col, Type: models.ColumnTypeText}

	if len(values) == 0 {
		return profile
	}

	profile.NonNullCount = len(values)
	profile.UniqueCount = distinctCount(values)
	profile.MostCommon, profile.MostCommonCount = mostCommon(values)
	if len(values) > 10 {
		profile.SampleValues = values[:10]
	} else {
		profile.SampleValues = values
	}

	total := float64(len(values))
	var emails, phones, dates, numerics int
	for _, v := range values {
		if emailPattern.MatchString(v) {
			emails++
		}
		_, _, isDate := normalize.ParseDate(v)
		if isDate {
			dates++
		} else if phoneLike(v) {
			// Hyphenated dates satisfy the phone shape; a parseable date
			// never counts as a phone.
			phones++
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			numerics++
		}
	}

	switch {
	case float64(emails)/total > emailThreshold:
		profile.Type = models.ColumnTypeEmail
		profile.MostCommonDomain = mostCommonProvider(values)
	case float64(phones)/total > phoneThreshold:
		profile.Type = models.ColumnTypePhone
		profile.PhoneCountry = phoneCountryHint(values)
	case float64(dates)/total > dateThreshold:
		profile.Type = models.ColumnTypeDate
	case float64(numerics)/total > numericThreshold:
		profile.Type = models.ColumnTypeNumeric
	}

	return profile
}

// sampleValues returns the non-null cells from the first sampleLimit rows.
func (a *Analyzer) sampleValues(ds *dataset.Dataset, col string) []string {
	limit := a.sampleLimit
	if limit > len(ds.Rows) {
		limit = len(ds.Rows)
	}
	values := make([]string, 0, limit)
	for _, row := range ds.Rows[:limit] {
		if dataset.IsNullish(row[col]) {
			continue
		}
		values = append(values, strings.TrimSpace(dataset.CellString(row[col])))
	}
	return values
}

// phoneLike requires the phone shape plus at least 7 actual digits, so
// dashed IDs don't count.
func phoneLike(v string) bool {
	if !phonePattern.MatchString(v) {
		return false
	}
	digits := 0
	for _, r := range v {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7
}

// phoneCountryHint inspects dial prefixes in the sample. "IN" when +91
// dominates, "US" when +1 does, empty otherwise.
func phoneCountryHint(values []string) string {
	var in, us int
	for _, v := range values {
		cleaned := strings.ReplaceAll(strings.ReplaceAll(v, " ", ""), "-", "")
		switch {
		case strings.HasPrefix(cleaned, "+91"):
			in++
		case strings.HasPrefix(cleaned, "91") && len(cleaned) >= 12:
			in++
		case strings.HasPrefix(cleaned, "+1"):
			us++
		}
	}
	switch {
	case in > us && in > 0:
		return "IN"
	case us > 0:
		return "US"
	default:
		return ""
	}
}

// mostCommonProvider returns the dominant mail provider name, the token
// between '@' and the first '.'.
func mostCommonProvider(values []string) string {
	counts := make(map[string]int)
	for _, v := range values {
		at := strings.LastIndex(v, "@")
		if at < 0 || at+1 >= len(v) {
			continue
		}
		domain := strings.ToLower(v[at+1:])
		provider, _, _ := strings.Cut(domain, ".")
		if provider != "" {
			counts[provider]++
		}
	}
	best, _ := maxCount(counts)
	return best
}

// EmailDomains counts full lowercase domains in an email column.
func EmailDomains(ds *dataset.Dataset, col string) map[string]int {
	counts := make(map[string]int)
	for _, row := range ds.Rows {
		v := dataset.CellString(row[col])
		at := strings.LastIndex(v, "@")
		if at < 0 || at+1 >= len(v) {
			continue
		}
		counts[strings.ToLower(strings.TrimSpace(v[at+1:]))]++
	}
	return counts
}

// DataContext summarizes a column's distribution in one line, used to seed
// LLM prompts with dataset-specific context.
func DataContext(ds *dataset.Dataset, col string) string {
	var nonNull int
	distinct := make(map[string]int)
	for _, row := range ds.Rows {
		if dataset.IsNullish(row[col]) {
			continue
		}
		nonNull++
		distinct[dataset.CellString(row[col])]++
	}
	best, count := maxCount(distinct)
	if nonNull == 0 {
		return fmt.Sprintf("Column %q is empty.", col)
	}
	return fmt.Sprintf("Column %q: %d non-null values, %d distinct, most common %q (%dx).",
		col, nonNull, len(distinct), best, count)
}

func distinctCount(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

func mostCommon(values []string) (string, int) {
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	return maxCount(counts)
}

// maxCount picks the highest-count key, breaking ties lexicographically so
// profiles are deterministic.
func maxCount(counts map[string]int) (string, int) {
	best := ""
	bestCount := 0
	for k, c := range counts {
		if c > bestCount || (c == bestCount && k < best) {
			best = k
			bestCount = c
		}
	}
	return best, bestCount
}
