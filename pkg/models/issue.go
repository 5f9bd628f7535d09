package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Categories reported by the detection agents. The category is part of the
// issue ID and of the orchestrator summary, so the strings are stable.
const (
	CategoryEmailValidation      = "EmailValidation"
	CategoryGeographicEnrichment = "GeographicEnrichment"
	CategoryFormatting           = "Formatting"
	CategoryCompanyValidation    = "CompanyValidation"
	CategoryUnits                = "Units"
	CategoryCategorical          = "Categorical"
	CategoryImputation           = "Imputation"
	CategorySemantic             = "Semantic"
	CategoryLogic                = "Logic"
	CategoryExtraction           = "Extraction"
)

// Issue types. One agent can emit several types.
const (
	IssueInvalidEmail       = "InvalidEmail"
	IssueMissingState       = "MissingState"
	IssueIncorrectState     = "IncorrectState"
	IssueMissingCountry     = "MissingCountry"
	IssueIncorrectCountry   = "IncorrectCountry"
	IssueDateFormatting     = "DateFormatting"
	IssuePhoneNormalization = "PhoneNormalization"
	IssueCompanyMismatch    = "CompanyMismatch"
	IssueCompanyValidation  = "CompanyValidation"
	IssueScaleMismatch      = "ScaleMismatch"
	IssueFuzzyMapping       = "FuzzyMapping"
	IssueContextualFill     = "ContextualFill"
	IssueEntityResolution   = "EntityResolution"
	IssueTemporalParadox    = "TemporalParadox"
	IssueCrossFieldConflict = "CrossFieldConflict"
	IssueMetadataScraping   = "MetadataScraping"
)

// Issue is one detected data-quality problem, optionally carrying a repair.
// A nil SuggestedValue means "clear the cell" if the issue is applied.
// DirtyValue preserves the offending value verbatim for audit; Explanation
// says what is wrong, WhyAgentic says what reasoning found it.
type Issue struct {
	ID             string  `json:"issue_id"`
	Category       string  `json:"category"`
	IssueType      string  `json:"issue_type"`
	RowID          *int    `json:"row_id"` // nil for dataset-level issues
	Column         string  `json:"column"`
	DirtyValue     any     `json:"dirty_value"`
	SuggestedValue *string `json:"suggested_value"`
	Confidence     float64 `json:"confidence"`
	Explanation    string  `json:"explanation"`
	WhyAgentic     string  `json:"why_agentic"`
}

// NewIssueID builds the canonical issue identifier:
// {category}_{issue_type}_{row_id|dataset}_{column}_{random8}.
func NewIssueID(category, issueType string, rowID *int, column string) string {
	rowPart := "dataset"
	if rowID != nil {
		rowPart = fmt.Sprintf("%d", *rowID)
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%s_%s_%s_%s", category, issueType, rowPart, column, suffix)
}

// NewIssue constructs an issue with a generated ID. Pass a nil suggested
// value for a clear-the-cell repair or a report-only finding.
func NewIssue(category, issueType string, rowID *int, column string, dirty any, suggested *string, confidence float64, explanation, why string) Issue {
	return Issue{
		ID:             NewIssueID(category, issueType, rowID, column),
		Category:       category,
		IssueType:      issueType,
		RowID:          rowID,
		Column:         column,
		DirtyValue:     dirty,
		SuggestedValue: suggested,
		Confidence:     confidence,
		Explanation:    explanation,
		WhyAgentic:     why,
	}
}

// StringPtr is a convenience for building suggested values.
func StringPtr(s string) *string { return &s }

// IntPtr is a convenience for building row references.
func IntPtr(i int) *int { return &i }
