package models

// QuotaStatus is a snapshot of the LLM gateway's model accounting for one
// detection session. Exhausted is true when no model is left to try;
// WorkingModel is nil in that case and Message is ready for an
// "AI limited" display.
type QuotaStatus struct {
	Provider             string   `json:"provider"`
	Exhausted            bool     `json:"exhausted"`
	WorkingModel         *string  `json:"working_model"`
	Message              string   `json:"message"`
	CurrentModel         string   `json:"current_model"`
	FailedModels         []string `json:"failed_models"`
	QuotaExhaustedModels []string `json:"quota_exhausted_models"`
	TotalModels          int      `json:"total_models"`
}

// ScanSummary aggregates the outcome of one orchestrator run.
type ScanSummary struct {
	TotalRowsScanned    int            `json:"total_rows_scanned"`
	TotalIssues         int            `json:"total_issues"`
	RowsAffected        int            `json:"rows_affected"`
	RowsAffectedPercent float64        `json:"rows_affected_percent"`
	CategoryCounts      map[string]int `json:"category_counts"`
	IssueTypeCounts     map[string]int `json:"issue_type_counts"`

	// Partial is set when the run deadline expired before every agent ran.
	Partial     bool         `json:"partial,omitempty"`
	QuotaStatus *QuotaStatus `json:"quota_status,omitempty"`
}
