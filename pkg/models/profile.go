package models

// Semantic column types assigned by the analyzer. The first matching rule
// wins, so a column is never two types at once.
const (
	ColumnTypeEmail   = "email"
	ColumnTypePhone   = "phone"
	ColumnTypeDate    = "date"
	ColumnTypeNumeric = "numeric"
	ColumnTypeText    = "text"
)

// ColumnProfile describes one column of the scanned dataset.
// UniqueCount never exceeds NonNullCount; both are computed over the
// analyzer's sample.
type ColumnProfile struct {
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	NonNullCount    int      `json:"non_null_count"`
	UniqueCount     int      `json:"unique_count"`
	MostCommon      string   `json:"most_common"`
	MostCommonCount int      `json:"most_common_count"`
	SampleValues    []string `json:"sample_values"`

	// Email columns only: the most frequent mail provider name
	// (the token between '@' and the first '.').
	MostCommonDomain string `json:"most_common_domain,omitempty"`

	// Phone columns only: "IN" or "US" when a country-code prefix
	// dominated the sample.
	PhoneCountry string `json:"phone_country,omitempty"`
}
