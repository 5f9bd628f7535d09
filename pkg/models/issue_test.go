package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueJSONShape(t *testing.T) {
	iss := NewIssue(CategoryFormatting, IssueDateFormatting,
		IntPtr(3), "joined", "03/04/2021", StringPtr("2021-04-03"), 0.9,
		"Date is not in ISO format.", "Recognized the layout from the value itself.")

	raw, err := json.Marshal(iss)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))

	for _, key := range []string{
		"issue_id", "category", "issue_type", "row_id", "column",
		"dirty_value", "suggested_value", "confidence", "explanation", "why_agentic",
	} {
		assert.Contains(t, m, key)
	}
	assert.Equal(t, "03/04/2021", m["dirty_value"])
	assert.Equal(t, "Date is not in ISO format.", m["explanation"])
	assert.Equal(t, "Recognized the layout from the value itself.", m["why_agentic"])
	assert.NotContains(t, m, "current_value")
}

func TestIssueTypeVocabulary(t *testing.T) {
	assert.Equal(t, "DateFormatting", IssueDateFormatting)
	assert.Equal(t, "PhoneNormalization", IssuePhoneNormalization)
	assert.Equal(t, "FuzzyMapping", IssueFuzzyMapping)
	assert.Equal(t, "MetadataScraping", IssueMetadataScraping)
}

func TestIssueIDShape(t *testing.T) {
	iss := NewIssue(CategoryLogic, IssueTemporalParadox,
		IntPtr(7), "hired", "1980-01-01", nil, 0.95, "", "")

	parts := strings.Split(iss.ID, "_")
	require.Len(t, parts, 5)
	assert.Equal(t, CategoryLogic, parts[0])
	assert.Equal(t, IssueTemporalParadox, parts[1])
	assert.Equal(t, "7", parts[2])
	assert.Equal(t, "hired", parts[3])
	assert.Len(t, parts[4], 8)
}

func TestIssueIDDatasetLevel(t *testing.T) {
	id := NewIssueID(CategoryCompanyValidation, IssueCompanyValidation, nil, "company")
	assert.Contains(t, id, "_dataset_")
}
