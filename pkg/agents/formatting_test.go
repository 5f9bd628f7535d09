package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vikram2406/Hackathon-DQ/pkg/dataset"
	"github.com/Vikram2406/Hackathon-DQ/pkg/llm"
	"github.com/Vikram2406/Hackathon-DQ/pkg/models"
)

func TestFormattingStandardizesDates(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"join_date"},
		Rows: []dataset.Row{
			{"join_date": "01/15/2023"},
			{"join_date": "2023-02-01"},
			{"join_date": "Jan 3, 2023"},
		},
	}
	run := newTestRun(ds, nil, &llm.MockClient{})

	issues, err := NewFormattingAgent().Detect(context.Background(), run)
	require.NoError(t, err)
	require.Len(t, issues, 2)

	byValue := make(map[string]models.Issue)
	for _, iss := range issues {
		byValue[iss.DirtyValue.(string)] = iss
	}

	first := byValue["01/15/2023"]
	assert.Equal(t, models.IssueDateFormatting, first.IssueType)
	require.NotNil(t, first.SuggestedValue)
	assert.Equal(t, "2023-01-15", *first.SuggestedValue)
	assert.Equal(t, 0.9, first.Confidence)

	second := byValue["Jan 3, 2023"]
	require.NotNil(t, second.SuggestedValue)
	assert.Equal(t, "2023-01-03", *second.SuggestedValue)
}

func TestFormattingCountryColumnWins(t *testing.T) {
	// The column hint says US but the row's country column says India; the
	// country column has priority.
	ds := &dataset.Dataset{
		Columns: []string{"phone", "country"},
		Rows: []dataset.Row{
			{"phone": "9876543210", "country": "India"},
		},
	}
	profiles := map[string]models.ColumnProfile{
		"phone": {Name: "phone", Type: models.ColumnTypePhone, PhoneCountry: "US"},
	}
	run := newTestRun(ds, profiles, &llm.MockClient{})

	issues, err := NewFormattingAgent().Detect(context.Background(), run)
	require.NoError(t, err)
	require.Len(t, issues, 1)

	require.NotNil(t, issues[0].SuggestedValue)
	assert.Equal(t, "+91 9876543210", *issues[0].SuggestedValue)
	assert.Equal(t, 0.9, issues[0].Confidence)
}

func TestFormattingDialPrefixBeatsHint(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"phone"},
		Rows: []dataset.Row{
			{"phone": "+91-9876-543-210"},
		},
	}
	profiles := map[string]models.ColumnProfile{
		"phone": {Name: "phone", Type: models.ColumnTypePhone, PhoneCountry: "US"},
	}
	run := newTestRun(ds, profiles, &llm.MockClient{})

	issues, err := NewFormattingAgent().Detect(context.Background(), run)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	require.NotNil(t, issues[0].SuggestedValue)
	assert.Equal(t, "+91 9876543210", *issues[0].SuggestedValue)
}

func TestFormattingUSConvention(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"phone", "country"},
		Rows: []dataset.Row{
			{"phone": "555-123-4567", "country": "USA"},
			{"phone": "+1 (555) 123-4567", "country": "USA"},
		},
	}
	run := newTestRun(ds, nil, &llm.MockClient{})

	issues, err := NewFormattingAgent().Detect(context.Background(), run)
	require.NoError(t, err)
	require.Len(t, issues, 1)

	require.NotNil(t, issues[0].SuggestedValue)
	assert.Equal(t, "+1 (555) 123-4567", *issues[0].SuggestedValue)
}

func TestFormattingAlreadyFormattedSkipped(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"phone", "country"},
		Rows: []dataset.Row{
			{"phone": "+91 9876543210", "country": "India"},
		},
	}
	run := newTestRun(ds, nil, &llm.MockClient{})

	issues, err := NewFormattingAgent().Detect(context.Background(), run)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestCountryNameToCode(t *testing.T) {
	tests := []struct {
		in   string
		code string
		ok   bool
	}{
		{"United States", "US", true},
		{"usa", "US", true},
		{"India", "IN", true},
		{"bharat", "IN", true},
		{"gb", "GB", true},
		{"Germany", "", false},
		{"123", "", false},
	}
	for _, tt := range tests {
		code, ok := countryNameToCode(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.code, code, tt.in)
	}
}
