package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vikram2406/Hackathon-DQ/pkg/dataset"
	"github.com/Vikram2406/Hackathon-DQ/pkg/llm"
	"github.com/Vikram2406/Hackathon-DQ/pkg/models"
)

func TestGeographicFillsMissingState(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"city", "state"},
		Rows: []dataset.Row{
			{"city": "Austin", "state": ""},
		},
	}
	client := (&llm.MockClient{}).RespondWith(`{"state": "Texas"}`)
	run := newTestRun(ds, nil, client)

	issues, err := NewGeographicEnrichmentAgent().Detect(context.Background(), run)
	require.NoError(t, err)
	require.Len(t, issues, 1)

	iss := issues[0]
	assert.Equal(t, models.IssueMissingState, iss.IssueType)
	require.NotNil(t, iss.SuggestedValue)
	assert.Equal(t, "Texas", *iss.SuggestedValue)
	assert.Equal(t, 0.85, iss.Confidence)
}

func TestGeographicMarkerWhenUnavailable(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"city", "state"},
		Rows: []dataset.Row{
			{"city": "Austin", "state": nil},
		},
	}
	run := newTestRun(ds, nil, &llm.MockClient{})

	issues, err := NewGeographicEnrichmentAgent().Detect(context.Background(), run)
	require.NoError(t, err)
	require.Len(t, issues, 1)

	iss := issues[0]
	assert.Equal(t, models.IssueMissingState, iss.IssueType)
	require.NotNil(t, iss.SuggestedValue)
	assert.True(t, strings.HasPrefix(*iss.SuggestedValue, "[AI failed"), *iss.SuggestedValue)
	assert.Equal(t, 0.40, iss.Confidence)
}

func TestGeographicFlagsIncorrectState(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"city", "state"},
		Rows: []dataset.Row{
			{"city": "Austin", "state": "California"},
		},
	}
	client := (&llm.MockClient{}).RespondWith(`{"state": "Texas"}`)
	run := newTestRun(ds, nil, client)

	issues, err := NewGeographicEnrichmentAgent().Detect(context.Background(), run)
	require.NoError(t, err)
	require.Len(t, issues, 1)

	iss := issues[0]
	assert.Equal(t, models.IssueIncorrectState, iss.IssueType)
	require.NotNil(t, iss.SuggestedValue)
	assert.Equal(t, "Texas", *iss.SuggestedValue)
	assert.Equal(t, 0.90, iss.Confidence)
}

func TestGeographicAcceptsStateWithHouseNumber(t *testing.T) {
	// "4521 Texas" is Texas with a house number glued on; no mismatch.
	ds := &dataset.Dataset{
		Columns: []string{"city", "state"},
		Rows: []dataset.Row{
			{"city": "Austin", "state": "4521 Texas"},
		},
	}
	client := (&llm.MockClient{}).RespondWith(`{"state": "Texas"}`)
	run := newTestRun(ds, nil, client)

	issues, err := NewGeographicEnrichmentAgent().Detect(context.Background(), run)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestGeographicCachesPerCity(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"city", "state"},
		Rows: []dataset.Row{
			{"city": "Austin", "state": ""},
			{"city": "Austin", "state": ""},
			{"city": "austin", "state": ""},
		},
	}
	client := (&llm.MockClient{}).RespondWith(`{"state": "Texas"}`)
	run := newTestRun(ds, nil, client)

	issues, err := NewGeographicEnrichmentAgent().Detect(context.Background(), run)
	require.NoError(t, err)
	assert.Len(t, issues, 3)
	assert.Equal(t, 1, client.CompleteCalls)
}

func TestGeographicMissingCountryPrefersState(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"city", "state", "country"},
		Rows: []dataset.Row{
			{"city": "Mumbai", "state": "Maharashtra", "country": ""},
		},
	}
	client := &llm.MockClient{}
	client.CompleteFunc = func(_ context.Context, messages []llm.Message, _ float64, _ int) (string, error) {
		prompt := messages[len(messages)-1].Content
		if strings.Contains(prompt, "Maharashtra") {
			return `{"country": "India"}`, nil
		}
		return `{"state": "Maharashtra"}`, nil
	}
	run := newTestRun(ds, nil, client)

	issues, err := NewGeographicEnrichmentAgent().Detect(context.Background(), run)
	require.NoError(t, err)

	var countryIssue *models.Issue
	for i := range issues {
		if issues[i].IssueType == models.IssueMissingCountry {
			countryIssue = &issues[i]
		}
	}
	require.NotNil(t, countryIssue)
	require.NotNil(t, countryIssue.SuggestedValue)
	assert.Equal(t, "India", *countryIssue.SuggestedValue)
	assert.Equal(t, 0.85, countryIssue.Confidence)
}

func TestGeographicCountryJudgedFromCorrectedState(t *testing.T) {
	// The state cell is wrong but the country is right. The country check
	// must use the state the city is actually in, so only the state is
	// flagged.
	ds := &dataset.Dataset{
		Columns: []string{"city", "state", "country"},
		Rows: []dataset.Row{
			{"city": "Mumbai", "state": "Florida", "country": "India"},
		},
	}
	client := &llm.MockClient{}
	client.CompleteFunc = func(_ context.Context, messages []llm.Message, _ float64, _ int) (string, error) {
		prompt := messages[len(messages)-1].Content
		if strings.Contains(prompt, "Which state or province is the city") {
			return `{"state": "Maharashtra"}`, nil
		}
		return `{"country": "India"}`, nil
	}
	run := newTestRun(ds, nil, client)

	issues, err := NewGeographicEnrichmentAgent().Detect(context.Background(), run)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, models.IssueIncorrectState, issues[0].IssueType)
	assert.Equal(t, "Maharashtra", *issues[0].SuggestedValue)
}

func TestGeographicFlagsCountryAgainstCorrectedState(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"city", "state", "country"},
		Rows: []dataset.Row{
			{"city": "Mumbai", "state": "Florida", "country": "United States"},
		},
	}
	client := &llm.MockClient{}
	client.CompleteFunc = func(_ context.Context, messages []llm.Message, _ float64, _ int) (string, error) {
		prompt := messages[len(messages)-1].Content
		if strings.Contains(prompt, "Which state or province is the city") {
			return `{"state": "Maharashtra"}`, nil
		}
		return `{"country": "India"}`, nil
	}
	run := newTestRun(ds, nil, client)

	issues, err := NewGeographicEnrichmentAgent().Detect(context.Background(), run)
	require.NoError(t, err)

	var countryIssue *models.Issue
	for i := range issues {
		if issues[i].IssueType == models.IssueIncorrectCountry {
			countryIssue = &issues[i]
		}
	}
	require.NotNil(t, countryIssue)
	assert.Equal(t, "India", *countryIssue.SuggestedValue)
}

func TestGeographicNoCityColumn(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"name", "state"},
		Rows: []dataset.Row{
			{"name": "Bob", "state": ""},
		},
	}
	run := newTestRun(ds, nil, &llm.MockClient{})

	issues, err := NewGeographicEnrichmentAgent().Detect(context.Background(), run)
	require.NoError(t, err)
	assert.Empty(t, issues)
}
