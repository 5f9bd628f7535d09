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

func TestSemanticResolvesVariantsToMostFrequent(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"vendor"},
		Rows: []dataset.Row{
			{"vendor": "Acme"},
			{"vendor": "Acme"},
			{"vendor": "Acme"},
			{"vendor": "ACME Corp"},
			{"vendor": "ACME Corp"},
		},
	}
	run := newTestRun(ds, nil, &llm.MockClient{})

	issues, err := NewSemanticAgent().Detect(context.Background(), run)
	require.NoError(t, err)
	require.Len(t, issues, 2)

	for _, iss := range issues {
		assert.Equal(t, models.IssueEntityResolution, iss.IssueType)
		assert.Equal(t, "ACME Corp", iss.DirtyValue)
		require.NotNil(t, iss.SuggestedValue)
		assert.Equal(t, "Acme", *iss.SuggestedValue)
		assert.Equal(t, 0.80, iss.Confidence)
	}
}

func TestSemanticLLMPicksCanonical(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"vendor"},
		Rows: []dataset.Row{
			{"vendor": "Acme"},
			{"vendor": "ACME Corp"},
		},
	}
	client := (&llm.MockClient{}).RespondWith(`{"canonical": "ACME Corp"}`)
	run := newTestRun(ds, nil, client)

	issues, err := NewSemanticAgent().Detect(context.Background(), run)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "Acme", issues[0].DirtyValue)
	require.NotNil(t, issues[0].SuggestedValue)
	assert.Equal(t, "ACME Corp", *issues[0].SuggestedValue)
}

func TestSemanticIgnoresPersonNames(t *testing.T) {
	// People legitimately share names; person columns are never resolved.
	ds := &dataset.Dataset{
		Columns: []string{"customer_name"},
		Rows: []dataset.Row{
			{"customer_name": "John Smith"},
			{"customer_name": "JOHN SMITH"},
		},
	}
	run := newTestRun(ds, nil, &llm.MockClient{})

	issues, err := NewSemanticAgent().Detect(context.Background(), run)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestClusterEntities(t *testing.T) {
	clusters := clusterEntities([]string{"Acme", "ACME Corp", "Globex", "acme"})
	require.Len(t, clusters, 1)
	assert.ElementsMatch(t, []string{"Acme", "ACME Corp", "acme"}, clusters[0])
}

func TestEntitiesSimilar(t *testing.T) {
	assert.True(t, entitiesSimilar("Acme", "ACME"))
	assert.True(t, entitiesSimilar("Acme", "Acme Corporation"))
	assert.False(t, entitiesSimilar("Acme", "Globex"))
}
