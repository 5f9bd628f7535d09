package apply

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Vikram2406/Hackathon-DQ/pkg/dataset"
	"github.com/Vikram2406/Hackathon-DQ/pkg/models"
)

func newTestApplier() (*Applier, *dataset.MemorySink) {
	sink := dataset.NewMemorySink()
	return NewApplier(sink, zap.NewNop()), sink
}

func TestApplyRewritesCells(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"email"},
		Rows:    []dataset.Row{{"email": "bob@@x.com"}},
	}
	iss := models.NewIssue(models.CategoryEmailValidation, models.IssueInvalidEmail,
		models.IntPtr(0), "email", "bob@@x.com", models.StringPtr("bob@x.com"), 0.85, "", "")

	applier, _ := newTestApplier()
	result, err := applier.Apply(context.Background(), ds, []models.Issue{iss}, Options{Mode: ModePreview})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, "bob@x.com", result.Dataset.Rows[0]["email"])
	assert.Equal(t, Change{Old: "bob@@x.com", New: "bob@x.com"}, result.Changes["0_email"])

	// Source dataset is untouched.
	assert.Equal(t, "bob@@x.com", ds.Rows[0]["email"])
	assert.Contains(t, string(result.CSV), "bob@x.com")
}

func TestApplyClearsCellOnNilSuggestion(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"start_date"},
		Rows:    []dataset.Row{{"start_date": "1985-03-10"}},
	}
	iss := models.NewIssue(models.CategoryLogic, models.IssueTemporalParadox,
		models.IntPtr(0), "start_date", "1985-03-10", nil, 0.95, "", "")

	applier, _ := newTestApplier()
	result, err := applier.Apply(context.Background(), ds, []models.Issue{iss}, Options{Mode: ModePreview})
	require.NoError(t, err)

	assert.Nil(t, result.Dataset.Rows[0]["start_date"])
	assert.Equal(t, Change{Old: "1985-03-10", New: "null"}, result.Changes["0_start_date"])

	lines := strings.Split(string(result.CSV), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "", lines[1])
}

func TestApplyFirstWriteWins(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"status"},
		Rows:    []dataset.Row{{"status": "Actve"}},
	}
	first := models.NewIssue(models.CategoryCategorical, models.IssueFuzzyMapping,
		models.IntPtr(0), "status", "Actve", models.StringPtr("Active"), 0.8, "", "")
	second := models.NewIssue(models.CategorySemantic, models.IssueEntityResolution,
		models.IntPtr(0), "status", "Actve", models.StringPtr("ACTIVE"), 0.8, "", "")

	applier, _ := newTestApplier()
	result, err := applier.Apply(context.Background(), ds, []models.Issue{first, second}, Options{Mode: ModePreview})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "Active", result.Dataset.Rows[0]["status"])
}

func TestApplyProtectsIdentityColumns(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"customer_name"},
		Rows:    []dataset.Row{{"customer_name": "John Smith"}},
	}
	iss := models.NewIssue(models.CategorySemantic, models.IssueEntityResolution,
		models.IntPtr(0), "customer_name", "John Smith", models.StringPtr("JOHN SMITH"), 0.8, "", "")

	applier, _ := newTestApplier()
	result, err := applier.Apply(context.Background(), ds, []models.Issue{iss}, Options{Mode: ModePreview})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Applied)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "John Smith", result.Dataset.Rows[0]["customer_name"])
}

func TestApplyProtectsBareNameColumn(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"name"},
		Rows:    []dataset.Row{{"name": "Alice"}},
	}
	iss := models.NewIssue(models.CategorySemantic, models.IssueEntityResolution,
		models.IntPtr(0), "name", "Alice", models.StringPtr("Alicia"), 0.8, "", "")

	applier, _ := newTestApplier()
	result, err := applier.Apply(context.Background(), ds, []models.Issue{iss}, Options{Mode: ModePreview})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Applied)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "Alice", result.Dataset.Rows[0]["name"])
}

func TestApplySelectedIDsOnly(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"a", "b"},
		Rows:    []dataset.Row{{"a": "1", "b": "2"}},
	}
	wanted := models.NewIssue(models.CategoryFormatting, models.IssueDateFormatting,
		models.IntPtr(0), "a", "1", models.StringPtr("one"), 0.9, "", "")
	ignored := models.NewIssue(models.CategoryFormatting, models.IssueDateFormatting,
		models.IntPtr(0), "b", "2", models.StringPtr("two"), 0.9, "", "")

	applier, _ := newTestApplier()
	result, err := applier.Apply(context.Background(), ds, []models.Issue{wanted, ignored}, Options{
		Mode:        ModePreview,
		SelectedIDs: []string{wanted.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, "one", result.Dataset.Rows[0]["a"])
	assert.Equal(t, "2", result.Dataset.Rows[0]["b"])
}

func TestApplyStandardizesMeasurementColumns(t *testing.T) {
	// One accepted scale issue sets the column's target unit; the whole
	// column, bare numbers included, is reformatted.
	ds := &dataset.Dataset{
		Columns: []string{"height"},
		Rows: []dataset.Row{
			{"height": "65 in"},
			{"height": "172"},
			{"height": "180.00 cm"},
		},
	}
	iss := models.NewIssue(models.CategoryUnits, models.IssueScaleMismatch,
		models.IntPtr(0), "height", "65 in", models.StringPtr("165.10 cm"), 0.85, "", "")

	applier, _ := newTestApplier()
	result, err := applier.Apply(context.Background(), ds, []models.Issue{iss}, Options{Mode: ModePreview})
	require.NoError(t, err)

	assert.Equal(t, "165.10 cm", result.Dataset.Rows[0]["height"])
	assert.Equal(t, "172.00 cm", result.Dataset.Rows[1]["height"])
	assert.Equal(t, "180.00 cm", result.Dataset.Rows[2]["height"])
	assert.Equal(t, 2, result.Applied)
}

func TestApplyIsIdempotent(t *testing.T) {
	// Applying the same fixes to an already-repaired dataset changes nothing.
	ds := &dataset.Dataset{
		Columns: []string{"email", "height"},
		Rows: []dataset.Row{
			{"email": "bob@@x.com", "height": "65 in"},
			{"email": "ann@x.com", "height": "172"},
		},
	}
	issues := []models.Issue{
		models.NewIssue(models.CategoryEmailValidation, models.IssueInvalidEmail,
			models.IntPtr(0), "email", "bob@@x.com", models.StringPtr("bob@x.com"), 0.85, "", ""),
		models.NewIssue(models.CategoryUnits, models.IssueScaleMismatch,
			models.IntPtr(0), "height", "65 in", models.StringPtr("165.10 cm"), 0.85, "", ""),
	}

	applier, _ := newTestApplier()
	first, err := applier.Apply(context.Background(), ds, issues, Options{Mode: ModePreview})
	require.NoError(t, err)

	second, err := applier.Apply(context.Background(), first.Dataset, issues, Options{Mode: ModePreview})
	require.NoError(t, err)

	assert.Equal(t, string(first.CSV), string(second.CSV))
}

func TestApplyUnitPreferenceOverride(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"weight"},
		Rows: []dataset.Row{
			{"weight": "150 lb"},
			{"weight": "70"},
		},
	}
	iss := models.NewIssue(models.CategoryUnits, models.IssueScaleMismatch,
		models.IntPtr(0), "weight", "150 lb", models.StringPtr("68.04 kg"), 0.85, "", "")

	applier, _ := newTestApplier()
	result, err := applier.Apply(context.Background(), ds, []models.Issue{iss}, Options{
		Mode:            ModePreview,
		UnitPreferences: map[string]string{"weight": "lb"},
	})
	require.NoError(t, err)

	// The preference wins over the issue's implied kg.
	assert.Equal(t, "150.00 lb", result.Dataset.Rows[0]["weight"])
	assert.Equal(t, "70.00 lb", result.Dataset.Rows[1]["weight"])
}

func TestApplyExportWritesToSink(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"a"},
		Rows:    []dataset.Row{{"a": "1"}},
	}
	iss := models.NewIssue(models.CategoryFormatting, models.IssueDateFormatting,
		models.IntPtr(0), "a", "1", models.StringPtr("one"), 0.9, "", "")

	applier, sink := newTestApplier()
	result, err := applier.Apply(context.Background(), ds, []models.Issue{iss}, Options{
		Mode:      ModeExport,
		SourceKey: "uploads/data.csv",
	})
	require.NoError(t, err)

	assert.Equal(t, "uploads/data_cleaned.csv", result.Location)
	stored, ok := sink.Get("uploads/data_cleaned.csv")
	require.True(t, ok)
	assert.Contains(t, string(stored), "one")
}

func TestApplyCommitWritesToSink(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"a"},
		Rows:    []dataset.Row{{"a": "1"}},
	}
	iss := models.NewIssue(models.CategoryFormatting, models.IssueDateFormatting,
		models.IntPtr(0), "a", "1", models.StringPtr("one"), 0.9, "", "")

	applier, sink := newTestApplier()
	result, err := applier.Apply(context.Background(), ds, []models.Issue{iss}, Options{
		Mode:      ModeCommit,
		SourceKey: "uploads/data.csv",
	})
	require.NoError(t, err)

	assert.Equal(t, "uploads/data_cleaned.csv", result.Location)
	_, ok := sink.Get("uploads/data_cleaned.csv")
	assert.True(t, ok)
}

func TestApplyPreviewDoesNotPersist(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"a"},
		Rows:    []dataset.Row{{"a": "1"}},
	}

	applier, sink := newTestApplier()
	result, err := applier.Apply(context.Background(), ds, nil, Options{
		Mode:      ModePreview,
		SourceKey: "data.csv",
	})
	require.NoError(t, err)

	assert.Empty(t, result.Location)
	_, ok := sink.Get("data_cleaned.csv")
	assert.False(t, ok)
}
