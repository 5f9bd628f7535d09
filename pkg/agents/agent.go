package agents

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Vikram2406/Hackathon-DQ/pkg/dataset"
	"github.com/Vikram2406/Hackathon-DQ/pkg/llm"
	"github.com/Vikram2406/Hackathon-DQ/pkg/models"
)

// Shared LLM call parameters. Detectors ask short, factual questions;
// the logic agent runs colder to keep column identification stable.
const (
	defaultTemperature = 0.2
	coldTemperature    = 0.1
	defaultMaxTokens   = 500
	mappingMaxTokens   = 1000
)

// Run carries everything one detection pass needs. Agents read the dataset
// and profiles; they never mutate rows.
type Run struct {
	Dataset  *dataset.Dataset
	Profiles map[string]models.ColumnProfile
	LLM      llm.Client
	Pool     *llm.WorkerPool
	Logger   *zap.Logger

	// ImputationColumns restricts the imputation agent; empty means all.
	ImputationColumns []string
}

// Agent is one detector. Detect returns the issues it found; an error fails
// only this agent, never the whole scan.
type Agent interface {
	Name() string
	Detect(ctx context.Context, run *Run) ([]models.Issue, error)
}

// columnsMatching returns dataset columns whose name contains any keyword,
// in dataset column order.
func columnsMatching(columns []string, keywords []string) []string {
	var out []string
	for _, col := range columns {
		lower := strings.ToLower(col)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				out = append(out, col)
				break
			}
		}
	}
	return out
}

// columnMatchesAny reports whether a column name contains any keyword.
func columnMatchesAny(column string, keywords []string) bool {
	lower := strings.ToLower(column)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// firstColumnMatching returns the first column containing any keyword.
func firstColumnMatching(columns []string, keywords []string) (string, bool) {
	matches := columnsMatching(columns, keywords)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}
