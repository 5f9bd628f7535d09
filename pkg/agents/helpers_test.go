package agents

import (
	"go.uber.org/zap"

	"github.com/Vikram2406/Hackathon-DQ/pkg/dataset"
	"github.com/Vikram2406/Hackathon-DQ/pkg/llm"
	"github.com/Vikram2406/Hackathon-DQ/pkg/models"
)

func newTestRun(ds *dataset.Dataset, profiles map[string]models.ColumnProfile, client llm.Client) *Run {
	logger := zap.NewNop()
	if profiles == nil {
		profiles = map[string]models.ColumnProfile{}
	}
	return &Run{
		Dataset:  ds,
		Profiles: profiles,
		LLM:      client,
		Pool:     llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: 2}, logger),
		Logger:   logger,
	}
}

func textProfile(col string, samples ...string) models.ColumnProfile {
	return models.ColumnProfile{Name: col, Type: models.ColumnTypeText, SampleValues: samples}
}
