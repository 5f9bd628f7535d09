package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/Vikram2406/Hackathon-DQ/pkg/agents"
	"github.com/Vikram2406/Hackathon-DQ/pkg/analyzer"
	"github.com/Vikram2406/Hackathon-DQ/pkg/apply"
	"github.com/Vikram2406/Hackathon-DQ/pkg/config"
	"github.com/Vikram2406/Hackathon-DQ/pkg/dataset"
	"github.com/Vikram2406/Hackathon-DQ/pkg/llm"
	"github.com/Vikram2406/Hackathon-DQ/pkg/models"
)

// Pipeline is the top-level surface: profile a dataset, detect issues, and
// apply accepted fixes.
type Pipeline struct {
	cfg      *config.Config
	client   llm.Client
	analyzer *analyzer.Analyzer
	applier  *apply.Applier
	pool     *llm.WorkerPool
	logger   *zap.Logger
}

// New wires the pipeline from configuration. The client is typically an
// *llm.Gateway; tests pass a mock.
func New(cfg *config.Config, client llm.Client, sink dataset.Sink, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		client:   client,
		analyzer: analyzer.New(cfg.Pipeline.SampleLimit, logger),
		applier:  apply.NewApplier(sink, logger),
		pool:     llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: cfg.LLM.MaxConcurrent}, logger),
		logger:   logger.Named("pipeline"),
	}
}

// DetectResult pairs the detected issues with the run's profile and summary.
type DetectResult struct {
	Issues   []models.Issue
	Profiles map[string]models.ColumnProfile
	Summary  models.ScanSummary
}

// DetectIssues profiles the dataset and runs every agent over it.
func (p *Pipeline) DetectIssues(ctx context.Context, ds *dataset.Dataset) (*DetectResult, error) {
	profiles := p.analyzer.Profile(ds)

	run := &agents.Run{
		Dataset:           ds,
		Profiles:          profiles,
		LLM:               p.client,
		Pool:              p.pool,
		Logger:            p.logger,
		ImputationColumns: p.cfg.Pipeline.ImputationColumns,
	}

	orchestrator := agents.NewOrchestrator(agents.DefaultAgents(), p.cfg.Pipeline.Deadline, p.logger)
	issues, summary, err := orchestrator.Detect(ctx, run)
	if err != nil {
		return nil, err
	}

	p.logger.Info("detection finished",
		zap.Int("rows", summary.TotalRowsScanned),
		zap.Int("issues", summary.TotalIssues),
		zap.Bool("partial", summary.Partial))
	return &DetectResult{Issues: issues, Profiles: profiles, Summary: summary}, nil
}

// ApplyFixes applies the selected issues to a copy of the dataset.
func (p *Pipeline) ApplyFixes(ctx context.Context, ds *dataset.Dataset, issues []models.Issue, opts apply.Options) (*apply.Result, error) {
	return p.applier.Apply(ctx, ds, issues, opts)
}
