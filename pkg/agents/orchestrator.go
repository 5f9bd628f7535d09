package agents

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/Vikram2406/Hackathon-DQ/pkg/llm"
	"github.com/Vikram2406/Hackathon-DQ/pkg/models"
)

// DefaultAgents is the detection order. Geographic enrichment runs before
// formatting so phone formatting can lean on inferred countries; imputation
// runs after the validators so it fills cells they left alone.
func DefaultAgents() []Agent {
	return []Agent{
		NewEmailValidationAgent(),
		NewGeographicEnrichmentAgent(),
		NewFormattingAgent(),
		NewCompanyValidationAgent(),
		NewUnitsAgent(),
		NewCategoricalAgent(),
		NewImputationAgent(),
		NewSemanticAgent(),
		NewLogicAgent(),
		NewExtractionAgent(),
	}
}

// Orchestrator runs the agents sequentially against one dataset. A failing
// or panicking agent is logged and skipped; the scan always produces a
// summary. When the soft deadline passes, remaining agents are skipped and
// the summary is marked partial.
type Orchestrator struct {
	agents   []Agent
	deadline time.Duration
	logger   *zap.Logger
}

func NewOrchestrator(agents []Agent, deadline time.Duration, logger *zap.Logger) *Orchestrator {
	if len(agents) == 0 {
		agents = DefaultAgents()
	}
	return &Orchestrator{agents: agents, deadline: deadline, logger: logger.Named("orchestrator")}
}

// Detect runs every agent and returns all issues plus the scan summary.
func (o *Orchestrator) Detect(ctx context.Context, run *Run) ([]models.Issue, models.ScanSummary, error) {
	start := time.Now()
	var issues []models.Issue
	partial := false

	for _, agent := range o.agents {
		if err := ctx.Err(); err != nil {
			return issues, o.summarize(run, issues, true), err
		}
		if o.deadline > 0 && time.Since(start) > o.deadline {
			o.logger.Warn("scan deadline passed, skipping remaining agents",
				zap.String("next_agent", agent.Name()),
				zap.Duration("elapsed", time.Since(start)))
			partial = true
			break
		}

		agentStart := time.Now()
		found, err := o.runAgent(ctx, agent, run)
		if err != nil {
			o.logger.Error("agent failed",
				zap.String("agent", agent.Name()),
				zap.Error(err))
			continue
		}

		issues = append(issues, found...)
		o.logger.Info("agent finished",
			zap.String("agent", agent.Name()),
			zap.Int("issues", len(found)),
			zap.Duration("took", time.Since(agentStart)))
	}

	return issues, o.summarize(run, issues, partial), nil
}

// runAgent contains one agent's panic so a bad detector cannot sink the scan.
func (o *Orchestrator) runAgent(ctx context.Context, agent Agent, run *Run) (issues []models.Issue, err error) {
	defer func() {
		if r := recover(); r != nil {
			issues = nil
			err = fmt.Errorf("agent %s panicked: %v", agent.Name(), r)
		}
	}()
	return agent.Detect(ctx, run)
}

func (o *Orchestrator) summarize(run *Run, issues []models.Issue, partial bool) models.ScanSummary {
	summary := models.ScanSummary{
		TotalRowsScanned: len(run.Dataset.Rows),
		TotalIssues:      len(issues),
		CategoryCounts:   make(map[string]int),
		IssueTypeCounts:  make(map[string]int),
		Partial:          partial,
	}

	affected := make(map[int]struct{})
	for _, iss := range issues {
		summary.CategoryCounts[iss.Category]++
		summary.IssueTypeCounts[iss.IssueType]++
		if iss.RowID != nil {
			affected[*iss.RowID] = struct{}{}
		}
	}
	summary.RowsAffected = len(affected)
	if summary.TotalRowsScanned > 0 {
		pct := float64(summary.RowsAffected) / float64(summary.TotalRowsScanned) * 100
		summary.RowsAffectedPercent = math.Round(pct*100) / 100
	}

	if reporter, ok := run.LLM.(llm.QuotaReporter); ok {
		status := reporter.QuotaStatus()
		summary.QuotaStatus = &status
	}
	return summary
}
