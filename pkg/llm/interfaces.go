package llm

import (
	"context"

	"github.com/Vikram2406/Hackathon-DQ/pkg/models"
)

// Client is the completion interface the detection agents depend on.
// A non-nil error means the gateway could not produce a response with any
// candidate model; callers take their deterministic degraded path instead
// of failing the run.
type Client interface {
	Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error)
}

// QuotaReporter is implemented by clients that track per-model quota state.
type QuotaReporter interface {
	QuotaStatus() models.QuotaStatus
}
