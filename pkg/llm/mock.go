package llm

import (
	"context"
	"sync"

	"github.com/Vikram2406/Hackathon-DQ/pkg/models"
)

// MockClient is a test double for the gateway. Configure behavior through
// the function fields; nil fields return ErrUnavailable, which exercises the
// callers' degraded paths.
type MockClient struct {
	mu sync.Mutex

	CompleteFunc func(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error)

	// Recorded calls for assertions.
	CompleteCalls int
	LastMessages  []Message

	// Status returned by QuotaStatus.
	Status models.QuotaStatus
}

var _ Client = (*MockClient)(nil)
var _ QuotaReporter = (*MockClient)(nil)

// Complete invokes CompleteFunc if set, recording the call.
func (m *MockClient) Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error) {
	m.mu.Lock()
	m.CompleteCalls++
	m.LastMessages = messages
	fn := m.CompleteFunc
	m.mu.Unlock()

	if fn == nil {
		return "", ErrUnavailable
	}
	return fn(ctx, messages, temperature, maxTokens)
}

// QuotaStatus returns the configured status snapshot.
func (m *MockClient) QuotaStatus() models.QuotaStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Status
}

// Reset clears recorded calls.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalls = 0
	m.LastMessages = nil
}

// RespondWith configures the mock to always return the given text.
func (m *MockClient) RespondWith(text string) *MockClient {
	m.CompleteFunc = func(context.Context, []Message, float64, int) (string, error) {
		return text, nil
	}
	return m
}
