package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// scriptedProvider returns canned results per model and records the order
// models were tried in.
type scriptedProvider struct {
	mu      sync.Mutex
	tried   []string
	results map[string]scriptedResult
}

type scriptedResult struct {
	text string
	err  error
}

func (p *scriptedProvider) name() string { return "scripted" }

func (p *scriptedProvider) generate(_ context.Context, model string, _ []Message, _ float64, _ int) (string, error) {
	p.mu.Lock()
	p.tried = append(p.tried, model)
	p.mu.Unlock()

	if r, ok := p.results[model]; ok {
		return r.text, r.err
	}
	return "", errors.New("404 model not found")
}

func newTestGateway(provider completionProvider, current string, fallback []string) *Gateway {
	return &Gateway{
		provider:         provider,
		fallback:         fallback,
		timeout:          time.Second,
		cascadeThreshold: defaultCascadeThreshold,
		logger:           zap.NewNop(),
		currentModel:     current,
		failed:           make(map[string]struct{}),
		exhausted:        make(map[string]struct{}),
	}
}

func TestCompleteUsesCurrentModelFirst(t *testing.T) {
	provider := &scriptedProvider{results: map[string]scriptedResult{
		"model-a": {text: "hello"},
	}}
	g := newTestGateway(provider, "model-a", []string{"model-a", "model-b"})

	text, err := g.Complete(context.Background(), []Message{User("hi")}, 0.2, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello" {
		t.Errorf("expected %q, got %q", "hello", text)
	}
	if len(provider.tried) != 1 || provider.tried[0] != "model-a" {
		t.Errorf("expected single attempt on model-a, got %v", provider.tried)
	}
}

func TestCompleteFallsBackOnQuotaAndSticks(t *testing.T) {
	provider := &scriptedProvider{results: map[string]scriptedResult{
		"model-a": {err: errors.New("429 RESOURCE_EXHAUSTED: quota exceeded")},
		"model-b": {text: "from b"},
	}}
	g := newTestGateway(provider, "model-a", []string{"model-a", "model-b", "model-c"})

	text, err := g.Complete(context.Background(), []Message{User("hi")}, 0.2, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "from b" {
		t.Errorf("expected %q, got %q", "from b", text)
	}

	// Sticky switch: next call should start at model-b and skip model-a.
	provider.tried = nil
	if _, err := g.Complete(context.Background(), []Message{User("again")}, 0.2, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(provider.tried) != 1 || provider.tried[0] != "model-b" {
		t.Errorf("expected only model-b on second call, got %v", provider.tried)
	}

	status := g.QuotaStatus()
	if status.CurrentModel != "model-b" {
		t.Errorf("expected current model model-b, got %s", status.CurrentModel)
	}
	if len(status.QuotaExhaustedModels) != 1 || status.QuotaExhaustedModels[0] != "model-a" {
		t.Errorf("expected model-a exhausted, got %v", status.QuotaExhaustedModels)
	}
}

func TestCompleteMarksNotFoundPermanently(t *testing.T) {
	provider := &scriptedProvider{results: map[string]scriptedResult{
		"gone":    {err: errors.New("404 model not found")},
		"present": {text: "ok"},
	}}
	g := newTestGateway(provider, "gone", []string{"gone", "present"})

	if _, err := g.Complete(context.Background(), []Message{User("x")}, 0, 50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status := g.QuotaStatus()
	if len(status.FailedModels) != 1 || status.FailedModels[0] != "gone" {
		t.Errorf("expected gone in failed models, got %v", status.FailedModels)
	}
}

func TestCompleteTransientErrorsLeaveModelUnmarked(t *testing.T) {
	provider := &scriptedProvider{results: map[string]scriptedResult{
		"flaky":  {err: errors.New("503 service unavailable")},
		"backup": {text: "ok"},
	}}
	g := newTestGateway(provider, "flaky", []string{"flaky", "backup"})

	if _, err := g.Complete(context.Background(), []Message{User("x")}, 0, 50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status := g.QuotaStatus()
	if len(status.FailedModels) != 0 || len(status.QuotaExhaustedModels) != 0 {
		t.Errorf("transient failure should not mark the model: %+v", status)
	}
}

func TestCompleteReturnsErrUnavailableWhenAllFail(t *testing.T) {
	provider := &scriptedProvider{results: map[string]scriptedResult{}}
	g := newTestGateway(provider, "a", []string{"a", "b"})

	_, err := g.Complete(context.Background(), []Message{User("x")}, 0, 50)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	// Both models were 404s, so a second call has no candidates left.
	_, err = g.Complete(context.Background(), []Message{User("x")}, 0, 50)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable with empty candidates, got %v", err)
	}
}

func TestCandidatesCappedDuringQuotaCascade(t *testing.T) {
	var fallback []string
	for i := 0; i < 20; i++ {
		fallback = append(fallback, fmt.Sprintf("model-%02d", i))
	}
	g := newTestGateway(&scriptedProvider{}, fallback[0], fallback)

	for i := 0; i < g.cascadeThreshold; i++ {
		g.markExhausted(fallback[i])
	}

	candidates := g.candidates()
	if len(candidates) != cascadeProbeSize {
		t.Errorf("expected %d candidates during cascade, got %d (%v)", cascadeProbeSize, len(candidates), candidates)
	}
	for _, c := range candidates {
		if _, bad := g.exhausted[c]; bad {
			t.Errorf("exhausted model %s offered as candidate", c)
		}
	}
}

func TestCascadeThresholdConfigurable(t *testing.T) {
	fallback := []string{"a", "b", "c", "d", "e", "f"}
	g := newTestGateway(&scriptedProvider{}, "a", fallback)
	g.cascadeThreshold = 2

	g.markExhausted("a")
	g.markExhausted("b")

	candidates := g.candidates()
	if len(candidates) != cascadeProbeSize {
		t.Errorf("expected %d candidates with threshold 2, got %v", cascadeProbeSize, candidates)
	}
}

func TestQuotaStatusReportsWorkingModel(t *testing.T) {
	g := newTestGateway(&scriptedProvider{}, "a", []string{"a", "b"})

	status := g.QuotaStatus()
	if status.Exhausted {
		t.Error("fresh gateway should not be exhausted")
	}
	if status.WorkingModel == nil || *status.WorkingModel != "a" {
		t.Errorf("expected working model a, got %v", status.WorkingModel)
	}

	// Current model out of quota: the next eligible one is working.
	g.markExhausted("a")
	status = g.QuotaStatus()
	if status.WorkingModel == nil || *status.WorkingModel != "b" {
		t.Errorf("expected working model b, got %v", status.WorkingModel)
	}
	if status.Message == "" {
		t.Error("expected a quota message once a model is exhausted")
	}

	g.markFailed("b")
	status = g.QuotaStatus()
	if !status.Exhausted || status.WorkingModel != nil {
		t.Errorf("expected exhausted status with no working model, got %+v", status)
	}
	if status.Message == "" {
		t.Error("expected an exhaustion message")
	}
}

func TestCompleteRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := newTestGateway(&scriptedProvider{}, "a", []string{"a"})
	_, err := g.Complete(ctx, []Message{User("x")}, 0, 50)
	if err == nil || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
