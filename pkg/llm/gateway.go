package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Vikram2406/Hackathon-DQ/pkg/logging"
	"github.com/Vikram2406/Hackathon-DQ/pkg/models"
)

const (
	// defaultRequestTimeout bounds one completion attempt against one model.
	defaultRequestTimeout = 30 * time.Second

	// Once this many models are quota-exhausted, stop walking the whole
	// chain and only probe the first few candidates. Exhausting one model
	// usually means a shared project quota, so the rest would 429 too.
	defaultCascadeThreshold = 10
	cascadeProbeSize        = 3
)

// GatewayConfig configures a Gateway.
type GatewayConfig struct {
	Provider       string
	Model          string // optional override for the starting model
	APIKey         string
	RequestTimeout time.Duration

	// CascadeThreshold is how many quota-exhausted models trigger the
	// cascade cap. Zero means the default of 10.
	CascadeThreshold int
}

// Gateway is the single entry point for completions. It keeps a sticky
// current model and walks the provider's fallback chain when that model
// fails, remembering which models are gone for good (404) and which ran out
// of quota (429) for the rest of the session.
type Gateway struct {
	provider         completionProvider
	fallback         []string
	timeout          time.Duration
	cascadeThreshold int
	logger           *zap.Logger

	mu           sync.Mutex
	currentModel string
	failed       map[string]struct{}
	exhausted    map[string]struct{}
}

// NewGateway builds a gateway for the configured provider.
func NewGateway(cfg GatewayConfig, logger *zap.Logger) (*Gateway, error) {
	provider, err := newProvider(cfg.Provider, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel(cfg.Provider)
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	cascade := cfg.CascadeThreshold
	if cascade <= 0 {
		cascade = defaultCascadeThreshold
	}

	return &Gateway{
		provider:         provider,
		fallback:         FallbackModels(cfg.Provider),
		timeout:          timeout,
		cascadeThreshold: cascade,
		logger:           logger.Named("llm-gateway"),
		currentModel:     model,
		failed:           make(map[string]struct{}),
		exhausted:        make(map[string]struct{}),
	}, nil
}

var _ Client = (*Gateway)(nil)
var _ QuotaReporter = (*Gateway)(nil)

// Complete tries the current model, then the fallback chain. A non-nil
// error means no candidate produced a response; callers degrade rather
// than abort.
func (g *Gateway) Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error) {
	candidates := g.candidates()
	if len(candidates) == 0 {
		g.logger.Warn("no candidate models left", zap.String("provider", g.provider.name()))
		return "", ErrUnavailable
	}

	for _, model := range candidates {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("completion canceled: %w", err)
		}

		reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
		start := time.Now()
		text, err := g.provider.generate(reqCtx, model, messages, temperature, maxTokens)
		cancel()

		if err == nil {
			g.markSuccess(model)
			g.logger.Debug("completion succeeded",
				zap.String("model", model),
				zap.Duration("elapsed", time.Since(start)))
			return text, nil
		}

		classified := Classify(err, g.provider.name(), model)
		switch classified.Type {
		case ErrorTypeQuota:
			g.markExhausted(model)
			g.logger.Warn("model quota exhausted, trying next",
				zap.String("model", model),
				zap.String("error", logging.SanitizeError(err)))
		case ErrorTypeNotFound:
			g.markFailed(model)
			g.logger.Warn("model not available, excluding",
				zap.String("model", model),
				zap.String("error", logging.SanitizeError(err)))
		default:
			// Transient and auth failures leave the model unmarked.
			g.logger.Warn("completion attempt failed, trying next",
				zap.String("model", model),
				zap.String("error_type", string(classified.Type)),
				zap.String("error", logging.SanitizeError(err)))
		}
	}

	g.logger.Error("all candidate models failed",
		zap.String("provider", g.provider.name()),
		zap.Int("candidates", len(candidates)))
	return "", ErrUnavailable
}

// QuotaStatus snapshots the session's model accounting.
func (g *Gateway) QuotaStatus() models.QuotaStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	all := g.allModels()
	status := models.QuotaStatus{
		Provider:             g.provider.name(),
		CurrentModel:         g.currentModel,
		FailedModels:         sortedKeys(g.failed),
		QuotaExhaustedModels: sortedKeys(g.exhausted),
		TotalModels:          len(all),
	}

	// First model not yet marked failed or exhausted; nil when none is left.
	for _, model := range all {
		if _, bad := g.failed[model]; bad {
			continue
		}
		if _, bad := g.exhausted[model]; bad {
			continue
		}
		working := model
		status.WorkingModel = &working
		break
	}

	status.Exhausted = status.WorkingModel == nil
	switch {
	case status.Exhausted:
		status.Message = fmt.Sprintf("All %d %s models are unavailable (%d failed, %d out of quota).",
			len(all), status.Provider, len(g.failed), len(g.exhausted))
	case len(g.exhausted) > 0:
		status.Message = fmt.Sprintf("%d of %d models out of quota; currently using %s.",
			len(g.exhausted), len(all), *status.WorkingModel)
	}
	return status
}

// candidates builds the ordered model list for one completion: the sticky
// current model first, then the fallback chain, minus anything already
// marked failed or exhausted.
func (g *Gateway) candidates() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]string, 0, len(g.fallback)+1)
	for _, model := range g.allModels() {
		if _, bad := g.failed[model]; bad {
			continue
		}
		if _, bad := g.exhausted[model]; bad {
			continue
		}
		out = append(out, model)
	}

	if len(g.exhausted) >= g.cascadeThreshold && len(out) > cascadeProbeSize {
		out = out[:cascadeProbeSize]
	}
	return out
}

// allModels returns current + fallback in order, without duplicates.
// Callers must hold g.mu.
func (g *Gateway) allModels() []string {
	seen := make(map[string]struct{}, len(g.fallback)+1)
	out := make([]string, 0, len(g.fallback)+1)
	for _, model := range append([]string{g.currentModel}, g.fallback...) {
		if _, dup := seen[model]; dup {
			continue
		}
		seen[model] = struct{}{}
		out = append(out, model)
	}
	return out
}

func (g *Gateway) markSuccess(model string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if model != g.currentModel {
		g.logger.Info("switching current model",
			zap.String("from", g.currentModel),
			zap.String("to", model))
		g.currentModel = model
	}
}

func (g *Gateway) markExhausted(model string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.exhausted[model] = struct{}{}
}

func (g *Gateway) markFailed(model string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failed[model] = struct{}{}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
