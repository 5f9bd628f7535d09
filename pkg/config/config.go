package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the detection and repair pipeline.
// Configuration can come from a YAML file (config.yaml) or environment
// variables; environment variables override YAML values. Secrets (API keys)
// must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"production"`
	Version string `yaml:"-"` // Set at load time, not from config

	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// LLMConfig configures the gateway: which provider to talk to, the starting
// model, and the per-request limits.
type LLMConfig struct {
	// Provider is one of "openai", "gemini", "claude". Aliases "gpt",
	// "google" and "anthropic" are accepted.
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"gemini"`

	// Model overrides the provider's default starting model.
	Model string `yaml:"model" env:"LLM_MODEL" env-default:""`

	// RequestTimeout bounds a single completion request.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"LLM_REQUEST_TIMEOUT" env-default:"30s"`

	// MaxConcurrent bounds parallel in-flight completion requests.
	MaxConcurrent int `yaml:"max_concurrent" env:"LLM_MAX_CONCURRENT" env-default:"8"`

	// MaxQuotaExhaustedBeforeCascadeCap is how many quota-exhausted models
	// make the gateway cap each call at its first few candidates.
	MaxQuotaExhaustedBeforeCascadeCap int `yaml:"max_quota_exhausted_before_cascade_cap" env:"LLM_MAX_QUOTA_EXHAUSTED_BEFORE_CASCADE_CAP" env-default:"10"`

	// Provider API keys. Env only, never YAML. The generic key wins when set.
	APIKey          string `yaml:"-" env:"LLM_API_KEY"`
	OpenAIAPIKey    string `yaml:"-" env:"OPENAI_API_KEY"`
	GoogleAPIKey    string `yaml:"-" env:"GOOGLE_API_KEY"`
	GeminiAPIKey    string `yaml:"-" env:"GEMINI_API_KEY"`
	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"`
	ClaudeAPIKey    string `yaml:"-" env:"CLAUDE_API_KEY"`
}

// PipelineConfig configures the detection run.
type PipelineConfig struct {
	// SampleLimit caps the rows the analyzer inspects per column.
	SampleLimit int `yaml:"sample_limit" env:"PIPELINE_SAMPLE_LIMIT" env-default:"1000"`

	// Deadline is the soft budget for one full detection run. Agents that
	// have not started when it expires are skipped and the summary is
	// marked partial.
	Deadline time.Duration `yaml:"deadline" env:"PIPELINE_DEADLINE" env-default:"5m"`

	// ImputationColumnsStr is a comma-separated allow-list of columns the
	// imputation agent may fill. Empty means all columns.
	ImputationColumnsStr string `yaml:"imputation_columns" env:"PIPELINE_IMPUTATION_COLUMNS" env-default:""`

	// ImputationColumns is parsed from ImputationColumnsStr.
	ImputationColumns []string `yaml:"-"`
}

// Load reads config.yaml (when present) and the environment.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
	}

	cfg.LLM.Provider = NormalizeProvider(cfg.LLM.Provider)
	cfg.Pipeline.ImputationColumns = splitCSVList(cfg.Pipeline.ImputationColumnsStr)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NormalizeProvider maps provider aliases onto the canonical names.
func NormalizeProvider(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "openai", "gpt":
		return "openai"
	case "gemini", "google":
		return "gemini"
	case "claude", "anthropic":
		return "claude"
	default:
		return "openai"
	}
}

// ResolveAPIKey returns the API key for the configured provider, preferring
// the generic LLM_API_KEY over the provider-specific variables.
func (c *LLMConfig) ResolveAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	switch NormalizeProvider(c.Provider) {
	case "openai":
		return c.OpenAIAPIKey
	case "gemini":
		if c.GoogleAPIKey != "" {
			return c.GoogleAPIKey
		}
		return c.GeminiAPIKey
	case "claude":
		if c.AnthropicAPIKey != "" {
			return c.AnthropicAPIKey
		}
		return c.ClaudeAPIKey
	}
	return ""
}

func (c *Config) validate() error {
	if c.LLM.RequestTimeout <= 0 {
		return fmt.Errorf("llm.request_timeout must be positive, got %s", c.LLM.RequestTimeout)
	}
	if c.LLM.MaxConcurrent < 1 {
		return fmt.Errorf("llm.max_concurrent must be at least 1, got %d", c.LLM.MaxConcurrent)
	}
	if c.LLM.MaxQuotaExhaustedBeforeCascadeCap < 1 {
		return fmt.Errorf("llm.max_quota_exhausted_before_cascade_cap must be at least 1, got %d", c.LLM.MaxQuotaExhaustedBeforeCascadeCap)
	}
	if c.Pipeline.SampleLimit < 1 {
		return fmt.Errorf("pipeline.sample_limit must be at least 1, got %d", c.Pipeline.SampleLimit)
	}
	return nil
}

func splitCSVList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
