package llm

// Fallback chains per provider, cheapest and highest-quota models first.
// The gateway walks the chain whenever the current model fails, skipping
// models already marked failed or quota-exhausted this session.

var geminiFallbackModels = []string{
	"gemini-flash-lite-latest",
	"gemini-2.5-flash-lite",
	"gemini-2.0-flash-lite",
	"gemini-2.0-flash-lite-001",
	"gemini-2.0-flash-lite-preview",
	"gemini-flash-latest",
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-2.0-flash-001",
	"gemini-2.0-flash-exp",
	"gemini-2.5-pro",
	"gemini-3-flash-preview",
	"gemini-3-pro-preview",
	"gemini-pro-latest",
}

var openaiFallbackModels = []string{
	"gpt-4o-mini",
	"gpt-4.1-mini",
	"gpt-4o",
	"gpt-4.1",
	"gpt-3.5-turbo",
}

var claudeFallbackModels = []string{
	"claude-3-5-haiku-latest",
	"claude-3-5-sonnet-latest",
	"claude-3-haiku-20240307",
}

// FallbackModels returns the fallback chain for a provider.
func FallbackModels(provider string) []string {
	switch provider {
	case ProviderGemini:
		return geminiFallbackModels
	case ProviderClaude:
		return claudeFallbackModels
	default:
		return openaiFallbackModels
	}
}

// DefaultModel returns the provider's starting model, the head of its
// fallback chain.
func DefaultModel(provider string) string {
	return FallbackModels(provider)[0]
}
