package llm

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/sashabaranov/go-openai"
)

// Provider names. Gemini is reached through its OpenAI-compatible surface,
// so it shares the openai transport with a different base URL.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
)

const geminiOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// completionProvider is one concrete backend the gateway drives. The gateway
// owns model selection; providers just execute a single request.
type completionProvider interface {
	name() string
	generate(ctx context.Context, model string, messages []Message, temperature float64, maxTokens int) (string, error)
}

// newProvider builds the backend for a canonical provider name.
func newProvider(provider, apiKey string) (completionProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", provider)
	}
	switch provider {
	case ProviderOpenAI:
		return &openAIProvider{client: openai.NewClient(apiKey), providerName: ProviderOpenAI}, nil
	case ProviderGemini:
		cfg := openai.DefaultConfig(apiKey)
		cfg.BaseURL = geminiOpenAIBaseURL
		return &openAIProvider{client: openai.NewClientWithConfig(cfg), providerName: ProviderGemini}, nil
	case ProviderClaude:
		return &claudeProvider{client: anthropic.NewClient(apiKey)}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

type openAIProvider struct {
	client       *openai.Client
	providerName string
}

func (p *openAIProvider) name() string { return p.providerName }

func (p *openAIProvider) generate(ctx context.Context, model string, messages []Message, temperature float64, maxTokens int) (string, error) {
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    chatMessages,
		Temperature: float32(temperature),
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion from model %s", model)
	}
	return resp.Choices[0].Message.Content, nil
}

type claudeProvider struct {
	client *anthropic.Client
}

func (p *claudeProvider) name() string { return ProviderClaude }

func (p *claudeProvider) generate(ctx context.Context, model string, messages []Message, temperature float64, maxTokens int) (string, error) {
	// Anthropic takes the system prompt as a dedicated field; user and
	// assistant turns go into the messages list.
	var system string
	chatMessages := make([]anthropic.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
		case RoleAssistant:
			chatMessages = append(chatMessages, anthropic.NewAssistantTextMessage(m.Content))
		default:
			chatMessages = append(chatMessages, anthropic.NewUserTextMessage(m.Content))
		}
	}

	temp := float32(temperature)
	resp, err := p.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(model),
		System:      system,
		Messages:    chatMessages,
		MaxTokens:   maxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			return *block.Text, nil
		}
	}
	return "", fmt.Errorf("empty completion from model %s", model)
}
