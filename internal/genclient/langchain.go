package genclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// LangchainClient adapts a langchaingo model to the Client interface.
type LangchainClient struct {
	llm         llms.Model
	model       string
	temperature float64
	maxTokens   int
}

func newLangchainClient(ctx context.Context, provider string, cfg Config) (*LangchainClient, error) {
	model, err := buildModel(ctx, provider, cfg)
	if err != nil {
		return nil, fmt.Errorf("init %s model: %w", provider, err)
	}
	return &LangchainClient{
		llm:         model,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func buildModel(ctx context.Context, provider string, cfg Config) (llms.Model, error) {
	switch provider {
	case "openai":
		opts := []openai.Option{openai.WithModel(cfg.Model)}
		if cfg.APIKey != "" {
			opts = append(opts, openai.WithToken(cfg.APIKey))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(opts...)
	case "gemini":
		opts := []googleai.Option{googleai.WithDefaultModel(cfg.Model)}
		if cfg.APIKey != "" {
			opts = append(opts, googleai.WithAPIKey(cfg.APIKey))
		}
		return googleai.New(ctx, opts...)
	case "claude":
		opts := []anthropic.Option{anthropic.WithModel(cfg.Model)}
		if cfg.APIKey != "" {
			opts = append(opts, anthropic.WithToken(cfg.APIKey))
		}
		return anthropic.New(opts...)
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.New(ollama.WithServerURL(baseURL), ollama.WithModel(cfg.Model))
	default:
		return nil, fmt.Errorf("unsupported provider %q", provider)
	}
}

func (c *LangchainClient) Generate(ctx context.Context, system string, history []Message, input string) (any, error) {
	messages := make([]llms.MessageContent, 0, len(history)+2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, system))
	}
	for _, m := range history {
		role := schema.ChatMessageTypeHuman
		if m.Role == RoleAssistant {
			role = schema.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, m.Content))
	}
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, input))

	opts := []llms.CallOption{
		llms.WithTemperature(c.temperature),
	}
	if c.model != "" {
		opts = append(opts, llms.WithModel(c.model))
	}
	if c.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.maxTokens))
	}

	resp, err := c.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, errors.New("provider returned no choices")
	}
	return resp.Choices[0].Content, nil
}
