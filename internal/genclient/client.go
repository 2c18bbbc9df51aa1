package genclient

import (
	"context"
	"fmt"
	"strings"
)

// Message is one role-tagged entry of conversation context.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Client is the single integration point with any text generation backend.
// Generate returns the raw provider payload; callers flatten it with
// Normalize before use.
type Client interface {
	Generate(ctx context.Context, system string, history []Message, input string) (any, error)
}

// Config controls client construction. Provider identity is config-driven;
// nothing outside this package knows which backend is in use.
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// New builds a client for the configured provider. The mock provider needs no
// credentials and returns deterministic replies.
func New(ctx context.Context, cfg Config) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = "mock"
	}

	switch provider {
	case "openai", "gemini", "claude", "ollama":
		client, err := newLangchainClient(ctx, provider, cfg)
		if err != nil {
			return nil, err
		}
		return WithRetries(client), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported generation provider %q", cfg.Provider)
	}
}
