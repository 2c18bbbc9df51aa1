package genclient

import (
	"context"
	"fmt"
	"strings"
)

// MockClient provides deterministic local replies when no provider is
// configured. Useful for tests and keyless local runs.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Generate(ctx context.Context, system string, history []Message, input string) (any, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	base := strings.TrimSpace(input)
	if base == "" {
		base = "I am listening."
	}
	if len(history) == 0 {
		return fmt.Sprintf("I heard you: %s", base), nil
	}
	last := strings.TrimSpace(history[len(history)-1].Content)
	if last == "" {
		return fmt.Sprintf("I heard you: %s", base), nil
	}
	return fmt.Sprintf("I heard you: %s\nEarlier you said: %s", base, last), nil
}
