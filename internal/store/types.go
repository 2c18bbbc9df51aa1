package store

import (
	"context"
	"errors"
	"time"

	"github.com/antoniostano/haven/internal/agents"
)

// Session is one conversation's persistence scope. The record is never
// mutated after creation.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredMessage is the persisted projection of one side of an exchange.
// Approach, confidence and reasoning are set on assistant rows only.
type StoredMessage struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Approach   string    `json:"approach,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	Rationale  string    `json:"reasoning,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Insight kinds persisted by SaveInteraction.
const (
	KindInsight = "insight"
	KindPattern = "pattern"
	KindTrigger = "trigger"
)

// StoredInsight is one extracted observation, tagged with its kind and the
// approach that was active when it was produced.
type StoredInsight struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Text      string    `json:"text"`
	Kind      string    `json:"kind"`
	Approach  string    `json:"approach"`
	CreatedAt time.Time `json:"created_at"`
}

// Interaction carries everything from one completed turn that the store
// persists: the user message, the assistant reply with its routing
// metadata, and the extracted insights.
type Interaction struct {
	UserMessage string
	Reply       string
	Approach    string
	Confidence  float64
	Rationale   string
	Insights    agents.Insights
}

var ErrSessionNotFound = errors.New("session not found")

// Store persists sessions, messages and insights. The store is append-only:
// there are no update or delete operations. All rows written by one
// SaveInteraction call become visible as a unit.
type Store interface {
	CreateSession(ctx context.Context, userID string) (Session, error)
	SaveInteraction(ctx context.Context, sessionID string, in Interaction) error
	// History returns a session's messages in creation order.
	History(ctx context.Context, sessionID string) ([]StoredMessage, error)
	// Insights returns a session's insights, most recent first.
	Insights(ctx context.Context, sessionID string) ([]StoredInsight, error)
	Close() error
}
