package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process store for local/dev use and tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	messages map[string][]StoredMessage
	insights map[string][]StoredInsight
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]Session),
		messages: make(map[string][]StoredMessage),
		insights: make(map[string][]StoredInsight),
	}
}

func (s *InMemoryStore) CreateSession(_ context.Context, userID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *InMemoryStore) SaveInteraction(_ context.Context, sessionID string, in Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}

	// Distinct timestamps keep rows strictly ordered by creation time even
	// within one interaction.
	at := time.Now().UTC()
	s.messages[sessionID] = append(s.messages[sessionID],
		StoredMessage{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Role:      "user",
			Content:   in.UserMessage,
			CreatedAt: at,
		},
		StoredMessage{
			ID:         uuid.NewString(),
			SessionID:  sessionID,
			Role:       "assistant",
			Content:    in.Reply,
			Approach:   in.Approach,
			Confidence: in.Confidence,
			Rationale:  in.Rationale,
			CreatedAt:  at.Add(time.Microsecond),
		},
	)

	at = at.Add(2 * time.Microsecond)
	for _, group := range []struct {
		kind  string
		items []string
	}{
		{KindInsight, in.Insights.Insights},
		{KindPattern, in.Insights.Patterns},
		{KindTrigger, in.Insights.Triggers},
	} {
		for _, text := range group.items {
			s.insights[sessionID] = append(s.insights[sessionID], StoredInsight{
				ID:        uuid.NewString(),
				SessionID: sessionID,
				Text:      text,
				Kind:      group.kind,
				Approach:  in.Approach,
				CreatedAt: at,
			})
			at = at.Add(time.Microsecond)
		}
	}
	return nil
}

func (s *InMemoryStore) History(_ context.Context, sessionID string) ([]StoredMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.messages[sessionID]
	out := make([]StoredMessage, len(arr))
	copy(out, arr)
	return out, nil
}

func (s *InMemoryStore) Insights(_ context.Context, sessionID string) ([]StoredInsight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.insights[sessionID]
	out := make([]StoredInsight, 0, len(arr))
	for i := len(arr) - 1; i >= 0; i-- {
		out = append(out, arr[i])
	}
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
