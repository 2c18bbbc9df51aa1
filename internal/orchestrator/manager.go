package orchestrator

import (
	"context"
	"errors"
	"sync"

	"github.com/antoniostano/haven/internal/observability"
	"github.com/antoniostano/haven/internal/store"
	"github.com/antoniostano/haven/internal/workflow"
)

var ErrNotFound = errors.New("session not found")

// Manager tracks one Orchestrator per active session. The workflow and the
// store are shared; each orchestrator keeps only its own conversation state.
type Manager struct {
	mu            sync.RWMutex
	orchestrators map[string]*Orchestrator

	wf      *workflow.Workflow
	store   store.Store
	metrics *observability.Metrics
}

func NewManager(wf *workflow.Workflow, st store.Store, metrics *observability.Metrics) *Manager {
	return &Manager{
		orchestrators: make(map[string]*Orchestrator),
		wf:            wf,
		store:         st,
		metrics:       metrics,
	}
}

// StartSession creates a session and registers its orchestrator.
func (m *Manager) StartSession(ctx context.Context, userID string) (*Orchestrator, error) {
	o := New(m.wf, m.store, m.metrics)
	sessionID, err := o.StartSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.orchestrators[sessionID] = o
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ActiveSessions.Inc()
		m.metrics.SessionEvents.WithLabelValues("created").Inc()
	}
	return o, nil
}

func (m *Manager) Get(sessionID string) (*Orchestrator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orchestrators[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

// End removes the session from the registry. The stored conversation, if
// any, stays readable through the store.
func (m *Manager) End(sessionID string) error {
	m.mu.Lock()
	_, ok := m.orchestrators[sessionID]
	if ok {
		delete(m.orchestrators, sessionID)
	}
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	if m.metrics != nil {
		m.metrics.ActiveSessions.Dec()
		m.metrics.SessionEvents.WithLabelValues("ended").Inc()
	}
	return nil
}

func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.orchestrators)
}
