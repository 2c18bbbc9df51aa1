package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/antoniostano/haven/internal/agents"
	"github.com/antoniostano/haven/internal/genclient"
	"github.com/antoniostano/haven/internal/observability"
	"github.com/antoniostano/haven/internal/policy"
	"github.com/antoniostano/haven/internal/store"
	"github.com/antoniostano/haven/internal/workflow"
)

// Envelope is the per-turn response returned to callers.
type Envelope struct {
	TurnID     string          `json:"turn_id"`
	Reply      string          `json:"reply"`
	Approach   agents.Approach `json:"approach"`
	Confidence float64         `json:"confidence"`
	Rationale  string          `json:"reasoning"`
	Insights   agents.Insights `json:"insights"`
}

// Orchestrator owns one conversation: its history, its session id, and the
// wiring of the workflow to the store. Turns are strictly sequential; the
// mutex serializes ProcessMessage so each turn fully completes before the
// next begins.
type Orchestrator struct {
	mu      sync.Mutex
	wf      *workflow.Workflow
	store   store.Store // nil disables persistence
	metrics *observability.Metrics

	sessionID string
	userID    string
	history   []genclient.Message
}

func New(wf *workflow.Workflow, st store.Store, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{wf: wf, store: st, metrics: metrics}
}

// StartSession resets the held history and creates a fresh session. The
// store assigns the identifier when persistence is configured.
func (o *Orchestrator) StartSession(ctx context.Context, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		userID = "default"
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.userID = userID
	o.history = nil

	if o.store == nil {
		o.sessionID = uuid.NewString()
		return o.sessionID, nil
	}
	sess, err := o.store.CreateSession(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	o.sessionID = sess.ID
	return o.sessionID, nil
}

func (o *Orchestrator) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID
}

// ProcessMessage runs one turn through the workflow and persists it. A
// storage failure fails the turn: the error is returned and the held
// history is left as it was before the turn, so memory and persistence
// never diverge silently. Generation failures never surface here; the
// workflow resolves them to defaults.
func (o *Orchestrator) ProcessMessage(ctx context.Context, input string) (Envelope, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	turn, updated := o.wf.ProcessMessage(ctx, input, o.history)

	// Insights outlive the session, so identifiers are masked before they
	// are stored or returned.
	turn.Insights.Insights = policy.RedactAll(turn.Insights.Insights)
	turn.Insights.Patterns = policy.RedactAll(turn.Insights.Patterns)
	turn.Insights.Triggers = policy.RedactAll(turn.Insights.Triggers)

	if o.store != nil && o.sessionID != "" {
		started := time.Now()
		err := o.store.SaveInteraction(ctx, o.sessionID, store.Interaction{
			UserMessage: turn.Input,
			Reply:       turn.Reply,
			Approach:    string(turn.Approach),
			Confidence:  turn.Confidence,
			Rationale:   turn.Rationale,
			Insights:    turn.Insights,
		})
		if o.metrics != nil {
			o.metrics.ObserveTurnStage(observability.StagePersist, time.Since(started))
		}
		if err != nil {
			return Envelope{}, fmt.Errorf("persist turn: %w", err)
		}
	}

	o.history = updated
	return Envelope{
		TurnID:     turn.TurnID,
		Reply:      turn.Reply,
		Approach:   turn.Approach,
		Confidence: turn.Confidence,
		Rationale:  turn.Rationale,
		Insights:   turn.Insights,
	}, nil
}

// Insights proxies to the store, returning an empty sequence when no store
// is configured or no session is active.
func (o *Orchestrator) Insights(ctx context.Context) ([]store.StoredInsight, error) {
	o.mu.Lock()
	sessionID := o.sessionID
	o.mu.Unlock()
	if o.store == nil || sessionID == "" {
		return []store.StoredInsight{}, nil
	}
	return o.store.Insights(ctx, sessionID)
}

// History proxies to the store, returning an empty sequence when no store
// is configured or no session is active.
func (o *Orchestrator) History(ctx context.Context) ([]store.StoredMessage, error) {
	o.mu.Lock()
	sessionID := o.sessionID
	o.mu.Unlock()
	if o.store == nil || sessionID == "" {
		return []store.StoredMessage{}, nil
	}
	return o.store.History(ctx, sessionID)
}

// Export returns the session's messages in the export document format.
func (o *Orchestrator) Export(ctx context.Context) ([]store.ExportedMessage, error) {
	history, err := o.History(ctx)
	if err != nil {
		return nil, err
	}
	return store.Export(history), nil
}
