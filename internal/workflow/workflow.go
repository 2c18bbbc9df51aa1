package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/antoniostano/haven/internal/agents"
	"github.com/antoniostano/haven/internal/genclient"
	"github.com/antoniostano/haven/internal/observability"
)

// State identifies one node of the fixed per-turn pipeline. The topology
// never changes at runtime, so the graph is an explicit state machine
// rather than a generic graph engine.
type State string

const (
	StateRouter State = "router"
	StateDBT    State = "dbt"
	StateIFS    State = "ifs"
	StateTRE    State = "tre"
	StateMemory State = "memory"
	StateDone   State = "done"
)

// next is the pure transition function. The router's approach selects
// exactly one specialist state; every specialist leads to memory; memory
// terminates the turn.
func next(s State, approach agents.Approach) State {
	switch s {
	case StateRouter:
		return specialistState(approach)
	case StateDBT, StateIFS, StateTRE:
		return StateMemory
	case StateMemory:
		return StateDone
	default:
		return StateDone
	}
}

func specialistState(approach agents.Approach) State {
	switch approach {
	case agents.ApproachIFS:
		return StateIFS
	case agents.ApproachTRE:
		return StateTRE
	default:
		return StateDBT
	}
}

// Turn is the mutable per-message state record shared by every pipeline
// step. Steps only add fields; nothing a prior step wrote is erased.
type Turn struct {
	TurnID     string          `json:"turn_id"`
	Input      string          `json:"input"`
	Approach   agents.Approach `json:"approach"`
	Confidence float64         `json:"confidence"`
	Rationale  string          `json:"reasoning"`
	Keywords   []string        `json:"keywords,omitempty"`
	Reply      string          `json:"reply"`
	Insights   agents.Insights `json:"insights"`
}

// Classifier decides the approach for a message.
type Classifier interface {
	Classify(ctx context.Context, input string, history []genclient.Message) (agents.Classification, error)
}

// Responder produces a reply in one fixed approach.
type Responder interface {
	Approach() agents.Approach
	Respond(ctx context.Context, input string, history []genclient.Message) (string, error)
}

// InsightExtractor distills structured memory from a completed exchange.
type InsightExtractor interface {
	Extract(ctx context.Context, input string, approach agents.Approach, reply string) (agents.Insights, error)
}

// Workflow runs one message through router, specialist and memory steps.
type Workflow struct {
	classifier  Classifier
	specialists map[agents.Approach]Responder
	extractor   InsightExtractor
	metrics     *observability.Metrics
}

// New wires the pipeline. One responder per approach is required; metrics
// may be nil.
func New(classifier Classifier, responders []Responder, extractor InsightExtractor, metrics *observability.Metrics) (*Workflow, error) {
	specialists := make(map[agents.Approach]Responder, len(responders))
	for _, r := range responders {
		specialists[r.Approach()] = r
	}
	for _, a := range agents.Approaches() {
		if _, ok := specialists[a]; !ok {
			return nil, fmt.Errorf("missing responder for approach %s", a)
		}
	}
	return &Workflow{
		classifier:  classifier,
		specialists: specialists,
		extractor:   extractor,
		metrics:     metrics,
	}, nil
}

// NewFromClient builds the default agent set on top of a generation client.
func NewFromClient(client genclient.Client, metrics *observability.Metrics) (*Workflow, error) {
	responders := make([]Responder, 0, len(agents.Approaches()))
	for _, a := range agents.Approaches() {
		responders = append(responders, agents.NewSpecialist(a, client))
	}
	return New(agents.NewRouter(client), responders, agents.NewExtractor(client), metrics)
}

// ProcessMessage executes one full turn and returns the completed turn
// record together with the history extended by the user message and the
// specialist reply. The turn always completes: generation failures degrade
// to documented defaults at this boundary and are never propagated.
func (w *Workflow) ProcessMessage(ctx context.Context, input string, history []genclient.Message) (*Turn, []genclient.Message) {
	started := time.Now()
	turn := &Turn{
		TurnID:   uuid.NewString(),
		Input:    input,
		Insights: agents.EmptyInsights(),
	}

	for state := StateRouter; state != StateDone; state = next(state, turn.Approach) {
		switch state {
		case StateRouter:
			w.runRouter(ctx, turn, history)
		case StateDBT, StateIFS, StateTRE:
			w.runSpecialist(ctx, turn, history)
		case StateMemory:
			w.runMemory(ctx, turn)
		}
	}

	if w.metrics != nil {
		w.metrics.TurnsTotal.WithLabelValues(string(turn.Approach)).Inc()
		w.metrics.ObserveTurnLatency(time.Since(started))
	}

	history = append(history,
		genclient.Message{Role: genclient.RoleUser, Content: turn.Input},
		genclient.Message{Role: genclient.RoleAssistant, Content: turn.Reply},
	)
	return turn, history
}

func (w *Workflow) runRouter(ctx context.Context, turn *Turn, history []genclient.Message) {
	started := time.Now()
	decision, err := w.classifier.Classify(ctx, turn.Input, history)
	if err != nil {
		log.Error().Err(err).Str("agent", "router").Msg("classification failed, routing to default")
		if w.metrics != nil {
			w.metrics.GenerationErrors.WithLabelValues("router").Inc()
		}
		decision = agents.FallbackClassification()
	}
	if w.metrics != nil {
		if decision.Rationale == agents.FallbackRationale {
			w.metrics.RouterFallbacks.Inc()
		}
		w.metrics.ObserveTurnStage(observability.StageClassify, time.Since(started))
	}

	turn.Approach = decision.Approach
	turn.Confidence = decision.Confidence
	turn.Rationale = decision.Rationale
	turn.Keywords = decision.Keywords
}

func (w *Workflow) runSpecialist(ctx context.Context, turn *Turn, history []genclient.Message) {
	started := time.Now()
	reply, err := w.specialists[turn.Approach].Respond(ctx, turn.Input, history)
	if err != nil {
		log.Error().Err(err).
			Str("agent", "specialist").
			Str("approach", string(turn.Approach)).
			Msg("generation failed, substituting placeholder reply")
		if w.metrics != nil {
			w.metrics.GenerationErrors.WithLabelValues("specialist").Inc()
		}
		reply = agents.PlaceholderReply
	}
	if w.metrics != nil {
		w.metrics.ObserveTurnStage(observability.StageRespond, time.Since(started))
	}
	turn.Reply = reply
}

func (w *Workflow) runMemory(ctx context.Context, turn *Turn) {
	started := time.Now()
	insights, err := w.extractor.Extract(ctx, turn.Input, turn.Approach, turn.Reply)
	if err != nil {
		log.Error().Err(err).Str("agent", "memory").Msg("insight extraction failed, keeping empty defaults")
		if w.metrics != nil {
			w.metrics.GenerationErrors.WithLabelValues("memory").Inc()
		}
		insights = agents.EmptyInsights()
	}
	if w.metrics != nil {
		w.metrics.ObserveTurnStage(observability.StageExtract, time.Since(started))
	}
	turn.Insights = insights
}
