package agents

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/antoniostano/haven/internal/genclient"
)

// Classification is the router's decision for one user message.
type Classification struct {
	Approach   Approach `json:"approach"`
	Confidence float64  `json:"confidence"`
	Rationale  string   `json:"reasoning"`
	Keywords   []string `json:"keywords,omitempty"`
}

const fallbackConfidence = 0.5

// FallbackRationale is the fixed rationale reported when routing degrades to
// the default approach.
const FallbackRationale = "Falling back to DBT by default."

// FallbackClassification is the deterministic routing decision used whenever
// the model's answer is unusable. Availability of some response outranks
// strict correctness here.
func FallbackClassification() Classification {
	return Classification{
		Approach:   DefaultApproach,
		Confidence: fallbackConfidence,
		Rationale:  FallbackRationale,
	}
}

// Router classifies user messages into one of the fixed approaches.
type Router struct {
	client genclient.Client
}

func NewRouter(client genclient.Client) *Router {
	return &Router{client: client}
}

// Classify asks the model for a routing decision. Malformed or incomplete
// model output degrades silently to the fallback classification; only a
// provider failure is returned as an error, and callers are expected to
// apply the same fallback.
func (r *Router) Classify(ctx context.Context, input string, history []genclient.Message) (Classification, error) {
	raw, err := r.client.Generate(ctx, routerPrompt, trimHistory(history), input)
	if err != nil {
		return Classification{}, err
	}

	text := genclient.Normalize(raw)

	var payload struct {
		Approach   string   `json:"approach"`
		Confidence *float64 `json:"confidence"`
		Reasoning  string   `json:"reasoning"`
		Keywords   []string `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &payload); err != nil {
		log.Warn().Err(err).Str("agent", "router").Msg("unparseable routing response, using fallback")
		return FallbackClassification(), nil
	}
	if payload.Approach == "" {
		log.Warn().Str("agent", "router").Msg("routing response missing approach, using fallback")
		return FallbackClassification(), nil
	}

	// A decision that omits confidence is still usable; the missing field
	// alone degrades to the fallback value.
	confidence := fallbackConfidence
	if payload.Confidence != nil {
		confidence = clampConfidence(*payload.Confidence)
	}

	return Classification{
		Approach:   ParseApproach(payload.Approach),
		Confidence: confidence,
		Rationale:  payload.Reasoning,
		Keywords:   payload.Keywords,
	}, nil
}

// Misbehaving backends occasionally report confidence outside [0,1]; values
// are clamped rather than rejected.
func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
