package agents

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/antoniostano/haven/internal/genclient"
)

// Extractor distills structured insights out of a completed turn.
type Extractor struct {
	client genclient.Client
}

func NewExtractor(client genclient.Client) *Extractor {
	return &Extractor{client: client}
}

// Extract summarizes the turn with no trailing history; the synthetic
// context string carries everything the memory agent needs. Extraction is
// advisory: malformed model output yields the empty insight structure, and
// only a provider failure surfaces as an error (callers apply the same
// empty default).
func (e *Extractor) Extract(ctx context.Context, input string, approach Approach, reply string) (Insights, error) {
	turnContext := fmt.Sprintf(
		"User message: %s\nApproach: %s\nSpecialist reply: %s",
		input, approach, reply,
	)

	raw, err := e.client.Generate(ctx, memoryPrompt, nil, turnContext)
	if err != nil {
		return EmptyInsights(), err
	}

	text := genclient.Normalize(raw)

	// The resources list is part of the extraction contract but is not
	// persisted, matching the store's insight kinds.
	var payload struct {
		Insights  []string `json:"insights"`
		Patterns  []string `json:"patterns"`
		Triggers  []string `json:"triggers"`
		Resources []string `json:"resources"`
		Keywords  []string `json:"keywords"`
	}
	if err := decodeLenient(extractJSON(text), &payload); err != nil {
		log.Warn().Err(err).Str("agent", "memory").Msg("unparseable insight response, keeping empty defaults")
		return EmptyInsights(), nil
	}

	out := EmptyInsights()
	out.Insights = append(out.Insights, payload.Insights...)
	out.Patterns = append(out.Patterns, payload.Patterns...)
	out.Triggers = append(out.Triggers, payload.Triggers...)
	out.Keywords = append(out.Keywords, payload.Keywords...)
	return out, nil
}
