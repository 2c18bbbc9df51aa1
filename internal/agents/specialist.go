package agents

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/antoniostano/haven/internal/genclient"
)

// PlaceholderReply is the user-visible reply substituted when a specialist's
// generation call fails. The workflow applies it so a turn always completes.
const PlaceholderReply = "I'm having trouble finding the right words just now. Could you tell me a little more about what's going on?"

// Specialist produces a free-text reply in one fixed therapeutic modality.
type Specialist struct {
	approach    Approach
	instruction string
	client      genclient.Client
}

func NewSpecialist(approach Approach, client genclient.Client) *Specialist {
	return &Specialist{
		approach:    approach,
		instruction: specialistPrompt(approach),
		client:      client,
	}
}

func (s *Specialist) Approach() Approach { return s.approach }

// Respond sends the fixed instruction, the trimmed history and the input to
// the generation client and flattens whatever shape comes back. Provider
// errors are returned; the workflow converts them to the placeholder reply.
func (s *Specialist) Respond(ctx context.Context, input string, history []genclient.Message) (string, error) {
	raw, err := s.client.Generate(ctx, s.instruction, trimHistory(history), input)
	if err != nil {
		return "", err
	}

	reply := genclient.Normalize(raw)
	if reply == "" {
		// Not an error, but worth a trace: the provider answered with
		// something normalization could not extract text from.
		log.Debug().
			Str("agent", "specialist").
			Str("approach", string(s.approach)).
			Interface("raw", raw).
			Msg("empty reply after normalization")
	}
	return reply, nil
}
