package agents

import (
	"strings"

	"github.com/antoniostano/haven/internal/genclient"
)

// Approach identifies one of the fixed therapeutic response modes.
type Approach string

const (
	ApproachDBT Approach = "DBT"
	ApproachIFS Approach = "IFS"
	ApproachTRE Approach = "TRE"
)

// DefaultApproach is used whenever routing cannot produce a usable decision.
const DefaultApproach = ApproachDBT

// Approaches lists every routable approach.
func Approaches() []Approach {
	return []Approach{ApproachDBT, ApproachIFS, ApproachTRE}
}

// ParseApproach maps free-form model output onto the fixed set. Casing is
// ignored; unknown values resolve to the default rather than being rejected.
func ParseApproach(s string) Approach {
	switch Approach(strings.ToUpper(strings.TrimSpace(s))) {
	case ApproachDBT, ApproachIFS, ApproachTRE:
		return Approach(strings.ToUpper(strings.TrimSpace(s)))
	default:
		return DefaultApproach
	}
}

// Insights is the structured memory extracted from one turn. The zero value
// is not what callers should hand out; EmptyInsights keeps every slice
// non-nil so persistence and JSON encoding see a well-formed structure even
// when the model output could not be parsed.
type Insights struct {
	Insights []string `json:"insights"`
	Patterns []string `json:"patterns"`
	Triggers []string `json:"triggers"`
	Keywords []string `json:"keywords"`
}

func EmptyInsights() Insights {
	return Insights{
		Insights: []string{},
		Patterns: []string{},
		Triggers: []string{},
		Keywords: []string{},
	}
}

// historyWindow bounds how much prior conversation is sent with each model
// call, independent of the full persisted history.
const historyWindow = 5

func trimHistory(history []genclient.Message) []genclient.Message {
	if len(history) <= historyWindow {
		return history
	}
	return history[len(history)-historyWindow:]
}
