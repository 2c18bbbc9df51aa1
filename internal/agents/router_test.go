package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/antoniostano/haven/internal/genclient"
)

// stubClient returns a canned payload, recording what it was called with.
type stubClient struct {
	raw     any
	err     error
	system  string
	history []genclient.Message
	input   string
}

func (c *stubClient) Generate(_ context.Context, system string, history []genclient.Message, input string) (any, error) {
	c.system = system
	c.history = history
	c.input = input
	if c.err != nil {
		return nil, c.err
	}
	return c.raw, nil
}

func TestClassifyParsesWellFormedDecision(t *testing.T) {
	client := &stubClient{raw: `{"approach":"TRE","confidence":0.8,"reasoning":"somatic symptoms","keywords":["tension"]}`}
	router := NewRouter(client)

	got, err := router.Classify(context.Background(), "I feel a tight knot in my chest", nil)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got.Approach != ApproachTRE {
		t.Fatalf("Approach = %s, want %s", got.Approach, ApproachTRE)
	}
	if got.Confidence != 0.8 {
		t.Fatalf("Confidence = %v, want 0.8", got.Confidence)
	}
	if got.Rationale != "somatic symptoms" {
		t.Fatalf("Rationale = %q", got.Rationale)
	}
}

func TestClassifyStripsCodeFences(t *testing.T) {
	client := &stubClient{raw: "```json\n{\"approach\":\"ifs\",\"confidence\":0.9,\"reasoning\":\"parts language\"}\n```"}
	router := NewRouter(client)

	got, err := router.Classify(context.Background(), "part of me wants to hide", nil)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got.Approach != ApproachIFS {
		t.Fatalf("Approach = %s, want %s", got.Approach, ApproachIFS)
	}
}

func TestClassifyFallsBackOnMalformedOutput(t *testing.T) {
	cases := []struct {
		name string
		raw  any
	}{
		{"prose", "I think DBT would be best for this person."},
		{"truncated", `{"approach":"TRE","confi`},
		{"fenced truncated", "```json\n{\"approach\":\"TRE\",\"confi"},
		{"missing approach", `{"confidence":0.9,"reasoning":"unclear"}`},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := NewRouter(&stubClient{raw: tc.raw})
			got, err := router.Classify(context.Background(), "hello", nil)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if got.Approach != DefaultApproach {
				t.Fatalf("Approach = %s, want %s", got.Approach, DefaultApproach)
			}
			if got.Confidence != 0.5 {
				t.Fatalf("Confidence = %v, want exactly 0.5", got.Confidence)
			}
			if got.Rationale != FallbackRationale {
				t.Fatalf("Rationale = %q, want %q", got.Rationale, FallbackRationale)
			}
		})
	}
}

func TestClassifyDefaultsMissingConfidence(t *testing.T) {
	cases := []struct {
		name string
		raw  any
	}{
		{"key absent", `{"approach":"TRE","reasoning":"somatic"}`},
		{"null", `{"approach":"TRE","confidence":null,"reasoning":"somatic"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := NewRouter(&stubClient{raw: tc.raw})
			got, err := router.Classify(context.Background(), "I feel a knot in my chest", nil)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			// The approach itself is usable; only the missing field takes
			// the fallback value.
			if got.Approach != ApproachTRE {
				t.Fatalf("Approach = %s, want %s", got.Approach, ApproachTRE)
			}
			if got.Confidence != 0.5 {
				t.Fatalf("Confidence = %v, want 0.5", got.Confidence)
			}
			if got.Rationale != "somatic" {
				t.Fatalf("Rationale = %q, want parsed reasoning", got.Rationale)
			}
		})
	}
}

func TestClassifyClampsConfidence(t *testing.T) {
	router := NewRouter(&stubClient{raw: `{"approach":"DBT","confidence":3.2,"reasoning":"x"}`})
	got, err := router.Classify(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got.Confidence != 1 {
		t.Fatalf("Confidence = %v, want clamped to 1", got.Confidence)
	}
}

func TestClassifyUnknownApproachResolvesToDefault(t *testing.T) {
	router := NewRouter(&stubClient{raw: `{"approach":"CBT","confidence":0.7,"reasoning":"cognitive"}`})
	got, err := router.Classify(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got.Approach != DefaultApproach {
		t.Fatalf("Approach = %s, want %s", got.Approach, DefaultApproach)
	}
	// Parsed decisions keep their own confidence, even when the approach
	// label had to be coerced.
	if got.Confidence != 0.7 {
		t.Fatalf("Confidence = %v, want 0.7", got.Confidence)
	}
}

func TestClassifyReturnsProviderError(t *testing.T) {
	wantErr := errors.New("upstream down")
	router := NewRouter(&stubClient{err: wantErr})
	if _, err := router.Classify(context.Background(), "hi", nil); !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}
}

func TestClassifyTrimsHistoryWindow(t *testing.T) {
	history := make([]genclient.Message, 0, 8)
	for i := 0; i < 8; i++ {
		history = append(history, genclient.Message{Role: genclient.RoleUser, Content: string(rune('a' + i))})
	}
	client := &stubClient{raw: `{"approach":"DBT","confidence":0.6,"reasoning":"x"}`}
	router := NewRouter(client)

	if _, err := router.Classify(context.Background(), "hi", history); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(client.history) != historyWindow {
		t.Fatalf("history sent = %d entries, want %d", len(client.history), historyWindow)
	}
	if client.history[0].Content != "d" {
		t.Fatalf("window start = %q, want most recent entries", client.history[0].Content)
	}
}
