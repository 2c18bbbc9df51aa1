package store

import "time"

// ExportedMessage is one entry of the session export document: a
// message-shaped JSON object suitable for a file download. The routing
// columns are present on every entry and null on user rows, so the document
// has a uniform schema.
type ExportedMessage struct {
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Approach   *string   `json:"approach"`
	Confidence *float64  `json:"confidence"`
	Reasoning  *string   `json:"reasoning"`
	CreatedAt  time.Time `json:"created_at"`
}

// Export projects a session's stored messages, in creation order, into the
// export format. Routing metadata is carried on assistant entries only.
func Export(messages []StoredMessage) []ExportedMessage {
	out := make([]ExportedMessage, 0, len(messages))
	for _, m := range messages {
		e := ExportedMessage{
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
		if m.Role == "assistant" {
			approach := m.Approach
			confidence := m.Confidence
			reasoning := m.Rationale
			e.Approach = &approach
			e.Confidence = &confidence
			e.Reasoning = &reasoning
		}
		out = append(out, e)
	}
	return out
}
