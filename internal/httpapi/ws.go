package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/haven/internal/protocol"
)

// handleSessionWS runs a chat session over a websocket. Inbound user
// messages are processed one at a time; a single writer goroutine owns all
// websocket writes.
func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "query parameter session_id is required")
		return
	}

	o, err := s.sessions.Get(sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan protocol.UserMessage, 16)
	outbound := make(chan any, 64)
	runDone := make(chan struct{})

	go func() {
		defer close(runDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-inbound:
				if !ok {
					return
				}
				envelope, err := o.ProcessMessage(ctx, msg.Content)
				var out any
				if err != nil {
					out = protocol.ErrorEvent{
						Type:      protocol.TypeErrorEvent,
						SessionID: sessionID,
						Code:      "turn_failed",
						Retryable: true,
						Detail:    err.Error(),
					}
				} else {
					out = protocol.AssistantTurn{
						Type:       protocol.TypeAssistantTurn,
						SessionID:  sessionID,
						TurnID:     envelope.TurnID,
						Reply:      envelope.Reply,
						Approach:   string(envelope.Approach),
						Confidence: envelope.Confidence,
						Reasoning:  envelope.Rationale,
						Insights:   envelope.Insights.Insights,
					}
				}
				select {
				case <-ctx.Done():
					return
				case outbound <- out:
				}
			}
		}
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					s.metrics.WSWriteErrors.WithLabelValues("write_json").Inc()
					cancel()
					return
				}
				if t, ok := messageTypeOf(msg); ok {
					s.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
				}
			}
		}
	}()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Minute))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(10 * time.Minute))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			errEvent := protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sessionID,
				Code:      "invalid_client_message",
				Retryable: false,
				Detail:    err.Error(),
			}
			select {
			case outbound <- errEvent:
				s.metrics.ObserveOutboundMessage(string(protocol.TypeErrorEvent), "queued")
			default:
				// Keep websocket writes single-threaded; drop if outbound
				// queue is saturated.
				s.metrics.ObserveOutboundMessage(string(protocol.TypeErrorEvent), "drop_full")
			}
			continue
		}

		user, ok := parsed.(protocol.UserMessage)
		if !ok {
			continue
		}
		s.metrics.WSMessages.WithLabelValues("inbound", string(protocol.TypeUserMessage)).Inc()
		select {
		case <-ctx.Done():
			break readLoop
		case inbound <- user:
		}
	}

	cancel()
	close(inbound)
	<-runDone
	<-writerDone
	s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.UserMessage:
		return m.Type, true
	case protocol.AssistantTurn:
		return m.Type, true
	case protocol.SystemEvent:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
