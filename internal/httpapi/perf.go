package httpapi

import "net/http"

// handlePerfLatency reports rolling-window latency quantiles for the turn
// pipeline stages (classify, respond, extract, persist, turn_total), with
// their P95 targets. Unlike /metrics this reflects only the recent window,
// so it answers "is the pipeline slow right now" directly.
func (s *Server) handlePerfLatency(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.metrics.SnapshotTurnStages())
}
