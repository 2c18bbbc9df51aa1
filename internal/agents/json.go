package agents

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// extractJSON strips markdown code fences some models wrap JSON in and
// returns the candidate document.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
	} else if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+len("```"):]
	}
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// decodeLenient parses model JSON, attempting a mechanical repair pass when
// the document is malformed (truncated, single quotes, trailing commas).
func decodeLenient(s string, out any) error {
	err := json.Unmarshal([]byte(s), out)
	if err == nil {
		return nil
	}
	repaired, repairErr := jsonrepair.JSONRepair(s)
	if repairErr != nil {
		return err
	}
	return json.Unmarshal([]byte(repaired), out)
}
