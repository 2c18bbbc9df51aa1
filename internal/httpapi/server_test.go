package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/antoniostano/haven/internal/config"
	"github.com/antoniostano/haven/internal/genclient"
	"github.com/antoniostano/haven/internal/observability"
	"github.com/antoniostano/haven/internal/orchestrator"
	"github.com/antoniostano/haven/internal/store"
	"github.com/antoniostano/haven/internal/workflow"
)

func newTestServer(t *testing.T, namespace string) *httptest.Server {
	t.Helper()
	metrics := observability.NewMetrics(namespace + "_" + time.Now().Format("150405") + time.Now().Format("000000000"))
	wf, err := workflow.NewFromClient(genclient.NewMockClient(), metrics)
	if err != nil {
		t.Fatalf("NewFromClient() error = %v", err)
	}
	sessions := orchestrator.NewManager(wf, store.NewInMemoryStore(), metrics)
	srv := New(config.Config{BindAddr: ":0"}, sessions, metrics)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"user_id": "user-1"})
	res, err := http.Post(ts.URL+"/v1/sessions", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create session request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", res.StatusCode, http.StatusCreated)
	}

	var created map[string]any
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	sessionID, _ := created["session_id"].(string)
	if sessionID == "" {
		t.Fatalf("missing session_id in create response: %+v", created)
	}
	return sessionID
}

func TestPostMessageReturnsTurnEnvelope(t *testing.T) {
	ts := newTestServer(t, "test_httpapi_msg")
	sessionID := createSession(t, ts)

	body, _ := json.Marshal(map[string]string{"content": "I feel overwhelmed at work"})
	res, err := http.Post(ts.URL+"/v1/sessions/"+sessionID+"/messages", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post message request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("message status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var envelope map[string]any
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	reply, _ := envelope["reply"].(string)
	if !strings.Contains(reply, "I feel overwhelmed at work") {
		t.Fatalf("reply = %q, want echo of input", reply)
	}
	// The mock client does not return routing JSON, so classification
	// degrades to the default approach.
	if envelope["approach"] != "DBT" {
		t.Fatalf("approach = %v, want DBT", envelope["approach"])
	}
	if envelope["confidence"] != 0.5 {
		t.Fatalf("confidence = %v, want 0.5", envelope["confidence"])
	}
}

func TestHistoryAndInsightsEndpoints(t *testing.T) {
	ts := newTestServer(t, "test_httpapi_hist")
	sessionID := createSession(t, ts)

	body, _ := json.Marshal(map[string]string{"content": "hello"})
	res, err := http.Post(ts.URL+"/v1/sessions/"+sessionID+"/messages", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post message request error = %v", err)
	}
	res.Body.Close()

	histRes, err := http.Get(ts.URL + "/v1/sessions/" + sessionID + "/history")
	if err != nil {
		t.Fatalf("history request error = %v", err)
	}
	defer histRes.Body.Close()
	var hist struct {
		Messages []map[string]any `json:"messages"`
	}
	if err := json.NewDecoder(histRes.Body).Decode(&hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist.Messages) != 2 {
		t.Fatalf("history length = %d, want 2", len(hist.Messages))
	}
	if hist.Messages[0]["role"] != "user" || hist.Messages[1]["role"] != "assistant" {
		t.Fatalf("unexpected history roles: %+v", hist.Messages)
	}

	insRes, err := http.Get(ts.URL + "/v1/sessions/" + sessionID + "/insights")
	if err != nil {
		t.Fatalf("insights request error = %v", err)
	}
	defer insRes.Body.Close()
	if insRes.StatusCode != http.StatusOK {
		t.Fatalf("insights status = %d, want %d", insRes.StatusCode, http.StatusOK)
	}
}

func TestExportServesDownload(t *testing.T) {
	ts := newTestServer(t, "test_httpapi_export")
	sessionID := createSession(t, ts)

	body, _ := json.Marshal(map[string]string{"content": "hard day"})
	res, err := http.Post(ts.URL+"/v1/sessions/"+sessionID+"/messages", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post message request error = %v", err)
	}
	res.Body.Close()

	expRes, err := http.Get(ts.URL + "/v1/sessions/" + sessionID + "/export")
	if err != nil {
		t.Fatalf("export request error = %v", err)
	}
	defer expRes.Body.Close()
	if expRes.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d, want %d", expRes.StatusCode, http.StatusOK)
	}
	if got := expRes.Header.Get("Content-Disposition"); !strings.Contains(got, "attachment") {
		t.Fatalf("Content-Disposition = %q, want attachment", got)
	}

	var export []map[string]any
	if err := json.NewDecoder(expRes.Body).Decode(&export); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(export) != 2 {
		t.Fatalf("export length = %d, want 2", len(export))
	}
	if export[0]["role"] != "user" {
		t.Fatalf("export[0].role = %v, want user", export[0]["role"])
	}
	if _, ok := export[1]["approach"]; !ok {
		t.Fatalf("assistant export entry missing approach: %+v", export[1])
	}
}

func TestUnknownSessionReturns404(t *testing.T) {
	ts := newTestServer(t, "test_httpapi_404")

	body, _ := json.Marshal(map[string]string{"content": "hello"})
	res, err := http.Post(ts.URL+"/v1/sessions/nope/messages", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post message request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestCreateSessionAcceptsEmptyBody(t *testing.T) {
	ts := newTestServer(t, "test_httpapi_emptybody")

	res, err := http.Post(ts.URL+"/v1/sessions", "application/json", nil)
	if err != nil {
		t.Fatalf("create session request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", res.StatusCode, http.StatusCreated)
	}

	var created map[string]any
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created["user_id"] != "default" {
		t.Fatalf("user_id = %v, want default", created["user_id"])
	}
}

func TestPerfLatencySnapshot(t *testing.T) {
	ts := newTestServer(t, "test_httpapi_perf")
	sessionID := createSession(t, ts)

	body, _ := json.Marshal(map[string]string{"content": "hello"})
	res, err := http.Post(ts.URL+"/v1/sessions/"+sessionID+"/messages", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post message request error = %v", err)
	}
	res.Body.Close()

	perfRes, err := http.Get(ts.URL + "/v1/perf/latency")
	if err != nil {
		t.Fatalf("perf request error = %v", err)
	}
	defer perfRes.Body.Close()
	if perfRes.StatusCode != http.StatusOK {
		t.Fatalf("perf status = %d, want %d", perfRes.StatusCode, http.StatusOK)
	}

	var snap struct {
		WindowSize int `json:"window_size"`
		Stages     []struct {
			Stage string `json:"stage"`
		} `json:"stages"`
	}
	if err := json.NewDecoder(perfRes.Body).Decode(&snap); err != nil {
		t.Fatalf("decode perf snapshot: %v", err)
	}
	if snap.WindowSize <= 0 {
		t.Fatalf("WindowSize = %d, want positive", snap.WindowSize)
	}
	stages := map[string]bool{}
	for _, s := range snap.Stages {
		stages[s.Stage] = true
	}
	for _, want := range []string{"classify", "respond", "extract", "persist", "turn_total"} {
		if !stages[want] {
			t.Fatalf("snapshot missing stage %q: %+v", want, stages)
		}
	}
}

func TestEndSessionRemovesIt(t *testing.T) {
	ts := newTestServer(t, "test_httpapi_end")
	sessionID := createSession(t, ts)

	endRes, err := http.Post(ts.URL+"/v1/sessions/"+sessionID+"/end", "application/json", nil)
	if err != nil {
		t.Fatalf("end session request error = %v", err)
	}
	endRes.Body.Close()
	if endRes.StatusCode != http.StatusOK {
		t.Fatalf("end status = %d, want %d", endRes.StatusCode, http.StatusOK)
	}

	res, err := http.Get(ts.URL + "/v1/sessions/" + sessionID + "/history")
	if err != nil {
		t.Fatalf("history request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status after end = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}
