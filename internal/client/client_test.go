package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Sravan1011/Clamify/internal/model"
)

func testClient(baseURL string) *Client {
	return New(model.BackendConfig{
		BaseURL:   baseURL,
		Timeout:   5 * time.Second,
		UserAgent: "clamify-test",
	})
}

func testCreds() model.Credentials {
	return model.Credentials{GeminiKey: "AIza-test"}
}

func sseServer(t *testing.T, frames []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/verify_stream" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, f := range frames {
			_, _ = fmt.Fprintf(w, "data: %s\n\n", f)
			flusher.Flush()
		}
		_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func TestSubmit_ProgressThenResult(t *testing.T) {
	server := sseServer(t, []string{
		`{"type": "status", "message": "Initializing agents..."}`,
		`{"type": "log", "agent": "FactChecker", "message": "Strategist generated search queries."}`,
		`{"type": "sources", "data": [{"title": "t", "url": "u"}]}`,
		`{"type": "log", "agent": "ForensicExpert", "message": "Auditor calculated integrity score."}`,
		`{"type": "result", "data": {"claim": "c", "truth_probability": 10}}`,
	})
	defer server.Close()

	events, err := testClient(server.URL).Submit(context.Background(), "some claim", testCreds())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	got := collect(t, events)
	if len(got) != 4 {
		t.Fatalf("Expected 4 events (3 progress + terminal), got %d: %+v", len(got), got)
	}

	// Progress events arrive in order; sources frames are skipped.
	if got[0].Source != SourceSystem || got[0].Text != "Initializing agents..." {
		t.Errorf("Unexpected first event: %+v", got[0])
	}
	if got[1].Source != "FactChecker" {
		t.Errorf("Expected agent name as source, got %q", got[1].Source)
	}
	if got[2].Source != "ForensicExpert" {
		t.Errorf("Expected ordered delivery, got %+v", got[2])
	}

	last := got[3]
	if last.Kind != EventResult {
		t.Fatalf("Expected terminal result, got %+v", last)
	}
	var payload map[string]any
	if err := json.Unmarshal(last.Result, &payload); err != nil {
		t.Fatalf("Terminal payload not JSON: %v", err)
	}
	if payload["claim"] != "c" {
		t.Errorf("Unexpected terminal payload: %v", payload)
	}
}

func TestSubmit_ErrorFrameIsTerminal(t *testing.T) {
	server := sseServer(t, []string{
		`{"type": "status", "message": "Initializing agents..."}`,
		`{"type": "error", "message": "FactChecker exploded"}`,
		`{"type": "log", "agent": "FactChecker", "message": "must not be delivered"}`,
	})
	defer server.Close()

	events, err := testClient(server.URL).Submit(context.Background(), "some claim", testCreds())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	got := collect(t, events)
	if len(got) != 2 {
		t.Fatalf("Expected nothing after the terminal error, got %d events", len(got))
	}
	if got[1].Kind != EventError || got[1].Text != "FactChecker exploded" {
		t.Errorf("Unexpected terminal event: %+v", got[1])
	}
}

func TestSubmit_ValidationFailsFast(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	c := testClient(server.URL)

	tests := []struct {
		name  string
		claim string
		creds model.Credentials
	}{
		{"empty claim", "", testCreds()},
		{"whitespace claim", "   ", testCreds()},
		{"missing gemini key", "a claim", model.Credentials{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Submit(context.Background(), tt.claim, tt.creds)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			var verr *model.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("Expected ValidationError, got %T", err)
			}
		})
	}

	if requests != 0 {
		t.Errorf("Expected no network calls for validation failures, got %d", requests)
	}
}

func TestSubmit_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Gemini API key is required", http.StatusBadRequest)
	}))
	defer server.Close()

	events, err := testClient(server.URL).Submit(context.Background(), "some claim", testCreds())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	got := collect(t, events)
	if len(got) != 1 {
		t.Fatalf("Expected exactly one terminal event, got %d", len(got))
	}
	if got[0].Kind != EventError {
		t.Fatalf("Expected error event, got %+v", got[0])
	}
	var terr *model.TransportError
	if !errors.As(got[0].Err, &terr) {
		t.Errorf("Expected TransportError cause, got %T", got[0].Err)
	}
}

func TestSubmit_MalformedFrame(t *testing.T) {
	server := sseServer(t, []string{
		`{"type": "status", "message": "ok"}`,
		`{not json`,
	})
	defer server.Close()

	events, _ := testClient(server.URL).Submit(context.Background(), "some claim", testCreds())
	got := collect(t, events)

	last := got[len(got)-1]
	if last.Kind != EventError {
		t.Fatalf("Expected terminal error for malformed frame, got %+v", last)
	}
	var terr *model.TransportError
	if !errors.As(last.Err, &terr) {
		t.Errorf("Expected TransportError, got %T", last.Err)
	}
}

func TestSubmit_StreamEndsWithoutResult(t *testing.T) {
	server := sseServer(t, []string{
		`{"type": "status", "message": "working"}`,
	})
	defer server.Close()

	events, _ := testClient(server.URL).Submit(context.Background(), "some claim", testCreds())
	got := collect(t, events)

	last := got[len(got)-1]
	if last.Kind != EventError {
		t.Errorf("Expected the session to fail rather than hang, got %+v", last)
	}
}

func TestSubmit_TimeoutExpiryIsTerminal(t *testing.T) {
	// A backend that emits one progress frame and then hangs. Expiry of
	// the request context must still surface as a terminal error event:
	// the session may never be left waiting without a verdict.
	hang := make(chan struct{})
	defer close(hang)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = fmt.Fprint(w, "data: {\"type\": \"status\", \"message\": \"working\"}\n\n")
		w.(http.Flusher).Flush()
		select {
		case <-hang:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	for i := 0; i < 25; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)

		events, err := testClient(server.URL).Submit(ctx, "some claim", testCreds())
		if err != nil {
			cancel()
			t.Fatalf("Submit failed: %v", err)
		}

		got := collect(t, events)
		cancel()

		if len(got) == 0 {
			t.Fatal("Stream closed without any event after timeout expiry")
		}
		last := got[len(got)-1]
		if last.Kind != EventError {
			t.Fatalf("Expected terminal error after timeout expiry, got %+v", last)
		}
		var terr *model.TransportError
		if !errors.As(last.Err, &terr) {
			t.Errorf("Expected TransportError cause, got %T", last.Err)
		}
	}
}

func TestSubmit_SendsCredentials(t *testing.T) {
	var received verifyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = fmt.Fprint(w, "data: {\"type\": \"result\", \"data\": {}}\n\n")
	}))
	defer server.Close()

	creds := model.Credentials{GeminiKey: " AIza-1 ", TavilyKey: " tvly-1 "}
	events, err := testClient(server.URL).Submit(context.Background(), "  some claim  ", creds)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	collect(t, events)

	if received.Claim != "some claim" {
		t.Errorf("Expected trimmed claim, got %q", received.Claim)
	}
	if received.GeminiKey != "AIza-1" || received.TavilyKey != "tvly-1" {
		t.Errorf("Expected trimmed keys attached, got %+v", received)
	}
}

func TestVerify_SingleShot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/verify" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"claim": "c", "truth_probability": 80}`)
	}))
	defer server.Close()

	raw, err := testClient(server.URL).Verify(context.Background(), "c", testCreds())
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("Payload not JSON: %v", err)
	}
	if payload["truth_probability"] != float64(80) {
		t.Errorf("Unexpected payload: %v", payload)
	}
}

func TestVerify_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := testClient(server.URL).Verify(context.Background(), "c", testCreds())
	if err == nil {
		t.Fatal("Expected error for 502")
	}
	var terr *model.TransportError
	if !errors.As(err, &terr) {
		t.Errorf("Expected TransportError, got %T", err)
	}
}
