// Package client issues verification requests to the Claime backend and
// turns its streamed progress frames into events.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Sravan1011/Clamify/internal/model"
)

// SourceSystem is the sentinel stage name used when a progress frame
// does not identify its emitting agent.
const SourceSystem = "SYSTEM"

const maxFrameBytes = 1 << 20

// EventKind categorizes an event delivered by a verification stream.
type EventKind string

const (
	EventProgress EventKind = "progress"
	EventResult   EventKind = "result"
	EventError    EventKind = "error"
)

// Event is one item of a verification stream: zero or more progress
// events followed by exactly one terminal result or error.
type Event struct {
	Kind   EventKind
	Source string          // backend stage/agent; SourceSystem when absent
	Text   string          // progress text or user-facing error message
	Result json.RawMessage // raw terminal payload, set only for EventResult
	Err    error           // cause, set only for EventError
}

// Submitter is the interface the session state machine depends on.
type Submitter interface {
	Submit(ctx context.Context, claim string, creds model.Credentials) (<-chan Event, error)
}

// Client talks to a single Claime backend.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// New creates a client for the configured backend. The backend timeout
// bounds a whole verification including stream consumption; expiry
// surfaces as a terminal error event.
func New(cfg model.BackendConfig) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: proxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			},
		},
	}
}

// verifyRequest is the outbound payload for both endpoints.
type verifyRequest struct {
	Claim     string `json:"claim"`
	GeminiKey string `json:"geminiKey"`
	TavilyKey string `json:"tavilyKey,omitempty"`
}

// frame is one decoded SSE data frame.
type frame struct {
	Type    string          `json:"type"`
	Agent   string          `json:"agent"`
	Source  string          `json:"source"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Submit starts a streaming verification. Precondition violations
// (empty claim, missing mandatory credential) fail fast with a
// ValidationError before any network call. Otherwise the returned
// channel delivers progress events in arrival order and is closed after
// exactly one terminal event. Canceling ctx abandons the request.
func (c *Client) Submit(ctx context.Context, claim string, creds model.Credentials) (<-chan Event, error) {
	claim = strings.TrimSpace(claim)
	if err := validate(claim, creds); err != nil {
		return nil, err
	}

	events := make(chan Event)
	go c.stream(ctx, claim, creds.Trimmed(), events)
	return events, nil
}

// Verify runs a non-streaming verification and returns the raw terminal
// payload. Used by the batch path.
func (c *Client) Verify(ctx context.Context, claim string, creds model.Credentials) (json.RawMessage, error) {
	claim = strings.TrimSpace(claim)
	if err := validate(claim, creds); err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, "/verify", claim, creds.Trimmed())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFrameBytes))
	if err != nil {
		return nil, &model.TransportError{Op: "read response", Err: err}
	}
	return body, nil
}

func validate(claim string, creds model.Credentials) error {
	if claim == "" {
		return &model.ValidationError{Msg: "claim cannot be empty"}
	}
	if !creds.Configured() {
		return &model.ValidationError{Msg: "Gemini API key is not configured"}
	}
	return nil
}

// stream consumes the SSE response and forwards events. It guarantees
// exactly one terminal event and then closes the channel; nothing is
// buffered or replayed beyond the active stream.
//
// Terminal events are sent unconditionally: the consumer drains the
// channel until close, and a timeout expiry must still surface as a
// terminal error rather than racing ctx.Done and stranding the session
// mid-flight. Only progress frames are droppable on cancellation.
func (c *Client) stream(ctx context.Context, claim string, creds model.Credentials, events chan<- Event) {
	defer close(events)

	resp, err := c.post(ctx, "/verify_stream", claim, creds)
	if err != nil {
		events <- Event{Kind: EventError, Err: err, Text: "could not reach the verification service"}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := statusError(resp)
		events <- Event{Kind: EventError, Err: err, Text: "the verification service rejected the request"}
		return
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxFrameBytes)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var f frame
		if err := json.Unmarshal([]byte(payload), &f); err != nil {
			terr := &model.TransportError{Op: "decode stream frame", Err: err}
			events <- Event{Kind: EventError, Err: terr, Text: "the verification stream was malformed"}
			return
		}

		switch f.Type {
		case "result":
			// First terminal frame wins; anything after it is not consumed.
			events <- Event{Kind: EventResult, Result: f.Data}
			return
		case "error":
			events <- Event{Kind: EventError, Err: errors.New(f.Message), Text: f.Message}
			return
		case "sources":
			// Display-only duplicate of an adjacent log frame.
			continue
		default:
			emit(ctx, events, Event{
				Kind:   EventProgress,
				Source: frameSource(f),
				Text:   f.Message,
			})
		}
	}

	if err := scanner.Err(); err != nil {
		terr := &model.TransportError{Op: "read stream", Err: err}
		events <- Event{Kind: EventError, Err: terr, Text: "the verification stream was interrupted"}
		return
	}

	// Stream ended without a terminal frame. No partial result is
	// synthesized; the session must not hang in streaming.
	terr := &model.TransportError{Op: "read stream", Err: errors.New("stream ended without a result")}
	events <- Event{Kind: EventError, Err: terr, Text: "the verification service ended the stream early"}
}

func (c *Client) post(ctx context.Context, path, claim string, creds model.Credentials) (*http.Response, error) {
	body, err := json.Marshal(verifyRequest{
		Claim:     claim,
		GeminiKey: creds.GeminiKey,
		TavilyKey: creds.TavilyKey,
	})
	if err != nil {
		return nil, &model.TransportError{Op: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, &model.TransportError{Op: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream, application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &model.TransportError{Op: "execute request", Err: err}
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
	detail := strings.TrimSpace(string(body))
	if detail == "" {
		detail = resp.Status
	}
	return &model.TransportError{
		Op:  "verify",
		Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, detail),
	}
}

func frameSource(f frame) string {
	switch {
	case f.Agent != "":
		return f.Agent
	case f.Source != "":
		return f.Source
	default:
		return SourceSystem
	}
}

// emit sends a progress event unless the caller has abandoned the
// stream. Terminal events never pass through here.
func emit(ctx context.Context, events chan<- Event, ev Event) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

// proxyFunc builds the transport proxy selector. Explicit configuration
// overrides the usual environment variables.
func proxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}
	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}
