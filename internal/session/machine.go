// Package session owns the per-claim verification lifecycle. The state
// machine is independent of any rendering layer; presenters observe it
// through immutable snapshots.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Sravan1011/Clamify/internal/client"
	"github.com/Sravan1011/Clamify/internal/model"
	"github.com/Sravan1011/Clamify/internal/normalize"
)

// Status enumerates the session lifecycle states.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusStreaming  Status = "streaming"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the session has reached a final state.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// Entry is one progress log line. The log is append-only: entries keep
// arrival order and are never deduplicated or mutated after append.
type Entry struct {
	Kind   string `json:"kind"`
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Session is a snapshot of the active verification. Result and
// ErrorMessage are mutually exclusive; exactly one is set when the
// status is terminal.
type Session struct {
	Claim        string         `json:"claim"`
	Status       Status         `json:"status"`
	Log          []Entry        `json:"log"`
	Result       *model.Verdict `json:"result,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// Sink receives a session snapshot after every transition. It is
// invoked synchronously and must not call back into the Machine.
type Sink func(Session)

// Machine drives a single verification session at a time. Submissions
// while one is in flight are rejected until Reset; events from a
// superseded request are structurally excluded by an epoch token.
type Machine struct {
	mu        sync.Mutex
	submitter client.Submitter
	sink      Sink

	sess   Session
	epoch  string
	cancel context.CancelFunc
	cause  error
}

// NewMachine creates an idle machine. sink may be nil.
func NewMachine(submitter client.Submitter, sink Sink) *Machine {
	return &Machine{
		submitter: submitter,
		sink:      sink,
		sess:      Session{Status: StatusIdle},
	}
}

// Submit starts verifying a claim. Guards: the machine must be idle and
// the claim and credentials must pass the client's preconditions; on
// violation the session stays exactly as it was and the error is
// returned for inline display.
func (m *Machine) Submit(ctx context.Context, claim string, creds model.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.sess.Status {
	case StatusSubmitting, StatusStreaming:
		return &model.ValidationError{Msg: "a verification is already in progress"}
	case StatusComplete, StatusFailed:
		return &model.ValidationError{Msg: "session already finished; reset before submitting again"}
	}

	reqCtx, cancel := context.WithCancel(ctx)
	events, err := m.submitter.Submit(reqCtx, claim, creds)
	if err != nil {
		cancel()
		return err
	}

	epoch := uuid.NewString()
	m.epoch = epoch
	m.cancel = cancel
	m.cause = nil
	m.sess = Session{
		Claim:  claim,
		Status: StatusSubmitting,
	}
	m.notifyLocked()

	go m.consume(epoch, events)
	return nil
}

// Reset returns the machine to idle, clearing the log, result, and
// error, and canceling any in-flight request. Events still in transit
// from the old request are dropped on receipt.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.epoch = ""
	m.cause = nil
	m.sess = Session{Status: StatusIdle}
	m.notifyLocked()
}

// Snapshot returns a copy of the current session.
func (m *Machine) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// LastError returns the underlying cause of a failed session, retained
// for diagnostics. The user-facing message lives in ErrorMessage.
func (m *Machine) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cause
}

func (m *Machine) consume(epoch string, events <-chan client.Event) {
	for ev := range events {
		m.apply(epoch, ev)
	}
}

// apply processes one event in arrival order. An event whose epoch no
// longer matches belongs to a superseded request and must not mutate
// session state.
func (m *Machine) apply(epoch string, ev client.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if epoch != m.epoch {
		return
	}

	switch ev.Kind {
	case client.EventProgress:
		if m.sess.Status == StatusSubmitting {
			m.sess.Status = StatusStreaming
		}
		m.sess.Log = append(m.sess.Log, Entry{
			Kind:   "info",
			Source: ev.Source,
			Text:   ev.Text,
		})

	case client.EventResult:
		verdict, err := normalize.Normalize(ev.Result, m.sess.Claim)
		if err != nil {
			// Fail closed rather than render a garbage verdict.
			m.sess.Status = StatusFailed
			m.sess.ErrorMessage = "the verification service returned an unreadable result"
			m.cause = err
		} else {
			m.sess.Status = StatusComplete
			m.sess.Result = verdict
		}
		m.finishLocked()

	case client.EventError:
		m.sess.Status = StatusFailed
		m.sess.ErrorMessage = ev.Text
		if m.sess.ErrorMessage == "" && ev.Err != nil {
			m.sess.ErrorMessage = ev.Err.Error()
		}
		m.cause = ev.Err
		m.finishLocked()
	}

	m.notifyLocked()
}

func (m *Machine) finishLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Machine) snapshotLocked() Session {
	snap := m.sess
	snap.Log = append([]Entry(nil), m.sess.Log...)
	return snap
}

func (m *Machine) notifyLocked() {
	if m.sink != nil {
		m.sink(m.snapshotLocked())
	}
}
