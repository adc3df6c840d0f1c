package model

import "fmt"

// ValidationError reports a local precondition failure (empty claim,
// missing mandatory credential). It is never sent to the backend and the
// session stays idle when one is surfaced.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// TransportError reports a network-level failure: connection errors,
// non-success status codes, malformed stream framing, or timeout expiry.
// The wrapped cause is retained for diagnostics but not shown to users.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ShapeError reports a terminal payload that matches neither known
// result shape or is missing mandatory fields. The session fails closed
// rather than rendering a partially-garbage verdict.
type ShapeError struct {
	Msg string
}

func (e *ShapeError) Error() string {
	return e.Msg
}
