package model

import "fmt"

// TransportError wraps an HTTP status or network failure so callers can
// decide whether the browser fallback applies.
type TransportError struct {
	StatusCode int
	Blocked    bool // response looked like a bot-challenge page
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Blocked && e.Err != nil:
		return fmt.Sprintf("blocked (HTTP %d): %v", e.StatusCode, e.Err)
	case e.Blocked:
		return fmt.Sprintf("blocked (HTTP %d)", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// ClientError reports whether the failure was a 4xx response.
func (e *TransportError) ClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// ParseError marks a response the adapter could not make sense of.
type ParseError struct {
	Hospital string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Hospital, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StateCommitError marks a failure to persist the seen-URL set. It is the
// one error class that fails the whole run: losing dedup state means
// duplicate notifications on the next run.
type StateCommitError struct {
	Err error
}

func (e *StateCommitError) Error() string {
	return fmt.Sprintf("commit seen state: %v", e.Err)
}

func (e *StateCommitError) Unwrap() error { return e.Err }
