package domain

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// NetworkError is returned when a request could not be completed at the
// transport level (connection refused, timeout, canceled).
type NetworkError struct {
	Op  string // "load", "submit", "fetch"
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ParseError is returned when a body could not be encoded or decoded as JSON.
type ParseError struct {
	Op  string
	URL string
	Err error
}

func (e *ParseError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s %s: invalid json: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: invalid json: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StatusError is returned for non-2xx responses. Message and Code come from
// the server's error envelope when one was sent.
type StatusError struct {
	Op      string
	URL     string
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Op, e.URL, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Op, e.URL, e.Status)
}

// Is lets callers match a 404 against ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Status == 404
}

// HostMisuseError reports a dialog session consumed outside of the provider
// that owns it. It is a programmer error and is raised with panic.
type HostMisuseError struct {
	Hook   string
	Reason string
}

func (e *HostMisuseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s missing provider: %s", e.Hook, e.Reason)
	}
	return fmt.Sprintf("%s missing provider", e.Hook)
}

// Message returns the human-readable text stored as a dialog's error message.
// Status errors prefer the server-provided message.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return statusErr.Message
	}
	return err.Error()
}
