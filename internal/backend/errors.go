package backend

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package matches exactly one of
// them with errors.Is.
var (
	ErrNotConfigured = errors.New("backend: base URL not configured")
	ErrNotFound      = errors.New("backend: not found")
	ErrUnavailable   = errors.New("backend: service unavailable")
)

// Error describes a failed call to a remote service.
type Error struct {
	Op     string // e.g. "search.Search"
	Kind   error  // ErrNotConfigured, ErrNotFound or ErrUnavailable
	Status int    // HTTP status, 0 when no response arrived
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("backend: %s: %s", e.Op, kindText(e.Kind))
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.Kind }

func kindText(kind error) string {
	switch kind {
	case ErrNotConfigured:
		return "not configured"
	case ErrNotFound:
		return "not found"
	default:
		return "unavailable"
	}
}

func kindLabel(kind error) string {
	switch kind {
	case ErrNotConfigured:
		return "not_configured"
	case ErrNotFound:
		return "not_found"
	default:
		return "unavailable"
	}
}
