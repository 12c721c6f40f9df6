package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Outcome classifies the result of a backend call.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeUnauthorized
	OutcomeForbidden
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeUnauthorized:
		return "unauthorized"
	case OutcomeForbidden:
		return "forbidden"
	default:
		return "failed"
	}
}

var (
	// ErrUnauthorized: the token is missing, invalid or expired (401).
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden: the token is valid but lacks privilege (403).
	ErrForbidden = errors.New("forbidden")
	// ErrRequestFailed: any other non-2xx status or a transport failure.
	ErrRequestFailed = errors.New("request failed")
)

// Error describes a classified backend failure.
type Error struct {
	Outcome Outcome
	Status  int // zero for transport failures
	Method  string
	Path    string
	Message string // backend "message", if it sent one
	Err     error  // transport or decode cause
}

func (e *Error) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s %s: %s (%d)", e.Method, e.Path, e.Message, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %d %s: %v", e.Method, e.Path, e.Status, http.StatusText(e.Status), e.Err)
	default:
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's outcome.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Outcome == OutcomeUnauthorized
	case ErrForbidden:
		return e.Outcome == OutcomeForbidden
	case ErrRequestFailed:
		return e.Outcome == OutcomeFailed
	}
	return false
}

// Classify maps any error returned by this package to an Outcome.
// Errors from elsewhere count as failures.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrUnauthorized):
		return OutcomeUnauthorized
	case errors.Is(err, ErrForbidden):
		return OutcomeForbidden
	default:
		return OutcomeFailed
	}
}

// MessageOf returns the backend message carried by err, or "".
func MessageOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

func outcomeForStatus(status int) Outcome {
	switch {
	case status >= 200 && status < 300:
		return OutcomeSuccess
	case status == http.StatusUnauthorized:
		return OutcomeUnauthorized
	case status == http.StatusForbidden:
		return OutcomeForbidden
	default:
		return OutcomeFailed
	}
}
