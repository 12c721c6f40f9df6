// Package session persists the authenticated identity of the console user
// and is the only place that decides whether someone is logged in.
package session

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the backend role of the logged-in user.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// ParseRole normalizes the many spellings older writers stored ("admin",
// " USER ") and reports whether the value names a known role.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleUser:
		return r, true
	default:
		return "", false
	}
}

// Is compares roles case-insensitively.
func (r Role) Is(other Role) bool {
	return strings.EqualFold(string(r), string(other))
}

// Session is the client-held identity. It is either complete or absent.
type Session struct {
	Token  string `json:"token"`
	Role   Role   `json:"role"`
	Name   string `json:"name"`
	UserID int64  `json:"userId"`
}

var (
	// ErrNoSession is returned by Load whenever no usable session exists.
	// Every other Load error wraps it.
	ErrNoSession = errors.New("no session")
	// ErrMalformedState means a persisted record exists but does not parse.
	ErrMalformedState = fmt.Errorf("%w: malformed persisted session", ErrNoSession)
	// ErrIncompleteSession means a session was recovered with fields missing.
	ErrIncompleteSession = fmt.Errorf("%w: incomplete session", ErrNoSession)
)

// Validate reports the first missing field.
func (s Session) Validate() error {
	switch {
	case strings.TrimSpace(s.Token) == "":
		return fmt.Errorf("%w: token missing", ErrIncompleteSession)
	case s.Role == "":
		return fmt.Errorf("%w: role missing", ErrIncompleteSession)
	case strings.TrimSpace(s.Name) == "":
		return fmt.Errorf("%w: name missing", ErrIncompleteSession)
	case s.UserID <= 0:
		return fmt.Errorf("%w: user id missing", ErrIncompleteSession)
	}
	if _, ok := ParseRole(string(s.Role)); !ok {
		return fmt.Errorf("%w: unknown role %q", ErrIncompleteSession, s.Role)
	}
	return nil
}

// Valid is Validate() == nil.
func (s Session) Valid() bool { return s.Validate() == nil }

// IsAdmin reports whether the session carries the ADMIN role.
func (s Session) IsAdmin() bool { return s.Role.Is(RoleAdmin) }
