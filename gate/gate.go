// Package gate decides, before any fetch, whether a page may load.
// It is advisory: the backend authorizes every request on its own.
package gate

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"library-admin/session"
)

// Navigation destinations shared by the gate and the page controllers.
const (
	PathLogin     = "/login"
	PathHome      = "/"
	PathDashboard = "/dashboard"
)

// DeniedNotice is shown when a role-gated page turns the user away.
const DeniedNotice = "Access denied. Admins only."

// Outcome of a gate check.
type Outcome int

const (
	Proceed Outcome = iota
	RedirectLogin
	RedirectDenied
)

func (o Outcome) String() string {
	switch o {
	case Proceed:
		return "proceed"
	case RedirectLogin:
		return "redirect-login"
	default:
		return "redirect-denied"
	}
}

// Decision is the result of Check. Session is only set on Proceed.
type Decision struct {
	Outcome     Outcome
	Session     session.Session
	Destination string
	Notice      string
}

// SessionStore is the part of session.Store the gate needs.
type SessionStore interface {
	Load() (session.Session, error)
	Clear() error
}

// SessionRecorder counts session teardowns. metrics.Collector implements it.
type SessionRecorder interface {
	RecordSessionEnd(reason string)
}

// Gate evaluates page entry against the session store.
type Gate struct {
	store   SessionStore
	logger  *slog.Logger
	metrics SessionRecorder
	now     func() time.Time
}

// Option tweaks a Gate.
type Option func(*Gate)

// WithClock overrides time.Now for the token expiry check.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithRecorder reports sessions the gate ends because their token expired.
func WithRecorder(r SessionRecorder) Option {
	return func(g *Gate) { g.metrics = r }
}

// New returns a Gate reading from store.
func New(store SessionStore, logger *slog.Logger, opts ...Option) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gate{store: store, logger: logger, now: time.Now}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Check runs the entry checks for a page. An empty required role means any
// authenticated user may enter.
func (g *Gate) Check(required session.Role) Decision {
	sess, err := g.store.Load()
	if err != nil {
		if errors.Is(err, session.ErrMalformedState) || errors.Is(err, session.ErrIncompleteSession) {
			g.logger.Info("ignoring unusable session", slog.Any("error", err))
		}
		return Decision{Outcome: RedirectLogin, Destination: PathLogin}
	}

	if g.expired(sess.Token) {
		if err := g.store.Clear(); err != nil {
			g.logger.Warn("clear expired session", slog.Any("error", err))
		}
		if g.metrics != nil {
			g.metrics.RecordSessionEnd("expired")
		}
		return Decision{Outcome: RedirectLogin, Destination: PathLogin}
	}

	if required != "" && !sess.Role.Is(required) {
		return Decision{Outcome: RedirectDenied, Destination: PathHome, Notice: DeniedNotice}
	}
	return Decision{Outcome: Proceed, Session: sess}
}

// expired peeks at a JWT's exp claim without verifying the signature.
// Opaque tokens and tokens without exp are never considered expired.
func (g *Gate) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !g.now().Before(exp.Time)
}
