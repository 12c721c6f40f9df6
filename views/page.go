// Package views holds the per-page controllers of the console. Each page
// walks initializing -> loading -> ready|error, or ends in redirect when
// the gate turns it away or the backend rejects the token.
package views

import (
	"fmt"
	"log/slog"

	"library-admin/api"
	"library-admin/gate"
	"library-admin/session"
)

// State of a page.
type State int

const (
	StateInitializing State = iota
	StateLoading
	StateReady
	StateError
	StateRedirect
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "redirect"
	}
}

// NoticeKind types a user-visible message.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeDenied
	NoticeError
)

// Notice is the banner a page shows after its last action.
type Notice struct {
	Kind NoticeKind
	Text string
}

// Messages shown when the backend sends none of its own.
const (
	msgForbidden   = "You do not have permission to do that."
	msgLoginFailed = "Login failed"
	msgSignupFail  = "Signup failed"
)

// SessionStore is what pages need from session.Store.
type SessionStore interface {
	Load() (session.Session, error)
	Save(session.Session) error
	Clear() error
}

// Env is shared by every page of one console.
type Env struct {
	Store   SessionStore
	Gate    *gate.Gate
	Client  *api.Client
	Logger  *slog.Logger
	Metrics gate.SessionRecorder // optional
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// Page is the state every controller embeds.
type Page struct {
	env      *Env
	name     string
	required session.Role

	state  State
	notice *Notice
	next   string
	sess   session.Session

	// discard drops page data when the session is torn down.
	discard func()
}

func newPage(env *Env, name string, required session.Role) Page {
	return Page{env: env, name: name, required: required}
}

// State reports where the page is in its lifecycle.
func (p *Page) State() State { return p.state }

// Notice returns the banner of the last action, if any.
func (p *Page) Notice() (Notice, bool) {
	if p.notice == nil {
		return Notice{}, false
	}
	return *p.notice, true
}

// Next is the navigation signal: where the page wants to go, if anywhere.
func (p *Page) Next() (string, bool) { return p.next, p.next != "" }

// Session is the identity the gate let in.
func (p *Page) Session() session.Session { return p.sess }

// enter runs the gate. It returns false when the page must not fetch.
func (p *Page) enter() bool {
	p.state = StateInitializing
	p.notice = nil
	p.next = ""

	d := p.env.Gate.Check(p.required)
	switch d.Outcome {
	case gate.Proceed:
		p.sess = d.Session
		return true
	case gate.RedirectDenied:
		p.setNotice(NoticeDenied, d.Notice)
		p.redirect(d.Destination)
	default:
		p.redirect(d.Destination)
	}
	return false
}

// active reports whether the page may still act.
func (p *Page) active() bool {
	return p.state != StateRedirect && p.state != StateInitializing
}

func (p *Page) client() *api.Client { return p.env.Client.As(p.sess.Token) }

func (p *Page) setNotice(kind NoticeKind, text string) {
	p.notice = &Notice{Kind: kind, Text: text}
}

func (p *Page) redirect(dest string) {
	p.state = StateRedirect
	p.next = dest
	p.sess = session.Session{}
	if p.discard != nil {
		p.discard()
	}
}

func (p *Page) navigate(dest string) { p.next = dest }

// handle turns a failed backend call into page state. Loads move to
// StateError; mutations keep the page ready.
func (p *Page) handle(action string, err error, load bool) {
	log := p.env.logger().With(slog.String("page", p.name), slog.String("action", action))

	switch api.Classify(err) {
	case api.OutcomeUnauthorized:
		log.Info("token rejected, ending session", slog.Any("error", err))
		if cerr := p.env.Store.Clear(); cerr != nil {
			log.Warn("clear session", slog.Any("error", cerr))
		}
		if p.env.Metrics != nil {
			p.env.Metrics.RecordSessionEnd("expired")
		}
		p.redirect(gate.PathLogin)
		return
	case api.OutcomeForbidden:
		log.Info("backend denied request", slog.Any("error", err))
		p.setNotice(NoticeDenied, orDefault(api.MessageOf(err), msgForbidden))
	default:
		log.Warn("backend request failed", slog.Any("error", err))
		p.setNotice(NoticeError, failureText(action, err))
	}
	if load {
		p.state = StateError
	}
}

func failureText(action string, err error) string {
	if msg := api.MessageOf(err); msg != "" {
		return fmt.Sprintf("Failed to %s: %s", action, msg)
	}
	return fmt.Sprintf("Failed to %s. Please try again.", action)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
