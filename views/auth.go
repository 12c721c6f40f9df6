package views

import (
	"context"
	"log/slog"
	"strings"

	"library-admin/api"
	"library-admin/gate"
	"library-admin/session"
)

// Auth drives the login and signup screens and logout. It is the only page
// that runs without a session.
type Auth struct {
	Page
}

// NewAuth returns the auth page.
func NewAuth(env *Env) *Auth {
	return &Auth{Page: newPage(env, "auth", "")}
}

// Open enters the screen. An existing session goes straight to the
// dashboard.
func (a *Auth) Open() {
	a.notice = nil
	a.next = ""
	if sess, err := a.env.Store.Load(); err == nil {
		a.sess = sess
		a.navigate(gate.PathDashboard)
		return
	}
	a.state = StateReady
}

// Login exchanges credentials for a session and navigates to the dashboard.
func (a *Auth) Login(ctx context.Context, email, password string) bool {
	resp, err := a.env.Client.Login(ctx, api.Credentials{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		a.fail("login", err, msgLoginFailed)
		return false
	}
	return a.establish(resp, msgLoginFailed)
}

// Signup creates an account, logs in as it and navigates to the dashboard.
func (a *Auth) Signup(ctx context.Context, name, email, password string) bool {
	resp, err := a.env.Client.Signup(ctx, api.Signup{
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		Password: password,
	})
	if err != nil {
		a.fail("signup", err, msgSignupFail)
		return false
	}
	return a.establish(resp, msgSignupFail)
}

// Logout clears the session and navigates to login.
func (a *Auth) Logout() error {
	if err := a.env.Store.Clear(); err != nil {
		return err
	}
	if a.env.Metrics != nil {
		a.env.Metrics.RecordSessionEnd("logout")
	}
	a.sess = session.Session{}
	a.setNotice(NoticeInfo, "Logged out.")
	a.navigate(gate.PathLogin)
	return nil
}

func (a *Auth) establish(resp *api.AuthResponse, failMsg string) bool {
	sess := session.Session{
		Token:  resp.Token,
		Role:   session.Role(resp.Role),
		Name:   resp.Name,
		UserID: resp.UserID,
	}
	if err := a.env.Store.Save(sess); err != nil {
		a.env.logger().Warn("backend returned an unusable session", slog.Any("error", err))
		a.setNotice(NoticeError, failMsg)
		return false
	}
	loaded, err := a.env.Store.Load()
	if err != nil {
		a.setNotice(NoticeError, failMsg)
		return false
	}
	a.sess = loaded
	a.state = StateReady
	a.notice = nil
	a.navigate(gate.PathDashboard)
	return true
}

// fail reports a rejected login or signup. A 401 here means bad
// credentials, not an expired session, so nothing is cleared.
func (a *Auth) fail(action string, err error, def string) {
	a.env.logger().Info(action+" rejected", slog.String("outcome", api.Classify(err).String()))
	a.state = StateReady
	a.setNotice(NoticeError, orDefault(api.MessageOf(err), def))
}
