package views

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"library-admin/api"
	"library-admin/gate"
	"library-admin/session"
)

func TestLoginPersistsAcrossRestart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in api.Credentials
		_ = json.NewDecoder(r.Body).Decode(&in)
		if r.URL.Path != "/api/auth/login" || in.Email != "a@b.com" || in.Password != "x" {
			http.Error(w, `{"message":"bad"}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"T1","role":"ADMIN","name":"A","userId":7}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "state.db")
	st, err := session.OpenStorage(path)
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	store := session.NewStore(st, nil)
	env := &Env{Store: store, Gate: gate.New(store, nil), Client: api.New(api.Options{BaseURL: srv.URL})}

	auth := NewAuth(env)
	auth.Open()
	if !auth.Login(context.Background(), "a@b.com", "x") {
		n, _ := auth.Notice()
		t.Fatalf("login failed: %+v", n)
	}
	if next, _ := auth.Next(); next != gate.PathDashboard {
		t.Fatalf("next = %q", next)
	}
	st.Close()

	st, err = session.OpenStorage(path)
	if err != nil {
		t.Fatalf("reopen storage: %v", err)
	}
	defer st.Close()
	sess, err := session.NewStore(st, nil).Load()
	if err != nil {
		t.Fatalf("load after restart: %v", err)
	}
	if sess.Role != session.RoleAdmin || sess.Token != "T1" || sess.Name != "A" || sess.UserID != 7 {
		t.Fatalf("session = %+v", sess)
	}
}

func TestLoginFailureShowsBackendMessage(t *testing.T) {
	f := newFixture(t)

	auth := NewAuth(f.env)
	auth.Open()
	if auth.Login(context.Background(), "admin@library.test", "wrong") {
		t.Fatal("login succeeded")
	}
	if n, _ := auth.Notice(); n.Text != "Invalid email or password" {
		t.Fatalf("notice = %+v", n)
	}
	if _, ok := auth.Next(); ok {
		t.Fatal("navigated after failed login")
	}
}

func TestLoginFailureFallbackMessage(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	f.env.Client = api.New(api.Options{BaseURL: srv.URL})

	auth := NewAuth(f.env)
	auth.Open()
	auth.Login(context.Background(), "admin@library.test", "admin")
	if n, _ := auth.Notice(); n.Text != msgLoginFailed {
		t.Fatalf("notice = %+v", n)
	}
}

func TestSignupThenOpenGoesToDashboard(t *testing.T) {
	f := newFixture(t)

	auth := NewAuth(f.env)
	auth.Open()
	if !auth.Signup(context.Background(), "New Reader", "new@library.test", "pw") {
		n, _ := auth.Notice()
		t.Fatalf("signup failed: %+v", n)
	}
	if auth.Session().Role != session.RoleUser {
		t.Fatalf("role = %q", auth.Session().Role)
	}

	again := NewAuth(f.env)
	again.Open()
	if next, _ := again.Next(); next != gate.PathDashboard {
		t.Fatalf("logged-in entry next = %q", next)
	}
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, f.admin)

	auth := NewAuth(f.env)
	if err := auth.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	f.assertLoggedOut(t)
	if next, _ := auth.Next(); next != gate.PathLogin {
		t.Fatalf("next = %q", next)
	}
	if f.ends["logout"] != 1 {
		t.Fatalf("session ends = %v", f.ends)
	}
}
