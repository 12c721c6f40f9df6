package views

import (
	"path/filepath"
	"testing"

	"library-admin/api"
	"library-admin/fakeapi"
	"library-admin/gate"
	"library-admin/library"
	"library-admin/session"
)

type fixture struct {
	env     *Env
	backend *fakeapi.Backend
	store   *session.Store
	admin   library.User
	user    library.User
	ends    map[string]int
}

func (f *fixture) RecordSessionEnd(reason string) { f.ends[reason]++ }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend, srv := fakeapi.NewServer()
	t.Cleanup(srv.Close)
	admin, user := backend.Seed()

	st, err := session.OpenStorage(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	store := session.NewStore(st, nil)

	f := &fixture{backend: backend, store: store, admin: admin, user: user, ends: map[string]int{}}
	f.env = &Env{
		Store:   store,
		Gate:    gate.New(store, nil),
		Client:  api.New(api.Options{BaseURL: srv.URL}),
		Metrics: f,
	}
	return f
}

// loginAs stores a session for u with a freshly issued token.
func (f *fixture) loginAs(t *testing.T, u library.User) {
	t.Helper()
	sess := session.Session{
		Token:  f.backend.IssueToken(u.ID),
		Role:   session.Role(u.Role),
		Name:   u.Name,
		UserID: u.ID,
	}
	if err := f.store.Save(sess); err != nil {
		t.Fatalf("save session: %v", err)
	}
}

// hits counts requests the backend saw for method and path.
func (f *fixture) hits(method, path string) int {
	n := 0
	for _, r := range f.backend.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (f *fixture) assertLoggedOut(t *testing.T) {
	t.Helper()
	if _, err := f.store.Load(); err == nil {
		t.Fatal("session should have been cleared")
	}
}

func yes(string) bool { return true }
