package console

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"library-admin/config"
	"library-admin/fakeapi"
	"library-admin/library"
	"library-admin/session"
	"library-admin/views"
)

func newConsole(t *testing.T) (*Console, *fakeapi.Backend, *config.Config) {
	t.Helper()
	backend, srv := fakeapi.NewServer()
	t.Cleanup(srv.Close)
	backend.Seed()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.APIURL = srv.URL
	cfg.StatePath = filepath.Join(dir, "state.db")
	cfg.MetricsFile = filepath.Join(dir, "library_admin.prom")

	c, err := Open(&cfg, nil)
	if err != nil {
		t.Fatalf("open console: %v", err)
	}
	return c, backend, &cfg
}

func TestLoginThenBrowse(t *testing.T) {
	c, _, _ := newConsole(t)
	defer c.Close()
	ctx := context.Background()

	if got := c.Sections(); got != nil {
		t.Fatalf("sections before login = %v", got)
	}

	auth := c.Auth()
	auth.Open()
	if !auth.Login(ctx, "reader@library.test", "reader") {
		n, _ := auth.Notice()
		t.Fatalf("login failed: %+v", n)
	}

	books := c.Books()
	books.Open(ctx)
	if books.State() != views.StateReady || len(books.Items()) != 3 {
		t.Fatalf("books: state %v, %d items", books.State(), len(books.Items()))
	}
	for _, e := range c.Sections() {
		if e == library.EntityUsers {
			t.Fatal("USER menu lists users")
		}
	}
}

func TestAuthedClient(t *testing.T) {
	c, _, _ := newConsole(t)
	defer c.Close()

	if _, _, err := c.AuthedClient(""); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}

	auth := c.Auth()
	auth.Open()
	if !auth.Login(context.Background(), "reader@library.test", "reader") {
		t.Fatal("login failed")
	}
	if _, _, err := c.AuthedClient(session.RoleAdmin); err == nil || err.Error() != "Access denied. Admins only." {
		t.Fatalf("err = %v", err)
	}
	client, sess, err := c.AuthedClient("")
	if err != nil {
		t.Fatalf("authed client: %v", err)
	}
	if sess.Name != "Reader" {
		t.Fatalf("session = %+v", sess)
	}
	if _, err := client.Books().List(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
}

func TestSessionSurvivesReopen(t *testing.T) {
	c, _, cfg := newConsole(t)
	auth := c.Auth()
	auth.Open()
	if !auth.Login(context.Background(), "admin@library.test", "admin") {
		t.Fatal("login failed")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	again, err := Open(cfg, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	sess, err := again.Session()
	if err != nil || !sess.IsAdmin() {
		t.Fatalf("session after reopen = %+v, %v", sess, err)
	}
}

func TestCloseWritesMetrics(t *testing.T) {
	c, _, cfg := newConsole(t)
	auth := c.Auth()
	auth.Open()
	auth.Login(context.Background(), "admin@library.test", "wrong")
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := os.ReadFile(cfg.MetricsFile)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(b), `library_admin_api_requests_total{method="POST",outcome="unauthorized",route="/api/auth/login"} 1`) {
		t.Fatalf("metrics file:\n%s", b)
	}
}
