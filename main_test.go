package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"library-admin/fakeapi"
	"library-admin/library"
)

type cli struct {
	t       *testing.T
	backend *fakeapi.Backend
	base    []string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	for _, k := range []string{
		"LIBADMIN_API_URL", "LIBADMIN_STATE_PATH", "LIBADMIN_REQUEST_TIMEOUT",
		"LIBADMIN_RATE_LIMIT", "LIBADMIN_RATE_BURST", "LIBADMIN_LOG_LEVEL", "LIBADMIN_METRICS_FILE",
	} {
		t.Setenv(k, "")
	}

	backend, srv := fakeapi.NewServer()
	t.Cleanup(srv.Close)
	backend.Seed()
	return &cli{
		t:       t,
		backend: backend,
		base:    []string{"--api-url", srv.URL, "--state", filepath.Join(dir, "state.db"), "--log-level", "error"},
	}
}

// run executes one command line with input fed to stdin.
func (c *cli) run(input string, args ...string) (string, error) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), append(append([]string(nil), c.base...), args...), strings.NewReader(input), &out, &errOut)
	return out.String(), err
}

func (c *cli) mustRun(input string, args ...string) string {
	c.t.Helper()
	out, err := c.run(input, args...)
	if err != nil {
		c.t.Fatalf("%v: %v\noutput:\n%s", args, err, out)
	}
	return out
}

// paths lists "METHOD /path" for every request after the first skip.
func (c *cli) paths(skip int) []string {
	var out []string
	for _, r := range c.backend.Requests()[skip:] {
		out = append(out, r.Method+" "+r.Path)
	}
	return out
}

func (c *cli) loginAdmin() { c.mustRun("admin\n", "login", "--email", "admin@library.test") }
func (c *cli) loginUser()  { c.mustRun("reader\n", "login", "--email", "reader@library.test") }

func TestLoginThenWhoami(t *testing.T) {
	c := newCLI(t)
	out := c.mustRun("admin@library.test\nadmin\n", "login")
	if !strings.Contains(out, "Logged in as Admin (ADMIN).") {
		t.Fatalf("login output:\n%s", out)
	}
	if !strings.Contains(out, "Users") {
		t.Fatalf("admin menu should list users:\n%s", out)
	}

	out = c.mustRun("", "whoami")
	if !strings.Contains(out, "Admin (ADMIN), user id 1") {
		t.Fatalf("whoami = %q", out)
	}

	out = c.mustRun("", "login")
	if !strings.Contains(out, "Already logged in as Admin") {
		t.Fatalf("second login = %q", out)
	}
}

func TestLoginFailureShowsBackendMessage(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("wrong\n", "login", "--email", "admin@library.test")
	if err == nil || err.Error() != "Invalid email or password" {
		t.Fatalf("err = %v", err)
	}
}

func TestCommandsWithoutSessionHintLogin(t *testing.T) {
	c := newCLI(t)
	for _, args := range [][]string{{"books", "list"}, {"dashboard"}, {"lend", "status"}, {"whoami"}, {"menu"}} {
		if _, err := c.run("", args...); !errors.Is(err, errNotLoggedIn) {
			t.Errorf("%v: err = %v, want errNotLoggedIn", args, err)
		}
	}
	if n := len(c.backend.Requests()); n != 0 {
		t.Fatalf("%d requests sent without a session", n)
	}
}

func TestSignupAndLogout(t *testing.T) {
	c := newCLI(t)
	if _, err := c.run("pw\nother\n", "signup", "--name", "Sam", "--email", "sam@library.test"); err == nil {
		t.Fatal("mismatched passwords accepted")
	}
	out := c.mustRun("pw\npw\n", "signup", "--name", "Sam", "--email", "sam@library.test")
	if !strings.Contains(out, "Logged in as Sam (USER).") {
		t.Fatalf("signup output:\n%s", out)
	}

	out = c.mustRun("", "logout")
	if !strings.Contains(out, "Logged out.") {
		t.Fatalf("logout = %q", out)
	}
	if _, err := c.run("", "whoami"); !errors.Is(err, errNotLoggedIn) {
		t.Fatalf("whoami after logout: %v", err)
	}
}

func TestBooksListAndSearch(t *testing.T) {
	c := newCLI(t)
	c.loginUser()

	out := c.mustRun("", "books", "list")
	for _, title := range []string{"1984", "Animal Farm", "The Fellowship of the Ring"} {
		if !strings.Contains(out, title) {
			t.Errorf("list is missing %q:\n%s", title, out)
		}
	}

	before := len(c.backend.Requests())
	out = c.mustRun("", "books", "list", "--author", "orwell", "--category", "satire")
	if !strings.Contains(out, "Animal Farm") || strings.Contains(out, "1984") {
		t.Fatalf("search output:\n%s", out)
	}
	if got := c.paths(before); len(got) != 1 || got[0] != "GET /api/books/search" {
		t.Fatalf("search requests = %v", got)
	}

	before = len(c.backend.Requests())
	out = c.mustRun("", "books", "get", "9")
	if !strings.Contains(out, "J.R.R. Tolkien") || !strings.Contains(out, "Allen & Unwin") {
		t.Fatalf("get output:\n%s", out)
	}
	if got := c.paths(before); len(got) != 1 || got[0] != "GET /api/books/9" {
		t.Fatalf("get requests = %v", got)
	}
	if _, err := c.run("", "books", "get", "99"); err == nil || !strings.Contains(err.Error(), "Book not found") {
		t.Fatalf("get missing: %v", err)
	}
}

func TestJSONOutput(t *testing.T) {
	c := newCLI(t)
	c.loginUser()

	out := c.mustRun("", "--json", "authors", "list")
	var authors []library.Author
	if err := json.Unmarshal([]byte(out), &authors); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(authors) != 2 || authors[0].Name != "George Orwell" {
		t.Fatalf("authors = %+v", authors)
	}
}

func TestUsersSectionIsAdminOnly(t *testing.T) {
	c := newCLI(t)
	c.loginUser()
	if _, err := c.run("", "users", "list"); err == nil || err.Error() != "Access denied. Admins only." {
		t.Fatalf("err = %v", err)
	}
	if _, err := c.run("", "books", "delete", "7", "--yes"); err == nil || err.Error() != "Access denied. Admins only." {
		t.Fatalf("delete err = %v", err)
	}
	if _, ok := c.backend.Book(7); !ok {
		t.Fatal("book deleted by USER")
	}
}

func TestPublisherCRUD(t *testing.T) {
	c := newCLI(t)
	c.loginAdmin()

	out := c.mustRun("", "publishers", "add", "--name", "Penguin", "--address", "London")
	if !strings.Contains(out, "Publisher saved.") || !strings.Contains(out, "Penguin") {
		t.Fatalf("add output:\n%s", out)
	}

	out = c.mustRun("", "publishers", "edit", "10", "--address", "Harmondsworth")
	if !strings.Contains(out, "Penguin") || !strings.Contains(out, "Harmondsworth") {
		t.Fatalf("edit output:\n%s", out)
	}

	out = c.mustRun("n\n", "publishers", "delete", "10")
	if !strings.Contains(out, "Cancelled.") {
		t.Fatalf("declined delete:\n%s", out)
	}
	out = c.mustRun("", "publishers", "delete", "10", "--yes")
	if !strings.Contains(out, "Publisher deleted.") {
		t.Fatalf("delete output:\n%s", out)
	}

	if _, err := c.run("", "publishers", "delete", "5", "--yes"); err == nil {
		t.Fatal("deleting a publisher with books succeeded")
	}
}

func TestBookEditKeepsUnsetFields(t *testing.T) {
	c := newCLI(t)
	c.loginAdmin()

	c.mustRun("", "books", "edit", "7", "--title", "Nineteen Eighty-Four")
	b, ok := c.backend.Book(7)
	if !ok || b.Title != "Nineteen Eighty-Four" || b.Category != "Dystopia" || b.AuthorName() != "George Orwell" {
		t.Fatalf("book = %+v", b)
	}

	if _, err := c.run("", "books", "add", "--title", "Silmarillion", "--author-id", "99", "--publisher-id", "6"); err == nil {
		t.Fatal("unknown author accepted")
	}
}

func TestBookThumbnail(t *testing.T) {
	c := newCLI(t)
	c.loginAdmin()

	img := filepath.Join(t.TempDir(), "cover.png")
	if err := os.WriteFile(img, []byte("\x89PNG"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	c.mustRun("", "books", "thumbnail", "7", img)
	b, _ := c.backend.Book(7)
	if b.ThumbnailURL != "uploads/thumbnails/7-cover.png" {
		t.Fatalf("thumbnail = %q", b.ThumbnailURL)
	}
}

func TestUserAddPromptsForPassword(t *testing.T) {
	c := newCLI(t)
	c.loginAdmin()

	out := c.mustRun("secret\n", "users", "add", "--name", "Sam", "--email", "sam@library.test")
	if !strings.Contains(out, "sam@library.test") || !strings.Contains(out, "USER") {
		t.Fatalf("add user output:\n%s", out)
	}
	c.mustRun("", "logout")
	out = c.mustRun("secret\n", "login", "--email", "sam@library.test")
	if !strings.Contains(out, "Logged in as Sam (USER).") {
		t.Fatalf("login as new user:\n%s", out)
	}
}

func TestLendAndReturn(t *testing.T) {
	c := newCLI(t)
	c.loginUser()

	out := c.mustRun("", "lend", "book", "7")
	if !strings.Contains(out, "Book lent.") {
		t.Fatalf("lend output:\n%s", out)
	}
	if _, err := c.run("", "lend", "book", "7"); err == nil || !strings.Contains(err.Error(), "already lent") {
		t.Fatalf("double lend: %v", err)
	}

	out = c.mustRun("", "--json", "lend", "status")
	var entries []library.LendingEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var lendingID int64
	for _, e := range entries {
		if e.BookID == 7 {
			lendingID = e.LendingID
		}
	}
	if lendingID == 0 {
		t.Fatalf("book 7 not held: %+v", entries)
	}

	out = c.mustRun("", "lend", "return", strconv.FormatInt(lendingID, 10))
	if !strings.Contains(out, "Book returned.") {
		t.Fatalf("return output:\n%s", out)
	}
}

func TestDashboard(t *testing.T) {
	c := newCLI(t)
	c.loginAdmin()
	out := c.mustRun("", "dashboard")
	for _, want := range []string{"Books", "Lends per month", "Recent lends"} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard is missing %q:\n%s", want, out)
		}
	}
}

func TestShellPromptsForLoginAndRetries(t *testing.T) {
	c := newCLI(t)
	script := strings.Join([]string{
		"whoami",
		"reader@library.test",
		"reader",
		"list authors",
		"frobnicate",
		"exit",
	}, "\n") + "\n"

	out := c.mustRun(script, "shell")
	for _, want := range []string{
		"Please log in to continue.",
		"Reader (USER), user id 2",
		"George Orwell",
		"Unknown command.",
		"Goodbye!",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("shell output is missing %q:\n%s", want, out)
		}
	}
}

func TestShellReportsRejectedSession(t *testing.T) {
	c := newCLI(t)
	c.loginAdmin()
	c.backend.RevokeAll()

	script := "list authors\nadmin@library.test\nadmin\nlogout\nexit\n"
	out := c.mustRun(script, "shell")
	for _, want := range []string{"Your session has ended.", "Please log in to continue.", "George Orwell", "Logged out."} {
		if !strings.Contains(out, want) {
			t.Errorf("shell output is missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "Your session has ended."); n != 1 {
		t.Errorf("session end reported %d times:\n%s", n, out)
	}
}

func TestShellEditKeepsBracketedDefaults(t *testing.T) {
	c := newCLI(t)
	c.loginAdmin()
	// Book 8: new category, everything else kept, no thumbnail.
	script := "edit book\n8\n\nFable\n\n\n\nexit\n"
	c.mustRun(script, "shell")

	b, _ := c.backend.Book(8)
	if b.Title != "Animal Farm" || b.Category != "Fable" || b.AuthorName() != "George Orwell" || b.PublisherName() != "Secker & Warburg" {
		t.Fatalf("book = %+v", b)
	}
}
