package views

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"library-admin/gate"
)

func TestListWithoutSessionNeverFetches(t *testing.T) {
	f := newFixture(t)
	books := NewBooks(f.env)
	books.Open(context.Background())

	if books.State() != StateRedirect {
		t.Fatalf("state = %v, want redirect", books.State())
	}
	if next, _ := books.Next(); next != gate.PathLogin {
		t.Fatalf("next = %q", next)
	}
	if n := f.hits(http.MethodGet, "/api/books"); n != 0 {
		t.Fatalf("fetched %d times without a session", n)
	}
}

func TestListLoadsCollection(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, f.admin)

	books := NewBooks(f.env)
	books.Open(context.Background())
	if books.State() != StateReady {
		t.Fatalf("state = %v", books.State())
	}
	if len(books.Items()) != 3 {
		t.Fatalf("items = %d, want 3", len(books.Items()))
	}
}

func TestListUnauthorizedClearsSession(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, f.admin)
	f.backend.Fail(http.MethodGet, "/api/books", http.StatusUnauthorized)

	books := NewBooks(f.env)
	books.Open(context.Background())

	if books.State() != StateRedirect {
		t.Fatalf("state = %v, want redirect", books.State())
	}
	if next, _ := books.Next(); next != gate.PathLogin {
		t.Fatalf("next = %q", next)
	}
	if len(books.Items()) != 0 {
		t.Fatalf("rendered %d books after 401", len(books.Items()))
	}
	f.assertLoggedOut(t)
	if f.ends["expired"] != 1 {
		t.Fatalf("session ends = %v", f.ends)
	}
}

func TestMutationUnauthorizedClearsSession(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, f.admin)

	authors := NewAuthors(f.env)
	authors.Open(context.Background())
	f.backend.RevokeAll()

	if authors.Delete(context.Background(), 3, yes) {
		t.Fatal("delete reported success")
	}
	if authors.State() != StateRedirect {
		t.Fatalf("state = %v, want redirect", authors.State())
	}
	if len(authors.Items()) != 0 {
		t.Fatal("collection kept after session teardown")
	}
	f.assertLoggedOut(t)
}

func TestListForbiddenKeepsSessionAndRetries(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, f.admin)
	f.backend.Fail(http.MethodGet, "/api/authors", http.StatusForbidden)

	authors := NewAuthors(f.env)
	authors.Open(context.Background())
	if authors.State() != StateError {
		t.Fatalf("state = %v, want error", authors.State())
	}
	n, ok := authors.Notice()
	if !ok || n.Kind != NoticeDenied {
		t.Fatalf("notice = %+v", n)
	}
	if _, err := f.store.Load(); err != nil {
		t.Fatalf("403 must keep the session: %v", err)
	}

	authors.Retry(context.Background())
	if authors.State() != StateReady || len(authors.Items()) != 2 {
		t.Fatalf("after retry: state %v, %d items", authors.State(), len(authors.Items()))
	}
}

func TestDeleteRemovesExactlyThatRecord(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, f.admin)

	books := NewBooks(f.env)
	books.Open(context.Background())
	target := books.Items()[1].ID

	if !books.Delete(context.Background(), target, yes) {
		n, _ := books.Notice()
		t.Fatalf("delete failed: %+v", n)
	}
	items := books.Items()
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	for _, b := range items {
		if b.ID == target {
			t.Fatalf("book %d still listed", target)
		}
	}
	if n := f.hits(http.MethodGet, "/api/books"); n != 1 {
		t.Fatalf("delete refetched the list (%d GETs)", n)
	}
}

func TestDeleteFailureLeavesCollection(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, f.admin)

	books := NewBooks(f.env)
	books.Open(context.Background())
	before := books.Items()
	f.backend.Fail(http.MethodDelete, "/api/books/7", http.StatusInternalServerError)

	if books.Delete(context.Background(), 7, yes) {
		t.Fatal("delete reported success")
	}
	if books.State() != StateReady {
		t.Fatalf("state = %v, want ready", books.State())
	}
	if len(books.Items()) != len(before) {
		t.Fatalf("items changed: %d -> %d", len(before), len(books.Items()))
	}
	if n, _ := books.Notice(); n.Kind != NoticeError {
		t.Fatalf("notice = %+v", n)
	}
}

func TestDeleteDeclinedSendsNothing(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, f.admin)

	books := NewBooks(f.env)
	books.Open(context.Background())
	var asked string
	if books.Delete(context.Background(), 7, func(p string) bool { asked = p; return false }) {
		t.Fatal("declined delete reported success")
	}
	if asked != "Are you sure you want to delete this book?" {
		t.Fatalf("prompt = %q", asked)
	}
	if n := f.hits(http.MethodDelete, "/api/books/7"); n != 0 {
		t.Fatalf("sent %d deletes", n)
	}
}

func TestDeleteWithoutConfirmerSendsNothing(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, f.admin)

	books := NewBooks(f.env)
	books.Open(context.Background())
	if books.Delete(context.Background(), 7, nil) {
		t.Fatal("delete without confirmation reported success")
	}
	if n := f.hits(http.MethodDelete, "/api/books/7"); n != 0 {
		t.Fatalf("sent %d deletes", n)
	}
	if len(books.Items()) != 3 {
		t.Fatalf("items = %d", len(books.Items()))
	}
}

func TestOpenFilteredFetchesOnce(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, f.user)
	ctx := context.Background()

	books := NewBooks(f.env)
	if err := books.OpenFiltered(ctx, map[string]string{"author": "orwell", "title": ""}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if books.State() != StateReady || len(books.Items()) != 2 {
		t.Fatalf("state %v items %d", books.State(), len(books.Items()))
	}
	if full, search := f.hits(http.MethodGet, "/api/books"), f.hits(http.MethodGet, "/api/books/search"); full != 0 || search != 1 {
		t.Fatalf("full %d search %d", full, search)
	}

	if err := books.OpenFiltered(ctx, map[string]string{"isbn": "x"}); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("err = %v, want ErrUnknownField", err)
	}

	all := NewBooks(f.env)
	if err := all.OpenFiltered(ctx, map[string]string{"title": " "}); err != nil {
		t.Fatalf("blank open: %v", err)
	}
	if all.Filters() != nil || len(all.Items()) != 3 {
		t.Fatalf("blank filters: %v, %d items", all.Filters(), len(all.Items()))
	}
}

func TestOpenRecord(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, f.user)
	ctx := context.Background()

	books := NewBooks(f.env)
	bk, ok := books.OpenRecord(ctx, 9)
	if !ok || bk.Title != "The Fellowship of the Ring" || len(books.Items()) != 1 {
		t.Fatalf("record = %+v ok %v", bk, ok)
	}
	if n := f.hits(http.MethodGet, "/api/books"); n != 0 {
		t.Fatalf("fetched the collection %d times", n)
	}

	missing := NewBooks(f.env)
	if _, ok := missing.OpenRecord(ctx, 99); ok {
		t.Fatal("found book 99")
	}
	if n, _ := missing.Notice(); missing.State() != StateError || n.Kind != NoticeError {
		t.Fatalf("state %v notice %+v", missing.State(), n)
	}

	f.backend.RevokeAll()
	if _, ok := NewBooks(f.env).OpenRecord(ctx, 7); ok {
		t.Fatal("record loaded with a revoked token")
	}
	f.assertLoggedOut(t)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, f.admin)
	ctx := context.Background()

	books := NewBooks(f.env)
	books.Open(ctx)

	if err := books.Search(ctx, "author", "tolkien"); err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(books.Items()) != 1 {
		t.Fatalf("tolkien books = %d, want 1", len(books.Items()))
	}

	if err := books.SearchAll(ctx, map[string]string{"author": "orwell", "category": "satire", "title": " "}); err != nil {
		t.Fatalf("search all: %v", err)
	}
	if len(books.Items()) != 1 || books.Items()[0].Title != "Animal Farm" {
		t.Fatalf("combined search = %+v", books.Items())
	}

	if err := books.Search(ctx, "title", "   "); err != nil {
		t.Fatalf("blank search: %v", err)
	}
	if books.Filters() != nil || len(books.Items()) != 3 {
		t.Fatalf("blank search should clear: filters %v, %d items", books.Filters(), len(books.Items()))
	}
	if n := f.hits(http.MethodGet, "/api/books"); n != 2 {
		t.Fatalf("full list fetched %d times, want 2", n)
	}

	if err := books.Search(ctx, "isbn", "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("err = %v, want ErrUnknownField", err)
	}
}

func TestAffordancesFollowRole(t *testing.T) {
	f := newFixture(t)

	f.loginAs(t, f.user)
	books := NewBooks(f.env)
	books.Open(context.Background())
	if a := books.Affordances(); a.Create || a.Edit || a.Delete {
		t.Fatalf("USER affordances = %+v", a)
	}
	if books.Delete(context.Background(), 7, yes) {
		t.Fatal("USER delete reported success")
	}
	if n := f.hits(http.MethodDelete, "/api/books/7"); n != 0 {
		t.Fatal("hidden affordance still reached the backend")
	}

	f.loginAs(t, f.admin)
	books = NewBooks(f.env)
	books.Open(context.Background())
	if a := books.Affordances(); !a.Create || !a.Edit || !a.Delete {
		t.Fatalf("ADMIN affordances = %+v", a)
	}
}

func TestUsersPageDeniedForUser(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, f.user)

	users := NewUsers(f.env)
	users.Open(context.Background())
	if users.State() != StateRedirect {
		t.Fatalf("state = %v", users.State())
	}
	if next, _ := users.Next(); next != gate.PathHome {
		t.Fatalf("next = %q", next)
	}
	if n, _ := users.Notice(); n.Kind != NoticeDenied || n.Text != gate.DeniedNotice {
		t.Fatalf("notice = %+v", n)
	}
	if a := users.Affordances(); a.Create || a.Edit || a.Delete {
		t.Fatalf("affordances = %+v", a)
	}
	if n := f.hits(http.MethodGet, "/api/users"); n != 0 {
		t.Fatal("denied page fetched users")
	}
}
