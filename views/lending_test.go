package views

import (
	"context"
	"net/http"
	"testing"
	"time"

	"library-admin/library"
)

func TestLendingUserView(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, f.user)
	ctx := context.Background()

	page := NewLending(f.env)
	page.Open(ctx)
	if page.State() != StateReady || page.AdminView() {
		t.Fatalf("state %v admin %v", page.State(), page.AdminView())
	}
	if len(page.Entries()) != 3 {
		t.Fatalf("entries = %d", len(page.Entries()))
	}

	if !page.Lend(ctx, 7, 0) {
		n, _ := page.Notice()
		t.Fatalf("lend failed: %+v", n)
	}
	var lent *library.LendingEntry
	for _, e := range page.Entries() {
		if e.Status == library.StatusLent {
			lent = &e
		}
	}
	if lent == nil || lent.BookID != 7 || lent.LentTo != f.user.Name || lent.LendingID == 0 {
		t.Fatalf("lent entry = %+v", lent)
	}
	if n := f.hits(http.MethodGet, "/api/lending/books/user"); n != 2 {
		t.Fatalf("collection fetched %d times, want 2", n)
	}

	if !page.Return(ctx, lent.LendingID) {
		t.Fatal("return failed")
	}
	for _, e := range page.Entries() {
		if e.Status != library.StatusAvailable {
			t.Fatalf("entry still lent after return: %+v", e)
		}
	}
}

func TestLendingAcceptsZonelessTimestamps(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, f.user)
	f.backend.Respond(http.MethodGet, "/api/lending/books/user", http.StatusOK,
		`{"available":[],"lent":[{"id":42,"book":{"id":7,"title":"1984"},"createdAt":"2024-05-01T10:23:45.123"}]}`)

	page := NewLending(f.env)
	page.Open(context.Background())
	if page.State() != StateReady {
		n, _ := page.Notice()
		t.Fatalf("state = %v, notice %+v", page.State(), n)
	}
	entries := page.Entries()
	if len(entries) != 1 || entries[0].LendingID != 42 || entries[0].LentAt == nil {
		t.Fatalf("entries = %+v", entries)
	}
	want := time.Date(2024, 5, 1, 10, 23, 45, 123000000, time.UTC)
	if !entries[0].LentAt.Equal(want) {
		t.Fatalf("lentAt = %v, want %v", entries[0].LentAt.Time, want)
	}
}

func TestLendingAdminView(t *testing.T) {
	f := newFixture(t)
	f.backend.Now = func() time.Time { return time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC) }
	f.loginAs(t, f.admin)
	ctx := context.Background()

	page := NewLending(f.env)
	page.Open(ctx)
	if !page.AdminView() || len(page.Entries()) != 3 {
		t.Fatalf("admin %v entries %d", page.AdminView(), len(page.Entries()))
	}
	if !page.Lend(ctx, 8, f.user.ID) {
		t.Fatal("lend failed")
	}
	for _, e := range page.Entries() {
		if e.BookID == 8 && (e.LentTo != f.user.Name || e.LentAt == nil) {
			t.Fatalf("entry = %+v", e)
		}
	}
	if n := f.hits(http.MethodGet, "/api/lending/all-books-status"); n != 2 {
		t.Fatalf("all-books-status fetched %d times", n)
	}
}

func TestLendingFailureKeepsPage(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, f.user)
	ctx := context.Background()

	page := NewLending(f.env)
	page.Open(ctx)
	page.Lend(ctx, 7, 0)
	if page.Lend(ctx, 7, 0) {
		t.Fatal("second lend of the same book succeeded")
	}
	if page.State() != StateReady {
		t.Fatalf("state = %v", page.State())
	}
	if n, _ := page.Notice(); n.Kind != NoticeError {
		t.Fatalf("notice = %+v", n)
	}
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, f.admin)
	f.backend.Fail(http.MethodGet, "/api/dashboard/stats", http.StatusBadGateway)
	ctx := context.Background()

	d := NewDashboard(f.env)
	d.Open(ctx)
	if d.State() != StateError || d.Stats() != nil {
		t.Fatalf("state %v stats %+v", d.State(), d.Stats())
	}
	d.Retry(ctx)
	if d.State() != StateReady {
		t.Fatalf("after retry: %v", d.State())
	}
	s := d.Stats()
	if s.TotalBooks != 3 || s.TotalAuthors != 2 || s.TotalPublishers != 2 || s.TotalUsers != 2 {
		t.Fatalf("stats = %+v", s)
	}
}
