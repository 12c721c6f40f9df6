package views

import (
	"context"

	"library-admin/gate"
	"library-admin/library"
)

// Lending is the lend page. ADMIN sees every book's status; anyone else
// sees what is available plus what they hold.
type Lending struct {
	Page
	entries []library.LendingEntry
}

// NewLending returns an unopened lend page.
func NewLending(env *Env) *Lending {
	l := &Lending{Page: newPage(env, string(library.EntityLending), gate.Required(library.EntityLending))}
	l.discard = func() { l.entries = nil }
	return l
}

// Entries is one row per book.
func (l *Lending) Entries() []library.LendingEntry { return append([]library.LendingEntry(nil), l.entries...) }

// AdminView reports whether the page shows all books' status.
func (l *Lending) AdminView() bool { return l.sess.IsAdmin() }

// Open gates the page and loads the collection.
func (l *Lending) Open(ctx context.Context) {
	if !l.enter() {
		return
	}
	l.load(ctx)
}

// Retry reloads after an error.
func (l *Lending) Retry(ctx context.Context) {
	if !l.active() {
		return
	}
	l.notice = nil
	l.load(ctx)
}

// Lend lends bookID to userID (zero means the current user) and reloads.
func (l *Lending) Lend(ctx context.Context, bookID, userID int64) bool {
	if !l.active() {
		return false
	}
	if userID == 0 {
		userID = l.sess.UserID
	}
	if err := l.client().Lend(ctx, userID, bookID); err != nil {
		l.handle("lend book", err, false)
		return false
	}
	l.load(ctx)
	if l.state == StateReady {
		l.setNotice(NoticeInfo, "Book lent.")
	}
	return true
}

// Return closes lendingID and reloads.
func (l *Lending) Return(ctx context.Context, lendingID int64) bool {
	if !l.active() {
		return false
	}
	if err := l.client().Return(ctx, lendingID); err != nil {
		l.handle("return book", err, false)
		return false
	}
	l.load(ctx)
	if l.state == StateReady {
		l.setNotice(NoticeInfo, "Book returned.")
	}
	return true
}

func (l *Lending) load(ctx context.Context) {
	l.state = StateLoading
	c := l.client()

	if l.sess.IsAdmin() {
		entries, err := c.AllBooksStatus(ctx)
		if err != nil {
			l.handle("load lending status", err, true)
			return
		}
		l.entries = entries
		l.state = StateReady
		return
	}

	ub, err := c.UserBooks(ctx, l.sess.UserID)
	if err != nil {
		l.handle("load your books", err, true)
		return
	}
	entries := make([]library.LendingEntry, 0, len(ub.Available)+len(ub.Lent))
	for _, b := range ub.Available {
		entries = append(entries, library.LendingEntry{
			BookID: b.ID, Title: b.Title, Author: b.Author, Publisher: b.Publisher,
			Status: library.StatusAvailable,
		})
	}
	for _, rec := range ub.Lent {
		at := rec.CreatedAt
		entries = append(entries, library.LendingEntry{
			BookID: rec.Book.ID, Title: rec.Book.Title, Author: rec.Book.Author, Publisher: rec.Book.Publisher,
			Status:    library.StatusLent,
			LentTo:    l.sess.Name,
			LentAt:    &at,
			LendingID: rec.ID,
		})
	}
	l.entries = entries
	l.state = StateReady
}
