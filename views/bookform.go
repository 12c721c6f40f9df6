package views

import (
	"context"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"library-admin/gate"
	"library-admin/library"
)

// ThumbnailFailedNotice is shown when the book saved but its image did not.
const ThumbnailFailedNotice = "Book saved, but thumbnail upload failed."

// Thumbnail is an image to attach to a book after it is saved.
type Thumbnail struct {
	Filename string
	Data     io.Reader
}

// BookForm creates or edits a book. Its load needs authors and publishers
// (and the book itself when editing) and fails if any of them fails.
type BookForm struct {
	Page
	id         int64
	book       library.Book
	saved      library.Book
	authors    []library.Author
	publishers []library.Publisher
}

// NewBookForm returns an unopened book form.
func NewBookForm(env *Env) *BookForm {
	f := &BookForm{Page: newPage(env, "book form", gate.Required(library.EntityBooks))}
	f.discard = func() {
		f.book = library.Book{}
		f.authors = nil
		f.publishers = nil
	}
	return f
}

func (f *BookForm) Editing() bool                   { return f.id != 0 }
func (f *BookForm) Book() library.Book              { return f.book }
func (f *BookForm) Saved() library.Book             { return f.saved }
func (f *BookForm) Authors() []library.Author       { return f.authors }
func (f *BookForm) Publishers() []library.Publisher { return f.publishers }

// Open gates the page and runs the composite load.
func (f *BookForm) Open(ctx context.Context, id int64) {
	f.id = id
	if !f.enter() {
		return
	}
	if !gate.CanManage(library.EntityBooks, f.sess.Role) {
		f.setNotice(NoticeDenied, gate.DeniedNotice)
		f.redirect(gate.PathHome)
		return
	}
	f.load(ctx)
}

// Retry reruns the composite load.
func (f *BookForm) Retry(ctx context.Context) {
	if !f.active() {
		return
	}
	f.notice = nil
	f.load(ctx)
}

func (f *BookForm) load(ctx context.Context) {
	f.state = StateLoading
	c := f.client()

	var (
		authors    []library.Author
		publishers []library.Publisher
		book       library.Book
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		authors, err = c.Authors().List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		publishers, err = c.Publishers().List(gctx)
		return err
	})
	if f.id != 0 {
		g.Go(func() error {
			var err error
			book, err = c.Books().Get(gctx, f.id)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		f.handle("load book form", err, true)
		return
	}

	f.authors = authors
	f.publishers = publishers
	f.book = book
	f.state = StateReady
}

// Submit saves the book, then uploads thumb when given and the session is
// ADMIN. A failed upload keeps the saved book.
func (f *BookForm) Submit(ctx context.Context, in library.BookInput, thumb *Thumbnail) bool {
	if f.state != StateReady {
		return false
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	switch {
	case in.Title == "":
		f.setNotice(NoticeError, "Title is required.")
		return false
	case !f.hasAuthor(in.Author.ID):
		f.setNotice(NoticeError, "Select an author.")
		return false
	case !f.hasPublisher(in.Publisher.ID):
		f.setNotice(NoticeError, "Select a publisher.")
		return false
	}

	c := f.client()
	var (
		out library.Book
		err error
	)
	if f.Editing() {
		out, err = c.Books().Update(ctx, f.id, in)
	} else {
		out, err = c.Books().Create(ctx, in)
	}
	if err != nil {
		f.handle("save book", err, false)
		return false
	}
	// An update may answer without the record; the route id still names it.
	target := out.ID
	if f.Editing() {
		target = f.id
		if out.ID == 0 {
			out = f.assumed(in)
		}
	}
	f.saved = out

	f.setNotice(NoticeInfo, "Book saved.")
	switch {
	case thumb == nil || !f.sess.IsAdmin():
	case target == 0:
		f.setNotice(NoticeError, ThumbnailFailedNotice)
	default:
		if err := c.UploadThumbnail(ctx, target, thumb.Filename, thumb.Data); err != nil {
			f.handle("upload thumbnail", err, false)
			if f.state == StateRedirect {
				return false
			}
			f.setNotice(NoticeError, ThumbnailFailedNotice)
		}
	}
	f.navigate("/" + string(library.EntityBooks))
	return true
}

// assumed is the edited book as submitted, for updates answered without a body.
func (f *BookForm) assumed(in library.BookInput) library.Book {
	b := f.book
	b.ID = f.id
	b.Title = in.Title
	b.Category = in.Category
	for _, a := range f.authors {
		if a.ID == in.Author.ID {
			b.Author = &a
		}
	}
	for _, p := range f.publishers {
		if p.ID == in.Publisher.ID {
			b.Publisher = &p
		}
	}
	return b
}

func (f *BookForm) hasAuthor(id int64) bool {
	for _, a := range f.authors {
		if a.ID == id {
			return true
		}
	}
	return false
}

func (f *BookForm) hasPublisher(id int64) bool {
	for _, p := range f.publishers {
		if p.ID == id {
			return true
		}
	}
	return false
}
