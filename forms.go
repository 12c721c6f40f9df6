package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"library-admin/library"
	"library-admin/render"
	"library-admin/views"
)

// fields supplies form values, either from command flags or interactively.
type fields interface {
	// text returns the value for key, or current when none is given.
	text(key, label, current string) (string, error)
	secret(label string) (string, error)
	// wants answers a yes/no option such as resetting a password.
	wants(key, question string) (bool, error)
	// hint shows context, such as the choices for an id.
	hint(text string)
}

type flagFields struct {
	cmd *cobra.Command
	p   *prompter
}

func (f flagFields) text(key, _, current string) (string, error) {
	if !f.cmd.Flags().Changed(key) {
		return current, nil
	}
	return f.cmd.Flags().GetString(key)
}

func (f flagFields) secret(label string) (string, error) { return f.p.readPassword(label + ": ") }

func (f flagFields) wants(key, _ string) (bool, error) { return f.cmd.Flags().GetBool(key) }

func (flagFields) hint(string) {}

type promptFields struct {
	p *prompter
}

func (f promptFields) text(_, label, current string) (string, error) {
	if current != "" {
		label = fmt.Sprintf("%s [%s]", label, current)
	}
	v, err := f.p.line(label + ": ")
	if err != nil || v == "" {
		return current, err
	}
	return v, nil
}

func (f promptFields) secret(label string) (string, error) { return f.p.readPassword(label + ": ") }

func (f promptFields) wants(_, question string) (bool, error) { return f.p.confirm(question), nil }

func (f promptFields) hint(text string) { fmt.Fprintln(f.p.out, text) }

// runForm opens f, fills its input from src and submits it.
func runForm[T library.Record, In any](a *app, ctx context.Context, f *views.Form[T, In], id int64, fill func(T, bool) (In, error), show func(io.Writer, T)) error {
	f.Open(ctx, id)
	if err := a.report(f); err != nil {
		return err
	}
	in, err := fill(f.Value(), f.Editing())
	if err != nil {
		return err
	}
	f.Submit(ctx, in)
	if err := a.report(f); err != nil {
		return err
	}
	return emit(a, f.Saved(), show)
}

// ------------------ Authors ------------------

func authorFlags(fs *pflag.FlagSet, _ bool) {
	fs.String("name", "", "author name")
	fs.String("biography", "", "short biography")
}

func (a *app) saveAuthor(ctx context.Context, id int64, src fields) error {
	return runForm(a, ctx, a.console.AuthorForm(), id, func(cur library.Author, _ bool) (library.AuthorInput, error) {
		var in library.AuthorInput
		var err error
		if in.Name, err = src.text("name", "Name", cur.Name); err != nil {
			return in, err
		}
		in.Biography, err = src.text("biography", "Biography", cur.Biography)
		return in, err
	}, render.Author)
}

// ------------------ Publishers ------------------

func publisherFlags(fs *pflag.FlagSet, _ bool) {
	fs.String("name", "", "publisher name")
	fs.String("address", "", "postal address")
}

func (a *app) savePublisher(ctx context.Context, id int64, src fields) error {
	return runForm(a, ctx, a.console.PublisherForm(), id, func(cur library.Publisher, _ bool) (library.PublisherInput, error) {
		var in library.PublisherInput
		var err error
		if in.Name, err = src.text("name", "Name", cur.Name); err != nil {
			return in, err
		}
		in.Address, err = src.text("address", "Address", cur.Address)
		return in, err
	}, render.Publisher)
}

// ------------------ Users ------------------

func userFlags(fs *pflag.FlagSet, editing bool) {
	fs.String("name", "", "display name")
	fs.String("email", "", "login email")
	fs.String("role", "", "ADMIN or USER (default USER)")
	if editing {
		fs.Bool("reset-password", false, "prompt for a new password")
	}
}

func (a *app) saveUser(ctx context.Context, id int64, src fields) error {
	return runForm(a, ctx, a.console.UserForm(), id, func(cur library.User, editing bool) (library.UserInput, error) {
		var in library.UserInput
		var err error
		if in.Name, err = src.text("name", "Name", cur.Name); err != nil {
			return in, err
		}
		if in.Email, err = src.text("email", "Email", cur.Email); err != nil {
			return in, err
		}
		if in.Role, err = src.text("role", "Role", cur.Role); err != nil {
			return in, err
		}
		ask := !editing
		if editing {
			if ask, err = src.wants("reset-password", "Change password?"); err != nil {
				return in, err
			}
		}
		if ask {
			in.Password, err = src.secret("Password")
		}
		return in, err
	}, render.User)
}

// ------------------ Books ------------------

func bookFlags(fs *pflag.FlagSet, _ bool) {
	fs.String("title", "", "book title")
	fs.String("category", "", "category or genre")
	fs.String("author-id", "", "author id")
	fs.String("publisher-id", "", "publisher id")
	fs.String("thumbnail", "", "image file to upload after saving (ADMIN)")
}

func (a *app) saveBook(ctx context.Context, id int64, src fields) error {
	f := a.console.BookForm()
	f.Open(ctx, id)
	if err := a.report(f); err != nil {
		return err
	}

	in, err := bookInput(src, f)
	if err != nil {
		return err
	}
	path, err := src.text("thumbnail", "Thumbnail image (optional)", "")
	if err != nil {
		return err
	}
	return a.submitBook(ctx, f, in, path)
}

func bookInput(src fields, f *views.BookForm) (library.BookInput, error) {
	cur := f.Book()
	in := library.BookInput{}
	if cur.Author != nil {
		in.Author.ID = cur.Author.ID
	}
	if cur.Publisher != nil {
		in.Publisher.ID = cur.Publisher.ID
	}

	var err error
	if in.Title, err = src.text("title", "Title", cur.Title); err != nil {
		return in, err
	}
	if in.Category, err = src.text("category", "Category", cur.Category); err != nil {
		return in, err
	}

	for _, au := range f.Authors() {
		src.hint(fmt.Sprintf("  author %d: %s", au.ID, render.Clean(au.Name)))
	}
	if in.Author.ID, err = idField(src, "author-id", "Author ID", in.Author.ID); err != nil {
		return in, err
	}
	for _, p := range f.Publishers() {
		src.hint(fmt.Sprintf("  publisher %d: %s", p.ID, render.Clean(p.Name)))
	}
	in.Publisher.ID, err = idField(src, "publisher-id", "Publisher ID", in.Publisher.ID)
	return in, err
}

func idField(src fields, key, label string, current int64) (int64, error) {
	cur := ""
	if current != 0 {
		cur = strconv.FormatInt(current, 10)
	}
	v, err := src.text(key, label, cur)
	if err != nil || v == "" {
		return current, err
	}
	return parseID(v)
}

// submitBook saves the book and uploads the image at path, if any. A saved
// book is printed even when its thumbnail failed.
func (a *app) submitBook(ctx context.Context, f *views.BookForm, in library.BookInput, path string) error {
	var thumb *views.Thumbnail
	if path != "" {
		file, err := os.Open(filepath.Clean(path))
		if err != nil {
			return fmt.Errorf("thumbnail: %w", err)
		}
		defer file.Close()
		thumb = &views.Thumbnail{Filename: filepath.Base(path), Data: file}
	}

	saved := f.Submit(ctx, in, thumb)
	err := a.report(f)
	if saved {
		if perr := emit(a, f.Saved(), render.Book); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}

func (a *app) thumbnailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "thumbnail ID FILE",
		Short: "Upload a cover image for a book (ADMIN)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.uploadThumbnail(cmd.Context(), id, args[1])
		},
	}
}

// uploadThumbnail resubmits the book unchanged with an image attached.
func (a *app) uploadThumbnail(ctx context.Context, id int64, path string) error {
	f := a.console.BookForm()
	f.Open(ctx, id)
	if err := a.report(f); err != nil {
		return err
	}
	cur := f.Book()
	in := library.BookInput{Title: cur.Title, Category: cur.Category}
	if cur.Author != nil {
		in.Author.ID = cur.Author.ID
	}
	if cur.Publisher != nil {
		in.Publisher.ID = cur.Publisher.ID
	}
	return a.submitBook(ctx, f, in, path)
}
