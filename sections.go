package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"library-admin/library"
	"library-admin/render"
	"library-admin/views"
)

// sectionRunner is a collection section, independent of its record type.
type sectionRunner interface {
	entity() library.Entity
	command() *cobra.Command
	list(ctx context.Context, filters map[string]string) error
	get(ctx context.Context, id int64) error
	remove(ctx context.Context, id int64, confirm views.Confirmer) error
	save(ctx context.Context, id int64, src fields) error
}

// section adapts one list page and its form to commands.
type section[T library.Record] struct {
	a         *app
	kind      library.Entity
	page      func() *views.List[T]
	table     func(io.Writer, []T)
	detail    func(io.Writer, T)
	saveFn    func(ctx context.Context, id int64, src fields) error
	formFlags func(*pflag.FlagSet, bool)
	extra     []*cobra.Command
}

func (a *app) sections() []sectionRunner {
	return []sectionRunner{
		&section[library.Book]{
			a:         a,
			kind:      library.EntityBooks,
			page:      func() *views.List[library.Book] { return a.console.Books() },
			table:     render.Books,
			detail:    render.Book,
			saveFn:    a.saveBook,
			formFlags: bookFlags,
			extra:     []*cobra.Command{a.thumbnailCmd()},
		},
		&section[library.Author]{
			a:         a,
			kind:      library.EntityAuthors,
			page:      func() *views.List[library.Author] { return a.console.Authors() },
			table:     render.Authors,
			detail:    render.Author,
			saveFn:    a.saveAuthor,
			formFlags: authorFlags,
		},
		&section[library.Publisher]{
			a:         a,
			kind:      library.EntityPublishers,
			page:      func() *views.List[library.Publisher] { return a.console.Publishers() },
			table:     render.Publishers,
			detail:    render.Publisher,
			saveFn:    a.savePublisher,
			formFlags: publisherFlags,
		},
		&section[library.User]{
			a:         a,
			kind:      library.EntityUsers,
			page:      func() *views.List[library.User] { return a.console.Users() },
			table:     render.Users,
			detail:    render.User,
			saveFn:    a.saveUser,
			formFlags: userFlags,
		},
	}
}

func (s *section[T]) entity() library.Entity { return s.kind }

func (s *section[T]) save(ctx context.Context, id int64, src fields) error {
	return s.saveFn(ctx, id, src)
}

// list opens the page, narrowed to filters when any are given.
func (s *section[T]) list(ctx context.Context, filters map[string]string) error {
	l := s.page()
	if err := l.OpenFiltered(ctx, filters); err != nil {
		return err
	}
	if err := s.a.report(l); err != nil {
		return err
	}
	return emit(s.a, l.Items(), s.table)
}

func (s *section[T]) get(ctx context.Context, id int64) error {
	l := s.page()
	rec, ok := l.OpenRecord(ctx, id)
	if err := s.a.report(l); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s %d not found", s.kind.Singular(), id)
	}
	return emit(s.a, rec, s.detail)
}

func (s *section[T]) remove(ctx context.Context, id int64, confirm views.Confirmer) error {
	l := s.page()
	l.Open(ctx)
	if err := s.a.report(l); err != nil {
		return err
	}
	if !l.Delete(ctx, id, confirm) {
		if _, ok := l.Notice(); !ok && l.State() == views.StateReady {
			fmt.Fprintln(s.a.out, "Cancelled.")
			return nil
		}
	}
	return s.a.report(l)
}

// ------------------ Commands ------------------

func (s *section[T]) command() *cobra.Command {
	plural := string(s.kind)
	one := s.kind.Singular()
	cmd := &cobra.Command{
		Use:   plural,
		Short: "Manage " + plural,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List " + plural + ", filtered by any search flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filters := map[string]string{}
			for _, f := range views.SearchFields(s.kind) {
				if cmd.Flags().Changed(f) {
					filters[f], _ = cmd.Flags().GetString(f)
				}
			}
			return s.list(cmd.Context(), filters)
		},
	}
	for _, f := range views.SearchFields(s.kind) {
		list.Flags().String(f, "", "search by "+f)
	}

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show one " + one,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return s.get(cmd.Context(), id)
		},
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Create a " + one,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.save(cmd.Context(), 0, flagFields{cmd: cmd, p: s.a.prompt})
		},
	}
	s.formFlags(add.Flags(), false)

	edit := &cobra.Command{
		Use:   "edit ID",
		Short: "Update a " + one + "; omitted flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return s.save(cmd.Context(), id, flagFields{cmd: cmd, p: s.a.prompt})
		},
	}
	s.formFlags(edit.Flags(), true)

	var yes bool
	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a " + one,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			confirm := s.a.prompt.confirm
			if yes {
				confirm = func(string) bool { return true }
			}
			return s.remove(cmd.Context(), id, confirm)
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	cmd.AddCommand(list, get, add, edit, del)
	cmd.AddCommand(s.extra...)
	return cmd
}
