package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"library-admin/library"
	"library-admin/session"
	"library-admin/views"
)

type handler func(ctx context.Context) error

func (a *app) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive console",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, _ []string) error { return a.runShell(cmd.Context()) },
	}
}

func (a *app) runShell(ctx context.Context) error {
	handlers := a.shellHandlers()

	// A page clears the session when the backend rejects its token.
	var ended bool
	cancel := a.console.Store().Subscribe(func(_ session.Session, present bool) {
		if !present {
			ended = true
		}
	})
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to the Library Admin Console!")
	a.printShellHelp(handlers)

	for {
		fmt.Fprint(a.out, "\n> ")
		line, ok := a.prompt.scan()
		if !ok {
			return nil
		}
		cmd := strings.Join(strings.Fields(line), " ")

		switch cmd {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(a.out, "Goodbye!")
			return nil
		case "help":
			a.printShellHelp(handlers)
			continue
		}

		h, ok := handlers[cmd]
		if !ok {
			fmt.Fprintln(a.out, "Unknown command. Type 'help' to see the available commands.")
			continue
		}
		ended = false
		err := h(ctx)
		if ended && cmd != "logout" {
			fmt.Fprintln(a.out, "Your session has ended.")
		}
		if errors.Is(err, errNotLoggedIn) && cmd != "login" && cmd != "signup" {
			fmt.Fprintln(a.out, "Please log in to continue.")
			if err = a.login(ctx, ""); err == nil {
				err = h(ctx)
			}
		}
		switch {
		case errors.Is(err, errInputClosed):
			return nil
		case err != nil:
			fmt.Fprintf(a.out, "Error: %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (a *app) shellHandlers() map[string]handler {
	interactive := promptFields{p: a.prompt}
	h := map[string]handler{
		"login":     func(ctx context.Context) error { return a.login(ctx, "") },
		"signup":    func(ctx context.Context) error { return a.signup(ctx, "", "") },
		"logout":    func(context.Context) error { return a.logout() },
		"whoami":    func(context.Context) error { return a.whoami() },
		"menu":      func(context.Context) error { return a.menu() },
		"dashboard": a.dashboard,

		"lend status": a.lendStatus,

		"lend book": func(ctx context.Context) error {
			bookID, err := a.prompt.id("Book ID: ")
			if err != nil {
				return err
			}
			userID, err := a.prompt.optionalID("User ID (blank for yourself): ")
			if err != nil {
				return err
			}
			return a.lendBook(ctx, bookID, userID)
		},
		"return book": func(ctx context.Context) error {
			lendingID, err := a.prompt.id("Lending ID: ")
			if err != nil {
				return err
			}
			return a.returnBook(ctx, lendingID)
		},
		"upload thumbnail": func(ctx context.Context) error {
			id, err := a.prompt.id("Book ID: ")
			if err != nil {
				return err
			}
			path, err := a.prompt.line("Path to image file: ")
			if err != nil {
				return err
			}
			return a.uploadThumbnail(ctx, id, path)
		},
	}

	for _, s := range a.sections() {
		plural, one := string(s.entity()), s.entity().Singular()
		h["list "+plural] = func(ctx context.Context) error { return s.list(ctx, nil) }
		h["search "+plural] = func(ctx context.Context) error {
			filters, err := a.askFilters(s.entity())
			if err != nil {
				return err
			}
			return s.list(ctx, filters)
		}
		h["show "+one] = func(ctx context.Context) error {
			id, err := a.prompt.id(capitalize(one) + " ID: ")
			if err != nil {
				return err
			}
			return s.get(ctx, id)
		}
		h["add "+one] = func(ctx context.Context) error { return s.save(ctx, 0, interactive) }
		h["edit "+one] = func(ctx context.Context) error {
			id, err := a.prompt.id(capitalize(one) + " ID: ")
			if err != nil {
				return err
			}
			return s.save(ctx, id, interactive)
		}
		h["delete "+one] = func(ctx context.Context) error {
			id, err := a.prompt.id(capitalize(one) + " ID: ")
			if err != nil {
				return err
			}
			return s.remove(ctx, id, a.prompt.confirm)
		}
	}
	return h
}

// askFilters prompts once per search field; blank answers are skipped.
func (a *app) askFilters(entity library.Entity) (map[string]string, error) {
	filters := map[string]string{}
	for _, f := range views.SearchFields(entity) {
		v, err := a.prompt.line(capitalize(f) + " (blank to skip): ")
		if err != nil {
			return nil, err
		}
		filters[f] = v
	}
	return filters, nil
}

func (a *app) printShellHelp(handlers map[string]handler) {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(a.out, "Available commands:")
	for _, name := range names {
		fmt.Fprintf(a.out, "  %s\n", name)
	}
	fmt.Fprintln(a.out, "  help, exit")
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Tips:")
	fmt.Fprintln(a.out, "  • When editing, press Enter to keep the value shown in brackets")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
