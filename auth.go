package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"library-admin/gate"
	"library-admin/render"
	"library-admin/session"
)

func (a *app) loginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.login(cmd.Context(), email)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when empty)")
	return cmd
}

func (a *app) signupCmd() *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in as it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.signup(cmd.Context(), name, email)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (prompted when empty)")
	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when empty)")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE:  func(*cobra.Command, []string) error { return a.logout() },
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE:  func(*cobra.Command, []string) error { return a.whoami() },
	}
}

func (a *app) menuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "List the sections available to your role",
		Args:  cobra.NoArgs,
		RunE:  func(*cobra.Command, []string) error { return a.menu() },
	}
}

func (a *app) login(ctx context.Context, email string) error {
	auth := a.console.Auth()
	auth.Open()
	if next, _ := auth.Next(); next == gate.PathDashboard {
		fmt.Fprintf(a.out, "Already logged in as %s. Run 'logout' to switch accounts.\n", auth.Session().Name)
		return nil
	}

	var err error
	if email == "" {
		if email, err = a.prompt.line("Email: "); err != nil {
			return err
		}
	}
	password, err := a.prompt.readPassword("Password: ")
	if err != nil {
		return err
	}
	if !auth.Login(ctx, email, password) {
		return a.report(auth)
	}
	return a.welcome(auth.Session())
}

func (a *app) signup(ctx context.Context, name, email string) error {
	auth := a.console.Auth()
	auth.Open()
	if next, _ := auth.Next(); next == gate.PathDashboard {
		fmt.Fprintf(a.out, "Already logged in as %s. Run 'logout' first.\n", auth.Session().Name)
		return nil
	}

	var err error
	if name == "" {
		if name, err = a.prompt.line("Name: "); err != nil {
			return err
		}
	}
	if email == "" {
		if email, err = a.prompt.line("Email: "); err != nil {
			return err
		}
	}
	password, err := a.prompt.readPassword("Password: ")
	if err != nil {
		return err
	}
	again, err := a.prompt.readPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != again {
		return errors.New("passwords do not match")
	}
	if !auth.Signup(ctx, name, email, password) {
		return a.report(auth)
	}
	return a.welcome(auth.Session())
}

func (a *app) welcome(sess session.Session) error {
	fmt.Fprintf(a.noticeOut(), "Logged in as %s (%s).\n", sess.Name, sess.Role)
	if a.jsonOutput {
		return nil
	}
	fmt.Fprintln(a.out, "Sections:")
	render.Menu(a.out, gate.Sections(sess.Role))
	return nil
}

func (a *app) logout() error {
	auth := a.console.Auth()
	if err := auth.Logout(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return a.report(auth)
}

// identity is the whoami JSON shape. It leaves the token out.
type identity struct {
	Name   string       `json:"name"`
	Role   session.Role `json:"role"`
	UserID int64        `json:"userId"`
}

func (a *app) whoami() error {
	_, sess, err := a.console.AuthedClient("")
	if err != nil {
		return a.sessionErr(err)
	}
	return emit(a, identity{Name: sess.Name, Role: sess.Role, UserID: sess.UserID}, func(w io.Writer, id identity) {
		fmt.Fprintf(w, "%s (%s), user id %d\n", render.Clean(id.Name), id.Role, id.UserID)
	})
}

func (a *app) menu() error {
	sections := a.console.Sections()
	if sections == nil {
		return errNotLoggedIn
	}
	return emit(a, sections, render.Menu)
}

// sessionErr maps a gate refusal onto the command-line hint.
func (a *app) sessionErr(err error) error {
	if errors.Is(err, session.ErrNoSession) {
		return errNotLoggedIn
	}
	return err
}
