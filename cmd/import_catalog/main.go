// Command import_catalog bulk-creates authors, publishers and books from a
// YAML catalog using the session saved by `library-admin login`.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"library-admin/api"
	"library-admin/config"
	"library-admin/console"
	"library-admin/logger"
	"library-admin/session"
)

var errNotLoggedIn = errors.New("not logged in: run 'library-admin login' first")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	var configPath, apiURL, statePath string
	cmd := &cobra.Command{
		Use:           "import_catalog CATALOG.yaml",
		Short:         "Import a YAML catalog into the library backend",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("api-url") {
				cfg.APIURL = apiURL
			}
			if cmd.Flags().Changed("state") {
				cfg.StatePath = statePath
			}
			level, _ := logger.ParseLevel(cfg.LogLevel)
			log := logger.Setup(cmd.ErrOrStderr(), level)

			catalog, err := LoadCatalog(args[0])
			if err != nil {
				return err
			}

			c, err := console.Open(cfg, log)
			if err != nil {
				return err
			}
			defer c.Close()

			client, sess, err := c.AuthedClient(session.RoleAdmin)
			if errors.Is(err, session.ErrNoSession) {
				return errNotLoggedIn
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Importing %s as %s...\n", args[0], sess.Name)
			sum, err := NewImporter(client, out).Run(cmd.Context(), catalog)

			fmt.Fprintf(out, "\nImport complete!\n")
			fmt.Fprintf(out, "Created: %d\n", sum.Created)
			fmt.Fprintf(out, "Skipped: %d\n", sum.Skipped)
			fmt.Fprintf(out, "Errors: %d\n", sum.Errors)

			if errors.Is(err, api.ErrUnauthorized) {
				if cerr := c.Expire(); cerr != nil {
					return errors.Join(err, cerr)
				}
				return fmt.Errorf("%w (%v)", errNotLoggedIn, err)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "backend base URL")
	cmd.Flags().StringVar(&statePath, "state", "", "session state file")
	return cmd
}
