package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"library-admin/config"
	"library-admin/console"
	"library-admin/gate"
	"library-admin/logger"
	"library-admin/render"
	"library-admin/views"
)

const appName = "library-admin"

var errNotLoggedIn = errors.New("not logged in: run '" + appName + " login' first")

// app holds what every command shares: flags, output and the console,
// which is opened once per invocation.
type app struct {
	out    io.Writer
	errOut io.Writer
	prompt *prompter

	configPath string
	apiURL     string
	statePath  string
	logLevel   string
	jsonOutput bool

	logger  *slog.Logger
	console *console.Console
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// run executes one command line and always closes the console afterwards.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	a := &app{out: out, errOut: errOut, prompt: newPrompter(in, out)}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               appName,
		Short:             "Admin console for the library backend",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.open,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	f.StringVar(&a.apiURL, "api-url", "", "backend base URL")
	f.StringVar(&a.statePath, "state", "", "session state file")
	f.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")
	f.BoolVar(&a.jsonOutput, "json", false, "print JSON instead of tables")

	root.AddCommand(
		a.loginCmd(),
		a.signupCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.menuCmd(),
		a.dashboardCmd(),
		a.lendCmd(),
		a.shellCmd(),
	)
	for _, s := range a.sections() {
		root.AddCommand(s.command())
	}
	return root
}

// open loads configuration, applies flag overrides and opens the console.
func (a *app) open(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = a.apiURL
	}
	if flags.Changed("state") {
		cfg.StatePath = a.statePath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := logger.ParseLevel(cfg.LogLevel)
	a.logger = logger.Setup(a.errOut, level)

	c, err := console.Open(cfg, a.logger)
	if err != nil {
		return err
	}
	a.console = c
	return nil
}

func (a *app) close() error {
	if a.console == nil {
		return nil
	}
	err := a.console.Close()
	a.console = nil
	return err
}

// ------------------ Output ------------------

// page is what report needs from a controller.
type page interface {
	State() views.State
	Notice() (views.Notice, bool)
	Next() (string, bool)
}

// report prints an informational notice and turns everything else a page
// can end up in into an error.
func (a *app) report(p page) error {
	if p.State() == views.StateRedirect {
		if next, _ := p.Next(); next == gate.PathLogin {
			return errNotLoggedIn
		}
	}
	n, ok := p.Notice()
	if !ok {
		return nil
	}
	if n.Kind != views.NoticeInfo {
		return errors.New(n.Text)
	}
	fmt.Fprintln(a.noticeOut(), n.Text)
	return nil
}

// noticeOut keeps stdout pure JSON in --json mode.
func (a *app) noticeOut() io.Writer {
	if a.jsonOutput {
		return a.errOut
	}
	return a.out
}

// emit prints v as JSON or through the human renderer.
func emit[T any](a *app, v T, human func(io.Writer, T)) error {
	if a.jsonOutput {
		return render.PrintJSON(a.out, v)
	}
	human(a.out, v)
	return nil
}
