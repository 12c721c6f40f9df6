// Command fake_backend serves the in-memory library backend so the console
// can be tried without the real service. Seed accounts:
// admin@library.test / admin and reader@library.test / reader.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"library-admin/fakeapi"
	"library-admin/logger"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	level := flag.String("log-level", "info", "debug, info, warn or error")
	empty := flag.Bool("empty", false, "start without seed data")
	flag.Parse()

	lvl, err := logger.ParseLevel(*level)
	logger.SetupDefault(os.Stderr, lvl)
	if err != nil {
		slog.Warn("falling back to warn", slog.Any("error", err))
	}

	backend := fakeapi.New()
	if !*empty {
		admin, user := backend.Seed()
		slog.Info("seeded accounts", slog.String("admin", admin.Email), slog.String("user", user.Email))
	}

	server := &http.Server{
		Addr:              *addr,
		Handler:           backend,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("fake backend starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server listen error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down fake backend...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server shutdown failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
