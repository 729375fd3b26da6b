package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/fibday/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	eng, pinger, closeFn, err := openEngine(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	// Launch counts as an activation event.
	if view, err := eng.Activate(cmd.Context()); err != nil {
		slog.Warn("initial activation failed", "error", err)
	} else {
		slog.Info("counter", "value", view.Value, "days_until_next", view.DaysUntilNext, "prompt_open", view.PromptOpen)
	}

	if cfg.Schedule.Enabled {
		if err := eng.StartDaily(cfg.Schedule.Daily); err != nil {
			return fmt.Errorf("start daily schedule: %w", err)
		}
		defer eng.Stop()
	}

	srv := server.New(eng, pinger, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("fibday serving", "addr", addr, "store", cfg.Store.Driver)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-done:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
