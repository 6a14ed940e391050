// Package serve implements the HTTP server command for backlinkd.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/madx/backlinkd/internal/api"
	"github.com/madx/backlinkd/internal/config"
	"github.com/madx/backlinkd/internal/engine"
	"github.com/madx/backlinkd/internal/fetch"
	"github.com/madx/backlinkd/internal/logger"
	"github.com/madx/backlinkd/internal/rating"
	"github.com/madx/backlinkd/internal/scheduler"
	"github.com/madx/backlinkd/internal/sse"
	"github.com/madx/backlinkd/internal/store"
)

// Command returns the serve command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the backlink verification HTTP server",
		Long: `Starts the HTTP API: batch submission, batch state, per-batch SSE
progress streams, out-of-band recrawls and synchronous single checks.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Start(cmd.Context())
		},
	}
}

// Start wires all components and runs the server until interrupted.
func Start(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting backlinkd",
		logger.String("environment", cfg.App.Environment),
		logger.Bool("debug", cfg.App.Debug),
	)

	st := store.NewMemoryStore()

	broker := sse.NewBroker(log, sse.WithConfig(cfg.SSE))
	if err = broker.Start(ctx); err != nil {
		return fmt.Errorf("start SSE broker: %w", err)
	}
	defer func() { _ = broker.Stop() }()

	rater := newRater(cfg, log)

	// Batch checks use the long fetch timeout; synchronous on-demand checks
	// get a shorter one since a caller is waiting on the response.
	batchEngine := engine.New(fetch.New(cfg.Fetch), log)

	onDemandCfg := cfg.Fetch
	onDemandCfg.Timeout = config.OnDemandFetchTimeout
	onDemandEngine := engine.New(fetch.New(onDemandCfg), log)

	sched := scheduler.New(st, batchEngine, broker, rater, cfg.Scheduler, log)
	defer sched.Stop()

	handler := api.NewHandler(st, sched, onDemandEngine, rater, broker, log)
	server := api.NewServer(cfg.Server, handler, log)

	return runUntilInterrupt(ctx, server, log)
}

// newRater creates the domain-rating client, or nil when no API key is
// configured so enrichment is skipped entirely.
func newRater(cfg *config.Config, log logger.Logger) rating.Rater {
	if cfg.Ahrefs.APIKey == "" {
		log.Info("domain rating enrichment disabled (no API key configured)")
		return nil
	}
	return rating.NewClient(cfg.Ahrefs, log)
}

// runUntilInterrupt starts the server and blocks until a shutdown signal,
// a server error, or context cancellation.
func runUntilInterrupt(ctx context.Context, server *api.Server, log logger.Logger) error {
	errCh := server.StartAsync()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info("shutdown signal received", logger.String("signal", sig.String()))
	case <-ctx.Done():
		log.Info("context cancelled, shutting down")
	}

	// Fresh context: the original may already be cancelled.
	return server.Shutdown(context.Background())
}
