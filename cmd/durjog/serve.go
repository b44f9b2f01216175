package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adda-Baaj/durjog-khobor/internal/api"
	"github.com/Adda-Baaj/durjog-khobor/internal/scheduler"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic harvester",
		Long: `serve warms the freshness cache from the store, starts the periodic
pass scheduler (unless scheduler.enabled is false) and serves the HTTP API
until interrupted. No pass runs at startup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts.configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if _, err := a.coordinator.Warm(ctx); err != nil {
		return err
	}

	if a.cfg.Scheduler.Enabled {
		sched, err := scheduler.New(a.coordinator, a.cfg.Scheduler.Interval, a.log)
		if err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := sched.Stop(stopCtx); err != nil {
				a.log.WarnObj("scheduler did not stop cleanly", "scheduler_stop", map[string]any{"error": err.Error()})
			}
		}()
	}

	srv := api.NewServer(a.cfg.HTTP.Addr, a.coordinator, a.metrics.Handler(), a.log)
	return srv.Run(ctx)
}
