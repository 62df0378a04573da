package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/glorpus-work/wingetmirror/internal/logger"
	"github.com/glorpus-work/wingetmirror/pkg/repository"
	"github.com/glorpus-work/wingetmirror/pkg/server"
)

type serveOptions struct {
	listen   string
	noUpdate bool
	noWatch  bool
}

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the repository to package clients",
		Long: `Serve the repository over the package source protocol.

Unless disabled, the daily auto-update loop runs in the background and
changes made to the data directory by other processes are picked up.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.listen, "listen", "", "listen address (overrides server.listen)")
	cmd.Flags().BoolVar(&opts.noUpdate, "no-update", false, "disable the daily auto-update loop")
	cmd.Flags().BoolVar(&opts.noWatch, "no-watch", false, "do not watch the data directory for changes")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	cfg := a.cfg
	if opts.listen != "" {
		cfg.Server.Listen = opts.listen
	}

	srv := server.New(a.store, server.Options{
		Addr:            cfg.Server.Listen,
		PublicURL:       cfg.Server.PublicURL,
		Information:     cfg.Source.Information(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx)
	})

	if cfg.Sync.WatchRepository && !opts.noWatch {
		g.Go(func() error {
			if err := a.store.Watch(ctx, repository.DefaultWatchDelay); err != nil {
				// Serving continues without live reload.
				logger.Warn("Repository watcher stopped", logger.Fields{"error": err})
			}
			return nil
		})
	}

	if cfg.Sync.AutoUpdate && !opts.noUpdate {
		g.Go(func() error {
			return a.updater.Run(ctx)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
