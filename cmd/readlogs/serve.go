package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/readlogs/internal/api"
	"github.com/MikeSquared-Agency/readlogs/internal/config"
	"github.com/MikeSquared-Agency/readlogs/internal/hermes"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Render logs from the HTTP API and the event bus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := slog.Default()
	logger.Info("readlogs starting", "port", cfg.Port)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.close(logger)

	if d.bus != nil {
		if err := d.bus.Subscribe(hermes.SubjectLogCaptured, d.proc.HandleLogCaptured); err != nil {
			return fmt.Errorf("subscribe to captured logs: %w", err)
		}
	}

	var archive api.Archive
	if d.db != nil {
		archive = d.db
	}
	srv := api.NewServer(cfg.Port, cfg.APIToken, d.proc, archive, logger)

	logger.Info("readlogs ready", "port", cfg.Port, "archive", d.db != nil, "bus", d.bus != nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("readlogs stopped")
	return nil
}
