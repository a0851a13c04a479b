package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/readlogs/internal/backfill"
	"github.com/MikeSquared-Agency/readlogs/internal/config"
	"github.com/MikeSquared-Agency/readlogs/internal/processor"
)

func newBatchCmd(cfg *config.Config) *cobra.Command {
	var bc backfill.Config

	cmd := &cobra.Command{
		Use:   "batch [dir]",
		Short: "Render every captured log under a directory",
		Long: `Renders each *.log, *.txt or "logs" file to <file>.transcript. Progress is
kept in a state file so an interrupted run resumes where it stopped.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if bc.SingleFile != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				bc.Dir = args[0]
			}
			bc.StatePath = cfg.StatePath
			return runBatch(cmd, cfg, bc)
		},
	}

	cmd.Flags().StringVar(&bc.SingleFile, "file", "", "render a single file instead of a directory")
	cmd.Flags().StringVar(&bc.OutDir, "out", "", "write transcripts under this directory")
	cmd.Flags().StringVar(&bc.Source, "source", "batch", "source label recorded with archived transcripts")
	cmd.Flags().BoolVar(&bc.DryRun, "dry-run", false, "render without writing transcripts, archiving or publishing")
	cmd.Flags().BoolVar(&bc.Force, "force", false, "re-render files already recorded as processed")
	cmd.Flags().StringVar(&cfg.StatePath, "state", cfg.StatePath, "batch state file")
	return cmd
}

func newWatchCmd(cfg *config.Config) *cobra.Command {
	var bc backfill.Config

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Render pending logs, then keep rendering logs as they are written",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bc.Dir = args[0]
			bc.StatePath = cfg.StatePath
			return runWatch(cmd, cfg, bc)
		},
	}

	cmd.Flags().StringVar(&bc.OutDir, "out", "", "write transcripts under this directory")
	cmd.Flags().StringVar(&bc.Source, "source", "watch", "source label recorded with archived transcripts")
	cmd.Flags().DurationVar(&bc.Settle, "settle", 500*time.Millisecond, "quiet period before a changed log is rendered")
	cmd.Flags().StringVar(&cfg.StatePath, "state", cfg.StatePath, "batch state file")
	return cmd
}

func runBatch(cmd *cobra.Command, cfg *config.Config, bc backfill.Config) error {
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	proc := processor.New(nil, nil, logger)
	if !bc.DryRun {
		d, err := connect(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer d.close(logger)
		proc = d.proc
	}

	_, err := backfill.NewRunner(bc, proc, cmd.OutOrStdout(), logger).Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Warn("batch interrupted, progress saved")
		return nil
	}
	return err
}

func runWatch(cmd *cobra.Command, cfg *config.Config, bc backfill.Config) error {
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.close(logger)

	runner := backfill.NewRunner(bc, d.proc, cmd.OutOrStdout(), logger)
	if _, err := runner.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	if err := runner.Watch(ctx); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
