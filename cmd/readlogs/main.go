package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/readlogs/internal/capture"
	"github.com/MikeSquared-Agency/readlogs/internal/config"
	"github.com/MikeSquared-Agency/readlogs/internal/transcript"
)

func main() {
	cfg := config.Load()
	if err := newRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(cfg config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "readlogs <logfile>",
		Short: "Render replication test logs into readable transcripts",
		Long: `Replaces peer and project identifiers with short aliases, expands
fetchspec lines into aligned tables and separates each pulling phase.
Use "-" to read the log from stdin.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogging(cfg.LogLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderLog(cmd, args[0])
		},
	}
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	root.AddCommand(newServeCmd(&cfg))
	root.AddCommand(newBatchCmd(&cfg))
	root.AddCommand(newWatchCmd(&cfg))
	return root
}

func renderLog(cmd *cobra.Command, path string) error {
	var (
		raw string
		err error
	)
	if path == "-" {
		raw, err = capture.Read(cmd.InOrStdin())
	} else {
		raw, err = capture.ReadLog(path)
	}
	if err != nil {
		return err
	}

	aliases, stats, err := transcript.Render(cmd.OutOrStdout(), raw)
	if err != nil {
		return err
	}
	slog.Debug("transcript rendered",
		"path", path,
		"peer1", aliases.Peers[0].ID,
		"peer2", aliases.Peers[1].ID,
		"project", aliases.Project.ID,
		"lines", stats.Lines,
		"tables", stats.Tables,
		"phases", stats.Phases,
	)
	return nil
}

// setupLogging installs a JSON handler on stderr; stdout carries transcripts.
func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
