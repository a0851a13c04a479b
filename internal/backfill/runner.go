package backfill

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/readlogs/internal/capture"
	"github.com/MikeSquared-Agency/readlogs/internal/processor"
	"github.com/MikeSquared-Agency/readlogs/internal/transcript"
)

// Config holds the batch command configuration.
type Config struct {
	Dir        string
	SingleFile string // process a single file only
	OutDir     string // write transcripts here instead of next to each log
	StatePath  string
	Source     string // source label prefix for archived transcripts; "backfill" when empty
	DryRun     bool   // render only: no transcript files, archive rows, events or state
	Force      bool   // re-render files already recorded in the state

	Settle time.Duration // watch mode: quiet period before a changed log is rendered
}

// FileSummary is the outcome of rendering one log.
type FileSummary struct {
	Path    string
	Output  string
	Tables  int
	Entries int
	Phases  int
	Err     string
}

// Runner renders a directory of captured logs into transcripts.
type Runner struct {
	cfg    Config
	proc   *processor.Processor
	out    io.Writer
	logger *slog.Logger
}

// NewRunner creates a backfill runner. The summary is printed to out.
func NewRunner(cfg Config, proc *processor.Processor, out io.Writer, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		proc:   proc,
		out:    out,
		logger: logger,
	}
}

// sourceLabel returns the source string recorded for a rendered file.
func (r *Runner) sourceLabel(path string) string {
	prefix := r.cfg.Source
	if prefix == "" {
		prefix = "backfill"
	}
	return prefix + ":" + path
}

// Run renders every pending log. A log with the wrong shape is recorded in the
// state and skipped; the remaining logs are still rendered.
func (r *Runner) Run(ctx context.Context) ([]FileSummary, error) {
	state, err := LoadState(r.cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	files, skipped, err := r.discoverFiles()
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	for _, serr := range skipped {
		r.logger.Warn("skipping unreadable directory", "error", serr)
		state.AddError(serr.Error())
	}

	var pending []string
	for _, path := range files {
		if !r.cfg.Force && state.IsProcessed(path) {
			continue
		}
		pending = append(pending, path)
	}

	state.FilesRemaining = len(pending)
	r.logger.Info("files to render",
		"discovered", len(files),
		"pending", len(pending),
		"dry_run", r.cfg.DryRun,
	)

	var summaries []FileSummary
	for _, path := range pending {
		select {
		case <-ctx.Done():
			r.logger.Info("backfill interrupted, saving state")
			r.saveState(state)
			return summaries, ctx.Err()
		default:
		}

		fs := r.renderFile(ctx, path)
		summaries = append(summaries, fs)
		state.FilesRemaining--
		r.record(state, fs)
	}

	r.logger.Info("backfill complete",
		"files_rendered", len(summaries),
		"transcripts_written", state.TranscriptsWritten,
		"errors", len(state.Errors),
		"dry_run", r.cfg.DryRun,
	)

	fmt.Fprint(r.out, FormatSummary(summaries))
	if r.cfg.DryRun {
		fmt.Fprintf(r.out, "Mode: DRY RUN (no transcripts written)\n")
	} else {
		fmt.Fprintf(r.out, "State file: %s\n", state.Path())
	}

	return summaries, nil
}

// renderFile reads, renders and writes one log. Failures are reported in the
// summary rather than returned.
func (r *Runner) renderFile(ctx context.Context, path string) FileSummary {
	fs := FileSummary{Path: path}

	raw, err := capture.ReadLog(path)
	if err != nil {
		r.logger.Warn("failed to read log", "path", path, "error", err)
		fs.Err = err.Error()
		return fs
	}

	var t *transcript.Transcript
	if r.cfg.DryRun {
		t, err = transcript.Build(raw)
	} else {
		var res *processor.Result
		res, err = r.proc.Process(ctx, r.sourceLabel(path), raw)
		if res != nil {
			t = res.Transcript
		}
	}
	if err != nil {
		r.logger.Warn("failed to render log", "path", path, "error", err)
		fs.Err = err.Error()
		if transcript.IsFormatError(err) {
			fs.Err = formatErrPrefix + fs.Err
		}
		return fs
	}

	fs.Tables = t.Stats.Tables
	fs.Entries = t.Stats.Entries
	fs.Phases = t.Stats.Phases

	if r.cfg.DryRun {
		return fs
	}

	out := r.outputPath(path)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		fs.Err = fmt.Sprintf("mkdir: %v", err)
		return fs
	}
	if err := os.WriteFile(out, []byte(t.String()), 0o644); err != nil {
		fs.Err = fmt.Sprintf("write transcript: %v", err)
		return fs
	}
	fs.Output = out

	r.logger.Info("transcript written", "path", path, "output", out, "tables", fs.Tables, "phases", fs.Phases)
	return fs
}

// record folds one file's outcome into the state and saves it.
func (r *Runner) record(state *State, fs FileSummary) {
	if fs.Err != "" {
		state.AddError(fmt.Sprintf("%s: %s", fs.Path, fs.Err))
	} else {
		state.TablesRendered += fs.Tables
		state.PhasesSeparated += fs.Phases
		if fs.Output != "" {
			state.TranscriptsWritten++
		}
	}
	if (fs.Err == "" || isFormatFailure(fs)) && !state.IsProcessed(fs.Path) {
		state.MarkProcessed(fs.Path)
	}
	r.saveState(state)
}

const formatErrPrefix = "bad log: "

// isFormatFailure reports whether the file failed because of its content.
// Such files are marked processed since rendering them again cannot succeed.
func isFormatFailure(fs FileSummary) bool {
	return strings.HasPrefix(fs.Err, formatErrPrefix)
}

func (r *Runner) outputPath(path string) string {
	if r.cfg.OutDir == "" {
		return path + capture.TranscriptExt
	}
	rel, err := filepath.Rel(r.cfg.Dir, path)
	if r.cfg.Dir == "" || err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	return filepath.Join(r.cfg.OutDir, rel+capture.TranscriptExt)
}

func (r *Runner) saveState(state *State) {
	if r.cfg.DryRun {
		return
	}
	if err := state.Save(); err != nil {
		r.logger.Warn("failed to save state", "path", state.Path(), "error", err)
	}
}

func (r *Runner) discoverFiles() ([]string, []error, error) {
	if r.cfg.SingleFile != "" {
		path := expandHome(r.cfg.SingleFile)
		if _, err := os.Stat(path); err != nil {
			return nil, nil, fmt.Errorf("single file not found: %s", path)
		}
		return []string{path}, nil, nil
	}
	return capture.Discover(expandHome(r.cfg.Dir))
}

// FormatSummary formats file summaries grouped by directory.
func FormatSummary(summaries []FileSummary) string {
	byDir := make(map[string][]FileSummary)
	for _, s := range summaries {
		dir := filepath.Dir(s.Path)
		byDir[dir] = append(byDir[dir], s)
	}

	dirs := make([]string, 0, len(byDir))
	for d := range byDir {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	var sb strings.Builder
	sb.WriteString("\n=== Backfill Summary ===\n")

	rendered, failed := 0, 0
	for _, dir := range dirs {
		files := byDir[dir]
		tables, phases := 0, 0
		for _, f := range files {
			tables += f.Tables
			phases += f.Phases
		}
		fmt.Fprintf(&sb, "\n%s (%d files, %d tables, %d phases)\n", dir, len(files), tables, phases)
		for _, f := range files {
			name := filepath.Base(f.Path)
			if f.Err != "" {
				failed++
				fmt.Fprintf(&sb, "  - %s: FAILED: %s\n", name, f.Err)
				continue
			}
			rendered++
			fmt.Fprintf(&sb, "  - %s: %d tables (%d refs), %d phases\n", name, f.Tables, f.Entries, f.Phases)
		}
	}

	fmt.Fprintf(&sb, "\nFiles rendered: %d\n", rendered)
	fmt.Fprintf(&sb, "Errors: %d\n", failed)
	return sb.String()
}
