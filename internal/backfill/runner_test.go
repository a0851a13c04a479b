package backfill

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/readlogs/internal/processor"
)

const goodLog = "INFO rere_tracked: created peers peer1=QmA peer2=QmB\n" +
	`INFO rere_tracked: created project project_id="proj123"` + "\n" +
	"INFO rere_tracked: peer1 pulling\n" +
	`TRACE librad::git::storage::fetcher::imp: {fetchspecs} imp:["refs/heads/main":"refs/remotes/QmB/heads/main", "refs/rad/id":"refs/remotes/QmB/rad/id"]` + "\n"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newTestRunner(cfg Config, out io.Writer) *Runner {
	return NewRunner(cfg, processor.New(nil, nil, testLogger()), out, testLogger())
}

func TestRunner_RendersDirectory(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, filepath.Join(dir, "run1.log"), goodLog)
	writeLog(t, filepath.Join(dir, "nested", "logs"), goodLog)
	writeLog(t, filepath.Join(dir, "broken.log"), "no peers in here\n")

	var out bytes.Buffer
	cfg := Config{Dir: dir, StatePath: filepath.Join(dir, "state", "state.json")}
	summaries, err := newTestRunner(cfg, &out).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(summaries))
	}

	data, err := os.ReadFile(filepath.Join(dir, "run1.log.transcript"))
	if err != nil {
		t.Fatalf("transcript not written: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, "        refs/heads/main --> refs/remotes/<Peer 2>/heads/main") {
		t.Errorf("transcript missing table row:\n%s", body)
	}
	if !strings.HasSuffix(body, "Peer 1: QmA\nPeer 2: QmB\nProject: proj123\n") {
		t.Errorf("transcript missing legend:\n%s", body)
	}
	if _, err := os.Stat(filepath.Join(dir, "nested", "logs.transcript")); err != nil {
		t.Errorf("nested transcript not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "broken.log.transcript")); err == nil {
		t.Error("broken log must not produce a transcript")
	}

	state, err := LoadState(cfg.StatePath)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if state.TranscriptsWritten != 2 {
		t.Errorf("expected 2 transcripts written, got %d", state.TranscriptsWritten)
	}
	if state.TablesRendered != 2 || state.PhasesSeparated != 2 {
		t.Errorf("unexpected counters: tables=%d phases=%d", state.TablesRendered, state.PhasesSeparated)
	}
	if len(state.Errors) != 1 || !strings.Contains(state.Errors[0], "missing peer declaration") {
		t.Errorf("expected one missing peer error, got %v", state.Errors)
	}
	if !state.IsProcessed(filepath.Join(dir, "broken.log")) {
		t.Error("a log with the wrong shape should not be retried")
	}

	if !strings.Contains(out.String(), "Files rendered: 2") || !strings.Contains(out.String(), "Errors: 1") {
		t.Errorf("unexpected summary:\n%s", out.String())
	}
}

func TestRunner_SkipsProcessedFiles(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, filepath.Join(dir, "run1.log"), goodLog)
	cfg := Config{Dir: dir, StatePath: filepath.Join(t.TempDir(), "state.json")}

	if _, err := newTestRunner(cfg, io.Discard).Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	summaries, err := newTestRunner(cfg, io.Discard).Run(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("expected nothing pending on second run, got %d", len(summaries))
	}

	cfg.Force = true
	summaries, err = newTestRunner(cfg, io.Discard).Run(context.Background())
	if err != nil {
		t.Fatalf("forced run failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Errorf("expected forced re-render, got %d", len(summaries))
	}
}

func TestRunner_DryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, filepath.Join(dir, "run1.log"), goodLog)
	statePath := filepath.Join(t.TempDir(), "state.json")

	var out bytes.Buffer
	cfg := Config{Dir: dir, StatePath: statePath, DryRun: true}
	summaries, err := newTestRunner(cfg, &out).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Tables != 1 || summaries[0].Entries != 2 {
		t.Errorf("unexpected summaries: %+v", summaries)
	}
	if _, err := os.Stat(filepath.Join(dir, "run1.log.transcript")); err == nil {
		t.Error("dry run must not write transcripts")
	}
	if _, err := os.Stat(statePath); err == nil {
		t.Error("dry run must not write state")
	}
	if !strings.Contains(out.String(), "DRY RUN") {
		t.Errorf("summary should mention dry run:\n%s", out.String())
	}
}

func TestRunner_OutDirMirrorsLayout(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	writeLog(t, filepath.Join(dir, "ci", "run1.log"), goodLog)

	cfg := Config{Dir: dir, OutDir: outDir, StatePath: filepath.Join(t.TempDir(), "state.json")}
	if _, err := newTestRunner(cfg, io.Discard).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "ci", "run1.log.transcript")); err != nil {
		t.Errorf("transcript not written under out dir: %v", err)
	}
}

func TestRunner_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.out")
	writeLog(t, path, goodLog)
	writeLog(t, filepath.Join(dir, "other.log"), goodLog)

	cfg := Config{SingleFile: path, StatePath: filepath.Join(t.TempDir(), "state.json")}
	summaries, err := newTestRunner(cfg, io.Discard).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Path != path {
		t.Errorf("expected only the single file, got %+v", summaries)
	}

	cfg.SingleFile = filepath.Join(dir, "missing.log")
	if _, err := newTestRunner(cfg, io.Discard).Run(context.Background()); err == nil {
		t.Error("expected error for missing single file")
	}
}

func TestRunner_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, filepath.Join(dir, "run1.log"), goodLog)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{Dir: dir, StatePath: filepath.Join(t.TempDir(), "state.json")}
	_, err := newTestRunner(cfg, io.Discard).Run(ctx)
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFormatSummary(t *testing.T) {
	summaries := []FileSummary{
		{Path: "/logs/b/run2.log", Tables: 1, Entries: 3, Phases: 2},
		{Path: "/logs/a/run1.log", Tables: 2, Entries: 4, Phases: 1},
		{Path: "/logs/a/bad.log", Err: "bad log: missing peer declaration"},
	}

	got := FormatSummary(summaries)

	if strings.Index(got, "/logs/a") > strings.Index(got, "/logs/b") {
		t.Errorf("directories should be sorted:\n%s", got)
	}
	for _, want := range []string{
		"/logs/a (2 files, 2 tables, 1 phases)",
		"  - run1.log: 2 tables (4 refs), 1 phases",
		"  - bad.log: FAILED: bad log: missing peer declaration",
		"Files rendered: 2",
		"Errors: 1",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestRunner_SourceLabel(t *testing.T) {
	r := newTestRunner(Config{}, io.Discard)
	if got := r.sourceLabel("/logs/run1.log"); got != "backfill:/logs/run1.log" {
		t.Errorf("empty source should fall back to backfill, got %q", got)
	}

	r = newTestRunner(Config{Source: "batch"}, io.Discard)
	if got := r.sourceLabel("/logs/run1.log"); got != "batch:/logs/run1.log" {
		t.Errorf("got %q", got)
	}
}

func TestRunner_SettleIsConfigurable(t *testing.T) {
	cfg := Config{Dir: t.TempDir(), Settle: 75 * time.Millisecond}
	r := newTestRunner(cfg, io.Discard)
	if r.cfg.Settle != 75*time.Millisecond {
		t.Errorf("expected settle to be kept, got %s", r.cfg.Settle)
	}
}

func TestRunner_RecordsUnreadableDirectories(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	dir := t.TempDir()
	writeLog(t, filepath.Join(dir, "run1.log"), goodLog)
	locked := filepath.Join(dir, "locked")
	writeLog(t, filepath.Join(locked, "run2.log"), goodLog)
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	cfg := Config{Dir: dir, StatePath: filepath.Join(t.TempDir(), "state.json")}
	summaries, err := newTestRunner(cfg, io.Discard).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Errorf("expected only the readable log, got %d", len(summaries))
	}

	state, err := LoadState(cfg.StatePath)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if len(state.Errors) != 1 || !strings.Contains(state.Errors[0], "locked") {
		t.Errorf("expected the unreadable directory in state errors, got %v", state.Errors)
	}
}
