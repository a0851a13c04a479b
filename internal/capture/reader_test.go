package capture

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestReadLog_PreservesTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs")
	writeFile(t, path, "line one\nline two\n")

	got, err := ReadLog(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "line one\nline two\n" {
		t.Errorf("ReadLog = %q", got)
	}
}

func TestReadLog_NormalisesCRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	writeFile(t, path, "created peers peer1=QmA peer2=QmB\r\npeer1 pulling\r\n")

	got, err := ReadLog(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(got, "\r") {
		t.Errorf("expected no carriage returns, got %q", got)
	}
	if !strings.Contains(got, "peer1 pulling\n") {
		t.Errorf("phase line lost its ending: %q", got)
	}
}

func TestReadLog_MissingFile(t *testing.T) {
	_, err := ReadLog(filepath.Join(t.TempDir(), "nope.log"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected wrapped ErrNotExist, got %v", err)
	}
}

func TestRead_EmptyInput(t *testing.T) {
	got, err := Read(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty text, got %q", got)
	}
}
