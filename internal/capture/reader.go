package capture

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// MaxLogSize bounds how much of a captured log is read into memory.
const MaxLogSize = 512 << 20

// ReadLog reads a captured trace log in full. CRLF line endings are normalised
// to LF so fetchspec and phase lines match regardless of where the log was captured.
func ReadLog(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read is ReadLog for an already open stream.
func Read(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxLogSize+1))
	if err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	if len(data) > MaxLogSize {
		return "", fmt.Errorf("read: log exceeds %d bytes", MaxLogSize)
	}
	return string(bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))), nil
}
