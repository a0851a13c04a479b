package capture

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// TranscriptExt is appended to a log's path to name its rendered transcript.
const TranscriptExt = ".transcript"

// IsCapturedLog reports whether name looks like a captured test log: *.log,
// *.txt, or a bare "logs" file as produced by `cargo test ... | tee logs`.
func IsCapturedLog(name string) bool {
	if strings.HasSuffix(name, TranscriptExt) {
		return false
	}
	return name == "logs" || strings.HasSuffix(name, ".log") || strings.HasSuffix(name, ".txt")
}

// Discover walks dir for captured logs and returns their paths in lexical order.
// Subdirectories that cannot be read are left out of paths and reported in
// skipped; only a failure on dir itself is returned as err.
func Discover(dir string) (paths []string, skipped []error, err error) {
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			skipped = append(skipped, fmt.Errorf("read %s: %w", path, err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && IsCapturedLog(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	sort.Strings(paths)
	return paths, skipped, nil
}
