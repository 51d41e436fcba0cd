package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Clip is one source audio or video file with its resolved duration in
// integer microseconds. Immutable once resolved.
type Clip struct {
	Path     string
	Duration int64
}

// ScanDir lists files in dir with one of the given extensions, sorted
// lexicographically by filename. Extensions are matched case-insensitively
// and include the dot (".mp3").
func ScanDir(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	wanted := make(map[string]bool, len(exts))
	for _, ext := range exts {
		wanted[strings.ToLower(ext)] = true
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if len(wanted) > 0 && !wanted[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(paths)
	return paths, nil
}
