package duckdb

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileFingerprint identifies the on-disk state of a verified file. A stored
// outcome is only reused while both of its files still match.
type FileFingerprint struct {
	Path    string // absolute
	Size    int64
	ModTime time.Time
}

// StatFile fingerprints the file at path, resolving it to an absolute path
// so that runs from different working directories agree.
func StatFile(path string) (FileFingerprint, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileFingerprint{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return FileFingerprint{}, fmt.Errorf("fingerprint %s: %w", path, err)
	}
	return FileFingerprint{Path: abs, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Same reports whether f and o describe the same file by path, size and
// modification time.
func (f FileFingerprint) Same(o FileFingerprint) bool {
	return f.Path == o.Path && f.Size == o.Size && f.ModTime.Equal(o.ModTime)
}
