package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Workspace manages hash-keyed temporary working directories under one base
// directory. Each ingestion job owns the directory for its content hash and
// removes it on exit, success or failure.
type Workspace struct {
	baseDir string
}

// NewWorkspace creates a Workspace rooted at baseDir, creating it if needed.
func NewWorkspace(baseDir string) (*Workspace, error) {
	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0750); err != nil {
		return nil, fmt.Errorf("creating base directory: %w", err)
	}
	return &Workspace{baseDir: absPath}, nil
}

// BaseDir returns the absolute path to the workspace base directory.
func (w *Workspace) BaseDir() string {
	return w.baseDir
}

// Dir returns the working directory path for a content hash.
func (w *Workspace) Dir(contentHash string) string {
	return filepath.Join(w.baseDir, contentHash)
}

// Create creates the working directory for a content hash and returns its path.
func (w *Workspace) Create(contentHash string) (string, error) {
	dir := w.Dir(contentHash)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("creating work directory: %w", err)
	}
	return dir, nil
}

// Remove recursively removes the working directory for a content hash.
// Removing a directory that does not exist is not an error.
func (w *Workspace) Remove(contentHash string) error {
	if err := os.RemoveAll(w.Dir(contentHash)); err != nil {
		return fmt.Errorf("removing work directory: %w", err)
	}
	return nil
}

// CleanupOrphans removes working directories older than maxAge. These are
// leftovers from a process crash mid-ingestion; run at startup before
// accepting work. Returns the number of directories removed.
func (w *Workspace) CleanupOrphans(logger *slog.Logger, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(w.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading workspace directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	var removed int

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		dir := filepath.Join(w.baseDir, entry.Name())
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("failed to remove orphaned work directory",
				slog.String("path", dir),
				slog.String("error", err.Error()),
			)
			continue
		}
		removed++
		logger.Info("removed orphaned work directory", slog.String("path", dir))
	}

	return removed, nil
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
