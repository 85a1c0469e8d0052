// Package progress persists per-folder batch progress as YAML so interrupted
// batches resume where they stopped.
package progress

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/deepsight/internal/pipeline"
)

// Store reads and writes one progress file per image folder. The file lives
// inside the folder it tracks and maps absolute image path to the full
// processing record.
type Store struct{}

// NewStore creates a progress store.
func NewStore() *Store {
	return &Store{}
}

// FilePath returns the progress file path for a folder:
// <folder>/<folder-base>_progress.yaml.
func (s *Store) FilePath(folder string) string {
	base := filepath.Base(filepath.Clean(folder))
	return filepath.Join(folder, base+"_progress.yaml")
}

// Load reads previously persisted progress for a folder. It fails soft: a
// missing, unreadable, or corrupt file yields an empty map so the batch
// simply starts from scratch. The returned map is never nil.
func (s *Store) Load(folder string) map[string]pipeline.ImageResult {
	results := make(map[string]pipeline.ImageResult)

	path := s.FilePath(folder)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("progress file unreadable, starting fresh", "path", path, "error", err)
		}
		return results
	}

	if err := yaml.Unmarshal(data, &results); err != nil {
		slog.Warn("progress file corrupt, starting fresh", "path", path, "error", err)
		return make(map[string]pipeline.ImageResult)
	}
	return results
}

// Save writes the full progress mapping for a folder. The write goes through
// a temporary file in the same directory followed by a rename, so a crash
// mid-write never leaves a truncated progress file behind.
func (s *Store) Save(folder string, results map[string]pipeline.ImageResult) error {
	path := s.FilePath(folder)

	data, err := yaml.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".progress-*.yaml.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp progress file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write progress file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close progress file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set progress file mode: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace progress file: %w", err)
	}
	return nil
}
