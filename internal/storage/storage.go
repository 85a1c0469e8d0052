// Package storage copies processed source images into the application data
// folder for durable retention.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store persists images under <dataDir>/images.
type Store struct {
	dataDir string
}

// NewStore creates a store rooted at dataDir. The images directory is
// created on first save.
func NewStore(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

// ImagesDir returns the durable image directory.
func (s *Store) ImagesDir() string {
	return filepath.Join(s.dataDir, "images")
}

// SaveImage copies the file at path into the images directory under its base
// name, replacing any previous copy, and returns the destination path.
func (s *Store) SaveImage(path string) (string, error) {
	if err := os.MkdirAll(s.ImagesDir(), 0o750); err != nil {
		return "", fmt.Errorf("failed to create images directory: %w", err)
	}

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open source image %s: %w", path, err)
	}
	defer func() { _ = src.Close() }()

	dstPath := filepath.Join(s.ImagesDir(), filepath.Base(path))
	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create stored image %s: %w", dstPath, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to copy image to storage: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize stored image: %w", err)
	}
	return dstPath, nil
}
