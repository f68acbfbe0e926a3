// Package file provides a local-filesystem archive backend with the same
// shape as the MinIO one: completed export batches are copied under a base
// directory, one subdirectory per batch.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Storage archives exported files under a base path on the local filesystem.
type Storage struct {
	basePath string
}

// NewStorage creates a Storage rooted at basePath.
func NewStorage(basePath string) *Storage {
	return &Storage{basePath: basePath}
}

// Save copies one exported file under <base>/<batch>/<filename> and returns
// the destination path.
func (s *Storage) Save(_ context.Context, batch, filename string, src io.Reader) (string, error) {
	dir := filepath.Join(s.basePath, batch)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	dstPath := filepath.Join(dir, filename)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", dstPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file %s: %w", dstPath, err)
	}

	return dstPath, nil
}

// Load opens an archived file by its path relative to the base directory.
func (s *Storage) Load(_ context.Context, key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.basePath, key))
}

// Delete removes an archived file by its relative path.
func (s *Storage) Delete(_ context.Context, key string) error {
	return os.Remove(filepath.Join(s.basePath, key))
}
