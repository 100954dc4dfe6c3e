package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend stores one file per document in a directory
type FileBackend struct {
	dir string
	ext string
}

// NewFileBackend creates a FileBackend rooted at dir, creating it if needed
func NewFileBackend(dir, ext string) (*FileBackend, error) {
	if dir == "" {
		return nil, fmt.Errorf("store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileBackend{dir: dir, ext: ext}, nil
}

// Path returns the file that holds the named document
func (b *FileBackend) Path(name string) string {
	return filepath.Join(b.dir, name+"."+b.ext)
}

func (b *FileBackend) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(b.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", b.Path(name), err)
	}
	return data, nil
}

// Set replaces the document atomically, so readers see either the old or
// the new version.
func (b *FileBackend) Set(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := writeFile(b.Path(name), data); err != nil {
		return fmt.Errorf("failed to write %s: %w", b.Path(name), err)
	}
	return nil
}

func (b *FileBackend) Close() error {
	return nil
}
