package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalBackend persists blobs on disk under a base directory.
type LocalBackend struct {
	baseDir string
}

// NewLocalBackend ensures the base directory exists and returns a handle.
func NewLocalBackend(baseDir string) (*LocalBackend, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &LocalBackend{baseDir: abs}, nil
}

// Put copies r into the file addressed by key.
func (b *LocalBackend) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	path, err := b.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare upload directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(file, r); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write upload file: %w", err)
	}
	return file.Close()
}

// Get returns a read-only handle for the stored file.
func (b *LocalBackend) Get(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := b.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file. Missing files are not an error.
func (b *LocalBackend) Delete(_ context.Context, key string) error {
	path, err := b.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}

func (b *LocalBackend) resolve(key string) (string, error) {
	path := filepath.Join(b.baseDir, filepath.FromSlash(key))
	if path != b.baseDir && !strings.HasPrefix(path, b.baseDir+string(os.PathSeparator)) {
		return "", ErrInvalidKey
	}
	return path, nil
}
