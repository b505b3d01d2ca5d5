package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage persists uploaded evidence images and generated reports
// on disk under a base directory. Stored references are relative paths
// like "/evidence/xyz.webp" or "/reports/periodo-EJ24-01-....pdf".
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Save writes the given bytes under the base dir and returns the relative path.
func (s *LocalStorage) Save(relPath string, data []byte) (string, error) {
	path := s.resolve(relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare upload directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return relPath, nil
}

// SaveStream copies from reader into the target file path.
func (s *LocalStorage) SaveStream(relPath string, r io.Reader) (string, error) {
	path := s.resolve(relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare upload directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		return "", fmt.Errorf("write upload stream: %w", err)
	}
	return relPath, nil
}

// Read returns the full contents of a stored file.
func (s *LocalStorage) Read(relPath string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(relPath))
	if err != nil {
		return nil, fmt.Errorf("read upload file: %w", err)
	}
	return data, nil
}

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(relPath string) (*os.File, error) {
	file, err := os.Open(s.resolve(relPath))
	if err != nil {
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(relPath string) error {
	if err := os.Remove(s.resolve(relPath)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}

// Exists reports whether a stored file is present.
func (s *LocalStorage) Exists(relPath string) bool {
	_, err := os.Stat(s.resolve(relPath))
	return err == nil
}

// Path exposes the underlying absolute path (useful for debugging).
func (s *LocalStorage) Path(relPath string) string {
	return s.resolve(relPath)
}

// resolve maps a stored reference to a path under the base directory.
// References carry a leading slash, so cleaning against root first keeps
// parent traversal from escaping the base.
func (s *LocalStorage) resolve(relPath string) string {
	cleaned := filepath.Clean("/" + strings.TrimPrefix(relPath, "/"))
	return filepath.Join(s.baseDir, cleaned)
}
