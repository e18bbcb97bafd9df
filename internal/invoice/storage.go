package invoice

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage holds uploaded files while they are processed
type Storage interface {
	// Save writes a file and returns its name within the storage
	Save(filename string, data []byte) (string, error)

	// Path resolves a saved name to a filesystem path
	Path(name string) string

	// Delete removes a file
	Delete(name string) error
}

// LocalStorage implements the Storage interface using local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Save saves a file to local storage
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	path := filepath.Join(l.basePath, filename)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return filename, nil
}

// Path returns the full path of a saved file
func (l *LocalStorage) Path(name string) string {
	return filepath.Join(l.basePath, name)
}

// Delete removes a file from local storage
func (l *LocalStorage) Delete(name string) error {
	if err := os.Remove(l.Path(name)); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
