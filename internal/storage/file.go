// Package storage writes and reads the persisted configuration snapshot.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultDirMode  os.FileMode = 0755
	DefaultFileMode os.FileMode = 0644
)

// Writer replaces the contents of a named file.
type Writer interface {
	WriteFile(path string, data []byte) error
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(path string, data []byte) error

func (f WriterFunc) WriteFile(path string, data []byte) error {
	return f(path, data)
}

// FileStore writes complete snapshots with temp file + rename, so a reader
// sees either the old or the new file and never a partial one. It takes no
// cross-process lock.
type FileStore struct {
	perm os.FileMode
}

// NewFileStore creates a file store that writes files with DefaultFileMode.
func NewFileStore() *FileStore {
	return &FileStore{perm: DefaultFileMode}
}

// WriteFile writes data to path atomically.
func (fs *FileStore) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DefaultDirMode); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Temp file in the same directory keeps the rename atomic
	tempFile, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		tempFile = nil
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	tempFile = nil

	if err := os.Chmod(tempPath, fs.perm); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// ReadFile returns the file contents. A missing file reports exists=false
// with a nil error.
func (fs *FileStore) ReadFile(path string) (data []byte, exists bool, err error) {
	data, err = os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, true, nil
}
