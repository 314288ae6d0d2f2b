// Package artifact persists rendered overlay images. Writes are atomic:
// the previous artifact at a path survives any failed attempt to replace
// it.
package artifact

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// WriteError reports that an artifact could not be persisted.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing artifact %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// FileWriter writes an artifact to a fixed path, creating parent
// directories as needed.
type FileWriter struct {
	path   string
	perm   os.FileMode
	logger *slog.Logger
}

// FileWriterOption configures a FileWriter.
type FileWriterOption func(*FileWriter)

// WithPermissions overrides the default file permissions (0644).
func WithPermissions(perm os.FileMode) FileWriterOption {
	return func(fw *FileWriter) {
		fw.perm = perm
	}
}

// WithLogger sets a logger for the FileWriter.
func WithLogger(logger *slog.Logger) FileWriterOption {
	return func(fw *FileWriter) {
		fw.logger = logger
	}
}

// NewFileWriter creates a writer that writes to the specified file path.
func NewFileWriter(path string, opts ...FileWriterOption) *FileWriter {
	fw := &FileWriter{
		path:   path,
		perm:   0o644,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(fw)
	}

	return fw
}

// Write creates parent directories and replaces the artifact with data.
// The bytes land in a temporary file first and are renamed into place,
// so a failure mid-write never leaves a truncated artifact behind.
func (fw *FileWriter) Write(data []byte) error {
	dir := filepath.Dir(fw.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return &WriteError{Path: fw.path, Err: fmt.Errorf("creating directory %s: %w", dir, err)}
	}

	if _, err := os.Stat(fw.path); err == nil {
		fw.logger.Debug("overwriting existing artifact", slog.String("path", fw.path))
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(fw.path)+".tmp-*")
	if err != nil {
		return &WriteError{Path: fw.path, Err: err}
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return &WriteError{Path: fw.path, Err: err}
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return &WriteError{Path: fw.path, Err: err}
	}

	if err := os.Chmod(tmpName, fw.perm); err != nil {
		_ = os.Remove(tmpName)

		return &WriteError{Path: fw.path, Err: err}
	}

	if err := os.Rename(tmpName, fw.path); err != nil {
		_ = os.Remove(tmpName)

		return &WriteError{Path: fw.path, Err: err}
	}

	return nil
}

// Path returns the artifact file path.
func (fw *FileWriter) Path() string {
	return fw.path
}
