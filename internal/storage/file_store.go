package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// fileStore implements ObjectStore on the local file system, with blobs
// served from a static base URL. It backs development and test
// environments.
type fileStore struct {
	root    string
	baseURL string
	logger  zerolog.Logger
}

// NewFileStore creates a file-system object store rooted at root.
func NewFileStore(root, baseURL string, logger zerolog.Logger) (ObjectStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root %s: %w", root, err)
	}

	logger = logger.With().Str("component", "file-object-store").Logger()
	logger.Info().Str("root", root).Msg("file object store initialised")

	return &fileStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}, nil
}

// Put writes data under key below the store root.
func (s *fileStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}

	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to write object")
		return "", fmt.Errorf("failed to write object %s: %w", key, err)
	}

	s.logger.Debug().
		Str("key", key).
		Int("bytes", len(data)).
		Msg("object stored on disk")

	return s.baseURL + "/" + key, nil
}

// Delete removes the file under key. A missing file is not an error.
func (s *fileStore) Delete(_ context.Context, key string) error {
	if strings.Contains(key, "..") {
		return fmt.Errorf("invalid object key %q", key)
	}

	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}
