package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// LocalStore keeps blobs as files directly under root. The root directory is
// created on first write.
type LocalStore struct {
	root    string
	newName func() string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root, newName: uuid.NewString}
}

func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) ensureRoot() error {
	// MkdirAll treats an existing directory as success, so racing creators are fine.
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create blob root: %w", err)
	}
	return nil
}

func (s *LocalStore) Create(_ context.Context, data []byte) (string, error) {
	if err := s.ensureRoot(); err != nil {
		return "", err
	}
	path := filepath.Join(s.root, s.newName())
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close blob: %w", err)
	}
	return path, nil
}

func (s *LocalStore) Write(_ context.Context, location string, data []byte) error {
	if err := s.ensureRoot(); err != nil {
		return err
	}
	if err := os.WriteFile(location, data, 0o644); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	return nil
}

func (s *LocalStore) Read(_ context.Context, location string) ([]byte, error) {
	b, err := os.ReadFile(location)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return b, nil
}

var _ BlobStore = (*LocalStore)(nil)
