package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// blobPrefix is the subdirectory all document files live under.
const blobPrefix = "documents"

// DiskStore keeps blobs on the local filesystem under
// dataDir/documents/. Writes go through a temp file and an atomic
// rename so a crashed upload never leaves a half-written blob behind.
type DiskStore struct {
	dataDir string
}

// NewDiskStore creates the backing directory if needed.
func NewDiskStore(dataDir string) (*DiskStore, error) {
	dir := filepath.Join(dataDir, blobPrefix)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	return &DiskStore{dataDir: dataDir}, nil
}

// Store writes the upload under a uuid-based name keeping the original
// extension.
func (s *DiskStore) Store(r io.Reader, originalName string) (*StoredFile, error) {
	name := generateStorageName(originalName)
	fullPath := s.fullPath(name)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to write file data: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to sync file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to rename temp file: %w", err)
	}

	return &StoredFile{Name: name, Size: size}, nil
}

// Open returns a reader for the named blob.
func (s *DiskStore) Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(s.fullPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return f, nil
}

// Delete removes the named blob.
func (s *DiskStore) Delete(name string) error {
	err := os.Remove(s.fullPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotExist
		}
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

// Exists reports whether the named blob is present on disk.
func (s *DiskStore) Exists(name string) bool {
	_, err := os.Stat(s.fullPath(name))
	return err == nil
}

func (s *DiskStore) fullPath(name string) string {
	// Names are generated internally, but never trust them as paths
	return filepath.Join(s.dataDir, blobPrefix, filepath.Base(name))
}

// generateStorageName builds a unique name preserving the original
// extension, e.g. "9f1c9b1e-....pdf".
func generateStorageName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return uuid.New().String() + ext
}
