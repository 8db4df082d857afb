// Package storage abstracts where uploaded document files live so the
// concrete backend (local disk, object store) is swappable without
// touching service logic.
package storage

import (
	"errors"
	"io"
)

// ErrNotExist is returned when a stored file cannot be found.
var ErrNotExist = errors.New("stored file does not exist")

// StoredFile describes the outcome of storing an upload.
type StoredFile struct {
	// Name is the generated storage name, unique within the store
	Name string
	// Size is the number of bytes written
	Size int64
}

// BlobStore is the minimal contract the document services need.
type BlobStore interface {
	// Store writes the reader's contents under a generated name that
	// keeps the original file's extension.
	Store(r io.Reader, originalName string) (*StoredFile, error)
	// Open returns a reader for a stored file. The caller must close it.
	Open(name string) (io.ReadCloser, error)
	// Delete removes a stored file. Returns ErrNotExist when the file
	// is already gone.
	Delete(name string) error
	// Exists reports whether the named file is present.
	Exists(name string) bool
}
