package storage

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	stored, err := store.Store(strings.NewReader("hello world"), "Report.PDF")
	if err != nil {
		t.Fatalf("Failed to store file: %v", err)
	}
	if stored.Size != 11 {
		t.Errorf("Expected size 11, got %d", stored.Size)
	}
	if !strings.HasSuffix(stored.Name, ".pdf") {
		t.Errorf("Extension should be kept and lowercased, got %s", stored.Name)
	}
	if !store.Exists(stored.Name) {
		t.Error("Stored file should exist")
	}

	r, err := store.Open(stored.Name)
	if err != nil {
		t.Fatalf("Failed to open stored file: %v", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Failed to read stored file: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("Content mismatch: %q", string(data))
	}
}

func TestDiskStoreUniqueNames(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	a, err := store.Store(strings.NewReader("one"), "same.txt")
	if err != nil {
		t.Fatalf("Failed to store first file: %v", err)
	}
	b, err := store.Store(strings.NewReader("two"), "same.txt")
	if err != nil {
		t.Fatalf("Failed to store second file: %v", err)
	}
	if a.Name == b.Name {
		t.Error("Two uploads with the same original name must get distinct storage names")
	}
}

func TestDiskStoreDelete(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	stored, err := store.Store(strings.NewReader("x"), "a.txt")
	if err != nil {
		t.Fatalf("Failed to store file: %v", err)
	}

	if err := store.Delete(stored.Name); err != nil {
		t.Fatalf("Failed to delete file: %v", err)
	}
	if store.Exists(stored.Name) {
		t.Error("Deleted file should not exist")
	}

	if err := store.Delete(stored.Name); !errors.Is(err, ErrNotExist) {
		t.Errorf("Second delete should return ErrNotExist, got %v", err)
	}
	if _, err := store.Open(stored.Name); !errors.Is(err, ErrNotExist) {
		t.Errorf("Open of deleted file should return ErrNotExist, got %v", err)
	}
}

func TestDiskStoreNoExtension(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	stored, err := store.Store(strings.NewReader("x"), "README")
	if err != nil {
		t.Fatalf("Failed to store file: %v", err)
	}
	if strings.Contains(stored.Name, ".") {
		t.Errorf("A file without extension should get none, got %s", stored.Name)
	}
}
