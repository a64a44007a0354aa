package store_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/draftforge/draftvault/internal/store"
)

func TestFSStore_PutGetDedup(t *testing.T) {
	fs, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	data := []byte("chapter content\nwith two lines")
	id1, err := fs.Put(data)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if len(id1) != 64 {
		t.Fatalf("blob id should be sha256 hex (64 chars), got %d", len(id1))
	}

	id2, err := fs.Put(data)
	if err != nil {
		t.Fatalf("second Put: %v", err)
	}
	if id1 != id2 {
		t.Errorf("identical content addressed differently: %s vs %s", id1, id2)
	}

	got, err := fs.Get(id1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("content mismatch: %q", got)
	}

	if !fs.Exists(id1) {
		t.Error("Exists returned false for stored blob")
	}
	if fs.Exists("0000000000000000000000000000000000000000000000000000000000000000") {
		t.Error("Exists returned true for absent blob")
	}
}

func TestFSStore_GetMissing(t *testing.T) {
	fs, _ := store.NewFSStore(t.TempDir())
	if _, err := fs.Get("deadbeef"); err == nil {
		t.Fatal("expected error for missing blob")
	}
}

func TestFSStore_IntegrityCheck(t *testing.T) {
	dir := t.TempDir()
	fs, _ := store.NewFSStore(dir)

	id, err := fs.Put([]byte("pristine"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Corrupt the blob on disk; Get must refuse to return it.
	path := filepath.Join(dir, id[:2], id)
	if err := os.WriteFile(path, []byte("corrupted"), 0644); err != nil {
		t.Fatalf("corrupting blob: %v", err)
	}
	if _, err := fs.Get(id); err == nil {
		t.Fatal("expected integrity error for corrupted blob")
	}
}

func TestFSStore_DeleteIdempotent(t *testing.T) {
	fs, _ := store.NewFSStore(t.TempDir())

	id, _ := fs.Put([]byte("ephemeral"))
	if err := fs.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if fs.Exists(id) {
		t.Error("blob still exists after delete")
	}
	if err := fs.Delete(id); err != nil {
		t.Fatalf("second Delete should be a no-op, got %v", err)
	}
}
