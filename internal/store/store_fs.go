package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// FSStore is content-addressed blob storage on the filesystem for snapshot
// text. Blobs are stored under blobsDir using the SHA-256 hash as filename;
// the first two characters of the hash form a subdirectory to avoid too many
// files in one directory. Identical content is stored once, so the blob id
// doubles as the snapshot's content hash.
type FSStore struct {
	blobsDir string
}

// NewFSStore creates an FSStore rooted at the given blobs directory.
func NewFSStore(blobsDir string) (*FSStore, error) {
	if err := os.MkdirAll(blobsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blobs directory: %w", err)
	}
	return &FSStore{blobsDir: blobsDir}, nil
}

// Put stores content and returns its content-addressed ID (SHA-256 hex).
// If the content already exists it returns the existing ID without rewriting.
func (fs *FSStore) Put(data []byte) (string, error) {
	hash := sha256.Sum256(data)
	hashStr := hex.EncodeToString(hash[:])

	blobPath := fs.blobPath(hashStr)
	if _, err := os.Stat(blobPath); err == nil {
		return hashStr, nil
	}

	subdir := filepath.Join(fs.blobsDir, hashStr[:2])
	if err := os.MkdirAll(subdir, 0755); err != nil {
		return "", fmt.Errorf("failed to create blob subdirectory: %w", err)
	}

	if err := atomicWriteFile(blobPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	return hashStr, nil
}

// Get retrieves content by its content-addressed ID.
func (fs *FSStore) Get(blobID string) ([]byte, error) {
	blobPath := fs.blobPath(blobID)
	data, err := os.ReadFile(blobPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob not found: %s", blobID)
		}
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}

	// Verify integrity against the id.
	hash := sha256.Sum256(data)
	if hashStr := hex.EncodeToString(hash[:]); hashStr != blobID {
		return nil, fmt.Errorf("blob integrity check failed: expected %s, got %s", blobID, hashStr)
	}

	return data, nil
}

// Exists checks if a blob with the given ID exists.
func (fs *FSStore) Exists(blobID string) bool {
	_, err := os.Stat(fs.blobPath(blobID))
	return err == nil
}

// Delete removes a blob by its ID. Only called once no snapshot references
// the content any more.
func (fs *FSStore) Delete(blobID string) error {
	if err := os.Remove(fs.blobPath(blobID)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// blobPath returns the filesystem path for a given blob ID.
// Format: blobsDir/{first2chars}/{fullhash}
func (fs *FSStore) blobPath(blobID string) string {
	// SHA-256 hex is always 64 characters; anything shorter gets routed to a
	// subdirectory that can't match a real blob, so lookups fail safely.
	if len(blobID) < 2 {
		return filepath.Join(fs.blobsDir, "__invalid__", blobID)
	}
	return filepath.Join(fs.blobsDir, blobID[:2], blobID)
}

// atomicWriteFile writes data to path via a temp file + rename so readers
// never observe a partial blob.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-blob-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
