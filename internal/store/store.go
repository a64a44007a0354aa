package store

import (
	"context"
	"errors"

	"github.com/draftforge/draftvault/internal/model"
)

var (
	// ErrNilDocument is returned by SaveSnapshot when no document is supplied.
	ErrNilDocument = errors.New("store: nil document")

	// ErrSnapshotNotFound is returned where an operation requires an existing
	// snapshot (diffing, branch creation). Plain reads of a missing snapshot
	// return (nil, nil) instead.
	ErrSnapshotNotFound = errors.New("store: snapshot not found")

	// ErrBranchNotFound is returned where an operation requires an existing
	// branch.
	ErrBranchNotFound = errors.New("store: branch not found")
)

// SaveOptions carries the optional metadata for a snapshot save.
type SaveOptions struct {
	// Message overrides the canonical default message when non-empty.
	Message string

	// Type records provenance; defaults to manual.
	Type model.SnapshotType

	// Author is the display name of whoever triggered the save.
	Author string

	// BranchID is the branch the snapshot is committed on; empty = mainline.
	BranchID string
}

// Store is the persistence contract for snapshots and branch pointers.
// Implementations must be safe for concurrent use; ActivateBranch in
// particular must switch the active branch atomically.
type Store interface {
	// SaveSnapshot appends an immutable snapshot of doc to the document's
	// history and returns it. Prior entries are never mutated.
	SaveSnapshot(ctx context.Context, doc *model.Document, opts SaveOptions) (*model.Snapshot, error)

	// GetHistory returns a document's snapshots newest-first by timestamp,
	// ties broken last-written-first.
	GetHistory(ctx context.Context, documentID string) ([]*model.Snapshot, error)

	// GetSnapshot returns the snapshot or (nil, nil) when the id is absent.
	GetSnapshot(ctx context.Context, versionID string) (*model.Snapshot, error)

	// RestoreSnapshot reconstructs a document from a snapshot's stored fields.
	// Returns (nil, nil) when the id is absent so callers can distinguish
	// "nothing to restore" from a hard failure.
	RestoreSnapshot(ctx context.Context, versionID string) (*model.Document, error)

	// DeleteSnapshot removes a snapshot. Idempotent: true on actual removal,
	// false when the id did not exist.
	DeleteSnapshot(ctx context.Context, versionID string) (bool, error)

	// InsertBranch persists a new branch pointer.
	InsertBranch(ctx context.Context, b *model.Branch) error

	// GetBranch returns the branch or (nil, nil) when the id is absent.
	GetBranch(ctx context.Context, branchID string) (*model.Branch, error)

	// GetBranches returns a document's branches in creation order.
	GetBranches(ctx context.Context, documentID string) ([]*model.Branch, error)

	// ActivateBranch atomically deactivates the document's currently active
	// branch and activates the target. Returns false when branchID is absent.
	ActivateBranch(ctx context.Context, branchID string) (bool, error)

	// DeleteBranch removes a branch pointer. Idempotent on missing id.
	DeleteBranch(ctx context.Context, branchID string) (bool, error)

	// BranchHead returns the newest snapshot committed on the branch, or the
	// branch's parent snapshot when the branch has none of its own.
	BranchHead(ctx context.Context, b *model.Branch) (*model.Snapshot, error)

	// DependentBranchIDs returns ids of branches whose parent snapshot was
	// committed on the given branch (i.e. branches that would be orphaned by
	// its deletion).
	DependentBranchIDs(ctx context.Context, branchID string) ([]string, error)

	// Close releases resources held by the store.
	Close() error
}
