// Package branch manages named pointers into snapshot history: creation,
// activation, merging and deletion, with the one-active-branch-per-document
// invariant enforced by the store's atomic switch.
package branch

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"

	"github.com/draftforge/draftvault/internal/logging"
	"github.com/draftforge/draftvault/internal/model"
	"github.com/draftforge/draftvault/internal/store"
)

var (
	// ErrDependentBranches is returned by Delete when other branches are
	// anchored to snapshots of the branch being deleted.
	ErrDependentBranches = errors.New("branch: other branches depend on this branch as an ancestor")

	// ErrSameBranch is returned when source and target of a merge are equal.
	ErrSameBranch = errors.New("branch: cannot merge a branch into itself")
)

// ConflictError reports overlapping edits found during a merge. Ranges are
// 1-based inclusive line ranges relative to the divergence snapshot, enough
// detail for manual resolution.
type ConflictError struct {
	Ranges []model.LineRange
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("merge conflict in %d line range(s)", len(e.Ranges))
}

// palette is the fixed set of branch display colors.
var palette = [...]string{
	"#e6194b", "#3cb44b", "#4363d8", "#f58231",
	"#911eb4", "#46949c", "#808000", "#9a6324",
}

// colorFor derives a palette color deterministically from the branch id, so
// a branch keeps its color across restarts. Collisions across branches are
// harmless (cosmetic only).
func colorFor(branchID string) string {
	h := fnv.New32a()
	h.Write([]byte(branchID))
	return palette[h.Sum32()%uint32(len(palette))]
}

// Manager implements branch operations over a Store.
type Manager struct {
	store  store.Store
	logger logging.Logger
}

// NewManager creates a branch manager over the given store.
func NewManager(st store.Store, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Manager{store: st, logger: logger}
}

// Create makes a new branch anchored at parentVersionID. The parent snapshot
// must exist in the document's history.
func (m *Manager) Create(ctx context.Context, documentID, name, description, parentVersionID string) (*model.Branch, error) {
	parent, err := m.store.GetSnapshot(ctx, parentVersionID)
	if err != nil {
		return nil, err
	}
	if parent == nil || parent.DocumentID != documentID {
		return nil, fmt.Errorf("%w: parent version %s", store.ErrSnapshotNotFound, parentVersionID)
	}

	b := &model.Branch{
		ID:              uuid.New().String(),
		DocumentID:      documentID,
		Name:            name,
		Description:     description,
		ParentVersionID: parentVersionID,
		CreatedAt:       time.Now(),
	}
	b.Color = colorFor(b.ID)

	if err := m.store.InsertBranch(ctx, b); err != nil {
		return nil, err
	}

	m.logger.Info("branch created",
		logging.Field{Key: "branch_id", Value: b.ID},
		logging.Field{Key: "document_id", Value: documentID},
		logging.Field{Key: "name", Value: name})

	return b, nil
}

// List returns a document's branches in creation order.
func (m *Manager) List(ctx context.Context, documentID string) ([]*model.Branch, error) {
	return m.store.GetBranches(ctx, documentID)
}

// Switch makes the target branch the document's active branch. The store
// performs the deactivate/activate pair atomically, so concurrent switches
// never leave zero or two branches active. Returns false when branchID does
// not exist.
func (m *Manager) Switch(ctx context.Context, branchID string) (bool, error) {
	ok, err := m.store.ActivateBranch(ctx, branchID)
	if err != nil {
		return false, err
	}
	if ok {
		m.logger.Info("branch switched", logging.Field{Key: "branch_id", Value: branchID})
	}
	return ok, nil
}

// Delete removes a branch pointer. It refuses when other branches are
// anchored to snapshots committed on this branch, to avoid orphaned lineage.
// Idempotent on a missing id.
func (m *Manager) Delete(ctx context.Context, branchID string) (bool, error) {
	b, err := m.store.GetBranch(ctx, branchID)
	if err != nil {
		return false, err
	}
	if b == nil {
		return false, nil
	}

	dependents, err := m.store.DependentBranchIDs(ctx, branchID)
	if err != nil {
		return false, err
	}
	if len(dependents) > 0 {
		return false, fmt.Errorf("%w: %v", ErrDependentBranches, dependents)
	}

	return m.store.DeleteBranch(ctx, branchID)
}
