package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/draftforge/draftvault/internal/logging"
	"github.com/draftforge/draftvault/internal/model"
)

// MemoryStore implements Store with mutex-guarded maps. It is intended for
// embedding the engine without a storage directory, and for tests.
type MemoryStore struct {
	mu sync.RWMutex

	logger logging.Logger

	// snapshots by id; perDoc keeps insertion order per document so timestamp
	// ties resolve last-written-first.
	snapshots map[string]*model.Snapshot
	perDoc    map[string][]string

	branches map[string]*model.Branch
	// branchOrder keeps creation order per document.
	branchOrder map[string][]string
}

// Ensure MemoryStore implements Store at compile-time.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore(logger logging.Logger) *MemoryStore {
	if logger == nil {
		logger = logging.Nop()
	}
	return &MemoryStore{
		logger:      logger,
		snapshots:   make(map[string]*model.Snapshot),
		perDoc:      make(map[string][]string),
		branches:    make(map[string]*model.Branch),
		branchOrder: make(map[string][]string),
	}
}

func (m *MemoryStore) SaveSnapshot(ctx context.Context, doc *model.Document, opts SaveOptions) (*model.Snapshot, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}

	typ := opts.Type
	if typ == "" {
		typ = model.SnapshotManual
	}
	message := opts.Message
	if message == "" {
		message = model.DefaultMessage(typ, doc.Title)
	}

	snap := &model.Snapshot{
		ID:          uuid.New().String(),
		DocumentID:  doc.ID,
		BranchID:    opts.BranchID,
		Title:       doc.Title,
		Summary:     doc.Summary,
		Status:      doc.Status,
		Content:     doc.Content,
		Timestamp:   time.Now(),
		AuthorName:  opts.Author,
		Message:     message,
		Type:        typ,
		ContentHash: model.HashContent(doc.Content),
		WordCount:   model.WordCount(doc.Content),
		CharCount:   model.CharCount(doc.Content),
	}

	// Store a copy so later mutation of the returned snapshot cannot reach
	// recorded history.
	m.mu.Lock()
	m.snapshots[snap.ID] = copySnapshot(snap)
	m.perDoc[doc.ID] = append(m.perDoc[doc.ID], snap.ID)
	m.mu.Unlock()

	return snap, nil
}

func (m *MemoryStore) GetHistory(ctx context.Context, documentID string) ([]*model.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.perDoc[documentID]
	history := make([]*model.Snapshot, 0, len(ids))
	// Walk insertion order in reverse so equal timestamps come out
	// last-written-first, then stable-sort by timestamp.
	for i := len(ids) - 1; i >= 0; i-- {
		if snap, ok := m.snapshots[ids[i]]; ok {
			history = append(history, copySnapshot(snap))
		}
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Timestamp.After(history[j].Timestamp)
	})
	return history, nil
}

func (m *MemoryStore) GetSnapshot(ctx context.Context, versionID string) (*model.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snapshots[versionID]
	if !ok {
		return nil, nil
	}
	return copySnapshot(snap), nil
}

func (m *MemoryStore) RestoreSnapshot(ctx context.Context, versionID string) (*model.Document, error) {
	snap, err := m.GetSnapshot(ctx, versionID)
	if err != nil || snap == nil {
		return nil, err
	}
	return &model.Document{
		ID:      snap.DocumentID,
		Title:   snap.Title,
		Summary: snap.Summary,
		Content: snap.Content,
		Status:  snap.Status,
	}, nil
}

func (m *MemoryStore) DeleteSnapshot(ctx context.Context, versionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, ok := m.snapshots[versionID]
	if !ok {
		return false, nil
	}
	delete(m.snapshots, versionID)

	ids := m.perDoc[snap.DocumentID]
	for i, id := range ids {
		if id == versionID {
			m.perDoc[snap.DocumentID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *MemoryStore) InsertBranch(ctx context.Context, b *model.Branch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *b
	m.branches[b.ID] = &cp
	m.branchOrder[b.DocumentID] = append(m.branchOrder[b.DocumentID], b.ID)
	return nil
}

func (m *MemoryStore) GetBranch(ctx context.Context, branchID string) (*model.Branch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.branches[branchID]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *MemoryStore) GetBranches(ctx context.Context, documentID string) ([]*model.Branch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var branches []*model.Branch
	for _, id := range m.branchOrder[documentID] {
		if b, ok := m.branches[id]; ok {
			cp := *b
			branches = append(branches, &cp)
		}
	}
	return branches, nil
}

func (m *MemoryStore) ActivateBranch(ctx context.Context, branchID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	target, ok := m.branches[branchID]
	if !ok {
		return false, nil
	}
	// Deactivate-then-activate inside one critical section keeps the
	// one-active-branch invariant under concurrent switches.
	for _, b := range m.branches {
		if b.DocumentID == target.DocumentID {
			b.IsActive = false
		}
	}
	target.IsActive = true
	return true, nil
}

func (m *MemoryStore) DeleteBranch(ctx context.Context, branchID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.branches[branchID]
	if !ok {
		return false, nil
	}
	delete(m.branches, branchID)

	order := m.branchOrder[b.DocumentID]
	for i, id := range order {
		if id == branchID {
			m.branchOrder[b.DocumentID] = append(order[:i], order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *MemoryStore) BranchHead(ctx context.Context, b *model.Branch) (*model.Snapshot, error) {
	m.mu.RLock()

	var head *model.Snapshot
	ids := m.perDoc[b.DocumentID]
	for i := len(ids) - 1; i >= 0; i-- {
		snap, ok := m.snapshots[ids[i]]
		if !ok || snap.BranchID != b.ID {
			continue
		}
		if head == nil || snap.Timestamp.After(head.Timestamp) {
			head = snap
		}
	}
	m.mu.RUnlock()

	if head != nil {
		return copySnapshot(head), nil
	}

	parent, err := m.GetSnapshot(ctx, b.ParentVersionID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, ErrSnapshotNotFound
	}
	return parent, nil
}

func (m *MemoryStore) DependentBranchIDs(ctx context.Context, branchID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for _, b := range m.branches {
		if b.ID == branchID {
			continue
		}
		if parent, ok := m.snapshots[b.ParentVersionID]; ok && parent.BranchID == branchID {
			ids = append(ids, b.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func copySnapshot(s *model.Snapshot) *model.Snapshot {
	cp := *s
	return &cp
}
