package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/draftforge/draftvault/internal/store"
)

func TestMemoryStore_SaveHistoryDelete(t *testing.T) {
	s := store.NewMemoryStore(nil)
	ctx := context.Background()

	var ids []string
	for _, c := range []string{"v1", "v2", "v3"} {
		snap, err := s.SaveSnapshot(ctx, testDoc(c), store.SaveOptions{})
		if err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}
		ids = append(ids, snap.ID)
	}

	history, err := s.GetHistory(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history) != 3 || history[0].ID != ids[2] || history[2].ID != ids[0] {
		t.Fatalf("history not newest-first: %+v", history)
	}

	if deleted, err := s.DeleteSnapshot(ctx, ids[1]); err != nil || !deleted {
		t.Fatalf("delete: (%v, %v)", deleted, err)
	}
	if deleted, _ := s.DeleteSnapshot(ctx, ids[1]); deleted {
		t.Fatal("second delete should be false")
	}
	if history, _ = s.GetHistory(ctx, "doc-1"); len(history) != 2 {
		t.Fatalf("history length after delete: %d", len(history))
	}
}

func TestMemoryStore_SaveNilDocument(t *testing.T) {
	s := store.NewMemoryStore(nil)
	if _, err := s.SaveSnapshot(context.Background(), nil, store.SaveOptions{}); err != store.ErrNilDocument {
		t.Fatalf("expected ErrNilDocument, got %v", err)
	}
}

func TestMemoryStore_SnapshotsAreIsolatedCopies(t *testing.T) {
	s := store.NewMemoryStore(nil)
	ctx := context.Background()

	snap, _ := s.SaveSnapshot(ctx, testDoc("original"), store.SaveOptions{})
	snap.Content = "tampered"

	got, _ := s.GetSnapshot(ctx, snap.ID)
	if got.Content != "original" {
		t.Error("mutating a returned snapshot leaked into the store")
	}
}

func TestMemoryStore_ConcurrentSwitchKeepsOneActive(t *testing.T) {
	s := store.NewMemoryStore(nil)
	ctx := context.Background()

	base, _ := s.SaveSnapshot(ctx, testDoc("base"), store.SaveOptions{})
	b1 := insertTestBranch(t, s, "doc-1", "one", base.ID)
	b2 := insertTestBranch(t, s, "doc-1", "two", base.ID)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		target := b1.ID
		if i%2 == 0 {
			target = b2.ID
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := s.ActivateBranch(ctx, id); err != nil {
				t.Errorf("ActivateBranch: %v", err)
			}
		}(target)
	}
	wg.Wait()

	assertOneActive(t, s, "doc-1", "")
}
