package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/draftforge/draftvault/internal/app"
	"github.com/draftforge/draftvault/internal/events"
	"github.com/draftforge/draftvault/internal/logging"
	"github.com/draftforge/draftvault/internal/model"
	"github.com/draftforge/draftvault/internal/store"
)

func newEngine(t *testing.T, authors app.AuthorProvider) *app.Engine {
	t.Helper()
	eng := app.NewWithStore(store.NewMemoryStore(nil), authors, logging.Nop())
	t.Cleanup(func() { eng.Close() })
	return eng
}

func TestAuthorDefaultsToPlaceholder(t *testing.T) {
	eng := newEngine(t, nil)
	if got := eng.Author(); got != "Unknown Author" {
		t.Errorf("Author: %q", got)
	}

	eng = newEngine(t, app.StaticAuthor("Ada"))
	if got := eng.Author(); got != "Ada" {
		t.Errorf("Author: %q", got)
	}
}

func TestSaveSnapshotPublishesEvent(t *testing.T) {
	eng := newEngine(t, app.StaticAuthor("Ada"))
	ch, cancel := eng.Bus.Subscribe("doc-1")
	defer cancel()

	snap, err := eng.SaveSnapshot(context.Background(), &model.Document{ID: "doc-1", Content: "hello"}, "", "", "")
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if snap.AuthorName != "Ada" {
		t.Errorf("author: %q", snap.AuthorName)
	}

	ev := <-ch
	if ev.Kind != events.SnapshotCreated || ev.SnapshotID != snap.ID {
		t.Errorf("event: %+v", ev)
	}
}

func TestRestoreRecordsRestoreSnapshot(t *testing.T) {
	eng := newEngine(t, nil)
	ctx := context.Background()

	orig, err := eng.SaveSnapshot(ctx, &model.Document{ID: "doc-1", Title: "Chapter One", Content: "v1"}, "", "", "")
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if _, err := eng.SaveSnapshot(ctx, &model.Document{ID: "doc-1", Title: "Chapter One", Content: "v2"}, "", "", ""); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	doc, snap, err := eng.Restore(ctx, orig.ID)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if doc.Content != "v1" {
		t.Errorf("restored content: %q", doc.Content)
	}
	if snap.Type != model.SnapshotRestore {
		t.Errorf("restore snapshot type: %q", snap.Type)
	}
	if snap.Message != "Restored version of: Chapter One" {
		t.Errorf("restore message: %q", snap.Message)
	}

	// The restore itself joined the history.
	hist, err := eng.Store.GetHistory(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(hist) != 3 {
		t.Errorf("history length: %d, want 3", len(hist))
	}
}

func TestRestoreMissingSnapshot(t *testing.T) {
	eng := newEngine(t, nil)
	doc, snap, err := eng.Restore(context.Background(), "no-such-id")
	if err != nil || doc != nil || snap != nil {
		t.Errorf("got (%v, %v, %v), want all nil", doc, snap, err)
	}
}

func TestDeleteSnapshotPublishesOnce(t *testing.T) {
	eng := newEngine(t, nil)
	ctx := context.Background()

	snap, err := eng.SaveSnapshot(ctx, &model.Document{ID: "doc-1", Content: "x"}, "", "", "")
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	ch, cancel := eng.Bus.Subscribe("doc-1")
	defer cancel()

	deleted, err := eng.DeleteSnapshot(ctx, snap.ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteSnapshot: (%v, %v)", deleted, err)
	}
	ev := <-ch
	if ev.Kind != events.SnapshotDeleted || ev.SnapshotID != snap.ID {
		t.Errorf("event: %+v", ev)
	}

	// Second delete is a no-op and must not publish.
	deleted, err = eng.DeleteSnapshot(ctx, snap.ID)
	if err != nil || deleted {
		t.Fatalf("second DeleteSnapshot: (%v, %v)", deleted, err)
	}
	select {
	case ev := <-ch:
		t.Errorf("unexpected event after no-op delete: %+v", ev)
	default:
	}
}

func TestNewInMemory(t *testing.T) {
	eng, err := app.New(&app.Config{InMemory: true, AuthorName: "Ada"}, logging.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer eng.Close()

	if _, err := eng.SaveSnapshot(context.Background(), &model.Document{ID: "doc-1", Content: "x"}, "", "", ""); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := "listen_addr: \":9999\"\nauthor_name: Ada\nin_memory: true\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := app.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ListenAddr != ":9999" || cfg.AuthorName != "Ada" || !cfg.InMemory {
		t.Errorf("config: %+v", cfg)
	}
	// Unset keys keep their defaults.
	if cfg.StoragePath != "./draftvault-data" {
		t.Errorf("storage path default: %q", cfg.StoragePath)
	}

	if _, err := app.LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file should error")
	}
}
