// Package app wires the version-control services into one explicitly
// constructed Engine. There is no process-wide instance: callers build as
// many isolated engines as they need (tests included) and pass them around.
package app

import (
	"context"

	"github.com/draftforge/draftvault/internal/branch"
	"github.com/draftforge/draftvault/internal/diff"
	"github.com/draftforge/draftvault/internal/events"
	"github.com/draftforge/draftvault/internal/export"
	"github.com/draftforge/draftvault/internal/logging"
	"github.com/draftforge/draftvault/internal/model"
	"github.com/draftforge/draftvault/internal/store"
)

// AuthorProvider supplies the current user's display name.
type AuthorProvider interface {
	CurrentAuthor() string
}

// StaticAuthor is an AuthorProvider returning a fixed name.
type StaticAuthor string

func (s StaticAuthor) CurrentAuthor() string { return string(s) }

// defaultAuthor is the placeholder used when no author identity is set.
const defaultAuthor = "Unknown Author"

// Engine is the engine facade: the five operation groups plus the event bus,
// constructed once and passed via dependency injection.
type Engine struct {
	Store    store.Store
	Diff     *diff.Engine
	Branches *branch.Manager
	Export   *export.Exporter
	Bus      *events.Bus

	authors AuthorProvider
	logger  logging.Logger
}

// New builds an Engine from config. With cfg.InMemory the engine runs without
// touching disk; otherwise state lives under cfg.StoragePath.
func New(cfg *Config, logger logging.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("draftvault")
	}

	var st store.Store
	if cfg.InMemory {
		st = store.NewMemoryStore(logger.With("store"))
	} else {
		var err error
		st, err = store.NewSQLiteStore(logger.With("store"), &store.Config{StoragePath: cfg.StoragePath})
		if err != nil {
			return nil, err
		}
	}

	return NewWithStore(st, StaticAuthor(cfg.AuthorName), logger), nil
}

// NewWithStore builds an Engine over an existing store. Useful for tests and
// for embedding with a custom Store implementation.
func NewWithStore(st store.Store, authors AuthorProvider, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	if authors == nil {
		authors = StaticAuthor("")
	}
	return &Engine{
		Store:    st,
		Diff:     diff.NewEngine(st, logger.With("diff")),
		Branches: branch.NewManager(st, logger.With("branch")),
		Export:   export.NewExporter(st),
		Bus:      events.NewBus(),
		authors:  authors,
		logger:   logger,
	}
}

// Author resolves the current author display name, defaulting to a
// placeholder when the provider has nothing.
func (e *Engine) Author() string {
	if name := e.authors.CurrentAuthor(); name != "" {
		return name
	}
	return defaultAuthor
}

// SaveSnapshot records a snapshot of doc and announces it on the bus.
func (e *Engine) SaveSnapshot(ctx context.Context, doc *model.Document, message string, typ model.SnapshotType, branchID string) (*model.Snapshot, error) {
	snap, err := e.Store.SaveSnapshot(ctx, doc, store.SaveOptions{
		Message:  message,
		Type:     typ,
		Author:   e.Author(),
		BranchID: branchID,
	})
	if err != nil {
		return nil, err
	}

	e.Bus.Publish(events.Event{
		Kind:       events.SnapshotCreated,
		DocumentID: snap.DocumentID,
		SnapshotID: snap.ID,
		BranchID:   snap.BranchID,
	})
	return snap, nil
}

// Restore reconstructs the document stored in a snapshot and records a
// synthetic restore-type snapshot of it, so the restore itself shows up in
// history. Returns (nil, nil, nil) when the snapshot id is absent.
func (e *Engine) Restore(ctx context.Context, versionID string) (*model.Document, *model.Snapshot, error) {
	doc, err := e.Store.RestoreSnapshot(ctx, versionID)
	if err != nil || doc == nil {
		return nil, nil, err
	}

	snap, err := e.SaveSnapshot(ctx, doc, "", model.SnapshotRestore, "")
	if err != nil {
		return nil, nil, err
	}
	return doc, snap, nil
}

// DeleteSnapshot removes a snapshot and announces the removal when anything
// was actually deleted.
func (e *Engine) DeleteSnapshot(ctx context.Context, versionID string) (bool, error) {
	snap, err := e.Store.GetSnapshot(ctx, versionID)
	if err != nil {
		return false, err
	}

	deleted, err := e.Store.DeleteSnapshot(ctx, versionID)
	if err != nil {
		return false, err
	}
	if deleted && snap != nil {
		e.Bus.Publish(events.Event{
			Kind:       events.SnapshotDeleted,
			DocumentID: snap.DocumentID,
			SnapshotID: versionID,
		})
	}
	return deleted, nil
}

// MergeBranches merges source into target and announces the merged snapshot.
func (e *Engine) MergeBranches(ctx context.Context, sourceBranchID, targetBranchID string) (*model.MergeResult, error) {
	result, err := e.Branches.Merge(ctx, sourceBranchID, targetBranchID, e.Author())
	if err != nil {
		return nil, err
	}
	if result.MergedSnapshot != nil {
		e.Bus.Publish(events.Event{
			Kind:       events.BranchesMerged,
			DocumentID: result.MergedSnapshot.DocumentID,
			SnapshotID: result.MergedSnapshot.ID,
			BranchID:   targetBranchID,
		})
	}
	return result, nil
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	e.logger.Info("closing engine")
	return e.Store.Close()
}
