package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/draftforge/draftvault/internal/logging"
	"github.com/draftforge/draftvault/internal/model"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements Store using SQLite for snapshot/branch metadata and
// a content-addressed blob store for snapshot text.
type SQLiteStore struct {
	db     *sql.DB
	blobs  *FSStore
	logger logging.Logger
	config *Config

	// blobMu serializes blob writes against delete-time garbage collection.
	// Without it a concurrent save of identical content could observe the
	// blob as present, skip the write, and then lose it to the GC.
	blobMu sync.Mutex
}

// Ensure SQLiteStore implements Store at compile-time.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a SQLiteStore rooted at config.StoragePath.
// If config is nil, default configuration is used.
func NewSQLiteStore(logger logging.Logger, config *Config) (*SQLiteStore, error) {
	if logger == nil {
		return nil, errors.New("store: nil logger provided")
	}
	if config == nil {
		config = &Config{}
	}

	metaDir := filepath.Join(config.StoragePath, ".draftvault")
	if err := os.MkdirAll(metaDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create .draftvault directory: %w", err)
	}

	dbPath := filepath.Join(metaDir, "draftvault.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	blobs, err := NewFSStore(filepath.Join(metaDir, "blobs"))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create blob store: %w", err)
	}

	logger.Info("SQLiteStore initialized", logging.Field{Key: "storage_path", Value: config.StoragePath})

	return &SQLiteStore{db: db, blobs: blobs, logger: logger, config: config}, nil
}

// DB returns the underlying database (owned by the store).
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// SaveSnapshot appends a snapshot of doc to the document's history.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, doc *model.Document, opts SaveOptions) (*model.Snapshot, error) {
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

	// The blob write and the row insert stay under blobMu so the content
	// cannot be garbage-collected between them.
	s.blobMu.Lock()
	defer s.blobMu.Unlock()

	blobID, err := s.blobs.Put([]byte(doc.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to store snapshot content: %w", err)
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
		ContentHash: blobID,
		WordCount:   model.WordCount(doc.Content),
		CharCount:   model.CharCount(doc.Content),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots
		  (id, document_id, branch_id, title, summary, status, message, type,
		   author_name, content_hash, word_count, char_count, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.DocumentID, nullableString(snap.BranchID), snap.Title, snap.Summary,
		snap.Status, snap.Message, string(snap.Type), nullableString(snap.AuthorName),
		snap.ContentHash, snap.WordCount, snap.CharCount, snap.Timestamp.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	s.logger.Debug("snapshot saved",
		logging.Field{Key: "snapshot_id", Value: snap.ID},
		logging.Field{Key: "document_id", Value: snap.DocumentID},
		logging.Field{Key: "type", Value: string(snap.Type)})

	return snap, nil
}

const snapshotColumns = `id, document_id, branch_id, title, summary, status,
	message, type, author_name, content_hash, word_count, char_count, timestamp`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanSnapshot(row rowScanner) (*model.Snapshot, error) {
	var snap model.Snapshot
	var branchID, author sql.NullString
	var typ string
	var ts int64

	err := row.Scan(&snap.ID, &snap.DocumentID, &branchID, &snap.Title, &snap.Summary,
		&snap.Status, &snap.Message, &typ, &author, &snap.ContentHash,
		&snap.WordCount, &snap.CharCount, &ts)
	if err != nil {
		return nil, err
	}

	snap.BranchID = branchID.String
	snap.AuthorName = author.String
	snap.Type = model.SnapshotType(typ)
	snap.Timestamp = time.Unix(ts, 0)

	content, err := s.blobs.Get(snap.ContentHash)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot content: %w", err)
	}
	snap.Content = string(content)

	return &snap, nil
}

// GetHistory returns a document's snapshots newest-first; ties on timestamp
// fall back to reverse insertion order.
func (s *SQLiteStore) GetHistory(ctx context.Context, documentID string) ([]*model.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+snapshotColumns+` FROM snapshots
		WHERE document_id = ?
		ORDER BY timestamp DESC, rowid DESC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var history []*model.Snapshot
	for rows.Next() {
		snap, err := s.scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		history = append(history, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return history, nil
}

// GetSnapshot returns the snapshot or (nil, nil) when the id is absent.
func (s *SQLiteStore) GetSnapshot(ctx context.Context, versionID string) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+` FROM snapshots WHERE id = ?
	`, versionID)

	snap, err := s.scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	return snap, nil
}

// RestoreSnapshot reconstructs a document from a snapshot's stored fields.
func (s *SQLiteStore) RestoreSnapshot(ctx context.Context, versionID string) (*model.Document, error) {
	snap, err := s.GetSnapshot(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, nil
	}
	return &model.Document{
		ID:      snap.DocumentID,
		Title:   snap.Title,
		Summary: snap.Summary,
		Content: snap.Content,
		Status:  snap.Status,
	}, nil
}

// DeleteSnapshot removes a snapshot row and garbage-collects its blob when no
// other snapshot shares the content. Held under blobMu so no concurrent save
// can slip its blob write between the reference count and the delete.
func (s *SQLiteStore) DeleteSnapshot(ctx context.Context, versionID string) (bool, error) {
	s.blobMu.Lock()
	defer s.blobMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			s.logger.Warn("failed to rollback transaction", logging.Field{Key: "error", Value: rbErr.Error()})
		}
	}()

	var contentHash string
	err = tx.QueryRowContext(ctx, `SELECT content_hash FROM snapshots WHERE id = ?`, versionID).Scan(&contentHash)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query snapshot: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, versionID); err != nil {
		return false, fmt.Errorf("failed to delete snapshot: %w", err)
	}

	var refs int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots WHERE content_hash = ?`, contentHash).Scan(&refs); err != nil {
		return false, fmt.Errorf("failed to count content references: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if refs == 0 {
		if err := s.blobs.Delete(contentHash); err != nil {
			s.logger.Warn("failed to delete orphaned blob",
				logging.Field{Key: "blob_id", Value: contentHash},
				logging.Field{Key: "error", Value: err.Error()})
		}
	}

	s.logger.Debug("snapshot deleted", logging.Field{Key: "snapshot_id", Value: versionID})
	return true, nil
}

// InsertBranch persists a new branch pointer.
func (s *SQLiteStore) InsertBranch(ctx context.Context, b *model.Branch) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO branches
		  (id, document_id, name, description, parent_version_id, created_at, is_active, color)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.DocumentID, b.Name, b.Description, b.ParentVersionID,
		b.CreatedAt.Unix(), boolToInt(b.IsActive), b.Color)
	if err != nil {
		return fmt.Errorf("failed to insert branch: %w", err)
	}
	return nil
}

func (s *SQLiteStore) scanBranch(row rowScanner) (*model.Branch, error) {
	var b model.Branch
	var createdAt int64
	var active int
	err := row.Scan(&b.ID, &b.DocumentID, &b.Name, &b.Description,
		&b.ParentVersionID, &createdAt, &active, &b.Color)
	if err != nil {
		return nil, err
	}
	b.CreatedAt = time.Unix(createdAt, 0)
	b.IsActive = active != 0
	return &b, nil
}

const branchColumns = `id, document_id, name, description, parent_version_id, created_at, is_active, color`

// GetBranch returns the branch or (nil, nil) when the id is absent.
func (s *SQLiteStore) GetBranch(ctx context.Context, branchID string) (*model.Branch, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+branchColumns+` FROM branches WHERE id = ?`, branchID)
	b, err := s.scanBranch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query branch: %w", err)
	}
	return b, nil
}

// GetBranches returns a document's branches in creation order.
func (s *SQLiteStore) GetBranches(ctx context.Context, documentID string) ([]*model.Branch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+branchColumns+` FROM branches
		WHERE document_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query branches: %w", err)
	}
	defer rows.Close()

	var branches []*model.Branch
	for rows.Next() {
		b, err := s.scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan branch: %w", err)
		}
		branches = append(branches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating branches: %w", err)
	}
	return branches, nil
}

// ActivateBranch flips the active flag to the target branch in a single
// transaction. Two concurrent switches can never leave zero or two branches
// active for the same document.
func (s *SQLiteStore) ActivateBranch(ctx context.Context, branchID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			s.logger.Warn("failed to rollback transaction", logging.Field{Key: "error", Value: rbErr.Error()})
		}
	}()

	var documentID string
	err = tx.QueryRowContext(ctx, `SELECT document_id FROM branches WHERE id = ?`, branchID).Scan(&documentID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query branch: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE branches SET is_active = 0 WHERE document_id = ? AND is_active = 1
	`, documentID); err != nil {
		return false, fmt.Errorf("failed to deactivate current branch: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE branches SET is_active = 1 WHERE id = ?
	`, branchID); err != nil {
		return false, fmt.Errorf("failed to activate branch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug("branch activated", logging.Field{Key: "branch_id", Value: branchID})
	return true, nil
}

// DeleteBranch removes a branch pointer. Idempotent on missing id.
func (s *SQLiteStore) DeleteBranch(ctx context.Context, branchID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM branches WHERE id = ?`, branchID)
	if err != nil {
		return false, fmt.Errorf("failed to delete branch: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// BranchHead returns the newest snapshot committed on the branch, falling
// back to the branch's parent snapshot when the branch has none of its own.
func (s *SQLiteStore) BranchHead(ctx context.Context, b *model.Branch) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+` FROM snapshots
		WHERE document_id = ? AND branch_id = ?
		ORDER BY timestamp DESC, rowid DESC
		LIMIT 1
	`, b.DocumentID, b.ID)

	snap, err := s.scanSnapshot(row)
	if err == nil {
		return snap, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query branch head: %w", err)
	}

	parent, err := s.GetSnapshot(ctx, b.ParentVersionID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, ErrSnapshotNotFound
	}
	return parent, nil
}

// DependentBranchIDs returns ids of branches anchored to a snapshot that was
// committed on the given branch.
func (s *SQLiteStore) DependentBranchIDs(ctx context.Context, branchID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id FROM branches b
		JOIN snapshots sn ON sn.id = b.parent_version_id
		WHERE sn.branch_id = ? AND b.id != ?
	`, branchID, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependent branches: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan branch id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dependent branches: %w", err)
	}
	return ids, nil
}

// Close releases resources used by the store.
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLiteStore")
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
