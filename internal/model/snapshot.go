package model

import "time"

// SnapshotType records how a snapshot came to exist (provenance, not semantics).
type SnapshotType string

const (
	SnapshotManual  SnapshotType = "manual"
	SnapshotAuto    SnapshotType = "auto"
	SnapshotAI      SnapshotType = "ai-generated"
	SnapshotRestore SnapshotType = "restore"
)

// Valid reports whether t is one of the known snapshot types.
func (t SnapshotType) Valid() bool {
	switch t {
	case SnapshotManual, SnapshotAuto, SnapshotAI, SnapshotRestore:
		return true
	}
	return false
}

// Snapshot is an immutable recorded content-state of a document plus metadata.
// Snapshots are append-only; the only lifecycle transition after creation is
// hard deletion.
type Snapshot struct {
	// ID is assigned at creation and never reused.
	ID string `json:"id"`

	// DocumentID ties the snapshot to its document's history.
	DocumentID string `json:"document_id"`

	// BranchID is the branch the snapshot was committed on; empty means the
	// document's mainline.
	BranchID string `json:"branch_id,omitempty"`

	// Title, Summary and Status are copied from the document at save time.
	Title   string `json:"title,omitempty"`
	Summary string `json:"summary,omitempty"`
	Status  string `json:"status,omitempty"`

	// Content is the full text at the moment of the save.
	Content string `json:"content"`

	// Timestamp is the save time.
	Timestamp time.Time `json:"timestamp"`

	// AuthorName is the display name of whoever triggered the save.
	AuthorName string `json:"author_name,omitempty"`

	// Message describes the save; defaulted per Type when empty.
	Message string `json:"message,omitempty"`

	// Type records the snapshot's provenance.
	Type SnapshotType `json:"type"`

	// ContentHash is the SHA-256 hex fingerprint of Content. Identical content
	// always yields the same hash; it identifies content, it is not a
	// cryptographic guarantee.
	ContentHash string `json:"content_hash"`

	// WordCount and CharCount are computed from Content at save time.
	WordCount int `json:"word_count"`
	CharCount int `json:"char_count"`
}

// DefaultMessage returns the canonical save message for a snapshot type.
func DefaultMessage(t SnapshotType, title string) string {
	switch t {
	case SnapshotAuto:
		return "Auto-saved: " + title
	case SnapshotAI:
		return "AI generated content for: " + title
	case SnapshotRestore:
		return "Restored version of: " + title
	default:
		return "Manual save: " + title
	}
}
