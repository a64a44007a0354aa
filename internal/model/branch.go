package model

import "time"

// Branch is a named pointer into a document's version history, anchored to a
// parent snapshot (the divergence point). Exactly one branch per document is
// active at a time.
type Branch struct {
	// ID is the branch identifier.
	ID string `json:"id"`

	// DocumentID is the document this branch belongs to.
	DocumentID string `json:"document_id"`

	// Name is the human-readable branch name.
	Name string `json:"name"`

	// Description provides optional context about the branch's purpose.
	Description string `json:"description,omitempty"`

	// ParentVersionID references the snapshot the branch diverged from.
	ParentVersionID string `json:"parent_version_id"`

	// CreatedAt is the branch creation time.
	CreatedAt time.Time `json:"created_at"`

	// IsActive marks the document's currently checked-out branch.
	IsActive bool `json:"is_active"`

	// Color is a cosmetic display color, derived from the branch ID.
	Color string `json:"color,omitempty"`
}

// MergeResult describes the outcome of merging one branch into another.
type MergeResult struct {
	SourceBranchID string `json:"source_branch_id"`
	TargetBranchID string `json:"target_branch_id"`

	// MergedSnapshot is the snapshot appended to the target branch.
	MergedSnapshot *Snapshot `json:"merged_snapshot"`

	// FastForward is true when the target had not moved since divergence and
	// the source head was taken as-is.
	FastForward bool `json:"fast_forward"`
}

// LineRange is a 1-based inclusive range of lines, used to report merge
// conflicts.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}
