package model

// DiffType classifies a single structural difference between two snapshots.
type DiffType string

const (
	DiffAddition     DiffType = "addition"
	DiffDeletion     DiffType = "deletion"
	DiffModification DiffType = "modification"
)

// DiffRecord is one line-level difference. LineNumber is 1-based.
type DiffRecord struct {
	Type       DiffType `json:"type"`
	LineNumber int      `json:"line_number"`

	// OldContent is set for deletions and modifications.
	OldContent string `json:"old_content,omitempty"`

	// NewContent is set for additions and modifications.
	NewContent string `json:"new_content,omitempty"`

	// Context is the 1-line-before/1-line-after window around the change,
	// for human-readable display.
	Context string `json:"context,omitempty"`

	// Inline carries an optional character-level refinement of a
	// modification (old -> new), for display highlighting.
	Inline []InlineChange `json:"inline,omitempty"`
}

// InlineChange is one character-level segment of a modified line.
// Op is "equal", "insert" or "delete".
type InlineChange struct {
	Op   string `json:"op"`
	Text string `json:"text"`
}

// DiffResult summarizes the differences between two snapshots. Results are
// computed on demand and never persisted.
type DiffResult struct {
	Diffs []DiffRecord `json:"diffs"`

	WordCountChange int `json:"word_count_change"`
	CharCountChange int `json:"char_count_change"`

	AdditionsCount     int `json:"additions_count"`
	DeletionsCount     int `json:"deletions_count"`
	ModificationsCount int `json:"modifications_count"`
}
