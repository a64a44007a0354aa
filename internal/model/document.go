package model

// Document is the editable unit the engine versions. It is supplied by the
// caller (editor, autosave scheduler) on demand; the engine never mutates it.
type Document struct {
	// ID identifies the document across its whole history.
	ID string `json:"id"`

	// Title is the human-facing document title.
	Title string `json:"title,omitempty"`

	// Summary is an optional short description.
	Summary string `json:"summary,omitempty"`

	// Content is the full text body being versioned.
	Content string `json:"content"`

	// Status is caller-defined (e.g. "draft", "published").
	Status string `json:"status,omitempty"`
}
