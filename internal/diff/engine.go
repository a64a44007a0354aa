// Package diff computes structural differences between two snapshots.
//
// The comparison is positional: both contents are split on line boundaries
// and walked index by index. An insertion or deletion in the middle of the
// text therefore presents as a cascading run of modification records rather
// than a single localized change. This is a deliberate simplification: it is
// deterministic, O(n) in line count, and needs no backtracking. A classic
// LCS/Myers line diff can be substituted while keeping the DiffRecord output
// contract stable.
package diff

import (
	"context"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/draftforge/draftvault/internal/logging"
	"github.com/draftforge/draftvault/internal/model"
	"github.com/draftforge/draftvault/internal/store"
)

// Engine compares stored snapshots. It only reads immutable data, so any
// number of comparisons may run in parallel.
type Engine struct {
	store  store.Store
	logger logging.Logger
}

// NewEngine creates a diff engine over the given store.
func NewEngine(st store.Store, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Engine{store: st, logger: logger}
}

// Compare computes the diff from snapshot baseID to snapshot headID.
// A comparison with a non-existent operand is meaningless, so a missing
// snapshot is an error here, unlike plain reads.
func (e *Engine) Compare(ctx context.Context, baseID, headID string) (*model.DiffResult, error) {
	base, err := e.store.GetSnapshot(ctx, baseID)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrSnapshotNotFound, baseID)
	}

	head, err := e.store.GetSnapshot(ctx, headID)
	if err != nil {
		return nil, err
	}
	if head == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrSnapshotNotFound, headID)
	}

	e.logger.Debug("computing diff",
		logging.Field{Key: "base_id", Value: baseID},
		logging.Field{Key: "head_id", Value: headID})

	return CompareContents(base.Content, head.Content), nil
}

// CompareContents computes the positional line diff from old to new content.
// Exported for callers that already hold both texts (merge, tests).
func CompareContents(oldContent, newContent string) *model.DiffResult {
	oldLines := model.SplitLines(oldContent)
	newLines := model.SplitLines(newContent)

	result := &model.DiffResult{
		WordCountChange: model.WordCount(newContent) - model.WordCount(oldContent),
		CharCountChange: model.CharCount(newContent) - model.CharCount(oldContent),
	}

	n := len(oldLines)
	if len(newLines) > n {
		n = len(newLines)
	}

	for i := 0; i < n; i++ {
		switch {
		case i >= len(oldLines):
			result.Diffs = append(result.Diffs, model.DiffRecord{
				Type:       model.DiffAddition,
				LineNumber: i + 1,
				NewContent: newLines[i],
				Context:    contextWindow(newLines, i),
			})
			result.AdditionsCount++

		case i >= len(newLines):
			result.Diffs = append(result.Diffs, model.DiffRecord{
				Type:       model.DiffDeletion,
				LineNumber: i + 1,
				OldContent: oldLines[i],
				Context:    contextWindow(oldLines, i),
			})
			result.DeletionsCount++

		case oldLines[i] != newLines[i]:
			result.Diffs = append(result.Diffs, model.DiffRecord{
				Type:       model.DiffModification,
				LineNumber: i + 1,
				OldContent: oldLines[i],
				NewContent: newLines[i],
				Context:    contextWindow(newLines, i),
				Inline:     inlineChanges(oldLines[i], newLines[i]),
			})
			result.ModificationsCount++
		}
	}

	return result
}

// contextWindow joins the 1-line-before/1-line-after window around index i.
func contextWindow(lines []string, i int) string {
	lo := i - 1
	if lo < 0 {
		lo = 0
	}
	hi := i + 2
	if hi > len(lines) {
		hi = len(lines)
	}
	return strings.Join(lines[lo:hi], "\n")
}

// inlineChanges refines a modified line into character-level segments for
// display highlighting.
func inlineChanges(oldLine, newLine string) []model.InlineChange {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldLine, newLine, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	changes := make([]model.InlineChange, 0, len(diffs))
	for _, d := range diffs {
		var op string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = "insert"
		case diffmatchpatch.DiffDelete:
			op = "delete"
		default:
			op = "equal"
		}
		changes = append(changes, model.InlineChange{Op: op, Text: d.Text})
	}
	return changes
}
