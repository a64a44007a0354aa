package branch

import (
	"context"
	"fmt"
	"strings"

	"github.com/draftforge/draftvault/internal/logging"
	"github.com/draftforge/draftvault/internal/model"
	"github.com/draftforge/draftvault/internal/store"
)

// Merge combines the source branch's changes since divergence into the target
// branch. The divergence point is the source branch's parent snapshot; the
// head of each branch is its newest snapshot (or the parent snapshot when the
// branch has none of its own).
//
// Outcomes:
//   - source unchanged since divergence: nothing to apply, the target head is
//     returned as-is ("already up to date").
//   - target unchanged since divergence: fast-forward, the source head's
//     content becomes a new snapshot on the target branch.
//   - both moved: line-level three-way merge; edits to the same line on both
//     sides fail with ConflictError carrying the conflicting ranges.
//
// A successful merge appends a new snapshot to the target branch; no prior
// snapshot is mutated.
func (m *Manager) Merge(ctx context.Context, sourceBranchID, targetBranchID, author string) (*model.MergeResult, error) {
	if sourceBranchID == targetBranchID {
		return nil, ErrSameBranch
	}

	src, err := m.store.GetBranch(ctx, sourceBranchID)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrBranchNotFound, sourceBranchID)
	}

	tgt, err := m.store.GetBranch(ctx, targetBranchID)
	if err != nil {
		return nil, err
	}
	if tgt == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrBranchNotFound, targetBranchID)
	}

	base, err := m.store.GetSnapshot(ctx, src.ParentVersionID)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, fmt.Errorf("%w: divergence point %s", store.ErrSnapshotNotFound, src.ParentVersionID)
	}

	srcHead, err := m.store.BranchHead(ctx, src)
	if err != nil {
		return nil, err
	}
	tgtHead, err := m.store.BranchHead(ctx, tgt)
	if err != nil {
		return nil, err
	}

	result := &model.MergeResult{
		SourceBranchID: sourceBranchID,
		TargetBranchID: targetBranchID,
	}

	// Source introduced nothing: already up to date.
	if srcHead.ContentHash == base.ContentHash {
		result.MergedSnapshot = tgtHead
		result.FastForward = true
		return result, nil
	}

	var merged string
	if tgtHead.ContentHash == base.ContentHash {
		// Target has not moved: take the source head wholesale.
		merged = srcHead.Content
		result.FastForward = true
	} else {
		merged, err = mergeLines(base.Content, srcHead.Content, tgtHead.Content)
		if err != nil {
			return nil, err
		}
	}

	doc := &model.Document{
		ID:      tgt.DocumentID,
		Title:   tgtHead.Title,
		Summary: tgtHead.Summary,
		Content: merged,
		Status:  tgtHead.Status,
	}
	snap, err := m.store.SaveSnapshot(ctx, doc, store.SaveOptions{
		Message:  fmt.Sprintf("Merged branch %q into %q", src.Name, tgt.Name),
		Type:     model.SnapshotManual,
		Author:   author,
		BranchID: tgt.ID,
	})
	if err != nil {
		return nil, err
	}
	result.MergedSnapshot = snap

	m.logger.Info("branches merged",
		logging.Field{Key: "source", Value: sourceBranchID},
		logging.Field{Key: "target", Value: targetBranchID},
		logging.Field{Key: "merged_snapshot", Value: snap.ID},
		logging.Field{Key: "fast_forward", Value: result.FastForward})

	return result, nil
}

// mergeLines performs a positional line-level three-way merge of source and
// target against their common base. A line changed on exactly one side takes
// that side's value; changed the same way on both sides it is kept once;
// changed differently on both sides it is a conflict.
func mergeLines(baseContent, srcContent, tgtContent string) (string, error) {
	base := model.SplitLines(baseContent)
	src := model.SplitLines(srcContent)
	tgt := model.SplitLines(tgtContent)

	n := len(base)
	if len(src) > n {
		n = len(src)
	}
	if len(tgt) > n {
		n = len(tgt)
	}

	var merged []string
	var conflicts []model.LineRange

	for i := 0; i < n; i++ {
		b, hasB := lineAt(base, i)
		s, hasS := lineAt(src, i)
		t, hasT := lineAt(tgt, i)

		srcChanged := hasS != hasB || s != b
		tgtChanged := hasT != hasB || t != b

		switch {
		case srcChanged && tgtChanged && (hasS != hasT || s != t):
			appendConflict(&conflicts, i+1)
		case srcChanged:
			if hasS {
				merged = append(merged, s)
			}
		case tgtChanged:
			if hasT {
				merged = append(merged, t)
			}
		default:
			if hasB {
				merged = append(merged, b)
			}
		}
	}

	if len(conflicts) > 0 {
		return "", &ConflictError{Ranges: conflicts}
	}
	return strings.Join(merged, "\n"), nil
}

func lineAt(lines []string, i int) (string, bool) {
	if i < len(lines) {
		return lines[i], true
	}
	return "", false
}

// appendConflict grows the last range when line numbers are consecutive.
func appendConflict(ranges *[]model.LineRange, line int) {
	if n := len(*ranges); n > 0 && (*ranges)[n-1].End == line-1 {
		(*ranges)[n-1].End = line
		return
	}
	*ranges = append(*ranges, model.LineRange{Start: line, End: line})
}
