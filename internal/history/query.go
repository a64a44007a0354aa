// Package history provides pure filtering, sorting and search over an
// already-loaded snapshot list. Nothing here touches storage.
package history

import (
	"sort"
	"strings"

	"github.com/draftforge/draftvault/internal/model"
)

// Order selects history sort direction.
type Order string

const (
	Newest Order = "newest"
	Oldest Order = "oldest"
)

// FilterAll matches every snapshot type.
const FilterAll = "all"

// FilterAndSort filters history by exact type match (or FilterAll) and sorts
// by timestamp in the requested order. The input slice is not modified.
func FilterAndSort(history []*model.Snapshot, filter string, order Order) []*model.Snapshot {
	out := make([]*model.Snapshot, 0, len(history))
	for _, snap := range history {
		if filter == FilterAll || filter == "" || string(snap.Type) == filter {
			out = append(out, snap)
		}
	}

	// Stable sort preserves the input's relative order on equal timestamps.
	sort.SliceStable(out, func(i, j int) bool {
		if order == Oldest {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	return out
}

// Search returns the snapshots whose message or content contains query,
// case-insensitively. The relative order of matches is preserved. An empty
// query matches everything.
func Search(history []*model.Snapshot, query string) []*model.Snapshot {
	q := strings.ToLower(query)
	out := make([]*model.Snapshot, 0, len(history))
	for _, snap := range history {
		if strings.Contains(strings.ToLower(snap.Message), q) ||
			strings.Contains(strings.ToLower(snap.Content), q) {
			out = append(out, snap)
		}
	}
	return out
}
