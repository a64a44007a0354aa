package history_test

import (
	"testing"
	"time"

	"github.com/draftforge/draftvault/internal/history"
	"github.com/draftforge/draftvault/internal/model"
)

func sampleHistory() []*model.Snapshot {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []*model.Snapshot{
		{ID: "v1", Type: model.SnapshotManual, Message: "Manual save: Chapter One", Content: "the quick brown fox", Timestamp: t0},
		{ID: "v2", Type: model.SnapshotAuto, Message: "Auto-saved: Chapter One", Content: "the quick brown fox jumps", Timestamp: t0.Add(time.Minute)},
		{ID: "v3", Type: model.SnapshotAI, Message: "AI generated content for: Chapter One", Content: "a slow grey wolf", Timestamp: t0.Add(2 * time.Minute)},
		{ID: "v4", Type: model.SnapshotManual, Message: "Reworked the opening", Content: "a slow grey Fox", Timestamp: t0.Add(3 * time.Minute)},
	}
}

func ids(snaps []*model.Snapshot) []string {
	out := make([]string, len(snaps))
	for i, s := range snaps {
		out[i] = s.ID
	}
	return out
}

func equalIDs(a []string, b ...string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterAndSort(t *testing.T) {
	hist := sampleHistory()

	tests := []struct {
		name   string
		filter string
		order  history.Order
		want   []string
	}{
		{"all newest", history.FilterAll, history.Newest, []string{"v4", "v3", "v2", "v1"}},
		{"all oldest", history.FilterAll, history.Oldest, []string{"v1", "v2", "v3", "v4"}},
		{"empty filter matches all", "", history.Newest, []string{"v4", "v3", "v2", "v1"}},
		{"manual only", string(model.SnapshotManual), history.Oldest, []string{"v1", "v4"}},
		{"auto only", string(model.SnapshotAuto), history.Newest, []string{"v2"}},
		{"no match", "restore", history.Newest, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(history.FilterAndSort(hist, tc.filter, tc.order))
			if !equalIDs(got, tc.want...) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFilterAndSort_DoesNotModifyInput(t *testing.T) {
	hist := sampleHistory()
	history.FilterAndSort(hist, history.FilterAll, history.Oldest)
	if !equalIDs(ids(hist), "v1", "v2", "v3", "v4") {
		t.Errorf("input reordered: %v", ids(hist))
	}
}

func TestFilterAndSort_StableOnEqualTimestamps(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hist := []*model.Snapshot{
		{ID: "a", Type: model.SnapshotManual, Timestamp: ts},
		{ID: "b", Type: model.SnapshotManual, Timestamp: ts},
		{ID: "c", Type: model.SnapshotManual, Timestamp: ts},
	}
	got := ids(history.FilterAndSort(hist, history.FilterAll, history.Newest))
	if !equalIDs(got, "a", "b", "c") {
		t.Errorf("equal timestamps should keep input order, got %v", got)
	}
}

func TestSearch(t *testing.T) {
	hist := sampleHistory()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"message match", "auto-saved", []string{"v2"}},
		{"content match case-insensitive", "FOX", []string{"v1", "v2", "v4"}},
		{"message and content", "opening", []string{"v4"}},
		{"empty query matches all", "", []string{"v1", "v2", "v3", "v4"}},
		{"no match", "chapter two", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(history.Search(hist, tc.query))
			if !equalIDs(got, tc.want...) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}
