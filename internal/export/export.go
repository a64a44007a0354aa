// Package export serializes a document's full history to portable formats.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/draftforge/draftvault/internal/model"
	"github.com/draftforge/draftvault/internal/store"
)

// Format selects the export serialization.
type Format string

const (
	JSON Format = "json"
	CSV  Format = "csv"
)

// ErrUnknownFormat is returned for formats other than json and csv.
var ErrUnknownFormat = errors.New("export: unknown format")

// csvHeader is the fixed CSV header row.
var csvHeader = []string{"ID", "Timestamp", "Author", "Message", "Type", "Word Count", "Char Count"}

// Exporter serializes histories read from a Store.
type Exporter struct {
	store store.Store
}

// NewExporter creates an Exporter over the given store.
func NewExporter(st store.Store) *Exporter {
	return &Exporter{store: st}
}

// WriteHistory streams the document's history to w in the given format,
// newest-first as GetHistory returns it. CSV fields are properly quoted, so
// embedded commas, quotes and newlines survive a round trip.
func (e *Exporter) WriteHistory(ctx context.Context, w io.Writer, documentID string, format Format) error {
	history, err := e.store.GetHistory(ctx, documentID)
	if err != nil {
		return err
	}

	switch format {
	case JSON:
		return writeJSON(w, history)
	case CSV:
		return writeCSV(w, history)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ExportHistory is the buffered convenience form of WriteHistory.
func (e *Exporter) ExportHistory(ctx context.Context, documentID string, format Format) (string, error) {
	var sb strings.Builder
	if err := e.WriteHistory(ctx, &sb, documentID, format); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// writeJSON emits the history as a JSON array structurally identical to
// GetHistory's output, one element at a time to avoid materializing one big
// buffer for long histories.
func writeJSON(w io.Writer, history []*model.Snapshot) error {
	if _, err := io.WriteString(w, "["); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	for i, snap := range history {
		if i > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("failed to encode snapshot %s: %w", snap.ID, err)
		}
	}
	if _, err := io.WriteString(w, "]"); err != nil {
		return err
	}
	return nil
}

func writeCSV(w io.Writer, history []*model.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, snap := range history {
		row := []string{
			snap.ID,
			snap.Timestamp.UTC().Format(time.RFC3339),
			snap.AuthorName,
			snap.Message,
			string(snap.Type),
			strconv.Itoa(snap.WordCount),
			strconv.Itoa(snap.CharCount),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row for %s: %w", snap.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
