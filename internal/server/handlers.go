package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/draftforge/draftvault/internal/export"
	"github.com/draftforge/draftvault/internal/history"
	"github.com/draftforge/draftvault/internal/logging"
	"github.com/draftforge/draftvault/internal/model"
)

// Snapshots

func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	var body struct {
		Document *model.Document    `json:"document"`
		Message  string             `json:"message"`
		Type     model.SnapshotType `json:"type"`
		BranchID string             `json:"branch_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.Type != "" && !body.Type.Valid() {
		writeError(w, http.StatusBadRequest, "unknown snapshot type")
		return
	}
	if body.Document != nil {
		body.Document.ID = docID
	}

	snap, err := s.engine.SaveSnapshot(r.Context(), body.Document, body.Message, body.Type, body.BranchID)
	if err != nil {
		s.logger.Warn("saving snapshot", logging.Field{Key: "error", Value: err.Error()})
		s.writeEngineError(w, err)
		return
	}
	s.logger.Info("saved snapshot",
		logging.Field{Key: "document_id", Value: docID},
		logging.Field{Key: "snapshot_id", Value: snap.ID})
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	list, err := s.engine.Store.GetHistory(r.Context(), docID)
	if err != nil {
		s.logger.Warn("loading history", logging.Field{Key: "error", Value: err.Error()})
		s.writeEngineError(w, err)
		return
	}

	q := r.URL.Query()
	if query := q.Get("q"); query != "" {
		list = history.Search(list, query)
	}
	filter := q.Get("filter")
	order := history.Order(q.Get("order"))
	if filter != "" || order != "" {
		list = history.FilterAndSort(list, filter, order)
	}

	// An empty history is a JSON array, never null.
	if list == nil {
		list = []*model.Snapshot{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	versionID := chi.URLParam(r, "versionID")

	snap, err := s.engine.Store.GetSnapshot(r.Context(), versionID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if snap == nil {
		writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	versionID := chi.URLParam(r, "versionID")

	deleted, err := s.engine.DeleteSnapshot(r.Context(), versionID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (s *Server) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	versionID := chi.URLParam(r, "versionID")

	doc, snap, err := s.engine.Restore(r.Context(), versionID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "nothing to restore")
		return
	}
	s.logger.Info("restored snapshot",
		logging.Field{Key: "version_id", Value: versionID},
		logging.Field{Key: "restore_snapshot_id", Value: snap.ID})
	writeJSON(w, http.StatusOK, map[string]any{"document": doc, "snapshot": snap})
}

func (s *Server) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	format := export.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = export.JSON
	}

	switch format {
	case export.JSON:
		w.Header().Set("Content-Type", "application/json")
	case export.CSV:
		w.Header().Set("Content-Type", "text/csv")
	}

	if err := s.engine.Export.WriteHistory(r.Context(), w, docID, format); err != nil {
		s.logger.Warn("exporting history", logging.Field{Key: "error", Value: err.Error()})
		s.writeEngineError(w, err)
	}
}

// Diff

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	base := r.URL.Query().Get("base")
	head := r.URL.Query().Get("head")
	if base == "" || head == "" {
		writeError(w, http.StatusBadRequest, "base and head query parameters are required")
		return
	}

	result, err := s.engine.Diff.Compare(r.Context(), base, head)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Branches

func (s *Server) handleCreateBranch(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	var body struct {
		Name            string `json:"name"`
		Description     string `json:"description"`
		ParentVersionID string `json:"parent_version_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	b, err := s.engine.Branches.Create(r.Context(), docID, body.Name, body.Description, body.ParentVersionID)
	if err != nil {
		s.logger.Warn("creating branch", logging.Field{Key: "error", Value: err.Error()})
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleListBranches(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	branches, err := s.engine.Branches.List(r.Context(), docID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, branches)
}

func (s *Server) handleSwitchBranch(w http.ResponseWriter, r *http.Request) {
	branchID := chi.URLParam(r, "branchID")

	switched, err := s.engine.Branches.Switch(r.Context(), branchID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if !switched {
		writeError(w, http.StatusNotFound, "branch not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"switched": true})
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SourceBranchID string `json:"source_branch_id"`
		TargetBranchID string `json:"target_branch_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	result, err := s.engine.MergeBranches(r.Context(), body.SourceBranchID, body.TargetBranchID)
	if err != nil {
		s.logger.Warn("merging branches", logging.Field{Key: "error", Value: err.Error()})
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteBranch(w http.ResponseWriter, r *http.Request) {
	branchID := chi.URLParam(r, "branchID")

	deleted, err := s.engine.Branches.Delete(r.Context(), branchID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// WebSockets

// handleHistoryWS streams snapshot created/deleted/merged events for a
// document until the client disconnects.
func (s *Server) handleHistoryWS(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	ch, cancel := s.engine.Bus.Subscribe(docID)
	defer cancel()

	// After the upgrade hijacks the connection the request context no longer
	// fires on client disconnect, so run a read pump: clients never send
	// messages, but the failed read is the disconnect signal.
	ctx, cancelCtx := context.WithCancel(r.Context())
	defer cancelCtx()
	go func() {
		defer cancelCtx()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				// Client went away.
				return
			}
		}
	}
}
