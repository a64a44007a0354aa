package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/draftforge/draftvault/internal/app"
	"github.com/draftforge/draftvault/internal/branch"
	"github.com/draftforge/draftvault/internal/export"
	"github.com/draftforge/draftvault/internal/logging"
	"github.com/draftforge/draftvault/internal/store"
)

// Server is the HTTP + WebSocket API surface over the version-control engine.
type Server struct {
	cfg      Config
	engine   *app.Engine
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer creates a Server, building an engine from cfg.AppConfig unless
// one is supplied.
func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}

	engine := cfg.Engine
	if engine == nil {
		var err error
		engine, err = app.New(cfg.AppConfig, logger)
		if err != nil {
			return nil, err
		}
	}

	s := &Server{
		cfg:    cfg,
		engine: engine,
		router: chi.NewRouter(),
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
	}

	s.routes()
	return s, nil
}

// Engine returns the underlying engine for advanced use (tests, etc.).
func (s *Server) Engine() *app.Engine {
	return s.engine
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// Snapshots
	r.Post("/documents/{docID}/snapshots", s.handleSaveSnapshot)
	r.Get("/documents/{docID}/history", s.handleGetHistory)
	r.Get("/documents/{docID}/export", s.handleExportHistory)
	r.Get("/snapshots/{versionID}", s.handleGetSnapshot)
	r.Delete("/snapshots/{versionID}", s.handleDeleteSnapshot)
	r.Post("/snapshots/{versionID}/restore", s.handleRestoreSnapshot)

	// Diff
	r.Get("/diff", s.handleDiff)

	// Branches
	r.Post("/documents/{docID}/branches", s.handleCreateBranch)
	r.Get("/documents/{docID}/branches", s.handleListBranches)
	r.Post("/documents/{docID}/merge", s.handleMerge)
	r.Post("/branches/{branchID}/switch", s.handleSwitchBranch)
	r.Delete("/branches/{branchID}", s.handleDeleteBranch)

	// Live history events
	r.Get("/ws/documents/{docID}/history", s.handleHistoryWS)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("http_request",
		logging.Field{Key: "method", Value: r.Method},
		logging.Field{Key: "path", Value: r.URL.Path})
	s.router.ServeHTTP(w, r)
}

// Close shuts down the engine and its resources.
func (s *Server) Close() {
	if s.engine != nil {
		if err := s.engine.Close(); err != nil {
			s.logger.Warn("closing engine", logging.Field{Key: "error", Value: err.Error()})
		}
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	addr := s.cfg.ListenAddr
	if addr == "" && s.cfg.AppConfig != nil {
		addr = s.cfg.AppConfig.ListenAddr
	}
	return &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps engine errors onto HTTP statuses.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var conflict *branch.ConflictError
	switch {
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  conflict.Error(),
			"ranges": conflict.Ranges,
		})
	case errors.Is(err, store.ErrSnapshotNotFound), errors.Is(err, store.ErrBranchNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrNilDocument),
		errors.Is(err, export.ErrUnknownFormat),
		errors.Is(err, branch.ErrSameBranch):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, branch.ErrDependentBranches):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
