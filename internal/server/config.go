package server

import (
	"github.com/draftforge/draftvault/internal/app"
	"github.com/draftforge/draftvault/internal/logging"
)

// Config controls the HTTP server.
type Config struct {
	// ListenAddr is the address for HTTPServer(); defaults to AppConfig's.
	ListenAddr string

	// AppConfig configures the engine when Engine is nil.
	AppConfig *app.Config

	// Engine lets callers (tests, embedders) supply a prebuilt engine.
	Engine *app.Engine

	// Logger defaults to a stdout JSON logger when nil.
	Logger logging.Logger
}
