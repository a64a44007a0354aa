// Command draftvaultd serves the document version-control engine over HTTP.
// Usage: draftvaultd [-config path] [-addr :8484]
package main

import (
	"flag"
	"log"

	"github.com/draftforge/draftvault/internal/app"
	"github.com/draftforge/draftvault/internal/logging"
	"github.com/draftforge/draftvault/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	cfg := app.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = app.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	logger := logging.NewStdoutLogger("draftvaultd")

	srv, err := server.NewServer(server.Config{
		ListenAddr: cfg.ListenAddr,
		AppConfig:  cfg,
		Logger:     logger,
	})
	if err != nil {
		log.Fatalf("creating server: %v", err)
	}
	defer srv.Close()

	logger.Info("listening", logging.Field{Key: "addr", Value: cfg.ListenAddr})
	if err := srv.HTTPServer().ListenAndServe(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
