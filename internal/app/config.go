package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the engine/server runtime configuration.
type Config struct {
	// ListenAddr is the HTTP API listen address.
	ListenAddr string `yaml:"listen_addr"`

	// StoragePath is the directory for the SQLite database and blob store.
	// Ignored when InMemory is set.
	StoragePath string `yaml:"storage_path"`

	// InMemory selects the in-memory store instead of SQLite.
	InMemory bool `yaml:"in_memory"`

	// AuthorName is the display name recorded on snapshots. Defaults to a
	// placeholder when unset.
	AuthorName string `yaml:"author_name"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:  ":8484",
		StoragePath: "./draftvault-data",
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}
