package store

// Config controls runtime settings for the SQLite store.
type Config struct {
	// StoragePath is the directory holding the .draftvault metadata database
	// and blob store.
	StoragePath string `json:"storage_path,omitempty" yaml:"storage_path,omitempty"`
}
