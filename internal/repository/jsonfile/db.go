package jsonfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Collection file names inside the data dir
const (
	SessionsFile      = "sessions.json"
	ArchivesFile      = "archives.json"
	KnowledgeFile     = "knowledge_base.json"
	DocumentationFile = "documentation.json"
	HistoryFile       = "history.json"
)

// DB owns the data directory holding one JSON file per collection
type DB struct {
	Dir string
}

// NewDB creates the data directory if needed
func NewDB(dir string) (*DB, error) {
	if dir == "" {
		return nil, fmt.Errorf("data dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &DB{Dir: dir}, nil
}

// Path returns the absolute location of a collection file
func (db *DB) Path(name string) string {
	return filepath.Join(db.Dir, name)
}

// Ping verifies the data dir is still writable
func (db *DB) Ping(ctx context.Context) error {
	f, err := os.CreateTemp(db.Dir, ".ping-*")
	if err != nil {
		return fmt.Errorf("data dir not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
