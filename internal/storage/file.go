package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend keeps each collection as one JSON document on local disk,
// read fully on load and rewritten fully on store.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the data directory if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		dir = "./data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(collection string) string {
	return filepath.Join(b.dir, collection+".json")
}

// Load reads the collection document; nil when the file does not exist yet.
func (b *FileBackend) Load(_ context.Context, collection string) ([]byte, error) {
	data, err := os.ReadFile(b.path(collection))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

// Store rewrites the collection document.
func (b *FileBackend) Store(_ context.Context, collection string, data []byte) error {
	return os.WriteFile(b.path(collection), data, 0o644)
}

// Status reports a durable file backend.
func (b *FileBackend) Status() Status {
	return Status{Kind: KindFile, Durable: true}
}
