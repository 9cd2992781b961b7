package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Backend kinds.
const (
	KindFile   = "file"
	KindRedis  = "redis"
	KindMemory = "memory"
)

// Backend stores whole collection documents under a collection name. Every
// read returns the full document and every write replaces it; there is no
// partial patch at this layer.
type Backend interface {
	// Load returns the stored document, or nil when the collection has
	// never been written.
	Load(ctx context.Context, collection string) ([]byte, error)
	// Store replaces the stored document.
	Store(ctx context.Context, collection string, data []byte) error
	// Status describes the backend for the diagnostic endpoint.
	Status() Status
}

// Status reports which backend is active and whether it is durable. It
// exposes the presence of credentials, never their values.
type Status struct {
	Kind               string `json:"kind"`
	Durable            bool   `json:"durable"`
	CredentialsPresent bool   `json:"credentialsPresent"`
	Warning            string `json:"warning,omitempty"`
}

// Options carries everything backend selection needs. Kind is the explicit
// choice; when empty the original capability-probing order applies.
type Options struct {
	Kind          string
	DataDir       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Select resolves the storage backend once at startup. An explicit
// Options.Kind wins; otherwise prefer a writable data dir, then a configured
// redis endpoint, then the volatile in-memory fallback with a warning.
func Select(opts Options, log *zap.Logger) (Backend, error) {
	switch opts.Kind {
	case KindFile:
		return NewFileBackend(opts.DataDir)
	case KindRedis:
		return NewRedisBackend(opts, log)
	case KindMemory:
		log.Warn("in-memory storage selected: data will not survive a restart")
		return NewMemoryBackend(log), nil
	case "":
		// fall through to probing
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Kind)
	}

	if dirWritable(opts.DataDir) {
		return NewFileBackend(opts.DataDir)
	}
	if opts.RedisAddr != "" {
		return NewRedisBackend(opts, log)
	}
	log.Warn("no durable storage available, falling back to in-memory: data will not survive a restart")
	return NewMemoryBackend(log), nil
}

func dirWritable(dir string) bool {
	if dir == "" {
		return false
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false
	}
	probe := filepath.Join(dir, ".write-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return false
	}
	os.Remove(probe)
	return true
}
