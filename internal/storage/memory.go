package storage

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// MemoryBackend holds collection documents only in process memory. It is a
// documented degraded mode: every write logs a durability warning so
// operators cannot mistake it for persistent storage.
type MemoryBackend struct {
	mu   sync.RWMutex
	docs map[string][]byte
	log  *zap.Logger
}

// NewMemoryBackend returns an explicitly constructed volatile store.
func NewMemoryBackend(log *zap.Logger) *MemoryBackend {
	return &MemoryBackend{
		docs: map[string][]byte{},
		log:  log,
	}
}

// Load returns the in-memory document; nil when never written.
func (b *MemoryBackend) Load(_ context.Context, collection string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	doc, ok := b.docs[collection]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(doc))
	copy(out, doc)
	return out, nil
}

// Store replaces the in-memory document and warns about volatility.
func (b *MemoryBackend) Store(_ context.Context, collection string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	doc := make([]byte, len(data))
	copy(doc, data)
	b.docs[collection] = doc
	b.log.Warn("write to volatile in-memory storage, data will be lost on restart",
		zap.String("collection", collection))
	return nil
}

// Status reports a non-durable backend.
func (b *MemoryBackend) Status() Status {
	return Status{
		Kind:    KindMemory,
		Durable: false,
		Warning: "in-memory storage: data does not survive process restart",
	}
}
