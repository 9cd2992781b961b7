package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"bilah/internal/models"
	"bilah/internal/storage"
)

// MessageStore is the append-only contact inbox, kept as one document on the
// same backend as the catalog collections.
type MessageStore struct {
	mu      sync.RWMutex
	backend storage.Backend
	log     *zap.Logger
}

type messageDocument struct {
	Version   int              `json:"version"`
	CreatedAt time.Time        `json:"createdAt"`
	Count     int              `json:"count"`
	Records   []models.Message `json:"records"`
}

// NewMessageStore builds the inbox on the given backend.
func NewMessageStore(backend storage.Backend, log *zap.Logger) *MessageStore {
	return &MessageStore{backend: backend, log: log}
}

func (s *MessageStore) load(ctx context.Context) (messageDocument, error) {
	var doc messageDocument
	data, err := s.backend.Load(ctx, "messages")
	if err != nil {
		return doc, fmt.Errorf("load messages: %w", err)
	}
	if data == nil {
		doc.Version = schemaVersion
		doc.Records = []models.Message{}
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode messages: %w", err)
	}
	if doc.Records == nil {
		doc.Records = []models.Message{}
	}
	return doc, nil
}

// Append stores a new message with a generated id and timestamp.
func (s *MessageStore) Append(ctx context.Context, msg models.Message) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return models.Message{}, err
	}
	msg.ID = generateID("m_")
	msg.CreatedAt = time.Now().UTC()
	doc.Records = append(doc.Records, msg)

	doc.Version = schemaVersion
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	doc.Count = len(doc.Records)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return models.Message{}, fmt.Errorf("encode messages: %w", err)
	}
	if err := s.backend.Store(ctx, "messages", data); err != nil {
		return models.Message{}, fmt.Errorf("store messages: %w", err)
	}
	return msg, nil
}

// List returns every stored message in insertion order.
func (s *MessageStore) List(ctx context.Context) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Records, nil
}
