package database

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"bilah/internal/models"
	"bilah/internal/storage"
)

const schemaVersion = 1

// Entity is the behavior the generic repository needs from a catalog record.
// Product and Article implement it on their pointer types.
type Entity interface {
	EntityID() string
	SetEntityID(string)
	Kind() string
	IDPrefix() string
	Stamps() (created, updated time.Time)
	SetStamps(created, updated time.Time)
	MissingFields() []string
}

// Metadata is derived from the record set on every write. It is never
// authoritative on its own.
type Metadata struct {
	Version   int            `json:"version"`
	CreatedAt time.Time      `json:"createdAt"`
	Count     int            `json:"count"`
	Counts    map[string]int `json:"counts"`
}

// document is the single JSON document each backend stores per collection.
type document[T any] struct {
	Version   int            `json:"version"`
	CreatedAt time.Time      `json:"createdAt"`
	Count     int            `json:"count"`
	Counts    map[string]int `json:"counts"`
	Records   []T            `json:"records"`
}

// Repository provides CRUD with upsert semantics over one named collection.
// Reads decode the full document; writes rewrite it whole. A per-repository
// lock keeps at most one write in flight, in submission order. Writers in
// other processes sharing the same backend are not coordinated:
// last-write-wins.
type Repository[T any, PT interface {
	*T
	Entity
}] struct {
	mu        sync.RWMutex
	backend   storage.Backend
	name      string
	normalize func(map[string]any) T
	log       *zap.Logger
}

// ProductRepository stores the unified knife/tool records.
type ProductRepository = Repository[models.Product, *models.Product]

// ArticleRepository stores news, knowledge and blog records.
type ArticleRepository = Repository[models.Article, *models.Article]

// NewProductRepository builds the products repository on the given backend.
func NewProductRepository(backend storage.Backend, log *zap.Logger) *ProductRepository {
	return &ProductRepository{
		backend:   backend,
		name:      "products",
		normalize: models.NormalizeProduct,
		log:       log,
	}
}

// NewArticleRepository builds the articles repository on the given backend.
func NewArticleRepository(backend storage.Backend, log *zap.Logger) *ArticleRepository {
	return &ArticleRepository{
		backend:   backend,
		name:      "articles",
		normalize: models.NormalizeArticle,
		log:       log,
	}
}

func (r *Repository[T, PT]) load(ctx context.Context) (document[T], error) {
	var doc document[T]
	data, err := r.backend.Load(ctx, r.name)
	if err != nil {
		return doc, fmt.Errorf("load %s: %w", r.name, err)
	}
	if data == nil {
		doc.Version = schemaVersion
		doc.Records = []T{}
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode %s: %w", r.name, err)
	}
	if doc.Records == nil {
		doc.Records = []T{}
	}
	return doc, nil
}

// persist recomputes metadata from the record set and rewrites the document.
func (r *Repository[T, PT]) persist(ctx context.Context, doc document[T]) error {
	doc.Version = schemaVersion
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	doc.Count = len(doc.Records)
	doc.Counts = map[string]int{}
	for i := range doc.Records {
		doc.Counts[PT(&doc.Records[i]).Kind()]++
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.name, err)
	}
	if err := r.backend.Store(ctx, r.name, data); err != nil {
		return fmt.Errorf("store %s: %w", r.name, err)
	}
	return nil
}

// ReadAll returns the full collection in stored order.
func (r *Repository[T, PT]) ReadAll(ctx context.Context) ([]T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Records, nil
}

// ReadByID returns the record with the given id, or nil when absent.
// A miss is not an error.
func (r *Repository[T, PT]) ReadByID(ctx context.Context, id string) (*T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range doc.Records {
		if PT(&doc.Records[i]).EntityID() == id {
			rec := doc.Records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

// ReadByKind filters the collection by subtype.
func (r *Repository[T, PT]) ReadByKind(ctx context.Context, kind string) ([]T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := []T{}
	for i := range doc.Records {
		if PT(&doc.Records[i]).Kind() == kind {
			out = append(out, doc.Records[i])
		}
	}
	return out, nil
}

// Metadata returns the derived collection metadata.
func (r *Repository[T, PT]) Metadata(ctx context.Context) (Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, err := r.load(ctx)
	if err != nil {
		return Metadata{}, err
	}
	counts := doc.Counts
	if counts == nil {
		counts = map[string]int{}
	}
	return Metadata{
		Version:   doc.Version,
		CreatedAt: doc.CreatedAt,
		Count:     doc.Count,
		Counts:    counts,
	}, nil
}

// UpsertOne normalizes the partial record and inserts or replaces by id.
// A blank id gets a generated one. On replace the original createdAt is
// preserved; updatedAt is always refreshed.
func (r *Repository[T, PT]) UpsertOne(ctx context.Context, raw map[string]any) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	rec := r.upsertInto(&doc, raw)
	if err := r.persist(ctx, doc); err != nil {
		var zero T
		return zero, err
	}
	return rec, nil
}

// UpsertMany applies UpsertOne semantics per item but skips records failing
// required-field validation; the valid ones are committed in one write.
// Skipped records get a log line only, no per-record report to the caller.
func (r *Repository[T, PT]) UpsertMany(ctx context.Context, raws []map[string]any) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, raw := range raws {
		rec := r.normalize(raw)
		if missing := PT(&rec).MissingFields(); len(missing) > 0 {
			r.log.Warn("skipping invalid record in bulk upsert",
				zap.String("collection", r.name),
				zap.Strings("missing", missing))
			continue
		}
		r.upsertInto(&doc, raw)
		applied++
	}
	if applied == 0 {
		return 0, nil
	}
	if err := r.persist(ctx, doc); err != nil {
		return 0, err
	}
	return applied, nil
}

// UpdateByID merges the partial over the existing record, re-normalizes and
// persists. Returns nil (not an error) when the id does not exist. The id
// and createdAt never change.
func (r *Repository[T, PT]) UpdateByID(ctx context.Context, id string, raw map[string]any) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range doc.Records {
		if PT(&doc.Records[i]).EntityID() == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, nil
	}

	merged, err := mergeRecord(doc.Records[idx], raw)
	if err != nil {
		return nil, err
	}
	rec := r.normalize(merged)
	created, _ := PT(&doc.Records[idx]).Stamps()
	PT(&rec).SetEntityID(id)
	PT(&rec).SetStamps(created, time.Now().UTC())
	doc.Records[idx] = rec
	if err := r.persist(ctx, doc); err != nil {
		return nil, err
	}
	out := rec
	return &out, nil
}

// DeleteByID removes the record and reports whether one existed.
func (r *Repository[T, PT]) DeleteByID(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	for i := range doc.Records {
		if PT(&doc.Records[i]).EntityID() == id {
			doc.Records = append(doc.Records[:i], doc.Records[i+1:]...)
			if err := r.persist(ctx, doc); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// ReplaceAll discards the current record set and loads the given partials as
// the new collection, skipping invalid ones. Used by CSV replace mode.
func (r *Repository[T, PT]) ReplaceAll(ctx context.Context, raws []map[string]any) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	doc.Records = []T{}
	for _, raw := range raws {
		rec := r.normalize(raw)
		if missing := PT(&rec).MissingFields(); len(missing) > 0 {
			r.log.Warn("skipping invalid record in replace import",
				zap.String("collection", r.name),
				zap.Strings("missing", missing))
			continue
		}
		r.upsertInto(&doc, raw)
	}
	if err := r.persist(ctx, doc); err != nil {
		return 0, err
	}
	return len(doc.Records), nil
}

// ExistingIDs returns the set of ids currently in the collection. CSV append
// mode uses it to skip rows whose id is already taken.
func (r *Repository[T, PT]) ExistingIDs(ctx context.Context) (map[string]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(doc.Records))
	for i := range doc.Records {
		ids[PT(&doc.Records[i]).EntityID()] = true
	}
	return ids, nil
}

// upsertInto applies a single normalized upsert to the in-memory document.
// Callers hold the write lock and persist afterwards.
func (r *Repository[T, PT]) upsertInto(doc *document[T], raw map[string]any) T {
	rec := r.normalize(raw)
	pt := PT(&rec)
	if strings.TrimSpace(pt.EntityID()) == "" {
		pt.SetEntityID(generateID(pt.IDPrefix()))
	}
	now := time.Now().UTC()
	for i := range doc.Records {
		if PT(&doc.Records[i]).EntityID() == pt.EntityID() {
			created, _ := PT(&doc.Records[i]).Stamps()
			pt.SetStamps(created, now)
			doc.Records[i] = rec
			return rec
		}
	}
	pt.SetStamps(now, now)
	doc.Records = append(doc.Records, rec)
	return rec
}

// mergeRecord overlays the partial onto the JSON form of the existing
// record, so an update only touches the fields the caller sent.
func mergeRecord(existing any, raw map[string]any) (map[string]any, error) {
	data, err := json.Marshal(existing)
	if err != nil {
		return nil, err
	}
	merged := map[string]any{}
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range raw {
		merged[k] = v
	}
	return merged, nil
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// generateID builds a subtype-prefixed id: base-36 timestamp plus a short
// random suffix. Collisions are accepted as negligible, not checked.
func generateID(prefix string) string {
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = base36[rand.Intn(len(base36))]
	}
	return prefix + strconv.FormatInt(time.Now().UnixMilli(), 36) + string(suffix)
}
