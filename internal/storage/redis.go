package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBackend stores each collection document under a fixed key in a
// remote key-value service, for deployments without a persistent disk.
type RedisBackend struct {
	client   *redis.Client
	hasCreds bool
	log      *zap.Logger
}

// NewRedisBackend connects to the configured endpoint. The connection is
// verified once so a misconfigured endpoint fails at startup, not on the
// first request.
func NewRedisBackend(opts Options, log *zap.Logger) (*RedisBackend, error) {
	if opts.RedisAddr == "" {
		return nil, errors.New("redis backend selected but no address configured")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisBackend{
		client:   client,
		hasCreds: opts.RedisPassword != "",
		log:      log,
	}, nil
}

func key(collection string) string {
	return "catalog:" + collection
}

// Load fetches the collection document; nil when the key is absent.
func (b *RedisBackend) Load(ctx context.Context, collection string) ([]byte, error) {
	data, err := b.client.Get(ctx, key(collection)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", collection, err)
	}
	return data, nil
}

// Store replaces the collection document. No TTL: the catalog is the
// authoritative copy, not a cache.
func (b *RedisBackend) Store(ctx context.Context, collection string, data []byte) error {
	if err := b.client.Set(ctx, key(collection), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", collection, err)
	}
	return nil
}

// Status reports a durable remote KV backend.
func (b *RedisBackend) Status() Status {
	return Status{
		Kind:               KindRedis,
		Durable:            true,
		CredentialsPresent: b.hasCreds,
	}
}
