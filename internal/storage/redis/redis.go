// Package redis provides a Redis-backed implementation of the storage.KV interface.
//
// Every key is stored as a hash with two fields, "value" and "version".
// CompareAndSwap is implemented with WATCH/MULTI so that a concurrent writer
// touching the same key aborts the transaction instead of being overwritten.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/carttrack/internal/storage"
)

const (
	fieldValue   = "value"
	fieldVersion = "version"
)

var (
	// ErrEmptyConnectionURL is returned when no Redis URL is configured.
	ErrEmptyConnectionURL = errors.New("empty redis connection url")
	// ErrRedisNotReady is returned when Redis does not answer PING within the retry budget.
	ErrRedisNotReady = errors.New("redis did not become ready")
)

// Ensure Store implements storage.KV
var _ storage.KV = (*Store)(nil)

// Config holds connection settings.
type Config struct {
	URL           string
	KeyPrefix     string
	RetryAttempts int
	RetryInterval time.Duration
}

// Store implements storage.KV on top of a go-redis client.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// Connect parses the URL, dials Redis and verifies it with PING,
// retrying with a linearly growing delay.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, ErrEmptyConnectionURL
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	attempts := max(cfg.RetryAttempts, 1)
	client := redis.NewClient(opts)

	var pingErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if pingErr = client.Ping(ctx).Err(); pingErr == nil {
			return NewWithClient(client, cfg.KeyPrefix), nil
		}
		slog.Warn("Redis ping failed", "attempt", attempt, "max_attempts", attempts, "error", pingErr)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			client.Close()
			return nil, fmt.Errorf("%w: %w", ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval * time.Duration(attempt)):
		}
	}

	client.Close()
	return nil, fmt.Errorf("%w: %w", ErrRedisNotReady, pingErr)
}

// NewWithClient wraps an existing client. prefix is prepended to every key.
func NewWithClient(client redis.UniversalClient, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping verifies Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Get retrieves the value and version stored under key.
func (s *Store) Get(ctx context.Context, key string) (storage.Entry, error) {
	fields, err := s.client.HGetAll(ctx, s.key(key)).Result()
	if err != nil {
		return storage.Entry{}, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	raw, ok := fields[fieldValue]
	if !ok {
		return storage.Entry{}, storage.ErrNotFound
	}

	version, err := strconv.ParseInt(fields[fieldVersion], 10, 64)
	if err != nil {
		return storage.Entry{}, fmt.Errorf("failed to parse version of key %s: %w", key, err)
	}
	return storage.Entry{Value: []byte(raw), Version: version}, nil
}

// Put writes value unconditionally, bumping the version.
func (s *Store) Put(ctx context.Context, key string, value []byte) (int64, error) {
	version, err := s.write(ctx, s.client, s.key(key), value)
	if err != nil {
		return 0, fmt.Errorf("failed to put key %s: %w", key, err)
	}
	return version, nil
}

// CompareAndSwap writes value only if the stored version equals expected.
func (s *Store) CompareAndSwap(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	k := s.key(key)

	var version int64
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, k, fieldVersion).Int64()
		if errors.Is(err, redis.Nil) {
			current = 0
		} else if err != nil {
			return err
		}
		if current != expected {
			return storage.ErrVersionConflict
		}

		version, err = s.write(ctx, tx, k, value)
		return err
	}, k)

	switch {
	case errors.Is(err, storage.ErrVersionConflict), errors.Is(err, redis.TxFailedErr):
		return 0, storage.ErrVersionConflict
	case err != nil:
		return 0, fmt.Errorf("failed to swap key %s: %w", key, err)
	}
	return version, nil
}

// Delete removes the key. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// txPipeliner is satisfied by both the client and a WATCH transaction.
type txPipeliner interface {
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
}

// write sets the value and increments the version in one MULTI/EXEC block.
func (s *Store) write(ctx context.Context, c txPipeliner, k string, value []byte) (int64, error) {
	var incr *redis.IntCmd
	_, err := c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, fieldValue, value)
		incr = pipe.HIncrBy(ctx, k, fieldVersion, 1)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (s *Store) key(k string) string {
	return s.prefix + k
}
