package fetchcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisDialTimeout = 5 * time.Second
	redisScanBatch   = 200
)

// RedisBackend stores entries as JSON values under a key prefix. Expiry is
// delegated to Redis.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

type redisEntry struct {
	Value    string `json:"value"`
	StoredAt int64  `json:"stored_at"`
}

// OpenRedis connects to the server described by rawURL and verifies it answers.
func OpenRedis(ctx context.Context, rawURL, prefix string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = redisDialTimeout
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return NewRedisBackend(client, prefix), nil
}

// NewRedisBackend wraps an existing client.
func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix}
}

func (b *RedisBackend) Name() string { return "redis" }

func (b *RedisBackend) Load(ctx context.Context, key string) (Entry, bool, error) {
	data, err := b.client.Get(ctx, b.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get: %w", err)
	}
	var stored redisEntry
	if err := json.Unmarshal(data, &stored); err != nil {
		return Entry{}, false, fmt.Errorf("decode %q: %w", key, err)
	}
	return Entry{Value: stored.Value, StoredAt: time.UnixMilli(stored.StoredAt)}, true, nil
}

// Store writes entries in one pipeline. Each key expires when its entry
// would have gone stale; entries that are already stale are skipped.
func (b *RedisBackend) Store(ctx context.Context, entries map[string]Entry, ttl time.Duration) error {
	pipe := b.client.TxPipeline()
	queued := 0
	for key, entry := range entries {
		expiration := time.Duration(0)
		if ttl > 0 {
			expiration = time.Until(entry.StoredAt.Add(ttl))
			if expiration <= 0 {
				continue
			}
		}
		data, err := json.Marshal(redisEntry{Value: entry.Value, StoredAt: entry.StoredAt.UnixMilli()})
		if err != nil {
			return fmt.Errorf("encode %q: %w", key, err)
		}
		pipe.Set(ctx, b.prefix+key, data, expiration)
		queued++
	}
	if queued == 0 {
		return nil
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}

// Clear deletes every key under the prefix. Other keys in the database are untouched.
func (b *RedisBackend) Clear(ctx context.Context) (int, error) {
	removed := 0
	err := b.scan(ctx, func(keys []string) error {
		n, err := b.client.Del(ctx, keys...).Result()
		removed += int(n)
		return err
	})
	return removed, err
}

func (b *RedisBackend) Count(ctx context.Context) (int, error) {
	count := 0
	err := b.scan(ctx, func(keys []string) error {
		count += len(keys)
		return nil
	})
	return count, err
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}

func (b *RedisBackend) scan(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := b.client.Scan(ctx, cursor, b.prefix+"*", redisScanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
