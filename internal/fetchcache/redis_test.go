package fetchcache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisBackend) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	backend := NewRedisBackend(client, "radiograb:fetch:")
	t.Cleanup(func() { _ = backend.Close() })
	return mr, backend
}

func TestRedisStoreLoad(t *testing.T) {
	ctx := context.Background()
	mr, backend := setupMiniRedis(t)
	storedAt := time.Now().Truncate(time.Millisecond)

	if err := backend.Store(ctx, map[string]Entry{"page": {Value: "<html>", StoredAt: storedAt}}, time.Hour); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}
	if !mr.Exists("radiograb:fetch:page") {
		t.Fatal("expected prefixed key in redis")
	}
	if ttl := mr.TTL("radiograb:fetch:page"); ttl <= 0 || ttl > time.Hour {
		t.Fatalf("expected expiry within the ttl, got %s", ttl)
	}

	entry, ok, err := backend.Load(ctx, "page")
	if err != nil || !ok {
		t.Fatalf("expected entry, ok=%v err=%v", ok, err)
	}
	if entry.Value != "<html>" || !entry.StoredAt.Equal(storedAt) {
		t.Fatalf("unexpected entry %+v", entry)
	}

	mr.FastForward(2 * time.Hour)
	if _, ok, _ := backend.Load(ctx, "page"); ok {
		t.Fatal("expected redis to expire the entry")
	}
}

func TestRedisSkipsStaleEntries(t *testing.T) {
	ctx := context.Background()
	mr, backend := setupMiniRedis(t)
	err := backend.Store(ctx, map[string]Entry{"old": {Value: "x", StoredAt: time.Now().Add(-2 * time.Hour)}}, time.Hour)
	if err != nil {
		t.Fatalf("Store returned error: %v", err)
	}
	if mr.Exists("radiograb:fetch:old") {
		t.Fatal("stale entry must not be written")
	}
}

func TestRedisClearOnlyTouchesPrefix(t *testing.T) {
	ctx := context.Background()
	mr, backend := setupMiniRedis(t)
	if err := mr.Set("unrelated", "keep"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	entries := map[string]Entry{
		"a": {Value: "1", StoredAt: time.Now()},
		"b": {Value: "2", StoredAt: time.Now()},
	}
	if err := backend.Store(ctx, entries, 0); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}
	if n, err := backend.Count(ctx); err != nil || n != 2 {
		t.Fatalf("expected 2 entries, got %d err=%v", n, err)
	}

	removed, err := backend.Clear(ctx)
	if err != nil || removed != 2 {
		t.Fatalf("expected 2 removed, got %d err=%v", removed, err)
	}
	if !mr.Exists("unrelated") {
		t.Fatal("clear removed a key outside the prefix")
	}
}

func TestOpenRedisRejectsBadURL(t *testing.T) {
	if _, err := OpenRedis(context.Background(), "not a url", "p:"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestOpenRedisPings(t *testing.T) {
	mr := miniredis.RunT(t)
	backend, err := OpenRedis(context.Background(), "redis://"+mr.Addr()+"/0", "p:")
	if err != nil {
		t.Fatalf("OpenRedis returned error: %v", err)
	}
	_ = backend.Close()
}
