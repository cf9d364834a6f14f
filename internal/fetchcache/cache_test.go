package fetchcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"radiograb/internal/config"
	"radiograb/internal/logging"
)

type failingBackend struct {
	*MemoryBackend
	loadErr  error
	storeErr error
}

func (f *failingBackend) Load(ctx context.Context, key string) (Entry, bool, error) {
	if f.loadErr != nil {
		return Entry{}, false, f.loadErr
	}
	return f.MemoryBackend.Load(ctx, key)
}

func (f *failingBackend) Store(ctx context.Context, entries map[string]Entry, ttl time.Duration) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	return f.MemoryBackend.Store(ctx, entries, ttl)
}

func newTestService(backend Backend, ttl time.Duration, now time.Time) *Service {
	svc := New(backend, ttl, logging.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func TestServiceGetPutWithinTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2014, 11, 2, 12, 0, 0, 0, time.UTC)
	svc := newTestService(NewMemoryBackend(), 24*time.Hour, now)

	if _, ok := svc.Get(ctx, "http://example.invalid/a"); ok {
		t.Fatal("expected miss on empty cache")
	}
	svc.Put(ctx, "http://example.invalid/a", "body", now.Add(-23*time.Hour))
	got, ok := svc.Get(ctx, "http://example.invalid/a")
	if !ok || got != "body" {
		t.Fatalf("expected cached body, got %q ok=%v", got, ok)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.Hits != 1 || stats.Misses != 1 || stats.Stores != 1 || stats.Pending != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestServiceTreatsExpiredEntriesAsMisses(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2014, 11, 2, 12, 0, 0, 0, time.UTC)
	svc := newTestService(NewMemoryBackend(), 24*time.Hour, now)

	svc.Put(ctx, "k", "stale", now.Add(-24*time.Hour))
	if _, ok := svc.Get(ctx, "k"); ok {
		t.Fatal("entry exactly one TTL old must be a miss")
	}
}

func TestServiceFlushPersistsToBackend(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	backend := NewMemoryBackend()
	svc := newTestService(backend, time.Hour, now)

	svc.Put(ctx, "k1", "v1", now)
	svc.Put(ctx, "k2", "v2", now)
	if n, _ := backend.Count(ctx); n != 0 {
		t.Fatalf("expected nothing persisted before flush, got %d", n)
	}
	if err := svc.Flush(ctx); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if n, _ := backend.Count(ctx); n != 2 {
		t.Fatalf("expected 2 persisted entries, got %d", n)
	}

	// A second service sharing the backend sees the flushed entries.
	other := newTestService(backend, time.Hour, now)
	if got, ok := other.Get(ctx, "k2"); !ok || got != "v2" {
		t.Fatalf("expected flushed entry to load, got %q ok=%v", got, ok)
	}
	stats, _ := svc.Stats(ctx)
	if stats.Pending != 0 {
		t.Fatalf("expected no pending entries after flush, got %d", stats.Pending)
	}
}

func TestServiceFlushFailureKeepsEntriesPending(t *testing.T) {
	ctx := context.Background()
	backend := &failingBackend{MemoryBackend: NewMemoryBackend(), storeErr: errors.New("disk full")}
	svc := newTestService(backend, time.Hour, time.Now())

	svc.Put(ctx, "k", "v", time.Time{})
	if err := svc.Flush(ctx); err == nil {
		t.Fatal("expected flush error")
	}
	stats, _ := svc.Stats(ctx)
	if stats.Pending != 1 {
		t.Fatalf("expected entry to stay pending, got %d", stats.Pending)
	}
}

func TestServiceLoadFailureIsAMiss(t *testing.T) {
	backend := &failingBackend{MemoryBackend: NewMemoryBackend(), loadErr: errors.New("connection refused")}
	svc := newTestService(backend, time.Hour, time.Now())
	if _, ok := svc.Get(context.Background(), "k"); ok {
		t.Fatal("expected miss when backend fails")
	}
}

func TestServiceClear(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	svc := newTestService(backend, time.Hour, time.Now())
	svc.Put(ctx, "k", "v", time.Time{})
	if err := svc.Flush(ctx); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	removed, err := svc.Clear(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("expected one entry removed, got %d err=%v", removed, err)
	}
	if _, ok := svc.Get(ctx, "k"); ok {
		t.Fatal("expected miss after clear")
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Cache.Backend = config.CacheBackendSQLite
	cfg.Cache.Path = t.TempDir() + "/cache.db"

	svc, err := Open(ctx, &cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close(ctx) })
	if svc.backend.Name() != "sqlite" {
		t.Fatalf("expected sqlite backend, got %s", svc.backend.Name())
	}
	if svc.TTL() != cfg.CacheTTL() {
		t.Fatalf("expected ttl %s, got %s", cfg.CacheTTL(), svc.TTL())
	}

	cfg.Cache.Backend = "memcached"
	if _, err := Open(ctx, &cfg, logging.NewNop()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
