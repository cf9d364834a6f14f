package fetchcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"radiograb/internal/config"
	"radiograb/internal/logging"
)

// Entry is one memoized page body and the time it was fetched.
type Entry struct {
	Value    string
	StoredAt time.Time
}

// Backend persists entries between runs.
type Backend interface {
	Name() string
	Load(ctx context.Context, key string) (Entry, bool, error)
	Store(ctx context.Context, entries map[string]Entry, ttl time.Duration) error
	Clear(ctx context.Context) (int, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Stats summarizes cache activity for the current process.
type Stats struct {
	Backend string
	Entries int
	Hits    int
	Misses  int
	Stores  int
	Pending int
}

// Service is the fetch cache used by the HTTP client.
type Service struct {
	backend Backend
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]Entry
	dirty   map[string]struct{}
	hits    int
	misses  int
	stores  int
}

// New wraps backend with an in-memory layer. A nil backend keeps entries in
// memory only.
func New(backend Backend, ttl time.Duration, logger *slog.Logger) *Service {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	return &Service{
		backend: backend,
		ttl:     ttl,
		logger:  logging.NewComponentLogger(logger, "fetchcache"),
		now:     time.Now,
		entries: make(map[string]Entry),
		dirty:   make(map[string]struct{}),
	}
}

// Open builds the backend selected by cfg.Cache.Backend.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("fetchcache: config is nil")
	}
	var (
		backend Backend
		err     error
	)
	switch cfg.Cache.Backend {
	case config.CacheBackendSQLite:
		backend, err = OpenSQLite(ctx, cfg.Cache.Path)
	case config.CacheBackendRedis:
		backend, err = OpenRedis(ctx, cfg.Cache.RedisURL, cfg.Cache.KeyPrefix)
	case config.CacheBackendMemory:
		backend = NewMemoryBackend()
	default:
		err = fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("fetchcache: open %s backend: %w", cfg.Cache.Backend, err)
	}
	return New(backend, cfg.CacheTTL(), logger), nil
}

// TTL returns the configured entry lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Get returns the cached body for key when it is younger than the TTL.
// Backend failures are logged and reported as a miss.
func (s *Service) Get(ctx context.Context, key string) (string, bool) {
	s.mu.Lock()
	entry, ok := s.entries[key]
	s.mu.Unlock()

	if !ok {
		loaded, found, err := s.backend.Load(ctx, key)
		if err != nil {
			logging.WarnWithContext(s.logger, "fetch cache lookup failed", "fetch_cache_load_failed",
				logging.String("key", key),
				logging.String("backend", s.backend.Name()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check cache settings or run 'radiograb cache clear'"),
				logging.String(logging.FieldImpact, "page will be fetched again"),
			)
		}
		if found {
			entry, ok = loaded, true
			s.mu.Lock()
			if _, exists := s.entries[key]; !exists {
				s.entries[key] = loaded
			}
			s.mu.Unlock()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok || s.expired(entry) {
		s.misses++
		s.logger.Debug("cache miss", logging.String("key", key))
		return "", false
	}
	s.hits++
	s.logger.Debug("using cached result", logging.String("key", key), logging.String("stored_at", entry.StoredAt.Format(time.RFC3339)))
	return entry.Value, true
}

// Put records value for key as fetched at ts. It is persisted on the next Flush.
func (s *Service) Put(_ context.Context, key, value string, ts time.Time) {
	if ts.IsZero() {
		ts = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = Entry{Value: value, StoredAt: ts}
	s.dirty[key] = struct{}{}
	s.stores++
}

// Flush writes entries stored since the previous flush to the backend.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.Lock()
	if len(s.dirty) == 0 {
		s.mu.Unlock()
		return nil
	}
	pending := make(map[string]Entry, len(s.dirty))
	for key := range s.dirty {
		pending[key] = s.entries[key]
	}
	s.mu.Unlock()

	if err := s.backend.Store(ctx, pending, s.ttl); err != nil {
		return fmt.Errorf("fetchcache: flush %d entries to %s: %w", len(pending), s.backend.Name(), err)
	}

	s.mu.Lock()
	for key, entry := range pending {
		if current, ok := s.entries[key]; ok && current == entry {
			delete(s.dirty, key)
		}
	}
	s.mu.Unlock()
	s.logger.Info("wrote fetch cache",
		logging.Int("entries", len(pending)),
		logging.String("backend", s.backend.Name()),
	)
	return nil
}

// Clear drops every entry from memory and the backend and returns the number
// of persisted entries removed.
func (s *Service) Clear(ctx context.Context) (int, error) {
	s.mu.Lock()
	s.entries = make(map[string]Entry)
	s.dirty = make(map[string]struct{})
	s.mu.Unlock()
	removed, err := s.backend.Clear(ctx)
	if err != nil {
		return removed, fmt.Errorf("fetchcache: clear %s: %w", s.backend.Name(), err)
	}
	return removed, nil
}

// Stats reports counters for this process and the number of persisted entries.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	count, err := s.backend.Count(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := Stats{
		Backend: s.backend.Name(),
		Entries: count,
		Hits:    s.hits,
		Misses:  s.misses,
		Stores:  s.stores,
		Pending: len(s.dirty),
	}
	if err != nil {
		return stats, fmt.Errorf("fetchcache: count %s: %w", s.backend.Name(), err)
	}
	return stats, nil
}

// Close flushes pending entries and releases the backend.
func (s *Service) Close(ctx context.Context) error {
	flushErr := s.Flush(ctx)
	return errors.Join(flushErr, s.backend.Close())
}

func (s *Service) expired(entry Entry) bool {
	if s.ttl <= 0 {
		return false
	}
	return !s.now().Before(entry.StoredAt.Add(s.ttl))
}
