package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"radiograb/internal/catalog"
	"radiograb/internal/config"
	"radiograb/internal/fetch"
	"radiograb/internal/fetchcache"
	"radiograb/internal/logging"
	"radiograb/internal/services"
)

// catalogSession bundles the cache, HTTP client, and catalog fetcher one
// command uses. close must run so cached pages reach the backend.
type catalogSession struct {
	cfg     *config.Config
	logger  *slog.Logger
	cache   *fetchcache.Service
	fetcher *catalog.Fetcher
}

func openCatalogSession(ctx context.Context, cfg *config.Config, logger *slog.Logger, noCache bool) (*catalogSession, error) {
	cache, err := fetchcache.Open(ctx, cfg, logger)
	if err != nil {
		logging.WarnWithContext(logger, "fetch cache unavailable; using memory only", "cache_unavailable",
			logging.Error(err),
			logging.String("backend", cfg.Cache.Backend),
			logging.String(logging.FieldErrorHint, "check cache.backend settings"),
			logging.String(logging.FieldImpact, "catalog pages are fetched again next run"),
		)
		cache = fetchcache.New(fetchcache.NewMemoryBackend(), cfg.CacheTTL(), logger)
	}

	client := fetch.NewFromConfig(cfg, cache, noCache, logger)
	fetcher, err := catalog.NewFromConfig(cfg, client, logger)
	if err != nil {
		_ = cache.Close(ctx)
		return nil, services.Wrap(services.ErrConfiguration, "startup", "catalog", "", err)
	}
	return &catalogSession{cfg: cfg, logger: logger, cache: cache, fetcher: fetcher}, nil
}

// flush persists pending cache entries. Failures only cost a refetch.
func (s *catalogSession) flush(ctx context.Context) {
	if err := s.cache.Flush(ctx); err != nil {
		logging.WarnWithContext(s.logger, "fetch cache flush failed", "cache_flush_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "catalog pages are fetched again next run"),
		)
	}
}

func (s *catalogSession) close(ctx context.Context) {
	// Flush must not be skipped because the run was interrupted.
	ctx = context.WithoutCancel(ctx)
	if err := s.cache.Close(ctx); err != nil {
		logging.WarnWithContext(s.logger, "fetch cache close failed", "cache_close_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "catalog pages are fetched again next run"),
		)
	}
}

// resolveRange turns the --from/--to flags into inclusive day bounds. Empty
// flags fall back to the lookback window ending yesterday.
func resolveRange(from, to string, lookbackDays int, loc *time.Location, now time.Time) (time.Time, time.Time, error) {
	start, end := catalog.DefaultRange(now.In(loc), lookbackDays)
	var err error
	if from != "" {
		if start, err = catalog.ParseDate(from, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--from: %w", err)
		}
	}
	if to != "" {
		if end, err = catalog.ParseDate(to, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--to: %w", err)
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("--to must not be before --from")
	}
	return start, end, nil
}
