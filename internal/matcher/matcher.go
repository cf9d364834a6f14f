package matcher

import (
	"context"
	"log/slog"
	"sync"

	"radiograb/internal/broadcast"
	"radiograb/internal/logging"
	"radiograb/internal/rules"
)

// Enricher attaches detail text to a record. It must not fail; on error it
// returns the record unenriched.
type Enricher interface {
	Enrich(ctx context.Context, rec broadcast.Record) broadcast.Enriched
}

// EnricherFunc adapts a function to Enricher.
type EnricherFunc func(ctx context.Context, rec broadcast.Record) broadcast.Enriched

func (f EnricherFunc) Enrich(ctx context.Context, rec broadcast.Record) broadcast.Enriched {
	return f(ctx, rec)
}

// Matcher finds rule matches and memoizes enrichment by broadcast id.
type Matcher struct {
	enricher Enricher
	logger   *slog.Logger

	mu       sync.Mutex
	enriched map[string]broadcast.Enriched
}

// New builds a Matcher. A nil enricher leaves records unenriched.
func New(enricher Enricher, logger *slog.Logger) *Matcher {
	return &Matcher{
		enricher: enricher,
		logger:   logging.NewComponentLogger(logger, "matcher"),
		enriched: make(map[string]broadcast.Enriched),
	}
}

// FindMatches evaluates every rule against every record and returns the
// matches grouped by rule. Enrichment happens only for matched records.
func (m *Matcher) FindMatches(ctx context.Context, ruleSet []rules.Rule, records []broadcast.Record) *MatchSet {
	set := NewMatchSet()
	m.AddMatches(ctx, set, ruleSet, records)
	return set
}

// AddMatches adds the matches of records to set and returns how many new
// pairs were inserted.
func (m *Matcher) AddMatches(ctx context.Context, set *MatchSet, ruleSet []rules.Rule, records []broadcast.Record) int {
	added := 0
	for _, rule := range ruleSet {
		matched := 0
		for _, rec := range records {
			if !rule.Matches(rec) {
				continue
			}
			matched++
			if set.Contains(rule.Name, rec.ID) {
				continue
			}
			if set.Add(rule, m.enrich(ctx, rec)) {
				added++
				m.logger.Debug("broadcast matched",
					logging.String(logging.FieldRule, rule.Name),
					logging.String(logging.FieldBroadcastID, rec.ID),
					logging.String("broadcast", rec.String()),
				)
			}
		}
		m.logger.Info("rule evaluated",
			logging.String(logging.FieldRule, rule.Name),
			logging.Int("matches", matched),
			logging.Int("records", len(records)),
		)
	}
	return added
}

// Enriched returns how many distinct records were enriched so far.
func (m *Matcher) Enriched() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.enriched)
}

func (m *Matcher) enrich(ctx context.Context, rec broadcast.Record) broadcast.Enriched {
	m.mu.Lock()
	cached, ok := m.enriched[rec.ID]
	m.mu.Unlock()
	if ok {
		return cached
	}

	out := broadcast.Bare(rec)
	if m.enricher != nil {
		out = m.enricher.Enrich(ctx, rec)
	}
	m.mu.Lock()
	m.enriched[rec.ID] = out
	m.mu.Unlock()
	return out
}
