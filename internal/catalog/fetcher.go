package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"radiograb/internal/broadcast"
	"radiograb/internal/config"
	"radiograb/internal/logging"
	"radiograb/internal/services"
)

const (
	dayURLLayout        = "20060102"
	defaultLookbackDays = 10
	listField           = "list"
)

// Texter returns the decoded body of a URL.
type Texter interface {
	Text(ctx context.Context, url string) (string, error)
}

// Fetcher pulls listings and detail pages through a Texter.
type Fetcher struct {
	client    Texter
	baseURL   string
	detailURL string
	loc       *time.Location
	logger    *slog.Logger
}

// NewFetcher builds a Fetcher. Day URLs are baseURL+YYYYMMDD and detail
// URLs are detailURL+id.
func NewFetcher(client Texter, baseURL, detailURL string, loc *time.Location, logger *slog.Logger) *Fetcher {
	if loc == nil {
		loc = time.Local
	}
	return &Fetcher{
		client:    client,
		baseURL:   baseURL,
		detailURL: detailURL,
		loc:       loc,
		logger:    logging.NewComponentLogger(logger, "catalog"),
	}
}

// NewFromConfig builds a Fetcher for the configured endpoints and timezone.
func NewFromConfig(cfg *config.Config, client Texter, logger *slog.Logger) (*Fetcher, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return NewFetcher(client, cfg.Catalog.BaseURL, cfg.Catalog.DetailURL, loc, logger), nil
}

// Location returns the timezone listings are interpreted in.
func (f *Fetcher) Location() *time.Location { return f.loc }

// DayURL returns the listing URL for day.
func (f *Fetcher) DayURL(day time.Time) string {
	return f.baseURL + day.In(f.loc).Format(dayURLLayout)
}

// DetailURL returns the detail page URL for a broadcast id.
func (f *Fetcher) DetailURL(id string) string {
	return f.detailURL + id
}

// FetchRange yields every broadcast listed between start and end, both days
// inclusive, in ascending day order. Nothing is fetched until the sequence is
// ranged over, and each range starts from the first day again.
//
// Malformed entries are yielded as errors and iteration continues. Days that
// cannot be fetched or have no listing are logged and contribute nothing.
// A cancelled context yields ctx.Err() and stops.
func (f *Fetcher) FetchRange(ctx context.Context, start, end time.Time) iter.Seq2[broadcast.Record, error] {
	first := midnight(start, f.loc)
	last := midnight(end, f.loc)
	return func(yield func(broadcast.Record, error) bool) {
		for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
			if err := ctx.Err(); err != nil {
				yield(broadcast.Record{}, err)
				return
			}
			entries, err := f.fetchDay(ctx, day)
			if err != nil {
				if ctx.Err() != nil {
					yield(broadcast.Record{}, ctx.Err())
					return
				}
				if errors.Is(err, services.ErrParse) {
					if !yield(broadcast.Record{}, err) {
						return
					}
				}
				continue
			}
			for _, entry := range entries {
				rec, err := broadcast.New(entry, f.loc)
				if !yield(rec, err) {
					return
				}
			}
		}
	}
}

// Collect drains FetchRange into a slice. Entry errors are logged and dropped;
// only cancellation is returned.
func (f *Fetcher) Collect(ctx context.Context, start, end time.Time) ([]broadcast.Record, error) {
	var out []broadcast.Record
	for rec, err := range f.FetchRange(ctx, start, end) {
		if err != nil {
			if ctx.Err() != nil {
				return out, err
			}
			logging.WarnWithContext(f.logger, "skipping malformed catalog entry", "catalog_entry_invalid",
				logging.Error(err),
				logging.String(logging.FieldImpact, "broadcast is not considered for matching"),
			)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (f *Fetcher) fetchDay(ctx context.Context, day time.Time) ([]map[string]any, error) {
	url := f.DayURL(day)
	f.logger.Info("reading catalog", logging.String("url", url), logging.String("day", day.Format("2006-01-02")))

	body, err := f.client.Text(ctx, url)
	if err != nil {
		logging.WarnWithContext(f.logger, "catalog day unavailable", "catalog_fetch_failed",
			logging.String("day", day.Format("2006-01-02")),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network access to the catalog"),
			logging.String(logging.FieldImpact, "broadcasts of this day are not considered"),
		)
		return nil, err
	}

	entries, err := decodeDay(body)
	if errors.Is(err, services.ErrCatalogGap) {
		logging.WarnWithContext(f.logger, "no data for day", "catalog_gap",
			logging.String("day", day.Format("2006-01-02")),
			logging.String("url", url),
			logging.String(logging.FieldErrorHint, "the catalog may not have published this day yet"),
			logging.String(logging.FieldImpact, "day contributes no broadcasts"),
		)
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	f.logger.Debug("catalog day decoded", logging.String("url", url), logging.Int("entries", len(entries)))
	return entries, nil
}

// decodeDay extracts the entries of the list field from a listing payload.
func decodeDay(body string) ([]map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, &broadcast.ParseError{Field: "payload", Value: truncate(body, 64), Err: err}
	}
	raw, ok := payload[listField]
	if !ok || raw == nil {
		return nil, services.ErrCatalogGap
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, &broadcast.ParseError{Field: listField, Value: fmt.Sprintf("%T", raw), Err: errors.New("not an array")}
	}
	entries := make([]map[string]any, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, &broadcast.ParseError{Field: fmt.Sprintf("%s[%d]", listField, i), Value: fmt.Sprintf("%T", item), Err: errors.New("not an object")}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// DefaultRange returns the days from lookbackDays ago through yesterday,
// relative to now. A non-positive lookback uses ten days.
func DefaultRange(now time.Time, lookbackDays int) (start, end time.Time) {
	if lookbackDays <= 0 {
		lookbackDays = defaultLookbackDays
	}
	today := midnight(now, now.Location())
	return today.AddDate(0, 0, -lookbackDays), today.AddDate(0, 0, -1)
}

// ParseDate parses a YYYY-MM-DD command line date in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", value, err)
	}
	return day, nil
}

func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
