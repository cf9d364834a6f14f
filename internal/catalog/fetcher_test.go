package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"radiograb/internal/catalog"
	"radiograb/internal/fetch"
	"radiograb/internal/logging"
	"radiograb/internal/services"
)

const baseURL = "http://catalog.invalid/tag/"

type stubTexter struct {
	mu     sync.Mutex
	pages  map[string]string
	fail   map[string]error
	called []string
}

func (s *stubTexter) Text(_ context.Context, url string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.called = append(s.called, url)
	if err := s.fail[url]; err != nil {
		return "", err
	}
	body, ok := s.pages[url]
	if !ok {
		return "", fmt.Errorf("no page for %s", url)
	}
	return body, nil
}

func entry(id, title, day, clock string) string {
	return fmt.Sprintf(`{"id":%s,"title":%q,"info":"info %s","day_label":%q,"time":%q,"url_stream":"http://stream.invalid/%s.mp3"}`,
		id, title, id, day, clock, id)
}

func dayPayload(entries ...string) string {
	return `{"list":[` + strings.Join(entries, ",") + `]}`
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := catalog.ParseDate(value, time.UTC)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	return d
}

func newFetcher(texter catalog.Texter) *catalog.Fetcher {
	return catalog.NewFetcher(texter, baseURL, "http://detail.invalid/", time.UTC, logging.NewNop())
}

func TestFetchRangeOrdersDaysAndEntries(t *testing.T) {
	texter := &stubTexter{pages: map[string]string{
		baseURL + "20141101": dayPayload(entry("2", "B", "01.11.2014", "09:05"), entry("1", "A", "01.11.2014", "07:00")),
		baseURL + "20141102": dayPayload(entry("3", "C", "02.11.2014", "06:00")),
	}}
	var ids []string
	for rec, err := range newFetcher(texter).FetchRange(context.Background(), day(t, "2014-11-01"), day(t, "2014-11-02")) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ids = append(ids, rec.ID)
	}
	if diff := cmp.Diff([]string{"2", "1", "3"}, ids); diff != "" {
		t.Fatalf("record order mismatch (-want +got):\n%s", diff)
	}
	wantURLs := []string{baseURL + "20141101", baseURL + "20141102"}
	if diff := cmp.Diff(wantURLs, texter.called); diff != "" {
		t.Fatalf("fetched urls mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchRangeSkipsGapsAndTransportFailures(t *testing.T) {
	texter := &stubTexter{
		pages: map[string]string{
			baseURL + "20141101": `{"status":"unavailable"}`,
			baseURL + "20141103": dayPayload(entry("9", "Journal", "03.11.2014", "12:00")),
		},
		fail: map[string]error{baseURL + "20141102": errors.New("connection reset")},
	}
	var ids []string
	for rec, err := range newFetcher(texter).FetchRange(context.Background(), day(t, "2014-11-01"), day(t, "2014-11-03")) {
		if err != nil {
			t.Fatalf("gaps and transport failures must not surface as errors: %v", err)
		}
		ids = append(ids, rec.ID)
	}
	if diff := cmp.Diff([]string{"9"}, ids); diff != "" {
		t.Fatalf("unexpected records (-want +got):\n%s", diff)
	}
}

func TestFetchRangeYieldsParseErrorsAndContinues(t *testing.T) {
	texter := &stubTexter{pages: map[string]string{
		baseURL + "20141101": dayPayload(
			`{"id":"bad","title":"X","info":"","day_label":"31.02.2014","time":"09:00"}`,
			entry("5", "Good", "01.11.2014", "10:00"),
		),
	}}
	var (
		ids    []string
		failed int
	)
	for rec, err := range newFetcher(texter).FetchRange(context.Background(), day(t, "2014-11-01"), day(t, "2014-11-01")) {
		if err != nil {
			if !errors.Is(err, services.ErrParse) {
				t.Fatalf("expected parse error, got %v", err)
			}
			failed++
			continue
		}
		ids = append(ids, rec.ID)
	}
	if failed != 1 || len(ids) != 1 || ids[0] != "5" {
		t.Fatalf("expected one failure and record 5, got failed=%d ids=%v", failed, ids)
	}
}

func TestFetchRangeIsLazyAndRestartable(t *testing.T) {
	texter := &stubTexter{pages: map[string]string{
		baseURL + "20141101": dayPayload(entry("1", "A", "01.11.2014", "07:00")),
		baseURL + "20141102": dayPayload(entry("2", "B", "02.11.2014", "07:00")),
	}}
	seq := newFetcher(texter).FetchRange(context.Background(), day(t, "2014-11-01"), day(t, "2014-11-02"))
	if len(texter.called) != 0 {
		t.Fatal("sequence fetched before being ranged over")
	}

	for range seq {
		break
	}
	if len(texter.called) != 1 {
		t.Fatalf("expected early break to stop after the first day, got %v", texter.called)
	}

	count := 0
	for range seq {
		count++
	}
	if count != 2 || len(texter.called) != 3 {
		t.Fatalf("expected full restart, got %d records and %d fetches", count, len(texter.called))
	}
}

func TestFetchRangeStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	texter := &stubTexter{}
	for _, err := range newFetcher(texter).FetchRange(ctx, day(t, "2014-11-01"), day(t, "2014-11-05")) {
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected cancellation, got %v", err)
		}
	}
	if len(texter.called) != 0 {
		t.Fatalf("expected no fetches, got %v", texter.called)
	}
}

func TestCollectDropsMalformedEntries(t *testing.T) {
	texter := &stubTexter{pages: map[string]string{
		baseURL + "20141101": `not json`,
		baseURL + "20141102": dayPayload(entry("2", "B", "02.11.2014", "07:00")),
	}}
	records, err := newFetcher(texter).Collect(context.Background(), day(t, "2014-11-01"), day(t, "2014-11-02"))
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(records) != 1 || records[0].ID != "2" {
		t.Fatalf("unexpected records %v", records)
	}
}

func TestFetchRangeThroughHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tag/20141101" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(dayPayload(entry("388123", "Ö1 Journal", "01.11.2014", "09:05"))))
	}))
	defer srv.Close()

	client := fetch.New(fetch.WithRetry(1, time.Millisecond, time.Millisecond))
	fetcher := catalog.NewFetcher(client, srv.URL+"/tag/", srv.URL+"/detail/", time.UTC, logging.NewNop())
	records, err := fetcher.Collect(context.Background(), day(t, "2014-11-01"), day(t, "2014-11-02"))
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(records) != 1 || records[0].Title != "Ö1 Journal" || records[0].ID != "388123" {
		t.Fatalf("unexpected records %+v", records)
	}
	if records[0].Weekday() != 5 {
		t.Fatalf("expected Saturday, got weekday %d", records[0].Weekday())
	}
}

func TestDefaultRange(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	now := time.Date(2014, 11, 12, 0, 30, 0, 0, loc)
	start, end := catalog.DefaultRange(now, 0)
	if want := time.Date(2014, 11, 2, 0, 0, 0, 0, loc); !start.Equal(want) {
		t.Fatalf("start = %s, want %s", start, want)
	}
	if want := time.Date(2014, 11, 11, 0, 0, 0, 0, loc); !end.Equal(want) {
		t.Fatalf("end = %s, want %s", end, want)
	}
	start, _ = catalog.DefaultRange(now, 3)
	if start.Day() != 9 {
		t.Fatalf("expected custom lookback, got %s", start)
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	if _, err := catalog.ParseDate("01.11.2014", time.UTC); err == nil {
		t.Fatal("expected error for non ISO date")
	}
}

func TestDayURLUsesLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	f := catalog.NewFetcher(&stubTexter{}, baseURL, "", loc, nil)
	late := time.Date(2014, 11, 1, 23, 30, 0, 0, time.UTC)
	if got := f.DayURL(late); got != baseURL+"20141102" {
		t.Fatalf("expected day in catalog timezone, got %s", got)
	}
}
