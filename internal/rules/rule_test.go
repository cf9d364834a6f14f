package rules_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"radiograb/internal/broadcast"
	"radiograb/internal/rules"
	"radiograb/internal/services"
	"radiograb/internal/textutil"
)

func journalRecord(t *testing.T) broadcast.Record {
	t.Helper()
	rec, err := broadcast.New(map[string]any{
		"id":         "388123",
		"title":      "Journal",
		"info":       "Nachrichten",
		"day_label":  "01.11.2014",
		"time":       "09:05",
		"url_stream": "http://example.invalid/388123.mp3",
	}, time.UTC)
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	return rec
}

func mustCompile(t *testing.T, section map[string]string) rules.Rule {
	t.Helper()
	rule, err := rules.Compile("Journal", section, nil)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	return rule
}

func TestCompileAppliesDefaults(t *testing.T) {
	rule := mustCompile(t, nil)

	if rule.Window != (rules.TimeWindow{Start: 0, End: 24 * 60}) {
		t.Fatalf("unexpected default window %v", rule.Window)
	}
	if rule.Days() != "0,1,2,3,4,5,6" {
		t.Fatalf("unexpected default days %q", rule.Days())
	}
	if rule.KeepOriginal {
		t.Fatal("expected originals to be deleted by default")
	}
	if rule.Quality != 1 {
		t.Fatalf("unexpected default quality %d", rule.Quality)
	}
	fields := make([]string, 0, len(rule.Tags))
	for _, tag := range rule.Tags {
		fields = append(fields, tag.Field)
	}
	want := []string{"album", "artist", "comment", "date", "genre", "title"}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Fatalf("default tag fields mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileLayering(t *testing.T) {
	overrides := map[string]string{"Quality": "3", "KeepOriginal": "True"}
	rule, err := rules.Compile("Journal", map[string]string{"Quality": "4"}, overrides)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	if rule.Quality != 4 {
		t.Fatalf("expected section to win over overrides, got %d", rule.Quality)
	}
	if !rule.KeepOriginal {
		t.Fatal("expected override to apply when the section is silent")
	}
}

func TestCompileRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		key   string
		value string
	}{
		{"TimeWindow", "8-10"},
		{"TimeWindow", "10:00-08:00"},
		{"TimeWindow", "08:60-10:00"},
		{"TimeWindow", "08:00-24:30"},
		{"TimeWindow", "08:00-25:00"},
		{"Days", "0,7"},
		{"Days", "mon"},
		{"Days", ""},
		{"title", "(unclosed"},
		{"info", "[a-"},
		{"Quality", "high"},
		{"Quality", "9"},
		{"KeepOriginal", "maybe"},
		{"TargetName", "{Y"},
		{"TargetName", "  "},
		{"TargetDir", "{DOWNLOAD_BASEDIR}/{SECTION"},
		{"TagTitle", "{title}}"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			_, err := rules.Compile("Broken", map[string]string{tc.key: tc.value}, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			var cfgErr *rules.ConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Key != tc.key || cfgErr.Rule != "Broken" {
				t.Fatalf("expected ConfigError for %s, got %v", tc.key, err)
			}
			if !services.IsFatal(err) {
				t.Fatalf("expected configuration errors to be fatal, got %v", err)
			}
		})
	}
}

func TestCompileAcceptsEndOfDay(t *testing.T) {
	rule := mustCompile(t, map[string]string{"TimeWindow": " 23:00 - 24:00 "})
	if rule.Window.End != 24*60 || rule.Window.String() != "23:00-24:00" {
		t.Fatalf("unexpected window %v", rule.Window)
	}
}

func TestCompileWarnsAboutUnknownKeysAndPlaceholders(t *testing.T) {
	rule := mustCompile(t, map[string]string{
		"Colour":     "blue",
		"TargetName": "{Y} {duration}",
	})
	warnings := strings.Join(rule.Warnings(), "\n")
	if !strings.Contains(warnings, "Colour") || !strings.Contains(warnings, "{duration}") {
		t.Fatalf("expected warnings for unknown key and placeholder, got %q", warnings)
	}
}

func TestScenarioWeekdayExcludesSaturday(t *testing.T) {
	rule := mustCompile(t, map[string]string{"TimeWindow": "08:00-10:00", "Days": "0,1,2,3,4"})
	if rule.Matches(journalRecord(t)) {
		t.Fatal("expected Saturday broadcast to be excluded by the weekday filter")
	}
}

func TestScenarioWeekendMatchAndRender(t *testing.T) {
	rule := mustCompile(t, map[string]string{
		"TimeWindow": "08:00-10:00",
		"Days":       "5,6",
		"title":      "journal",
		"TargetName": "{Y}-{m}-{d} {title}",
	})
	rec := journalRecord(t)
	if !rule.Matches(rec) {
		t.Fatal("expected case-insensitive title search to match on the weekend")
	}
	rendered, err := rec.Render(rule.TargetName)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if got := textutil.SanitizeFileName(rendered); got != "2014-11-01 Journal" {
		t.Fatalf("unexpected file name %q", got)
	}
}

func TestMatchesIsPure(t *testing.T) {
	rule := mustCompile(t, map[string]string{"TimeWindow": "09:05-09:05", "title": "^Jour"})
	rec := journalRecord(t)
	first := rule.Matches(rec)
	for i := 0; i < 20; i++ {
		if rule.Matches(rec) != first {
			t.Fatal("Matches changed result between identical calls")
		}
	}
	if !first {
		t.Fatal("expected inclusive single-minute window to match")
	}
}

func TestMatchesInfoFilter(t *testing.T) {
	rule := mustCompile(t, map[string]string{"info": "sport"})
	if rule.Matches(journalRecord(t)) {
		t.Fatal("expected info filter to exclude the broadcast")
	}
}

func TestCompileAllSortsAndJoinsErrors(t *testing.T) {
	sections := map[string]map[string]string{
		"b": {},
		"a": {},
	}
	compiled, err := rules.CompileAll(sections, nil)
	if err != nil {
		t.Fatalf("CompileAll returned error: %v", err)
	}
	if len(compiled) != 2 || compiled[0].Name != "a" || compiled[1].Name != "b" {
		t.Fatalf("expected rules sorted by name, got %+v", compiled)
	}

	sections["c"] = map[string]string{"Days": "9"}
	sections["d"] = map[string]string{"title": "("}
	_, err = rules.CompileAll(sections, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, `rule "c"`) || !strings.Contains(msg, `rule "d"`) {
		t.Fatalf("expected both failures reported, got %q", msg)
	}
}

func TestRenderTagsToleratesPerFieldFailures(t *testing.T) {
	rule := mustCompile(t, map[string]string{"TagComposer": "{composer}", "TagAlbum": "{SECTION}"})
	fields := journalRecord(t).Fields()
	fields[rules.FieldSection] = "Journal"

	tags, err := rule.RenderTags(fields)
	if err == nil || !strings.Contains(err.Error(), "tag composer") {
		t.Fatalf("expected composer tag failure, got %v", err)
	}
	if _, ok := tags["composer"]; ok {
		t.Fatal("failed tag must be omitted")
	}
	if tags["album"] != "Journal" || tags["artist"] != "Ö1" {
		t.Fatalf("expected remaining tags to render, got %v", tags)
	}
	if tags["title"] != "2014-11-01 09:05 Journal Nachrichten (id:388123)" {
		t.Fatalf("unexpected default title tag %q", tags["title"])
	}
}
