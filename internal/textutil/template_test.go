package textutil

import (
	"errors"
	"testing"
)

func TestRender(t *testing.T) {
	fields := map[string]string{"Y": "2014", "m": "11", "d": "01", "title": "Journal", "SECTION": "News"}
	tests := []struct {
		tmpl string
		want string
	}{
		{"{Y}-{m}-{d} {title}", "2014-11-01 Journal"},
		{"{SECTION}", "News"},
		{"no placeholders", "no placeholders"},
		{"{{literal}} {title}", "{literal} Journal"},
		{"", ""},
	}
	for _, tt := range tests {
		got, err := Render(tt.tmpl, fields)
		if err != nil {
			t.Fatalf("Render(%q) returned error: %v", tt.tmpl, err)
		}
		if got != tt.want {
			t.Fatalf("Render(%q) = %q, want %q", tt.tmpl, got, tt.want)
		}
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	fields := map[string]string{"a": "1", "b": "2", "c": "3"}
	first, err := Render("{c}{a}{b}{a}", fields)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	for i := 0; i < 50; i++ {
		again, _ := Render("{c}{a}{b}{a}", fields)
		if again != first {
			t.Fatalf("render changed between calls: %q vs %q", first, again)
		}
	}
}

func TestRenderUnknownPlaceholder(t *testing.T) {
	_, err := Render("{Y} {nope}", map[string]string{"Y": "2014"})
	if !errors.Is(err, ErrUnknownPlaceholder) {
		t.Fatalf("expected ErrUnknownPlaceholder, got %v", err)
	}
}

func TestRenderSyntaxErrors(t *testing.T) {
	for _, tmpl := range []string{"{Y", "Y}", "{}", "{bad name}", "{1x}"} {
		if _, err := Render(tmpl, map[string]string{"Y": "2014"}); !errors.Is(err, ErrTemplateSyntax) {
			t.Fatalf("Render(%q): expected ErrTemplateSyntax, got %v", tmpl, err)
		}
	}
}

func TestPlaceholdersSkipEscapedBraces(t *testing.T) {
	names, err := Placeholders("{a}{{x}}{b}")
	if err != nil || len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected placeholders %v (err=%v)", names, err)
	}
}
