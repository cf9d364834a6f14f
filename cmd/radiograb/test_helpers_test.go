package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

type cliTestEnv struct {
	baseDir     string
	configPath  string
	downloadDir string
	server      *httptest.Server
	streamHits  atomic.Int32
}

const testDetailPage = `<html><body>
<div class="textbox-wide"><p>Reihe</p><p>Nachrichten aus aller Welt.</p><p>Service</p></div>
</body></html>`

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	env := &cliTestEnv{baseDir: t.TempDir()}
	t.Setenv("HOME", filepath.Join(env.baseDir, "home"))
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("RADIOGRAB_NTFY_TOPIC", "")

	mux := http.NewServeMux()
	mux.HandleFunc("/tag/", func(w http.ResponseWriter, r *http.Request) {
		day := strings.TrimPrefix(r.URL.Path, "/tag/")
		if day != "20141101" {
			fmt.Fprint(w, `{"list":[]}`)
			return
		}
		fmt.Fprintf(w, `{"list":[%s,%s]}`,
			catalogEntry(env, "388123", "Journal", "09:05"),
			catalogEntry(env, "388200", "Radiokolleg", "10:05"),
		)
	})
	mux.HandleFunc("/programm/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testDetailPage)
	})
	mux.HandleFunc("/stream/", func(w http.ResponseWriter, r *http.Request) {
		env.streamHits.Add(1)
		fmt.Fprint(w, "ID3 fake audio for "+strings.TrimPrefix(r.URL.Path, "/stream/"))
	})
	env.server = httptest.NewServer(mux)
	t.Cleanup(env.server.Close)

	env.downloadDir = filepath.Join(env.baseDir, "library")
	env.configPath = filepath.Join(env.baseDir, "radiograb.toml")
	env.writeConfig(t, `
[rules."Journal"]
title = "journal"
TargetName = "{Y}-{m}-{d} {title}"
`)
	return env
}

func catalogEntry(env *cliTestEnv, id, title, clock string) string {
	return fmt.Sprintf(`{"id":%s,"title":%q,"info":"Info %s","day_label":"01.11.2014","time":%q,"url_stream":"%s/stream/%s.mp3"}`,
		id, title, id, clock, env.server.URL, id)
}

// writeConfig writes the shared test settings followed by rulesTOML.
func (env *cliTestEnv) writeConfig(t *testing.T, rulesTOML string) {
	t.Helper()
	content := fmt.Sprintf(`
[paths]
download_dir = %q
log_dir = %q
cache_dir = %q

[catalog]
base_url = "%s/tag/"
detail_url = "%s/programm/"
timezone = "UTC"
requests_per_second = 50

[cache]
backend = "sqlite"

[transcode]
enabled = false

[logging]
level = "error"
`,
		filepath.ToSlash(env.downloadDir),
		filepath.ToSlash(filepath.Join(env.baseDir, "logs")),
		filepath.ToSlash(filepath.Join(env.baseDir, "cache")),
		env.server.URL, env.server.URL,
	) + rulesTOML
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n--- output ---\n%s", needle, haystack)
	}
}
