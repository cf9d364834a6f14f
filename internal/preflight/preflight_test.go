package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"radiograb/internal/deps"
	"radiograb/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	testsupport.WriteFile(t, f, "x")
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken/" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if result := CheckCatalog(context.Background(), srv.URL+"/tag/"); !result.Passed {
		t.Fatalf("expected 404 to count as reachable, got %s", result.Detail)
	}
	if result := CheckCatalog(context.Background(), srv.URL+"/broken/"); result.Passed {
		t.Fatal("expected failure for server error")
	}
	if result := CheckCatalog(context.Background(), ""); result.Passed || result.Detail != "missing url" {
		t.Fatalf("unexpected result for empty url: %+v", result)
	}
}

func TestRunAllMarksDownloadDirFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithCatalog(srv.URL))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	cfg.Paths.DownloadDir = filepath.Join(t.TempDir(), "missing")

	results := RunAll(context.Background(), cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	failed, ok := FirstFatal(results)
	if !ok || failed.Name != "Download directory" {
		t.Fatalf("expected fatal download directory failure, got %+v", failed)
	}

	cfg.Paths.DownloadDir = t.TempDir()
	if _, ok := FirstFatal(RunAll(context.Background(), cfg)); ok {
		t.Fatal("expected no fatal failure with a usable download dir")
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if RunAll(context.Background(), nil) != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestCheckSystemDepsSkipsEncoderWhenDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Transcode.FFmpegBinary = "clearly-not-present-ffmpeg"
	statuses := CheckSystemDeps(context.Background(), cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected only binary statuses, got %d", len(statuses))
	}
}

func TestCheckSystemDepsWithStubbedFFmpeg(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries(`echo " A....D libfdk_aac           Fraunhofer FDK AAC (codec aac)"`))

	statuses := CheckSystemDeps(context.Background(), cfg)
	if len(statuses) != 3 {
		t.Fatalf("expected binaries plus encoder status, got %+v", statuses)
	}
	if missing := deps.MissingRequired(statuses); len(missing) != 0 {
		t.Fatalf("expected all requirements met, missing %+v", missing)
	}
}

func TestCheckSystemDepsReportsMissingEncoder(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries(`echo " A....D aac                  AAC (Advanced Audio Coding)"`))

	missing := deps.MissingRequired(CheckSystemDeps(context.Background(), cfg))
	if len(missing) != 1 || missing[0].Name != "libfdk_aac" {
		t.Fatalf("expected missing encoder, got %+v", missing)
	}
}
