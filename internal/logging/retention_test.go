package logging_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"radiograb/internal/logging"
)

func TestPruneRunLogsRemovesOnlyOldMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "radiograb-20200101.log")
	current := filepath.Join(dir, "radiograb-20200102.log")
	fresh := filepath.Join(dir, "radiograb-20991231.log")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, current, fresh, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	past := time.Now().AddDate(0, 0, -30)
	for _, path := range []string{old, current, other} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	logging.PruneRunLogs(logging.NewNop(), dir, 7, current)

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err=%v", err)
	}
	for _, path := range []string{current, fresh, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to remain: %v", path, err)
		}
	}
}

func TestPruneRunLogsDisabledWithZeroRetention(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "radiograb-20200101.log")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	past := time.Now().AddDate(-1, 0, 0)
	_ = os.Chtimes(path, past, past)

	logging.PruneRunLogs(nil, dir, 0, "")

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to remain when retention disabled: %v", err)
	}
}
