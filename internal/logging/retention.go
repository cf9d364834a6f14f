package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const runLogPattern = "radiograb-*.log"

// PruneRunLogs removes daily run logs in dir whose modification time is
// older than retentionDays. current, usually the file this run appends to,
// is never removed. A retentionDays of zero or less keeps everything.
func PruneRunLogs(logger *slog.Logger, dir string, retentionDays int, current string) {
	if retentionDays <= 0 || dir == "" {
		return
	}
	if logger == nil {
		logger = NewNop()
	}
	matches, err := filepath.Glob(filepath.Join(dir, runLogPattern))
	if err != nil {
		return
	}
	keep := absPath(current)
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	for _, path := range matches {
		if keep != "" && absPath(path) == keep {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check permissions on paths.log_dir"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		logger.Debug("log pruned", String("path", path), String(FieldEventType, "log_pruned"))
	}
}

func absPath(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
