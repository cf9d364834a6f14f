package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/google/renameio/v2"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DownloadDir string `toml:"download_dir"`
	LogDir      string `toml:"log_dir"`
	CacheDir    string `toml:"cache_dir"`
}

// Catalog contains configuration for the on-demand catalog endpoints.
type Catalog struct {
	BaseURL           string  `toml:"base_url"`
	DetailURL         string  `toml:"detail_url"`
	LookbackDays      int     `toml:"lookback_days"`
	Timezone          string  `toml:"timezone"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	RequestTimeout    int     `toml:"request_timeout"`
	MaxAttempts       int     `toml:"max_attempts"`
	UserAgent         string  `toml:"user_agent"`
}

// Cache contains configuration for the page fetch cache.
type Cache struct {
	Backend   string `toml:"backend"` // sqlite, redis, or memory
	TTLHours  int    `toml:"ttl_hours"`
	Path      string `toml:"path"`
	RedisURL  string `toml:"redis_url"`
	KeyPrefix string `toml:"key_prefix"`
}

// Transcode contains configuration for the ffmpeg conversion and tagging steps.
type Transcode struct {
	Enabled       bool   `toml:"enabled"`
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	HEv2          bool   `toml:"he_v2"`
	MaxSeconds    int    `toml:"max_seconds"`
	Verify        bool   `toml:"verify"`
	Timeout       int    `toml:"timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	OnlyOnChange   bool   `toml:"only_on_change"`
}

// Config encapsulates all configuration values for radiograb.
//
// Configuration sections by subsystem:
//   - Paths: download library, logs, and cache directory
//   - Catalog: catalog and detail page endpoints plus request pacing
//   - Cache: fetch cache backend and time-to-live
//   - Transcode: ffmpeg conversion, tagging, and output verification
//   - Logging: log format, level, and retention
//   - Notifications: ntfy run summaries
//   - Defaults: overrides for rule keys missing from individual rules
//   - Rules: one table per subscription rule, keyed by rule name
type Config struct {
	Paths         Paths                     `toml:"paths"`
	Catalog       Catalog                   `toml:"catalog"`
	Cache         Cache                     `toml:"cache"`
	Transcode     Transcode                 `toml:"transcode"`
	Logging       Logging                   `toml:"logging"`
	Notifications Notifications             `toml:"notifications"`
	Defaults      map[string]any            `toml:"defaults"`
	Rules         map[string]map[string]any `toml:"rules"`

	// sourceDir is the directory of the loaded file, exposed to templates as CONFIG_DIR.
	sourceDir string
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A missing file yields defaults with no rules.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		if err := decodeFile(resolvedPath, &cfg); err != nil {
			return nil, "", false, err
		}
		cfg.sourceDir = filepath.Dir(resolvedPath)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return fmt.Errorf("parse config %s (line %d, column %d): %w", path, row, col, err)
		}
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("radiograb.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DownloadDir, c.Paths.LogDir, c.Paths.CacheDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SourceDir returns the directory containing the loaded configuration file,
// or the working directory when defaults were used.
func (c *Config) SourceDir() string {
	if c.sourceDir != "" {
		return c.sourceDir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// Location resolves catalog.timezone. An empty value means the host's local zone.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Catalog.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("catalog.timezone: %w", err)
	}
	return loc, nil
}

// CacheTTL returns the configured fetch cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// RequestTimeout returns the per-request catalog timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Catalog.RequestTimeout) * time.Second
}

// LockPath returns the path of the single-instance run lock.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.CacheDir, "radiograb.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "radiograb")
	}
	return "~/.cache/radiograb"
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
// The file is replaced atomically so an interrupted write never leaves a
// truncated config behind.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := renameio.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
