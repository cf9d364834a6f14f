package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateRuleTables(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCatalog() error {
	for key, raw := range map[string]string{
		"catalog.base_url":   c.Catalog.BaseURL,
		"catalog.detail_url": c.Catalog.DetailURL,
	} {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
		}
	}
	if err := ensurePositiveMap(map[string]int{
		"catalog.lookback_days":   c.Catalog.LookbackDays,
		"catalog.request_timeout": c.Catalog.RequestTimeout,
		"catalog.max_attempts":    c.Catalog.MaxAttempts,
	}); err != nil {
		return err
	}
	if c.Catalog.RequestsPerSecond <= 0 {
		return errors.New("catalog.requests_per_second must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case CacheBackendSQLite, CacheBackendMemory:
	case CacheBackendRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url must be set when cache.backend is redis (or set %s)", defaultRedisURLEnvVarName)
		}
	default:
		return fmt.Errorf("cache.backend: unsupported value %q (want sqlite, redis, or memory)", c.Cache.Backend)
	}
	if c.Cache.TTLHours <= 0 {
		return errors.New("cache.ttl_hours must be positive")
	}
	return nil
}

func (c *Config) validateTranscode() error {
	if c.Transcode.MaxSeconds < 0 {
		return errors.New("transcode.max_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func (c *Config) validateRuleTables() error {
	if _, err := flattenSection("defaults", c.Defaults); err != nil {
		return err
	}
	names := make([]string, 0, len(c.Rules))
	for name := range c.Rules {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return errors.New("rules: rule names must not be blank")
		}
		if _, err := flattenSection("rules."+name, c.Rules[name]); err != nil {
			return err
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
