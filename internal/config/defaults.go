package config

const (
	defaultConfigPath         = "~/.config/radiograb/config.toml"
	defaultDownloadDir        = "~/Music/Oe1"
	defaultLogDir             = "~/.local/share/radiograb/logs"
	defaultLogRetentionDays   = 30
	defaultCatalogBaseURL     = "http://oe1.orf.at/programm/konsole/tag/"
	defaultCatalogDetailURL   = "http://oe1.orf.at/programm/"
	defaultLookbackDays       = 10
	defaultRequestsPerSecond  = 2
	defaultRequestTimeout     = 30
	defaultMaxAttempts        = 3
	defaultUserAgent          = "radiograb/0.1"
	defaultCacheBackend       = CacheBackendSQLite
	defaultCacheTTLHours      = 24
	defaultCacheFileName      = "fetch_cache.db"
	defaultCacheKeyPrefix     = "radiograb:fetch:"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultTranscodeTimeout   = 3600
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultNotifyTimeout      = 10
	defaultRedisURLEnvVarName = "RADIOGRAB_REDIS_URL"
)

// Fetch cache backends accepted by cache.backend.
const (
	CacheBackendSQLite = "sqlite"
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			LogDir:      defaultLogDir,
			CacheDir:    defaultCacheDir(),
		},
		Catalog: Catalog{
			BaseURL:           defaultCatalogBaseURL,
			DetailURL:         defaultCatalogDetailURL,
			LookbackDays:      defaultLookbackDays,
			RequestsPerSecond: defaultRequestsPerSecond,
			RequestTimeout:    defaultRequestTimeout,
			MaxAttempts:       defaultMaxAttempts,
			UserAgent:         defaultUserAgent,
		},
		Cache: Cache{
			Backend:   defaultCacheBackend,
			TTLHours:  defaultCacheTTLHours,
			KeyPrefix: defaultCacheKeyPrefix,
		},
		Transcode: Transcode{
			Enabled:       true,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			Timeout:       defaultTranscodeTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
	}
}
