package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values
const (
	// Verification defaults
	DefaultStrict = true

	// Concurrency defaults
	DefaultWorkers = 4
	MaxWorkers     = 64

	// Cache defaults
	DefaultCacheEnabled = false
	DefaultCacheTTL     = 7 * 24 * time.Hour

	// Repository layout defaults
	DefaultAnchorsDir  = "bundles"
	DefaultIndexFile   = "INDEX.json"
	DefaultIndexSchema = "helix.public_assets.index.v1"

	// Output defaults
	DefaultOutputFormat = "text"
	DefaultProgress     = true

	// Logging defaults
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "pretty"

	// EnvPrefix prefixes every environment override
	EnvPrefix = "BUNDLECHECK"
)

// OutputFormats lists the accepted output.format values
var OutputFormats = []string{"text", "json", "yaml"}

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bundlecheck"
	}
	return filepath.Join(home, ".bundlecheck")
}

// CacheDir returns the cache directory path
func CacheDir() string {
	return filepath.Join(ConfigDir(), "cache")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Verify: VerifyConfig{
			Strict: DefaultStrict,
		},
		Concurrency: ConcurrencyConfig{
			Workers: DefaultWorkers,
		},
		Cache: CacheConfig{
			Enabled:   DefaultCacheEnabled,
			TTL:       DefaultCacheTTL,
			Directory: CacheDir(),
		},
		Repo: RepoConfig{
			AnchorsDir:  DefaultAnchorsDir,
			IndexFile:   DefaultIndexFile,
			IndexSchema: DefaultIndexSchema,
		},
		Output: OutputConfig{
			Format:   DefaultOutputFormat,
			Progress: DefaultProgress,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
