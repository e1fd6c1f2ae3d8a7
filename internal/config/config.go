package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/quantmind-br/bundlecheck/internal/domain"
)

// Config represents the application configuration
type Config struct {
	Verify      VerifyConfig      `mapstructure:"verify" yaml:"verify"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency"`
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	Repo        RepoConfig        `mapstructure:"repo" yaml:"repo"`
	Output      OutputConfig      `mapstructure:"output" yaml:"output"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
}

// VerifyConfig contains bundle verification settings
type VerifyConfig struct {
	Strict bool `mapstructure:"strict" yaml:"strict"`
}

// ConcurrencyConfig contains concurrency settings
type ConcurrencyConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// CacheConfig contains result cache settings
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL       time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Directory string        `mapstructure:"directory" yaml:"directory"`
}

// RepoConfig describes the layout checked by the repo command
type RepoConfig struct {
	AnchorsDir  string `mapstructure:"anchors_dir" yaml:"anchors_dir"`
	IndexFile   string `mapstructure:"index_file" yaml:"index_file"`
	IndexSchema string `mapstructure:"index_schema" yaml:"index_schema"`
}

// OutputConfig contains report rendering settings
type OutputConfig struct {
	Format   string `mapstructure:"format" yaml:"format"`
	Progress bool   `mapstructure:"progress" yaml:"progress"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate applies defaults for out-of-range values and rejects settings
// that cannot be used
func (c *Config) Validate() error {
	if c.Concurrency.Workers < 1 {
		c.Concurrency.Workers = DefaultWorkers
	}
	if c.Concurrency.Workers > MaxWorkers {
		c.Concurrency.Workers = MaxWorkers
	}
	if c.Cache.TTL < time.Minute {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Cache.Directory == "" {
		c.Cache.Directory = CacheDir()
	}

	c.Repo.AnchorsDir = strings.TrimSpace(c.Repo.AnchorsDir)
	if c.Repo.AnchorsDir == "" {
		c.Repo.AnchorsDir = DefaultAnchorsDir
	}
	if filepath.IsAbs(c.Repo.AnchorsDir) {
		return domain.NewValidationError("repo.anchors_dir",
			fmt.Sprintf("must be relative to the repository root, got %q", c.Repo.AnchorsDir))
	}
	if c.Repo.IndexFile == "" {
		c.Repo.IndexFile = DefaultIndexFile
	}
	if c.Repo.IndexSchema == "" {
		c.Repo.IndexSchema = DefaultIndexSchema
	}

	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "" {
		c.Output.Format = DefaultOutputFormat
	}
	if !slices.Contains(OutputFormats, c.Output.Format) {
		return domain.NewValidationError("output.format",
			fmt.Sprintf("unknown format %q (want one of %s)", c.Output.Format, strings.Join(OutputFormats, ", ")))
	}
	return nil
}
