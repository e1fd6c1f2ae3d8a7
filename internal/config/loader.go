package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// LoadViper loads configuration from file, environment, and defaults into
// v, which may already carry CLI flag bindings. With an empty file the
// default locations are searched and a missing config file is not an error.
func LoadViper(v *viper.Viper, file string) (*Config, error) {
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	// A missing config file is fine; a broken one is not
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	// Environment variables (BUNDLECHECK_*)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	v.SetDefault("verify.strict", DefaultStrict)

	v.SetDefault("concurrency.workers", DefaultWorkers)

	v.SetDefault("cache.enabled", DefaultCacheEnabled)
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("cache.directory", CacheDir())

	v.SetDefault("repo.anchors_dir", DefaultAnchorsDir)
	v.SetDefault("repo.index_file", DefaultIndexFile)
	v.SetDefault("repo.index_schema", DefaultIndexSchema)

	v.SetDefault("output.format", DefaultOutputFormat)
	v.SetDefault("output.progress", DefaultProgress)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
}
