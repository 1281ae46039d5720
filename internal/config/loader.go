// Package config provides configuration loading, defaults, and validation for
// molmatch.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix of every setting.
const envPrefix = "MOLMATCH"

// configKeys lists every leaf key so that AutomaticEnv can resolve
// environment-only settings during Unmarshal; viper only consults the
// environment for keys it already knows about.
var configKeys = []string{
	"matching.disable_aromaticity_matcher", "matching.use_pi_systems_matcher",
	"matching.disable_folding_query_h", "matching.find_unique_by_edges",
	"matching.use_equivalence_heuristic", "matching.match_3d",
	"matching.rms_threshold", "matching.max_embeddings",
	"tautomer.conditions", "tautomer.exact_conditions",
	"screening.workers", "screening.timeout", "screening.disable_prefilter",
	"screening.fingerprint_bits", "screening.fingerprint_path_length",
	"screening.similarity_metric", "screening.similarity_bottom",
	"screening.similarity_top", "screening.max_embeddings_per_pair",
	"cache.backend", "cache.ttl", "cache.max_cost", "cache.num_counters", "cache.key_prefix", "cache.ttl_jitter",
	"redis.mode", "redis.addr", "redis.addrs", "redis.master_name", "redis.password",
	"redis.db", "redis.pool_size", "redis.dial_timeout", "redis.read_timeout", "redis.write_timeout",
	"log.level", "log.format", "log.output", "log.sampling",
	"metrics.enabled", "metrics.namespace", "metrics.addr",
}

// newViper builds a Viper instance with the standard settings: YAML file
// type, MOLMATCH_ env prefix and a "." → "_" key replacer, so that
// "screening.workers" resolves to MOLMATCH_SCREENING_WORKERS.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range configKeys {
		_ = v.BindEnv(k)
	}
	return v
}

// Load reads the YAML file at configPath, merges MOLMATCH_* environment
// overrides, applies defaults and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from MOLMATCH_* environment variables and
// defaults, with no config file.
//
//	MOLMATCH_<SECTION>_<FIELD>   e.g.  MOLMATCH_SCREENING_WORKERS, MOLMATCH_CACHE_BACKEND
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

// LoadOrDefault loads configPath when it is non-empty and falls back to
// LoadFromEnv otherwise.  The CLI uses it for its optional --config flag.
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath == "" {
		return LoadFromEnv()
	}
	return Load(configPath)
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath and invokes onChange with the newly parsed
// Config whenever the file is written.  Invalid edits are skipped so the
// running process keeps its last good configuration.  Only settings read per
// screening run (workers, bounds, matching defaults) take effect without a
// restart.
func Watch(configPath string, onChange func(*Config)) error {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad wraps Load and panics on error.  Intended for main only.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
