// Package config defines the configuration structures of molmatch.  No I/O
// or parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// MatchingConfig holds the defaults applied to every substructure search.
// Switches whose engine default is "on" are phrased as Disable* so that the
// zero value keeps the engine default.
type MatchingConfig struct {
	DisableAromaticityMatcher bool    `mapstructure:"disable_aromaticity_matcher"`
	UsePiSystemsMatcher       bool    `mapstructure:"use_pi_systems_matcher"`
	DisableFoldingQueryH      bool    `mapstructure:"disable_folding_query_h"`
	FindUniqueByEdges         bool    `mapstructure:"find_unique_by_edges"`
	UseEquivalenceHeuristic   bool    `mapstructure:"use_equivalence_heuristic"`
	Match3D                   string  `mapstructure:"match_3d"` // "none" | "affine" | "conformation"
	RMSThreshold              float64 `mapstructure:"rms_threshold"`
	MaxEmbeddings             int     `mapstructure:"max_embeddings"`
}

// TautomerConfig holds the default tautomer and exact-match conditions.
type TautomerConfig struct {
	// Conditions is a tautomer condition string, e.g. "TAU R1 R2 HYD".
	Conditions string `mapstructure:"conditions"`
	// ExactConditions is the exact-match condition string, e.g. "ALL".
	ExactConditions string `mapstructure:"exact_conditions"`
}

// ScreeningConfig holds batch screening tunables.
type ScreeningConfig struct {
	Workers              int           `mapstructure:"workers"`
	Timeout              time.Duration `mapstructure:"timeout"`
	DisablePrefilter     bool          `mapstructure:"disable_prefilter"`
	FingerprintBits      int           `mapstructure:"fingerprint_bits"`
	FingerprintPathLen   int           `mapstructure:"fingerprint_path_length"`
	SimilarityMetric     string        `mapstructure:"similarity_metric"` // "tanimoto" | "dice" | "cosine"
	SimilarityBottom     float64       `mapstructure:"similarity_bottom"`
	SimilarityTop        float64       `mapstructure:"similarity_top"`
	MaxEmbeddingsPerPair int           `mapstructure:"max_embeddings_per_pair"`
}

// CacheConfig selects and sizes the verdict cache.
type CacheConfig struct {
	Backend     string        `mapstructure:"backend"` // "none" | "memory" | "redis"
	TTL         time.Duration `mapstructure:"ttl"`
	MaxCost     int64         `mapstructure:"max_cost"`
	NumCounters int64         `mapstructure:"num_counters"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
	// TTLJitter spreads redis expirations by ±fraction of TTL; negative
	// disables it and zero keeps the client default.
	TTLJitter float64 `mapstructure:"ttl_jitter"`
}

// RedisConfig holds Redis connection parameters for the shared verdict cache.
type RedisConfig struct {
	Mode         string        `mapstructure:"mode"` // "standalone" | "sentinel" | "cluster"
	Addr         string        `mapstructure:"addr"`
	Addrs        []string      `mapstructure:"addrs"`
	MasterName   string        `mapstructure:"master_name"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level    string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format   string   `mapstructure:"format"` // "json" | "console"
	Output   []string `mapstructure:"output"`
	Sampling int      `mapstructure:"sampling"`
}

// MetricsConfig holds Prometheus parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	// Addr, when set, makes long-running commands serve /metrics there.
	Addr string `mapstructure:"addr"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Matching  MatchingConfig  `mapstructure:"matching"`
	Tautomer  TautomerConfig  `mapstructure:"tautomer"`
	Screening ScreeningConfig `mapstructure:"screening"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of a fully-populated Config and
// returns the first problem found.
func (c *Config) Validate() error {
	// Matching
	switch c.Matching.Match3D {
	case "none", "affine", "conformation":
	default:
		return fmt.Errorf("config: matching.match_3d %q is invalid; expected none|affine|conformation", c.Matching.Match3D)
	}
	if c.Matching.RMSThreshold <= 0 {
		return fmt.Errorf("config: matching.rms_threshold must be > 0, got %g", c.Matching.RMSThreshold)
	}
	if c.Matching.MaxEmbeddings < 0 {
		return fmt.Errorf("config: matching.max_embeddings must be ≥ 0, got %d", c.Matching.MaxEmbeddings)
	}

	// Screening
	if c.Screening.Workers < 1 {
		return fmt.Errorf("config: screening.workers must be ≥ 1, got %d", c.Screening.Workers)
	}
	if c.Screening.FingerprintBits < 64 {
		return fmt.Errorf("config: screening.fingerprint_bits must be ≥ 64, got %d", c.Screening.FingerprintBits)
	}
	switch c.Screening.SimilarityMetric {
	case "tanimoto", "dice", "cosine":
	default:
		return fmt.Errorf("config: screening.similarity_metric %q is invalid; expected tanimoto|dice|cosine", c.Screening.SimilarityMetric)
	}
	if c.Screening.SimilarityBottom < 0 || c.Screening.SimilarityTop > 1 ||
		c.Screening.SimilarityBottom > c.Screening.SimilarityTop {
		return fmt.Errorf("config: screening similarity bounds [%g, %g] are invalid",
			c.Screening.SimilarityBottom, c.Screening.SimilarityTop)
	}

	// Cache
	switch c.Cache.Backend {
	case "none", "memory":
	case "redis":
		if c.Redis.Addr == "" && len(c.Redis.Addrs) == 0 {
			return fmt.Errorf("config: redis.addr is required when cache.backend is redis")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
		}
	default:
		return fmt.Errorf("config: cache.backend %q is invalid; expected none|memory|redis", c.Cache.Backend)
	}
	if c.Cache.TTLJitter >= 1 {
		return fmt.Errorf("config: cache.ttl_jitter must be < 1, got %g", c.Cache.TTLJitter)
	}
	if c.Cache.Backend == "memory" && c.Cache.MaxCost < 1 {
		return fmt.Errorf("config: cache.max_cost must be ≥ 1, got %d", c.Cache.MaxCost)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Metrics
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("config: metrics.namespace is required when metrics are enabled")
	}

	return nil
}

//Personal.AI order the ending
