// Package config provides configuration loading, defaults, and validation for
// molmatch.
package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultMatch3D       = "none"
	DefaultRMSThreshold  = 0.4
	DefaultTautomerRules = "TAU R1 R2"
	DefaultExactRules    = "ALL"

	DefaultScreeningWorkers   = 4
	DefaultScreeningTimeout   = 5 * time.Minute
	DefaultFingerprintBits    = 1024
	DefaultFingerprintPathLen = 5
	DefaultSimilarityMetric   = "tanimoto"
	DefaultSimilarityTop      = 1.0

	DefaultCacheBackend     = "memory"
	DefaultCacheTTL         = 30 * time.Minute
	DefaultCacheMaxCost     = 1 << 16
	DefaultCacheNumCounters = 1 << 20
	DefaultCacheKeyPrefix   = "molmatch:"

	DefaultRedisMode = "standalone"
	DefaultRedisAddr = "localhost:6379"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "molmatch"
)

// ApplyDefaults fills every zero-value field in cfg with its default.  Fields
// set by the caller are left unchanged so that explicit configuration always
// wins.  It must run after unmarshalling and before Validate.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Matching ──────────────────────────────────────────────────────────────
	if cfg.Matching.Match3D == "" {
		cfg.Matching.Match3D = DefaultMatch3D
	}
	if cfg.Matching.RMSThreshold == 0 {
		cfg.Matching.RMSThreshold = DefaultRMSThreshold
	}

	// ── Tautomer ──────────────────────────────────────────────────────────────
	if cfg.Tautomer.Conditions == "" {
		cfg.Tautomer.Conditions = DefaultTautomerRules
	}
	if cfg.Tautomer.ExactConditions == "" {
		cfg.Tautomer.ExactConditions = DefaultExactRules
	}

	// ── Screening ─────────────────────────────────────────────────────────────
	if cfg.Screening.Workers == 0 {
		cfg.Screening.Workers = DefaultScreeningWorkers
	}
	if cfg.Screening.Timeout == 0 {
		cfg.Screening.Timeout = DefaultScreeningTimeout
	}
	if cfg.Screening.FingerprintBits == 0 {
		cfg.Screening.FingerprintBits = DefaultFingerprintBits
	}
	if cfg.Screening.FingerprintPathLen == 0 {
		cfg.Screening.FingerprintPathLen = DefaultFingerprintPathLen
	}
	if cfg.Screening.SimilarityMetric == "" {
		cfg.Screening.SimilarityMetric = DefaultSimilarityMetric
	}
	// A zero bottom is a meaningful bound; only the top needs a default.
	if cfg.Screening.SimilarityTop == 0 {
		cfg.Screening.SimilarityTop = DefaultSimilarityTop
	}

	// ── Cache ─────────────────────────────────────────────────────────────────
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.MaxCost == 0 {
		cfg.Cache.MaxCost = DefaultCacheMaxCost
	}
	if cfg.Cache.NumCounters == 0 {
		cfg.Cache.NumCounters = DefaultCacheNumCounters
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = DefaultCacheKeyPrefix
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Mode == "" {
		cfg.Redis.Mode = DefaultRedisMode
	}
	if cfg.Redis.Addr == "" && len(cfg.Redis.Addrs) == 0 {
		cfg.Redis.Addr = DefaultRedisAddr
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}

//Personal.AI order the ending
