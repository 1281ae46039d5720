package prometheus

import (
	"time"
)

// MatchingMetrics holds the metrics of the matching engine and the screening
// service.
type MatchingMetrics struct {
	// Per matcher call
	SearchesTotal    CounterVec   // mode, outcome
	SearchDuration   HistogramVec // mode
	EmbeddingsFound  CounterVec   // mode
	FragmentChecks   CounterVec   // result: computed|cached
	MarkushSplices   CounterVec
	AromaticityCheck CounterVec

	// Per screening run
	ScreeningRunsTotal   CounterVec   // mode, status
	ScreeningDuration    HistogramVec // mode
	ScreeningTargets     CounterVec   // mode, verdict: hit|miss|prefiltered|error
	ScreeningActiveRuns  GaugeVec
	ScreeningWorkersBusy GaugeVec

	// Verdict cache
	CacheHitsTotal   CounterVec // backend
	CacheMissesTotal CounterVec // backend
	CacheErrorsTotal CounterVec // backend, op
}

// Default buckets.
var (
	DefaultSearchDurationBuckets    = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5}
	DefaultScreeningDurationBuckets = []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300}
)

// NewMatchingMetrics registers every metric on collector.
func NewMatchingMetrics(collector MetricsCollector) *MatchingMetrics {
	m := &MatchingMetrics{}

	m.SearchesTotal = collector.RegisterCounter("searches_total", "Matcher searches by mode and outcome", "mode", "outcome")
	m.SearchDuration = collector.RegisterHistogram("search_duration_seconds", "Duration of one matcher search", DefaultSearchDurationBuckets, "mode")
	m.EmbeddingsFound = collector.RegisterCounter("embeddings_total", "Embeddings reported by matchers", "mode")
	m.FragmentChecks = collector.RegisterCounter("fragment_checks_total", "Fragment constraint evaluations", "result")
	m.MarkushSplices = collector.RegisterCounter("markush_splices_total", "R-group fragments spliced into working queries")
	m.AromaticityCheck = collector.RegisterCounter("aromaticity_checks_total", "Full aromaticity re-perceptions at embedding acceptance")

	m.ScreeningRunsTotal = collector.RegisterCounter("screening_runs_total", "Screening runs by mode and status", "mode", "status")
	m.ScreeningDuration = collector.RegisterHistogram("screening_duration_seconds", "Duration of a screening run", DefaultScreeningDurationBuckets, "mode")
	m.ScreeningTargets = collector.RegisterCounter("screening_targets_total", "Targets screened by verdict", "mode", "verdict")
	m.ScreeningActiveRuns = collector.RegisterGauge("screening_active_runs", "Screening runs in progress")
	m.ScreeningWorkersBusy = collector.RegisterGauge("screening_workers_busy", "Screening workers currently matching")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Verdict cache hits", "backend")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Verdict cache misses", "backend")
	m.CacheErrorsTotal = collector.RegisterCounter("cache_errors_total", "Verdict cache failures", "backend", "op")

	return m
}

// NewNoopMatchingMetrics returns metrics that record nothing, for callers
// that run without a collector.
func NewNoopMatchingMetrics() *MatchingMetrics {
	return &MatchingMetrics{
		SearchesTotal:        noopCounterVec{},
		SearchDuration:       noopHistogramVec{},
		EmbeddingsFound:      noopCounterVec{},
		FragmentChecks:       noopCounterVec{},
		MarkushSplices:       noopCounterVec{},
		AromaticityCheck:     noopCounterVec{},
		ScreeningRunsTotal:   noopCounterVec{},
		ScreeningDuration:    noopHistogramVec{},
		ScreeningTargets:     noopCounterVec{},
		ScreeningActiveRuns:  noopGaugeVec{},
		ScreeningWorkersBusy: noopGaugeVec{},
		CacheHitsTotal:       noopCounterVec{},
		CacheMissesTotal:     noopCounterVec{},
		CacheErrorsTotal:     noopCounterVec{},
	}
}

// SearchStats is the per-search work summary reported by matchers.
type SearchStats struct {
	Embeddings        int
	AromaticityChecks int
	FragmentChecks    int
	FragmentCacheHits int
	MarkushSplices    int
}

// Helpers

// RecordSearch records one matcher call.
func RecordSearch(m *MatchingMetrics, mode string, found bool, err error, d time.Duration, st SearchStats) {
	outcome := "miss"
	switch {
	case err != nil:
		outcome = "error"
	case found:
		outcome = "hit"
	}
	m.SearchesTotal.WithLabelValues(mode, outcome).Inc()
	m.SearchDuration.WithLabelValues(mode).Observe(d.Seconds())
	if st.Embeddings > 0 {
		m.EmbeddingsFound.WithLabelValues(mode).Add(float64(st.Embeddings))
	}
	if computed := st.FragmentChecks - st.FragmentCacheHits; computed > 0 {
		m.FragmentChecks.WithLabelValues("computed").Add(float64(computed))
	}
	if st.FragmentCacheHits > 0 {
		m.FragmentChecks.WithLabelValues("cached").Add(float64(st.FragmentCacheHits))
	}
	if st.MarkushSplices > 0 {
		m.MarkushSplices.WithLabelValues().Add(float64(st.MarkushSplices))
	}
	if st.AromaticityChecks > 0 {
		m.AromaticityCheck.WithLabelValues().Add(float64(st.AromaticityChecks))
	}
}

// RecordScreeningTarget counts one screened target.
func RecordScreeningTarget(m *MatchingMetrics, mode, verdict string) {
	m.ScreeningTargets.WithLabelValues(mode, verdict).Inc()
}

// RecordCacheAccess counts a verdict cache lookup.
func RecordCacheAccess(m *MatchingMetrics, backend string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(backend).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(backend).Inc()
	}
}

// RecordCacheError counts a failed cache operation.
func RecordCacheError(m *MatchingMetrics, backend, op string) {
	m.CacheErrorsTotal.WithLabelValues(backend, op).Inc()
}

//Personal.AI order the ending
