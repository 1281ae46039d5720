package prometheus

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/molmatch/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", Subsystem: "unit"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrape(t *testing.T, c MetricsCollector) string {
	t.Helper()
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

// value sums every sample of the named family; histograms contribute their
// sample count.
func value(t *testing.T, c MetricsCollector, name string) float64 {
	t.Helper()
	families, err := c.Gatherer().Gather()
	require.NoError(t, err)
	total := 0.0
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			switch {
			case m.Counter != nil:
				total += m.GetCounter().GetValue()
			case m.Gauge != nil:
				total += m.GetGauge().GetValue()
			case m.Histogram != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return total
}

func TestNewMetricsCollector_EmptyNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{Subsystem: "unit"}, nil)
	assert.Error(t, err)
}

func TestNewMetricsCollector_ProcessMetrics(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", EnableProcessMetrics: true}, nil)
	require.NoError(t, err)
	assert.Contains(t, scrape(t, c), "test_process_")
}

func TestRegisterCounter_IncrementsAndDeduplicates(t *testing.T) {
	c := newTestCollector(t)
	a := c.RegisterCounter("hits_total", "hits", "kind")
	b := c.RegisterCounter("hits_total", "hits", "kind")

	a.WithLabelValues("x").Inc()
	b.WithLabelValues("x").Add(2)

	assert.Equal(t, 3.0, value(t, c, "test_unit_hits_total"))
}

func TestRegister_TypeMismatchFallsBackToNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("things", "things")
	g := c.RegisterGauge("things", "things")

	assert.NotPanics(t, func() { g.WithLabelValues().Set(4) })
	assert.Equal(t, 0.0, value(t, c, "test_unit_things"))
}

func TestRegisterGaugeAndHistogram(t *testing.T) {
	c := newTestCollector(t)
	g := c.RegisterGauge("busy", "busy workers")
	h := c.RegisterHistogram("latency_seconds", "latency", nil, "mode")

	g.WithLabelValues().Inc()
	g.WithLabelValues().Inc()
	g.WithLabelValues().Dec()
	h.WithLabelValues("substructure").Observe(0.2)
	h.WithLabelValues("substructure").Observe(0.3)

	assert.Equal(t, 1.0, value(t, c, "test_unit_busy"))
	assert.Equal(t, 2.0, value(t, c, "test_unit_latency_seconds"))
}

func TestMustRegisterAndUnregister(t *testing.T) {
	c := newTestCollector(t)
	extra := prometheus.NewCounter(prometheus.CounterOpts{Name: "extra_total", Help: "extra"})
	c.MustRegister(extra)
	extra.Inc()
	assert.Contains(t, scrape(t, c), "extra_total")
	assert.True(t, c.Unregister(extra))
}

func TestRegisterCounter_Concurrent(t *testing.T) {
	c := newTestCollector(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RegisterCounter("parallel_total", "parallel").WithLabelValues().Inc()
		}()
	}
	wg.Wait()
	assert.Equal(t, 16.0, value(t, c, "test_unit_parallel_total"))
}

func TestTimer(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("timed_seconds", "timed", nil)
	timer := NewTimer(h.WithLabelValues())
	time.Sleep(time.Millisecond)
	d := timer.ObserveDuration()

	assert.True(t, d > 0)
	assert.Equal(t, 1.0, value(t, c, "test_unit_timed_seconds"))
	assert.NotPanics(t, func() { NewTimer(nil).ObserveDuration() })
}

//Personal.AI order the ending
