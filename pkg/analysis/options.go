package analysis

import (
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Cache.
type Option func(*Cache)

// WithMaxEntries bounds the number of entries per generation. When the bound
// is exceeded the least recently used entry is evicted. Zero means no bound.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		c.maxEntries = max(0, n)
	}
}

// WithRegisterer registers the cache metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Cache) {
		c.metrics = newMetrics(reg)
	}
}

// WithLogger sets the logger for failures and invalidations.
func WithLogger(logger *log.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

type metrics struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	computations  prometheus.Counter
	failures      prometheus.Counter
	invalidations prometheus.Counter
	evictions     prometheus.Counter
	reaped        prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tethls",
			Subsystem: "analysis_cache",
			Name:      name,
			Help:      help,
		})
	}

	m := &metrics{
		hits:          counter("hits_total", "Resolve calls answered from the cache."),
		misses:        counter("misses_total", "Resolve calls that found no cached entry."),
		computations:  counter("computations_total", "Analyses started by the cache."),
		failures:      counter("failures_total", "Analyses that returned an error."),
		invalidations: counter("invalidations_total", "Cache invalidations."),
		evictions:     counter("evictions_total", "Entries evicted by the size bound."),
		reaped:        counter("reaped_total", "Entries dropped after their unit was collected."),
	}

	if reg != nil {
		reg.MustRegister(m.hits, m.misses, m.computations, m.failures, m.invalidations, m.evictions, m.reaped)
	}
	return m
}
