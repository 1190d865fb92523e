// Package metrics exposes Prometheus collectors for the resolve pipeline.
//
// All observation methods are safe on a nil *Metrics, so library users that
// do not care about metrics can pass nil.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lectio"

// Metrics holds the collectors on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	cacheLookups     *prometheus.CounterVec
	cacheWriteFails  prometheus.Counter
	providerAttempts *prometheus.CounterVec
	providerSeconds  *prometheus.HistogramVec
	resolveSeconds   *prometheus.HistogramVec
	warmDays         *prometheus.CounterVec
}

// New creates and registers every collector, plus the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Chapter cache lookups by tier and result.",
		}, []string{"tier", "result"}),
		cacheWriteFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_write_failures_total",
			Help:      "Write-behind persistent store writes that failed and were dropped.",
		}),
		providerAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_attempts_total",
			Help:      "Provider calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		providerSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_seconds",
			Help:      "Provider call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		resolveSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_seconds",
			Help:      "Chapter resolve latency by source.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		warmDays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warm_days_total",
			Help:      "Reading plan days processed by cache warm runs.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.cacheLookups,
		m.cacheWriteFails,
		m.providerAttempts,
		m.providerSeconds,
		m.resolveSeconds,
		m.warmDays,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// TrackGauge registers a gauge whose value is read from fn at scrape time.
func (m *Metrics) TrackGauge(name, help string, fn func() float64) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// CacheLookup counts a lookup on tier ("memory", "store") with result "hit", "miss" or "error".
func (m *Metrics) CacheLookup(tier, result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(tier, result).Inc()
}

// CacheWriteFailed counts a dropped store write.
func (m *Metrics) CacheWriteFailed() {
	if m == nil {
		return
	}
	m.cacheWriteFails.Inc()
}

// ProviderAttempt records one provider call.
func (m *Metrics) ProviderAttempt(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.providerAttempts.WithLabelValues(provider, outcome).Inc()
	m.providerSeconds.WithLabelValues(provider).Observe(d.Seconds())
}

// Resolve records a finished chapter resolve. source is the tier or provider
// that answered, or "none" when nothing did.
func (m *Metrics) Resolve(source string, d time.Duration) {
	if m == nil {
		return
	}
	if source == "" {
		source = "none"
	}
	m.resolveSeconds.WithLabelValues(source).Observe(d.Seconds())
}

// WarmDay counts a warmed plan day with result "succeeded" or "failed".
func (m *Metrics) WarmDay(result string) {
	if m == nil {
		return
	}
	m.warmDays.WithLabelValues(result).Inc()
}
