// Package metrics exposes Prometheus instruments for ingestion passes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Namespace prefixes every metric name.
	Namespace = "durjog"

	subsystemIngest = "ingest"
)

// Metrics holds the ingestion instruments. It satisfies ingest.Observer.
type Metrics struct {
	PassesTotal     *prometheus.CounterVec
	PassDuration    prometheus.Histogram
	OutcomesTotal   *prometheus.CounterVec
	PrunedTotal     *prometheus.CounterVec
	CacheEntries    prometheus.Gauge
	StoredArticles  prometheus.Gauge
	LastPassSuccess prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates the instruments on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWith(reg, reg)
}

// NewWith registers the instruments on reg and serves them from g.
func NewWith(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	factory := promauto.With(reg)

	return &Metrics{
		PassesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemIngest,
			Name:      "passes_total",
			Help:      "Ingestion passes by final status",
		}, []string{"status"}),
		PassDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: subsystemIngest,
			Name:      "pass_duration_seconds",
			Help:      "Wall time of ingestion passes",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		OutcomesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemIngest,
			Name:      "article_outcomes_total",
			Help:      "Article fetch outcomes by profile and kind",
		}, []string{"profile", "outcome"}),
		PrunedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemIngest,
			Name:      "pruned_total",
			Help:      "Entries evicted at the end of passes",
		}, []string{"target"}),
		CacheEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystemIngest,
			Name:      "freshness_cache_entries",
			Help:      "URLs currently held by the freshness cache",
		}),
		StoredArticles: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystemIngest,
			Name:      "stored_articles",
			Help:      "Records in the article store after the last pass",
		}),
		LastPassSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystemIngest,
			Name:      "last_pass_success_timestamp_seconds",
			Help:      "Unix time of the last successful pass",
		}),
		gatherer: g,
	}
}

// ObserveOutcome counts one fetch outcome.
func (m *Metrics) ObserveOutcome(profileID, outcome string) {
	m.OutcomesTotal.WithLabelValues(profileID, outcome).Inc()
}

// ObservePass records a finished pass.
func (m *Metrics) ObservePass(status string, d time.Duration) {
	m.PassesTotal.WithLabelValues(status).Inc()
	m.PassDuration.Observe(d.Seconds())
	if status == "ok" {
		m.LastPassSuccess.SetToCurrentTime()
	}
}

// ObservePruned adds n evictions from target ("cache" or "store").
func (m *Metrics) ObservePruned(target string, n int) {
	m.PrunedTotal.WithLabelValues(target).Add(float64(n))
}

// SetCacheSize sets the freshness cache gauge.
func (m *Metrics) SetCacheSize(n int) {
	m.CacheEntries.Set(float64(n))
}

// SetStoredArticles sets the stored records gauge.
func (m *Metrics) SetStoredArticles(n int) {
	m.StoredArticles.Set(float64(n))
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
