package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "goal_alerts"

// Metrics holds the engine collectors. A nil *Metrics is valid and records
// nothing, so components can be built without a registry in tests.
type Metrics struct {
	registry *prometheus.Registry

	providerFetches *prometheus.CounterVec
	malformed       *prometheus.CounterVec
	goalsDetected   *prometheus.CounterVec
	deliveries      *prometheus.CounterVec
	reminders       prometheus.Counter
	cycleDuration   prometheus.Histogram
	trackedMatches  prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		providerFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_fetches_total",
			Help:      "Upstream fetches by provider, kind (live/scheduled) and result.",
		}, []string{"provider", "kind", "result"}),
		malformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_malformed_records_total",
			Help:      "Records skipped at the provider boundary because they failed validation.",
		}, []string{"provider"}),
		goalsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "goals_detected_total",
			Help:      "Goal events emitted by the deduplicator.",
		}, []string{"strategy"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Per-recipient deliveries by tier and result.",
		}, []string{"tier", "result"}),
		reminders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_emitted_total",
			Help:      "Fixtures that entered the reminder window.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_cycle_duration_seconds",
			Help:      "Wall-clock duration of one polling cycle.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		}),
		trackedMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_live_matches",
			Help:      "Matches currently held in the dedup cache.",
		}),
	}

	registry.MustRegister(
		m.providerFetches,
		m.malformed,
		m.goalsDetected,
		m.deliveries,
		m.reminders,
		m.cycleDuration,
		m.trackedMatches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ProviderFetch(provider, kind string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.providerFetches.WithLabelValues(provider, kind, result).Inc()
}

func (m *Metrics) MalformedRecord(provider string) {
	if m == nil {
		return
	}
	m.malformed.WithLabelValues(provider).Inc()
}

func (m *Metrics) GoalsDetected(strategy string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.goalsDetected.WithLabelValues(strategy).Add(float64(n))
}

func (m *Metrics) Delivery(tier string, ok bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.deliveries.WithLabelValues(tier, result).Inc()
}

func (m *Metrics) RemindersEmitted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reminders.Add(float64(n))
}

func (m *Metrics) ObserveCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.cycleDuration.Observe(d.Seconds())
}

func (m *Metrics) TrackedMatches(n int) {
	if m == nil {
		return
	}
	m.trackedMatches.Set(float64(n))
}
