package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the bot's Prometheus collectors. Each instance owns its
// registry so servers and tests never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	Interactions   *prometheus.CounterVec
	RateLimit      *prometheus.CounterVec
	Commits        *prometheus.CounterVec
	CommitDuration prometheus.Histogram
	SecretsBlocked prometheus.Counter
}

// New registers all collectors. indexSize reports the current number of
// indexed records and may be nil.
func New(indexSize func() int) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,

		Interactions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tipsbot_interactions_total",
			Help: "Interactions handled, by kind and outcome",
		}, []string{"kind", "outcome"}),

		RateLimit: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tipsbot_ratelimit_decisions_total",
			Help: "Rate limit decisions; store_error counts fail-open or fail-closed fallbacks",
		}, []string{"decision"}),

		Commits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tipsbot_commits_total",
			Help: "Commit attempts by result and failing step",
		}, []string{"result", "step"}),

		CommitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tipsbot_commit_duration_seconds",
			Help:    "Wall time of the full commit sequence",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 15, 30},
		}),

		SecretsBlocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "tipsbot_secrets_blocked_total",
			Help: "Tip submissions rejected because they contained a secret",
		}),
	}

	if indexSize != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "tipsbot_index_records",
			Help: "Records in the loaded content index",
		}, func() float64 { return float64(indexSize()) })
	}
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveInteraction(kind, outcome string) {
	if m == nil {
		return
	}
	m.Interactions.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveRateLimit(allowed, storeErr bool) {
	if m == nil {
		return
	}
	decision := "allowed"
	if !allowed {
		decision = "throttled"
	}
	if storeErr {
		decision = "store_error"
	}
	m.RateLimit.WithLabelValues(decision).Inc()
}

// ObserveCommit records a finished commit; step is empty on success.
func (m *Metrics) ObserveCommit(result, step string, took time.Duration) {
	if m == nil {
		return
	}
	m.Commits.WithLabelValues(result, step).Inc()
	m.CommitDuration.Observe(took.Seconds())
}

func (m *Metrics) ObserveSecretBlocked() {
	if m == nil {
		return
	}
	m.SecretsBlocked.Inc()
}
