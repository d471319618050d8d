// Package metrics exposes the Prometheus collectors of the rate engine.
// Every method is safe to call on a nil *Metrics, so collaborators can run without metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeCached  = "cached"
	OutcomeUnknown = "unknown"
	OutcomeNoData  = "no_data"
	OutcomePoison  = "poison"
)

type Metrics struct {
	ProviderCallsTotal   *prometheus.CounterVec
	ProviderCallDuration *prometheus.HistogramVec
	RatesPersistedTotal  prometheus.Counter
	BackfillCellsTotal   *prometheus.CounterVec
	BackfillJobsTotal    *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProviderCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchanger_provider_calls_total",
				Help: "Rate provider calls by provider and outcome.",
			},
			[]string{"provider", "outcome"},
		),
		ProviderCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "exchanger_provider_call_duration_seconds",
				Help:    "Latency of rate provider calls.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		RatesPersistedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "exchanger_rates_persisted_total",
				Help: "Resolved rates written to the store (forward and inverse count as one).",
			},
		),
		BackfillCellsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchanger_backfill_cells_total",
				Help: "Rate table cells produced by synchronous backfills, by outcome.",
			},
			[]string{"outcome"},
		),
		BackfillJobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchanger_backfill_jobs_total",
				Help: "Queued backfill jobs processed, by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) ObserveProviderCall(provider, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.ProviderCallsTotal.WithLabelValues(provider, outcome).Inc()
	m.ProviderCallDuration.WithLabelValues(provider).Observe(took.Seconds())
}

func (m *Metrics) RatePersisted() {
	if m == nil {
		return
	}
	m.RatesPersistedTotal.Inc()
}

func (m *Metrics) BackfillCell(outcome string) {
	if m == nil {
		return
	}
	m.BackfillCellsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) BackfillJob(outcome string) {
	if m == nil {
		return
	}
	m.BackfillJobsTotal.WithLabelValues(outcome).Inc()
}

// Handler serves the collectors of g in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
