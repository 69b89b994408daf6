// Package metrics holds the Prometheus collectors for play sessions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Answer outcome labels.
const (
	OutcomeCorrect   = "correct"
	OutcomeIncorrect = "incorrect"
	OutcomeTimeout   = "timeout"
	OutcomeRetry     = "retry"
)

type Metrics struct {
	registry *prometheus.Registry

	SessionsStarted   *prometheus.CounterVec
	SessionsCompleted *prometheus.CounterVec
	SessionsReaped    prometheus.Counter
	Answers           *prometheus.CounterVec
	LiveSessions      prometheus.Gauge
	ResultsPersisted  prometheus.Counter
	ResultsRequeued   prometheus.Counter
}

// New registers every collector in a fresh registry, so tests can build as
// many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SessionsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kidquest_sessions_started_total",
			Help: "Total number of play sessions started, by game kind.",
		}, []string{"kind"}),
		SessionsCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kidquest_sessions_completed_total",
			Help: "Total number of play sessions completed, by game kind.",
		}, []string{"kind"}),
		SessionsReaped: f.NewCounter(prometheus.CounterOpts{
			Name: "kidquest_sessions_reaped_total",
			Help: "Total number of idle play sessions torn down by the reaper.",
		}),
		Answers: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kidquest_answers_total",
			Help: "Total number of resolved answers, by outcome.",
		}, []string{"outcome"}),
		LiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "kidquest_live_sessions",
			Help: "Number of play sessions currently held in memory.",
		}),
		ResultsPersisted: f.NewCounter(prometheus.CounterOpts{
			Name: "kidquest_results_persisted_total",
			Help: "Total number of play results written to PostgreSQL.",
		}),
		ResultsRequeued: f.NewCounter(prometheus.CounterOpts{
			Name: "kidquest_results_requeued_total",
			Help: "Total number of play results pushed back to the queue after a failed write.",
		}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
