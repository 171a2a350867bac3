package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = `accbind`

// Metrics of a rendezvous server. Each server owns its registry so that
// several servers can live in one process.
type Metrics struct {
	Registry *prometheus.Registry

	MembersJoined   prometheus.Counter
	SplitsCompleted prometheus.Counter
	PendingRounds   prometheus.Gauge
	Jobs            prometheus.Gauge
	RequestDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	const subsystem = `rendezvous`
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		MembersJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "members_joined_total",
			Help:      "Number of processes that joined a split round.",
		}),
		SplitsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "splits_completed_total",
			Help:      "Number of split rounds joined by every process of their job.",
		}),
		PendingRounds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pending_rounds",
			Help:      "Split rounds waiting for processes to join.",
		}),
		Jobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "jobs",
			Help:      "Jobs known to the server.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Latency of rendezvous requests, long polls included.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 9),
		}, []string{"method", "route", "code"}),
	}
	m.Registry.MustRegister(
		m.MembersJoined,
		m.SplitsCompleted,
		m.PendingRounds,
		m.Jobs,
		m.RequestDuration,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
