package apiserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kzg-ceremony/sequencer/pkg/coordinator"
)

// Metrics holds the Prometheus collectors the sequencer exposes at /metrics.
type Metrics struct {
	registry *prometheus.Registry

	ContributionsTotal  prometheus.Counter
	ContributionsFailed *prometheus.CounterVec
	LobbySize           prometheus.Gauge
	ActiveContributor   prometheus.Gauge
}

// NewMetrics registers the sequencer's collectors against reg, the registry
// the caller supplies.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		ContributionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "kzg_ceremony_contributions_total",
			Help: "Total number of contributions accepted into the transcript.",
		}),
		ContributionsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kzg_ceremony_contributions_failed_total",
			Help: "Total number of rejected contribution attempts, by error code.",
		}, []string{"code"}),
		LobbySize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "kzg_ceremony_lobby_size",
			Help: "Current number of participants registered in the lobby.",
		}),
		ActiveContributor: factory.NewGauge(prometheus.GaugeOpts{
			Name: "kzg_ceremony_active_contributor",
			Help: "1 if a participant currently holds the active-contributor slot, else 0.",
		}),
	}
}

// Handler returns the HTTP handler serving Prometheus's text exposition
// format for the collectors registered in reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Observe sets the lobby-size gauge from a coordinator status snapshot. It
// is called by the /info/status handler on each request rather than pushed
// from the coordinator, keeping the coordinator free of a metrics
// dependency. The ActiveContributor gauge is not set here or anywhere else,
// so it always reads 0.
func (m *Metrics) Observe(status coordinator.Status) {
	m.LobbySize.Set(float64(status.LobbySize))
}

// RecordContribution increments the success/failure counters for a single
// contribution attempt. code is empty on success.
func (m *Metrics) RecordContribution(code string) {
	if code == "" {
		m.ContributionsTotal.Inc()
		return
	}
	m.ContributionsFailed.WithLabelValues(code).Inc()
}
