// Package metrics exposes Prometheus instrumentation for the sync engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the process registry and the instruments registered on it.
// A fresh registry per Manager keeps tests isolated from each other and
// from the default global registry.
type Manager struct {
	registry *prometheus.Registry

	SyncPasses      prometheus.Counter
	SyncFailures    prometheus.Counter
	ResultsIngested prometheus.Counter
	UpstreamErrors  prometheus.Counter
	LinkedAccounts  prometheus.Gauge
}

func New() *Manager {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	return &Manager{
		registry: registry,
		SyncPasses: auto.NewCounter(prometheus.CounterOpts{
			Name: "monkeyboard_sync_passes_total",
			Help: "Completed multi-account sync passes.",
		}),
		SyncFailures: auto.NewCounter(prometheus.CounterOpts{
			Name: "monkeyboard_sync_account_failures_total",
			Help: "Account syncs that ended in an error.",
		}),
		ResultsIngested: auto.NewCounter(prometheus.CounterOpts{
			Name: "monkeyboard_results_ingested_total",
			Help: "Results written to storage by sync passes.",
		}),
		UpstreamErrors: auto.NewCounter(prometheus.CounterOpts{
			Name: "monkeyboard_upstream_errors_total",
			Help: "Failed calls to the scoring API.",
		}),
		LinkedAccounts: auto.NewGauge(prometheus.GaugeOpts{
			Name: "monkeyboard_linked_accounts",
			Help: "Currently linked accounts.",
		}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
