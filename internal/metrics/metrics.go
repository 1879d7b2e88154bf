// Package metrics exposes Prometheus instrumentation for asset resolution
// and proxy generation. A nil *Metrics is valid and records nothing, so
// callers never need to guard their instrumentation sites.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors montage updates at runtime.
type Metrics struct {
	registry *prometheus.Registry

	assetsLoading prometheus.Gauge
	assetsLoaded  prometheus.Gauge
	assetsFailed  prometheus.Gauge
	relocations   prometheus.Counter
	jobsDone      prometheus.Counter
	jobsFailed    prometheus.Counter
	queueState    *prometheus.GaugeVec
}

// New constructs a metrics bundle with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		assetsLoading: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "montage_assets_loading",
			Help: "Number of asset resolutions currently in flight.",
		}),
		assetsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "montage_assets_loaded",
			Help: "Number of assets resolved and usable.",
		}),
		assetsFailed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "montage_assets_failed",
			Help: "Number of assets whose resolution failed terminally.",
		}),
		relocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "montage_relocations_total",
			Help: "Relocation proposals accepted for failed identifiers.",
		}),
		jobsDone: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "montage_proxy_jobs_done_total",
			Help: "Proxy jobs finished successfully.",
		}),
		jobsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "montage_proxy_jobs_failed_total",
			Help: "Proxy jobs that failed.",
		}),
		queueState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "montage_proxy_queue_state",
			Help: "Proxy queue lifecycle state, 1 for the active state.",
		}, []string{"state"}),
	}
	registry.MustRegister(
		m.assetsLoading, m.assetsLoaded, m.assetsFailed,
		m.relocations, m.jobsDone, m.jobsFailed, m.queueState,
	)
	return m
}

// Handler returns an HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetAssetCounts records the registry's current set sizes.
func (m *Metrics) SetAssetCounts(loading, loaded, failed int) {
	if m == nil {
		return
	}
	m.assetsLoading.Set(float64(loading))
	m.assetsLoaded.Set(float64(loaded))
	m.assetsFailed.Set(float64(failed))
}

// RelocationAccepted counts one accepted relocation proposal.
func (m *Metrics) RelocationAccepted() {
	if m == nil {
		return
	}
	m.relocations.Inc()
}

// JobDone counts one finished proxy job.
func (m *Metrics) JobDone() {
	if m == nil {
		return
	}
	m.jobsDone.Inc()
}

// JobFailed counts one failed proxy job.
func (m *Metrics) JobFailed() {
	if m == nil {
		return
	}
	m.jobsFailed.Inc()
}

// SetQueueState marks state as the queue's active lifecycle state.
func (m *Metrics) SetQueueState(state string) {
	if m == nil {
		return
	}
	for _, s := range []string{"idle", "running", "paused", "cancelled", "completed"} {
		value := 0.0
		if s == state {
			value = 1
		}
		m.queueState.WithLabelValues(s).Set(value)
	}
}
