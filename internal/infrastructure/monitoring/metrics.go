package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the shell
type Metrics struct {
	gatherer prometheus.Gatherer

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Manifest metrics
	ManifestRefreshes *prometheus.CounterVec
	ManifestDuration  prometheus.Histogram
	AppsAvailable     prometheus.Gauge

	// Loader metrics
	AppLoads          *prometheus.CounterVec
	AppLoadDuration   prometheus.Histogram
	AppsLoaded        prometheus.Gauge
	DegradedImports   prometheus.Counter
	RegistryResets    *prometheus.CounterVec
	StaleResults      *prometheus.CounterVec
	RenderDuration    prometheus.Histogram
	StreamConnections prometheus.Gauge
}

// NewMetrics creates a collector registered on reg. A nil reg uses a fresh
// private registry, which keeps tests independent of each other.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shell_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		ManifestRefreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_manifest_refreshes_total",
				Help: "Manifest refreshes by outcome and served variant",
			},
			[]string{"outcome", "variant"},
		),
		ManifestDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shell_manifest_fetch_duration_seconds",
				Help:    "Time spent walking manifest candidates",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		AppsAvailable: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_apps_available",
				Help: "Number of micro-apps in the latest manifest",
			},
		),

		AppLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_app_loads_total",
				Help: "Micro-app load attempts by outcome",
			},
			[]string{"outcome"},
		),
		AppLoadDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shell_app_load_duration_seconds",
				Help:    "Bundle fetch plus evaluation time",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		AppsLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_apps_loaded",
				Help: "Number of micro-apps with an evaluated component",
			},
		),
		DegradedImports: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "shell_relative_imports_degraded_total",
				Help: "Relative imports replaced by a no-op stub after a failure",
			},
		),
		RegistryResets: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_registry_resets_total",
				Help: "Hard resets of the registry state by reason",
			},
			[]string{"reason"},
		),
		StaleResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_stale_results_total",
				Help: "Asynchronous results discarded because newer state superseded them",
			},
			[]string{"kind"},
		),
		RenderDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shell_render_duration_seconds",
				Help:    "Component render time inside the sandbox",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		StreamConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_stream_connections",
				Help: "Number of open registry event streams",
			},
		),
	}
}

// Handler exposes the collected metrics in Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordManifestRefresh records the outcome of one manifest refresh
func (m *Metrics) RecordManifestRefresh(outcome, variant string, duration time.Duration) {
	m.ManifestRefreshes.WithLabelValues(outcome, variant).Inc()
	m.ManifestDuration.Observe(duration.Seconds())
}

// RecordAppLoad records the outcome of one micro-app load
func (m *Metrics) RecordAppLoad(outcome string, duration time.Duration) {
	m.AppLoads.WithLabelValues(outcome).Inc()
	m.AppLoadDuration.Observe(duration.Seconds())
}

// RecordDegradedImport counts a relative import replaced by a stub
func (m *Metrics) RecordDegradedImport() {
	m.DegradedImports.Inc()
}

// RecordReset counts a hard reset of the registry state
func (m *Metrics) RecordReset(reason string) {
	m.RegistryResets.WithLabelValues(reason).Inc()
}

// RecordStale counts a discarded stale result ("load" or "refresh")
func (m *Metrics) RecordStale(kind string) {
	m.StaleResults.WithLabelValues(kind).Inc()
}

// RecordRender records a component render
func (m *Metrics) RecordRender(duration time.Duration) {
	m.RenderDuration.Observe(duration.Seconds())
}

// SetRegistrySize updates the available and loaded gauges
func (m *Metrics) SetRegistrySize(available, loaded int) {
	m.AppsAvailable.Set(float64(available))
	m.AppsLoaded.Set(float64(loaded))
}
