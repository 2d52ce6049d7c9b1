// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shelterstats"

// Metrics holds every collector on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	refreshRuns     *prometheus.CounterVec
	refreshDuration *prometheus.HistogramVec
	refreshSkipped  prometheus.Counter
	datasetRecords  prometheus.Gauge
	droppedRows     prometheus.Counter
	datasetVersion  prometheus.Gauge
	lastSuccess     prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	proxyCalls   *prometheus.CounterVec
}

// New registers the collectors, plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		refreshRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_runs_total",
			Help:      "Refresh runs by trigger and load status.",
		}, []string{"trigger", "status"}),
		refreshDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Time spent loading records.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"status"}),
		refreshSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_skipped_total",
			Help:      "Refresh requests dropped because one was already in flight.",
		}),
		datasetRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_records",
			Help:      "Records in the published dataset.",
		}),
		droppedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_dropped_rows_total",
			Help:      "Rows rejected during ingestion (missing field or bad date).",
		}),
		datasetVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_version",
			Help:      "Version of the published dataset.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refresh_last_success_timestamp_seconds",
			Help:      "Unix time of the last load that produced records.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		proxyCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheets_proxy_upstream_calls_total",
			Help:      "Upstream spreadsheet reads made by the proxy endpoint, by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.refreshRuns,
		m.refreshDuration,
		m.refreshSkipped,
		m.datasetRecords,
		m.droppedRows,
		m.datasetVersion,
		m.lastSuccess,
		m.httpRequests,
		m.httpDuration,
		m.proxyCalls,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRefresh records one completed refresh run.
func (m *Metrics) ObserveRefresh(trigger, status string, d time.Duration, records, dropped int, version uint64, published bool) {
	m.refreshRuns.WithLabelValues(trigger, status).Inc()
	m.refreshDuration.WithLabelValues(status).Observe(d.Seconds())
	if published {
		m.datasetRecords.Set(float64(records))
		m.datasetVersion.Set(float64(version))
		m.droppedRows.Add(float64(dropped))
		m.lastSuccess.SetToCurrentTime()
	}
}

// RefreshSkipped counts a refresh dropped by the overlap policy.
func (m *Metrics) RefreshSkipped() {
	m.refreshSkipped.Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ProxyCall counts an upstream read of the proxy endpoint.
func (m *Metrics) ProxyCall(outcome string) {
	m.proxyCalls.WithLabelValues(outcome).Inc()
}

// RegisterCacheStats exposes hit and miss counters read from fn at scrape time.
func (m *Metrics) RegisterCacheStats(fn func() (hits, misses uint64)) {
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_cache_hits_total",
			Help:      "Memoized stats results served from cache.",
		}, func() float64 { h, _ := fn(); return float64(h) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_cache_misses_total",
			Help:      "Stats results computed because no memoized entry existed.",
		}, func() float64 { _, mi := fn(); return float64(mi) }),
	)
}
