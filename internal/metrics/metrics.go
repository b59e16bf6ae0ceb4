// Package metrics provides Prometheus instrumentation for the
// retrieval and indexing pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the application metrics.
type Collector struct {
	registry *prometheus.Registry

	// Retrieval metrics
	SearchesTotal    *prometheus.CounterVec
	DownloadsTotal   *prometheus.CounterVec
	DownloadBytes    prometheus.Counter
	DownloadDuration prometheus.Histogram
	DownloadsSkipped prometheus.Counter

	// Catalog metrics
	IndexGranules *prometheus.GaugeVec
	CatalogSaves  prometheus.Counter
}

// NewCollector creates a metrics collector on its own registry.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Searches by product and outcome",
			},
			[]string{"product", "outcome"},
		),

		DownloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "downloads_total",
				Help:      "Download attempts by provider, product, and outcome",
			},
			[]string{"provider", "product", "outcome"},
		),

		DownloadBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "download_bytes_total",
				Help:      "Total bytes materialized locally",
			},
		),

		DownloadDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "download_duration_seconds",
				Help:      "Duration of individual downloads in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 1800},
			},
		),

		DownloadsSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "downloads_skipped_total",
				Help:      "Downloads avoided because the file was already local",
			},
		),

		IndexGranules: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "index_granules",
				Help:      "Number of granules indexed per product",
			},
			[]string{"product"},
		),

		CatalogSaves: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_saves_total",
				Help:      "Catalog persistence operations",
			},
		),
	}
}

// Handler returns the HTTP handler exposing the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
