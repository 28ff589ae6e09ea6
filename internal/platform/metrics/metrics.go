// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bookstore"

// Registry is the registry every collector of this service is registered on.
var Registry = prometheus.NewRegistry()

var (
	// HTTPRequestsTotal counts served requests by method, route pattern and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes request latency by method and route pattern.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// AssetUploadsTotal counts cover image uploads by result.
	AssetUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "asset",
			Name:      "uploads_total",
			Help:      "Total number of cover image uploads by result",
		},
		[]string{"result"},
	)

	// AssetUploadBytes observes the size of accepted cover images.
	AssetUploadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "asset",
			Name:      "upload_bytes",
			Help:      "Size in bytes of uploaded cover images",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 2, 10),
		},
	)
)

// Upload results used as the AssetUploadsTotal label.
const (
	ResultSuccess  = "success"
	ResultTooLarge = "too_large"
	ResultFailure  = "failure"
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AssetUploadsTotal,
		AssetUploadBytes,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
