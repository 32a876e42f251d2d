// Package metrics exposes Prometheus collectors for the gateway's HTTP surface
// and its store reads.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Store fetch outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// Registry holds the gateway's collectors. Only these are exported at /metrics.
var Registry = prometheus.NewRegistry()

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_http_request_duration_seconds",
			Help:    "Time taken to serve an HTTP request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

// Store metrics
var (
	StoreFetchTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_store_fetch_total",
			Help: "Total number of snapshot fetches by outcome",
		},
		[]string{"backend", "outcome"},
	)

	StoreFetchDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_store_fetch_duration_seconds",
			Help:    "Time taken to fetch a snapshot from the store",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)
)

// ObserveRequest records one served request.
func ObserveRequest(route, method string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObserveStoreFetch records one snapshot fetch.
func ObserveStoreFetch(backend, outcome string, elapsed time.Duration) {
	StoreFetchTotal.WithLabelValues(backend, outcome).Inc()
	StoreFetchDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
}

// Handler exposes the gateway's registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
