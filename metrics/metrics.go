// Package metrics provides Prometheus metrics for the HTTP server and the
// upstream SmPC fetches:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//   - smpc_fetch_total: Counter with a result label (success, error)
//   - smpc_fetch_duration_seconds: Histogram of upstream fetch latency
//   - smpc_records_loaded: Gauge with the size of the current data set
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (clients seen in the last ~5 minutes)",
		},
	)

	UpstreamFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smpc_fetch_total",
			Help: "Upstream SmPC fetches by result",
		},
		[]string{"result"},
	)

	UpstreamFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "smpc_fetch_duration_seconds",
			Help:    "Upstream SmPC fetch latency, download and decode",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	RecordsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "smpc_records_loaded",
			Help: "Records in the current data set",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(UpstreamFetchTotal)
	prometheus.MustRegister(UpstreamFetchDuration)
	prometheus.MustRegister(RecordsLoaded)
}

// ObserveFetch records the outcome of one upstream fetch
func ObserveFetch(seconds float64, err error) {
	UpstreamFetchDuration.Observe(seconds)
	if err != nil {
		UpstreamFetchTotal.WithLabelValues("error").Inc()
		return
	}
	UpstreamFetchTotal.WithLabelValues("success").Inc()
}
