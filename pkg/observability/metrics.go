// Package observability provides Prometheus metrics, HTTP metrics
// middleware and error reporters for the bookstore API.
package observability

import "github.com/prometheus/client_golang/prometheus"

// APIBuckets defines histogram buckets for API and identity provider
// latencies, ranging from 5ms to 10s.
var APIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var (
	// RequestsTotal counts all HTTP requests by method, route pattern, and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookstore_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookstore_request_duration_seconds",
			Help:    "Request duration",
			Buckets: APIBuckets,
		},
		[]string{"method", "route"},
	)

	// ErrorsTotal counts classified request failures by kind.
	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookstore_errors_total",
			Help: "Classified request errors",
		},
		[]string{"kind"},
	)

	// TokenExchangesTotal counts calls to the identity provider's token endpoint.
	TokenExchangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookstore_token_exchanges_total",
			Help: "Token exchanges",
		},
		[]string{"grant", "outcome"},
	)

	// TokenExchangeDuration records token endpoint latency in seconds.
	TokenExchangeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookstore_token_exchange_duration_seconds",
			Help:    "Token exchange latency",
			Buckets: APIBuckets,
		},
		[]string{"grant"},
	)

	// StoreOperationsTotal counts persistence operations by backend, kind and outcome.
	StoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookstore_store_operations_total",
			Help: "Store operations",
		},
		[]string{"backend", "operation", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		ErrorsTotal,
		TokenExchangesTotal,
		TokenExchangeDuration,
		StoreOperationsTotal,
	)
}
