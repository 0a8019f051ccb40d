package httpclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboard_api_requests_total",
			Help: "Backend API requests by operation and outcome code.",
		},
		[]string{"operation", "method", "outcome"},
	)

	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "onboard_api_request_duration_seconds",
			Help:    "Backend API request latency, including reading the body.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "method"},
	)
)

func init() {
	prometheus.MustRegister(apiRequestsTotal, apiRequestDuration)
}

func observeRequest(operation, method, outcome string, d time.Duration) {
	apiRequestsTotal.WithLabelValues(operation, method, outcome).Inc()
	apiRequestDuration.WithLabelValues(operation, method).Observe(d.Seconds())
}
