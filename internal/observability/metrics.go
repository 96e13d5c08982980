package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	workflowRequestsTotal  *prometheus.CounterVec
	workflowLatencySeconds *prometheus.HistogramVec
	workflowErrorsTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used for coursework observability.
func RegisterMetrics() {
	registerOnce.Do(func() {
		workflowRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursework_requests_total",
			Help: "Total number of coursework API requests served.",
		}, []string{"method", "route", "status"})

		workflowLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coursework_latency_seconds",
			Help:    "Latency distribution for coursework API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		workflowErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursework_errors_total",
			Help: "Total number of error responses returned by coursework endpoints.",
		}, []string{"method", "route", "status"})

		prometheus.MustRegister(workflowRequestsTotal, workflowLatencySeconds, workflowErrorsTotal)
	})
}

// WorkflowRequests exposes the counter for coursework requests.
func WorkflowRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return workflowRequestsTotal
}

// WorkflowLatency exposes the latency histogram for coursework requests.
func WorkflowLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return workflowLatencySeconds
}

// WorkflowErrors exposes the counter for coursework error responses.
func WorkflowErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return workflowErrorsTotal
}
