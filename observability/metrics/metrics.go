// Package metrics exports Prometheus metrics for the summarization engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "condense_jobs_total",
			Help: "Summarization jobs by method and terminal status.",
		},
		[]string{"method", "status"},
	)

	llmInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "condense_llm_invocations_total",
			Help: "Model invocations by strategy.",
		},
		[]string{"strategy"},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "condense_job_duration_seconds",
			Help:    "Wall-clock duration of summarization jobs by method.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"method"},
	)
)

func init() {
	registry.MustRegister(jobsTotal, llmInvocations, jobDuration)
}

// RecordJob counts one job reaching a terminal status.
func RecordJob(method, status string) {
	jobsTotal.WithLabelValues(method, status).Inc()
}

// RecordInvocation counts one model invocation.
func RecordInvocation(strategy string) {
	llmInvocations.WithLabelValues(strategy).Inc()
}

// ObserveJobDuration records the wall-clock duration of one finished job.
func ObserveJobDuration(method string, seconds float64) {
	jobDuration.WithLabelValues(method).Observe(seconds)
}

// Handler serves the metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
