package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	submissionsTotal      *prometheus.CounterVec
	certificatesTotal     *prometheus.CounterVec
	regradesTotal         *prometheus.CounterVec
	scorePercentage       *prometheus.HistogramVec
	eventsPublishedTotal  *prometheus.CounterVec
	lockWaitSecondsMetric prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used by the API and the grading pipeline.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_submissions_total",
			Help: "Submissions processed, labelled by outcome.",
		}, []string{"outcome"})

		certificatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_certificates_total",
			Help: "Certificate gate decisions, labelled by kind and outcome.",
		}, []string{"kind", "outcome"})

		regradesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_regrades_total",
			Help: "Instructor regrades, labelled by policy and outcome.",
		}, []string{"policy", "outcome"})

		scorePercentage = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grading_score_percentage",
			Help:    "Distribution of graded percentages.",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}, []string{"source"})

		eventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_events_published_total",
			Help: "Grading events handed to brokers, labelled by type and result.",
		}, []string{"type", "result"})

		lockWaitSecondsMetric = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grading_lock_wait_seconds",
			Help:    "Time spent waiting for per-student grading locks.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			submissionsTotal,
			certificatesTotal,
			regradesTotal,
			scorePercentage,
			eventsPublishedTotal,
			lockWaitSecondsMetric,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// SubmissionsTotal counts submissions by outcome (accepted, duplicate, invalid, failed).
func SubmissionsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// CertificatesTotal counts certificate gate outcomes.
func CertificatesTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return certificatesTotal
}

// RegradesTotal counts regrade attempts.
func RegradesTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return regradesTotal
}

// ScorePercentage observes graded percentages.
func ScorePercentage() *prometheus.HistogramVec {
	RegisterMetrics()
	return scorePercentage
}

// EventsPublishedTotal counts grading events handed to brokers.
func EventsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishedTotal
}

// LockWaitSeconds observes time spent acquiring grading locks.
func LockWaitSeconds() prometheus.Histogram {
	RegisterMetrics()
	return lockWaitSecondsMetric
}
