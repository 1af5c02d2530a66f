package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iss_tracker",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "iss_tracker",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Upstream lookup metrics
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iss_tracker",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of upstream lookups by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "iss_tracker",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Upstream lookup duration in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"stage"},
	)

	UpstreamLastStatusCode = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "iss_tracker",
			Subsystem: "upstream",
			Name:      "last_status_code",
			Help:      "HTTP status code of the last upstream response per stage",
		},
		[]string{"stage"},
	)

	// Orchestration metrics
	FlyoverRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iss_tracker",
			Subsystem: "flyover",
			Name:      "runs_total",
			Help:      "Total number of orchestration runs by outcome",
		},
		[]string{"outcome"},
	)

	FlyoverRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "iss_tracker",
			Subsystem: "flyover",
			Name:      "run_duration_seconds",
			Help:      "End-to-end orchestration duration in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	FlyoverPassCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "iss_tracker",
			Subsystem: "flyover",
			Name:      "last_pass_count",
			Help:      "Number of pass windows returned by the last successful run",
		},
	)

	// Scheduler metrics
	SchedulerJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iss_tracker",
			Subsystem: "scheduler",
			Name:      "jobs_total",
			Help:      "Total number of scheduled jobs executed",
		},
		[]string{"job_name", "status"},
	)

	SchedulerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "iss_tracker",
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Scheduled job execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120},
		},
		[]string{"job_name"},
	)

	LastSchedulerJobTime = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "iss_tracker",
			Subsystem: "scheduler",
			Name:      "last_job_timestamp",
			Help:      "Unix timestamp of last job execution",
		},
		[]string{"job_name"},
	)

	// Rate limiter metrics
	RateLimitRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "iss_tracker",
			Subsystem: "rate_limiter",
			Name:      "rejected_total",
			Help:      "Total number of requests rejected by the rate limiter",
		},
	)
)

// Metrics provides convenience methods for recording metrics.
// A nil *Metrics records nothing.
type Metrics struct{}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordHTTPRequest records an HTTP request metric
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	HttpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	HttpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordUpstreamRequest records one stage lookup. statusCode is 0 when no
// response was received.
func (m *Metrics) RecordUpstreamRequest(stage, outcome string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	UpstreamRequestsTotal.WithLabelValues(stage, outcome).Inc()
	UpstreamRequestDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if statusCode > 0 {
		UpstreamLastStatusCode.WithLabelValues(stage).Set(float64(statusCode))
	}
}

// RecordFlyoverRun records a finished orchestration run
func (m *Metrics) RecordFlyoverRun(success bool, passes int, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	FlyoverRunsTotal.WithLabelValues(outcome).Inc()
	FlyoverRunDuration.Observe(duration.Seconds())
	if success {
		FlyoverPassCount.Set(float64(passes))
	}
}

// RecordSchedulerJob records a scheduler job execution
func (m *Metrics) RecordSchedulerJob(jobName string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	SchedulerJobsTotal.WithLabelValues(jobName, status).Inc()
	SchedulerJobDuration.WithLabelValues(jobName).Observe(duration.Seconds())
	LastSchedulerJobTime.WithLabelValues(jobName).SetToCurrentTime()
}

// RecordRateLimited counts a rejected request
func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	RateLimitRejectedTotal.Inc()
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
