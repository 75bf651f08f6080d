// Package metrics holds the Prometheus collectors for the pipeline service.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the service's Prometheus collectors.
//
// Metrics:
//   - pipeline_stage_transitions_total{from,to,kind} - persisted stage moves
//   - pipeline_stage_rejections_total{reason} - advance requests the state machine refused
//   - pipeline_heat_scores - histogram of computed heat scores
//   - pipeline_analytics_duration_seconds{view} - report computation time
//   - pipeline_snapshots_total{result} - snapshot job outcomes
//   - http_requests_total{method,route,status} - served requests
//   - http_request_duration_seconds{method,route} - request latency
type Metrics struct {
	StageTransitionsTotal *prometheus.CounterVec
	StageRejectionsTotal  *prometheus.CounterVec
	HeatScores            prometheus.Histogram
	AnalyticsDuration     *prometheus.HistogramVec
	SnapshotsTotal        *prometheus.CounterVec
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
}

// New returns the process-wide collectors, registering them on first use.
// sync.Once keeps repeated module construction from panicking on duplicate
// registration.
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			StageTransitionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "pipeline_stage_transitions_total",
					Help: "Total number of persisted pipeline stage moves",
				},
				[]string{"from", "to", "kind"}, // kind: "step" or "jump"
			),
			StageRejectionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "pipeline_stage_rejections_total",
					Help: "Total number of rejected stage advance requests",
				},
				[]string{"reason"},
			),
			HeatScores: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "pipeline_heat_scores",
					Help:    "Distribution of computed lead heat scores",
					Buckets: prometheus.LinearBuckets(10, 10, 10),
				},
			),
			AnalyticsDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "pipeline_analytics_duration_seconds",
					Help:    "Time spent computing pipeline reports",
					Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
				},
				[]string{"view"},
			),
			SnapshotsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "pipeline_snapshots_total",
					Help: "Total number of report snapshot jobs by result",
				},
				[]string{"result"},
			),
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests served",
				},
				[]string{"method", "route", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "route"},
			),
		}
	})
	return globalMetrics
}

// RecordTransition counts one persisted stage move.
func (m *Metrics) RecordTransition(from, to string, distance int) {
	kind := "step"
	if distance > 1 || distance < -1 {
		kind = "jump"
	}
	m.StageTransitionsTotal.WithLabelValues(from, to, kind).Inc()
}

// RecordRejection counts one refused advance request.
func (m *Metrics) RecordRejection(reason string) {
	m.StageRejectionsTotal.WithLabelValues(reason).Inc()
}

// ObserveHeatScore records a computed score.
func (m *Metrics) ObserveHeatScore(score int) {
	m.HeatScores.Observe(float64(score))
}

// ObserveAnalytics records how long a report view took.
func (m *Metrics) ObserveAnalytics(view string, took time.Duration) {
	m.AnalyticsDuration.WithLabelValues(view).Observe(took.Seconds())
}

// RecordSnapshot counts a snapshot job outcome ("stored", "failed").
func (m *Metrics) RecordSnapshot(result string) {
	m.SnapshotsTotal.WithLabelValues(result).Inc()
}

// Middleware records request count and latency by route template so ids in
// the path do not explode label cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
