package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics holds the Prometheus collectors for the HTTP surface and
// the analytics pipeline.
type HTTPMetrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	PipelineRuns     *prometheus.CounterVec
	PipelineInsights prometheus.Gauge
}

// NewHTTPMetrics registers the collectors on the given registry.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_http_requests_total",
				Help: "HTTP requests by method, path and status.",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pulse_http_request_duration_seconds",
				Help:    "HTTP request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		PipelineRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_pipeline_runs_total",
				Help: "Analytics pipeline runs by trigger and outcome.",
			},
			[]string{"trigger", "outcome"},
		),
		PipelineInsights: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pulse_pipeline_insights",
				Help: "Insights produced by the most recent pipeline run.",
			},
		),
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration, m.PipelineRuns, m.PipelineInsights)
	return m
}

// Middleware records request count and latency per route.
func (m *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		m.requestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
	}
}
