package httpapi

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// RequestsTotal counts handled HTTP requests.
// Use RegisterMetrics to register this with a Prometheus registry.
var RequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bwg_http_requests_total",
		Help: "Total number of handled HTTP requests",
	},
	[]string{"method", "path", "status"},
)

// RequestDuration is the histogram for request handling duration.
// Use RegisterMetrics to register this with a Prometheus registry.
var RequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "bwg_http_request_duration_seconds",
		Help:    "Request handling duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "path"},
)

// RegisterMetrics registers the httpapi metrics with the given registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(RequestsTotal)
	reg.MustRegister(RequestDuration)
}

// metricsMiddleware records a counter and duration sample per request,
// labelled with the route pattern rather than the raw URL to keep
// cardinality bounded.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		RequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
