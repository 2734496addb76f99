package middleware

import (
	"strconv"
	"time"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request totals and latency by route template, so ids in
// the path do not explode label cardinality.
func Metrics(m *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.InFlightGauge.Inc()
		start := time.Now()
		c.Next()
		m.InFlightGauge.Dec()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.RequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}
