package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okastudio/platewatch/pkg/metrics"
)

// Metrics records request latency per route. The route template is used
// rather than the raw path so ids do not explode label cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.APILatency.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
