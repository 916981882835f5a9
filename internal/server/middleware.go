package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/echoface/mediation-adapter/internal/metrics"
	"github.com/echoface/mediation-adapter/pkg/logger"
)

// PrometheusMetrics records duration, count and in-flight requests per route.
func PrometheusMetrics(m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.RequestInFlight.Inc()
		defer m.RequestInFlight.Dec()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		duration := time.Since(start).Seconds()
		m.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		m.RequestCount.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

// RequestLogger writes one entry per request.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "errors", c.Errors.String())
		}

		switch {
		case c.Writer.Status() >= 500:
			log.Warn("request", kv...)
		default:
			log.Debug("request", kv...)
		}
	}
}
