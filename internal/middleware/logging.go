package middleware

import (
	"time"

	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/cyphera/cyphera-agent/internal/metrics"
	"github.com/gin-gonic/gin"
)

// RequestLoggingMiddleware logs each completed request and records its
// latency when m is non-nil.
func RequestLoggingMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	base := logger.NewStructuredLogger(logger.ComponentMiddleware)
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		duration := time.Since(startTime)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if m != nil {
			m.ObserveRequest(route, c.Request.Method, c.Writer.Status(), duration)
		}
		if route == "/health" || route == "/metrics" {
			return
		}

		reqLog := base.
			WithCorrelationID(GetCorrelationID(c)).
			WithField("client_ip", c.ClientIP())
		if caller, ok := CallerAddress(c); ok {
			reqLog = reqLog.WithAccountID(caller.Hex())
		}
		for _, err := range c.Errors {
			reqLog.Error("Request error", err.Err)
		}
		reqLog.LogHTTPRequest(c.Request.Method, c.Request.URL.Path, c.Writer.Status(), duration)
	}
}
