package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/logging"
)

// RequestIDHeader carries the request correlation ID.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags every request with a ULID, reusing one supplied
// by the caller, and stores it in the request context for logging.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = ulid.Make().String()
		}

		c.Header(RequestIDHeader, requestID)
		c.Set("requestId", requestID)
		c.Request = c.Request.WithContext(logging.ContextWithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// AccessLogMiddleware writes one line per request to the http channel.
func AccessLogMiddleware(logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := logger.WithContext(logging.ChannelHTTP, c.Request.Context())
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if tenantID, ok := GetTenantID(c); ok {
			args = append(args, "tenantId", tenantID)
		}
		if c.Writer.Status() >= 500 {
			log.Error("Request failed", args...)
			return
		}
		log.Info("Request served", args...)
	}
}
