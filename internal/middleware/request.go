package middleware

import (
	"time" // Request latency

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // Request IDs
	"github.com/sirupsen/logrus" // Logging library
)

// RequestIDHeader carries the request ID in and out
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is the context key of the request ID
const RequestIDKey = "requestID"

// RequestID reuses the caller's request ID or assigns a new one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader) // Caller supplied ID
		if id == "" {
			id = uuid.NewString() // Generate one
		}
		c.Set(RequestIDKey, id)       // Store in context
		c.Header(RequestIDHeader, id) // Echo back to the caller
		c.Next()                      // Proceed to the next handler
	}
}

// RequestLogger writes one structured line per request
func RequestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now() // Start timer
		c.Next()            // Run the handlers
		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
			"request_id": c.GetString(RequestIDKey),
		}
		if id, ok := UserID(c); ok {
			fields["user_id"] = id // Authenticated member
		}
		entry := log.WithFields(fields)
		// Log level follows the status class
		switch {
		case c.Writer.Status() >= 500:
			entry.WithField("errors", c.Errors.String()).Error("Request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request handled")
		}
	}
}
