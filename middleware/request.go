package middleware

import (
	"time"

	"flower_shop/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestID keeps an incoming X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// AccessLog writes one line per request through the info logger.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		logger.LogRequest(c.GetString(requestIDKey), c.Request.Method, path, c.ClientIP(), c.Writer.Status(), time.Since(start))
		for _, err := range c.Errors {
			logger.LogError("[%s] %s %s: %v", c.GetString(requestIDKey), c.Request.Method, path, err.Err)
		}
	}
}
