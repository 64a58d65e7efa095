package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/salzundsand/server/internal/logger"
)

// Logger writes one structured access log line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.LogRequest(
			c.Request.Method,
			path,
			c.Writer.Status(),
			time.Since(start),
			c.ClientIP(),
			c.GetString(CtxRequestID),
		)
	}
}
