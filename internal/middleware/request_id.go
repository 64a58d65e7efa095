package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CtxRequestID is the context key for the per-request correlation ID.
const CtxRequestID = "requestID"

// RequestIDHeader is the response header carrying the correlation ID.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns a correlation ID to every request, honoring one the
// client already sent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(CtxRequestID, id)
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}
