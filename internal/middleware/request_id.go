package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ride_dispatch/internal/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with a correlation id, reusing the caller's
// X-Request-ID when present. The id is echoed in the response and carried on
// the request context for logging.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}
