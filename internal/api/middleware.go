package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Adda-Baaj/durjog-khobor/internal/logger"
)

// loggerMiddleware logs one line per request, at error level when a handler
// attached errors.
func loggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]any{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"client_ip":   c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.Errors()
			log.ErrorObj("http request with errors", "http_request", fields)
			return
		}
		log.InfoObj("http request", "http_request", fields)
	}
}

// recoveryMiddleware turns handler panics into 500 responses.
func recoveryMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.ErrorObj("http handler panicked", "http_panic", map[string]any{
					"path":  c.Request.URL.Path,
					"panic": fmt.Sprint(r),
				})
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"status": "failed", "error": "internal error"})
			}
		}()
		c.Next()
	}
}
