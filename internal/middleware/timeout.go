package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kyvra-tech/iss-flyover-tracker/internal/models"
)

// Timeout bounds the request context. Upstream lookups observe the deadline
// and fail as transport errors; if the handler wrote nothing by then, a 504
// is sent.
func Timeout(timeout time.Duration, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}

		logger.WithFields(logrus.Fields{
			"request_id": GetRequestID(c),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"timeout":    timeout.String(),
		}).Warn("Request timeout")

		if !c.Writer.Written() {
			appErr := models.NewTimeoutError("Request took too long to process").
				WithMetadata("request_id", GetRequestID(c))
			c.AbortWithStatusJSON(appErr.StatusCode, appErr)
		}
	}
}
