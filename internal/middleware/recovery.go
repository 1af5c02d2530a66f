package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kyvra-tech/iss-flyover-tracker/internal/models"
)

// Recovery turns a handler panic into a 500 AppError response
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(logrus.Fields{
					"request_id": GetRequestID(c),
					"method":     c.Request.Method,
					"path":       c.Request.URL.Path,
					"client_ip":  c.ClientIP(),
					"panic":      r,
					"stack":      string(debug.Stack()),
				}).Error("Panic recovered")

				appErr := models.NewInternalError("An unexpected error occurred. Please try again later.", fmt.Errorf("panic: %v", r)).
					WithMetadata("request_id", GetRequestID(c))
				c.AbortWithStatusJSON(appErr.StatusCode, appErr)
			}
		}()

		c.Next()
	}
}
