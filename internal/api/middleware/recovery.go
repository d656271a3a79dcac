package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	apperrors "github.com/pulsedash/pulse-backend-go/pkg/errors"
	"github.com/pulsedash/pulse-backend-go/pkg/utils"
)

// Recovery converts panics into logged 500 responses instead of dropped
// connections.
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(logrus.Fields{
					"panic":      r,
					"method":     c.Request.Method,
					"path":       c.Request.URL.Path,
					"request_id": c.GetString(RequestIDKey),
				}).Error("Panic recovered in handler")

				utils.SendError(c, http.StatusInternalServerError, "Internal server error")
				c.Abort()
			}
		}()
		c.Next()
	}
}

// ErrorHandler translates errors attached to the context into the error
// response envelope. Handlers may c.Error(err) and return.
func ErrorHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := apperrors.GetStatusCode(err)
		message := err.Error()
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			message = appErr.Message
		}

		logger.WithError(err).WithField("status", status).Warn("Request error")
		utils.SendError(c, status, message)
	}
}
