package middleware

import (
	"errors"
	"net/http"

	"danskegas-backend/internal/delivery/http/response"
	"danskegas-backend/internal/metrics"
	"danskegas-backend/pkg/apperror"
	"danskegas-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GenericErrorMessage is sent for any failure that is not an AppError.
const GenericErrorMessage = "Failed to send email"

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		kind := apperror.KindOf(err)

		var appErr *apperror.AppError
		var detail string
		if errors.As(err, &appErr) {
			detail = errorDetail(appErr)
		} else {
			// Internal detail stays in the log
			appErr = apperror.Unexpected(GenericErrorMessage, err)
			detail = GenericErrorMessage
		}
		metrics.RecordRequestError(string(kind), appErr.Code)

		level := zap.WarnLevel
		if appErr.Code >= http.StatusInternalServerError {
			level = zap.ErrorLevel
		}
		fields := []zap.Field{
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("kind", string(kind)),
			zap.Int("status", appErr.Code),
		}
		if appErr.Err != nil {
			fields = append(fields, zap.Error(appErr.Err))
		}
		logger.Log.Log(level, "request failed", fields...)

		response.Error(c, appErr.Code, appErr.Message, detail)
	}
}

// errorDetail is the short error string placed in the envelope. Only
// user-correctable problems repeat their message; server faults stay generic.
func errorDetail(appErr *apperror.AppError) string {
	if appErr.Code < http.StatusInternalServerError {
		return appErr.Message
	}
	return string(appErr.Kind)
}

// Recovery turns a panic into the standard 500 envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Log.Error("panic recovered",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Any("panic", recovered),
			zap.Stack("stack"),
		)
		response.Error(c, http.StatusInternalServerError, GenericErrorMessage, GenericErrorMessage)
		c.Abort()
	})
}
