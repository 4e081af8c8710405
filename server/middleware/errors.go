package middleware

import (
	"errors"
	"net/http"

	apperrors "exportdecl/server/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HTTPError интерфейс для ошибок с HTTP статусом и сообщением
type HTTPError interface {
	error
	StatusCode() int
	UserMessage() string
	Unwrap() error
}

var _ HTTPError = (*apperrors.AppError)(nil)

// ErrorResponse структура ответа об ошибке
type ErrorResponse struct {
	Error     bool   `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// AbortWithError пишет JSON ошибку и прерывает цепочку обработчиков.
// Ошибки без HTTP статуса отдаются как 500 с общим сообщением.
func AbortWithError(c *gin.Context, logger *zap.Logger, err error) {
	reqID := GetRequestIDFromGin(c)

	statusCode := http.StatusInternalServerError
	message := "Внутренняя ошибка сервера"

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		statusCode = httpErr.StatusCode()
		message = httpErr.UserMessage()
	}

	fields := []zap.Field{
		zap.Error(err),
		zap.Int("status_code", statusCode),
		zap.String("request_id", reqID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
	}
	if logger != nil {
		if statusCode >= http.StatusInternalServerError {
			logger.Error("HTTP error", fields...)
		} else {
			logger.Warn("HTTP error", fields...)
		}
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Error:     true,
		Message:   message,
		RequestID: reqID,
	})
}
