package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestRecorder получает маршрут, метод, статус и длительность каждого запроса
type RequestRecorder interface {
	RecordHTTPRequest(route, method string, status int, duration time.Duration)
}

// GinGzipMiddleware включает сжатие ответов.
// Скачивание отчетов не сжимается: xlsx уже zip.
func GinGzipMiddleware() gin.HandlerFunc {
	return gzip.Gzip(gzip.BestSpeed, gzip.WithExcludedPathsRegexs([]string{"^/api/report/download/"}))
}

// GinLoggerMiddleware логирует запросы через zap и передает их в метрики
func GinLoggerMiddleware(logger *zap.Logger, recorder RequestRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if recorder != nil {
			recorder.RecordHTTPRequest(c.FullPath(), c.Request.Method, status, latency)
		}

		if raw != "" {
			path = path + "?" + raw
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
			zap.String("request_id", GetRequestIDFromGin(c)),
		}
		if err := c.Errors.Last(); err != nil {
			fields = append(fields, zap.String("error", err.Error()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("HTTP request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Info("HTTP request", fields...)
		}
	}
}

// GinRecoveryMiddleware обрабатывает паники в Gin
func GinRecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				reqID := GetRequestIDFromGin(c)

				logger.Error("Panic recovered",
					zap.String("panic", fmt.Sprint(err)),
					zap.ByteString("stack", debug.Stack()),
					zap.String("request_id", reqID),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error:     true,
					Message:   "Внутренняя ошибка сервера",
					RequestID: reqID,
				})
			}
		}()

		c.Next()
	}
}
