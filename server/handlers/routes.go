package handlers

import (
	"exportdecl/server/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterDeps обработчики и общие зависимости роутера
type RouterDeps struct {
	Logger      *zap.Logger
	Recorder    middleware.RequestRecorder
	RateLimiter *middleware.IPRateLimiter

	Mappings   *MappingHandler
	Reports    *ReportHandler
	Uploads    *UploadHandler
	Monitoring *MonitoringHandler

	// MaxMultipartMemory память под multipart форму, остальное во временных файлах
	MaxMultipartMemory int64
}

// NewRouter собирает gin роутер: request id, логирование, восстановление после паник, gzip.
// Загрузка и генерация отчетов ограничены по частоте для каждого IP.
func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	if deps.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = deps.MaxMultipartMemory
	}

	r.Use(middleware.GinRequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware(logger, deps.Recorder))
	r.Use(middleware.GinRecoveryMiddleware(logger))
	r.Use(middleware.GinGzipMiddleware())

	var heavy []gin.HandlerFunc
	if deps.RateLimiter != nil {
		heavy = append(heavy, middleware.GinRateLimitMiddleware(deps.RateLimiter, logger))
	}

	if deps.Monitoring != nil {
		deps.Monitoring.RegisterRoutes(r)
	}

	api := r.Group("/api")
	if deps.Uploads != nil {
		deps.Uploads.RegisterRoutes(api, heavy...)
	}
	if deps.Reports != nil {
		deps.Reports.RegisterRoutes(api, heavy...)
	}
	if deps.Mappings != nil {
		deps.Mappings.RegisterRoutes(api)
	}

	return r
}
