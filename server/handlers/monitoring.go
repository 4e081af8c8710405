package handlers

import (
	"net/http"

	"exportdecl/server/monitoring"

	"github.com/gin-gonic/gin"
)

// MonitoringHandler обработчик здоровья и метрик
type MonitoringHandler struct {
	*BaseHandler
	health  *monitoring.HealthChecker
	metrics *monitoring.MetricsCollector
}

// NewMonitoringHandler создает новый обработчик мониторинга
func NewMonitoringHandler(health *monitoring.HealthChecker, metrics *monitoring.MetricsCollector, base *BaseHandler) *MonitoringHandler {
	return &MonitoringHandler{BaseHandler: base, health: health, metrics: metrics}
}

// RegisterRoutes регистрирует /health и /metrics
func (h *MonitoringHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HandleHealth)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}
}

// HandleHealth GET /health. 503 если критичный компонент недоступен.
func (h *MonitoringHandler) HandleHealth(c *gin.Context) {
	res := h.health.Check(c.Request.Context())
	status := http.StatusOK
	if res.Status == monitoring.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	SendJSONResponse(c, status, res)
}
