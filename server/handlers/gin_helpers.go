package handlers

import (
	"strconv"

	"exportdecl/database"
	apperrors "exportdecl/server/errors"
	"exportdecl/server/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BaseHandler общие зависимости обработчиков
type BaseHandler struct {
	logger *zap.Logger
}

// NewBaseHandler создает базовый обработчик
func NewBaseHandler(logger *zap.Logger) *BaseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseHandler{logger: logger}
}

// SendJSONResponse отправляет JSON ответ через Gin context
func SendJSONResponse(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// SendError отправляет JSON ошибку и логирует её
func (h *BaseHandler) SendError(c *gin.Context, err error) {
	middleware.AbortWithError(c, h.logger, err)
}

// parseID разбирает положительный числовой :id
func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.NewValidationError("Некорректный идентификатор", err)
	}
	return id, nil
}

// listFilter читает search, page и per_page из query
func listFilter(c *gin.Context) database.ListFilter {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page"))
	return database.ListFilter{
		Search:  c.Query("search"),
		Page:    page,
		PerPage: perPage,
	}
}
