package handlers

import (
	"errors"
	"net/http"
	"slices"

	"exportdecl/database"
	apperrors "exportdecl/server/errors"
	"exportdecl/server/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReportHandler обработчик для генерации и скачивания отчетов
type ReportHandler struct {
	*BaseHandler
	reportService *services.ReportService
}

// NewReportHandler создает новый обработчик для отчетов
func NewReportHandler(reportService *services.ReportService, base *BaseHandler) *ReportHandler {
	return &ReportHandler{BaseHandler: base, reportService: reportService}
}

type generateResponse struct {
	ReportID    string               `json:"report_id"`
	Status      string               `json:"status"`
	DownloadURL string               `json:"download_url,omitempty"`
	Message     string               `json:"message"`
	Summary     *services.RunSummary `json:"summary,omitempty"`
}

// RegisterRoutes регистрирует маршруты отчетов. generateMW ставится перед генерацией (лимит запросов).
func (h *ReportHandler) RegisterRoutes(api *gin.RouterGroup, generateMW ...gin.HandlerFunc) {
	report := api.Group("/report")
	report.POST("/generate", append(slices.Clone(generateMW), h.HandleGenerate)...)
	report.GET("/download/:id", h.HandleDownload)
	report.GET("/:id", h.HandleGetReport)
}

// HandleGenerate POST /api/report/generate
func (h *ReportHandler) HandleGenerate(c *gin.Context) {
	var req services.GenerateRequest
	if err := bindJSON(c, &req); err != nil {
		h.SendError(c, err)
		return
	}

	res, err := h.reportService.Generate(c.Request.Context(), req)
	if err != nil {
		// запись уже создана: отвечаем с report_id и статусом ERROR
		var appErr *apperrors.AppError
		if res != nil && res.Status == database.ReportStatusError && errors.As(err, &appErr) {
			h.logger.Warn("Report generation returned error status",
				zap.String("report_id", res.ReportID),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, generateResponse{
				ReportID: res.ReportID,
				Status:   res.Status,
				Message:  "Report generation failed: " + appErr.Error(),
			})
			return
		}
		h.SendError(c, err)
		return
	}

	SendJSONResponse(c, http.StatusCreated, generateResponse{
		ReportID:    res.ReportID,
		Status:      res.Status,
		DownloadURL: res.DownloadURL,
		Message:     "Report generated successfully",
		Summary:     &res.Summary,
	})
}

// HandleDownload GET /api/report/download/:id
func (h *ReportHandler) HandleDownload(c *gin.Context) {
	path, filename, err := h.reportService.DownloadPath(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.SendError(c, err)
		return
	}
	c.FileAttachment(path, filename)
}

// HandleGetReport GET /api/report/:id
func (h *ReportHandler) HandleGetReport(c *gin.Context) {
	r, err := h.reportService.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.SendError(c, err)
		return
	}
	SendJSONResponse(c, http.StatusOK, r)
}
