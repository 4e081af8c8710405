package handlers

import (
	"errors"
	"net/http"
	"slices"

	apperrors "exportdecl/server/errors"
	"exportdecl/server/services"

	"github.com/gin-gonic/gin"
)

// UploadFormField имя поля multipart формы с файлами
const UploadFormField = "files[]"

// UploadHandler обработчик загрузки файлов производителей
type UploadHandler struct {
	*BaseHandler
	uploadService *services.UploadService
	maxBodyBytes  int64
}

// NewUploadHandler создает новый обработчик загрузки. maxBodyBytes ограничивает тело запроса целиком.
func NewUploadHandler(uploadService *services.UploadService, base *BaseHandler, maxBodyBytes int64) *UploadHandler {
	return &UploadHandler{BaseHandler: base, uploadService: uploadService, maxBodyBytes: maxBodyBytes}
}

type uploadResponse struct {
	Message   string   `json:"message"`
	FilePaths []string `json:"file_paths"`
	Rejected  []string `json:"rejected,omitempty"`
}

// RegisterRoutes регистрирует маршрут загрузки
func (h *UploadHandler) RegisterRoutes(api *gin.RouterGroup, mw ...gin.HandlerFunc) {
	api.POST("/upload", append(slices.Clone(mw), h.HandleUpload)...)
}

// HandleUpload POST /api/upload
func (h *UploadHandler) HandleUpload(c *gin.Context) {
	if h.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.SendError(c, apperrors.NewPayloadTooLargeError("Превышен допустимый размер запроса", err))
			return
		}
		h.SendError(c, apperrors.NewValidationError("Ожидается multipart/form-data с файлами", err))
		return
	}

	res, err := h.uploadService.Save(form.File[UploadFormField])
	if err != nil {
		h.SendError(c, err)
		return
	}
	if len(res.FilePaths) == 0 {
		h.SendError(c, apperrors.NewValidationError("Нет файлов допустимого типа", nil))
		return
	}

	SendJSONResponse(c, http.StatusAccepted, uploadResponse{
		Message:   "Files uploaded successfully",
		FilePaths: res.FilePaths,
		Rejected:  res.Rejected,
	})
}
