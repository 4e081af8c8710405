package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"exportdecl/database"
	apperrors "exportdecl/server/errors"
	"exportdecl/server/services"

	"github.com/gin-gonic/gin"
)

// optionalWeight поле веса: отсутствует, очищено (null, "", 0) или задано
type optionalWeight struct {
	Set   bool
	Value *float64
}

func (o *optionalWeight) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Value = nil

	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
	} else {
		raw = string(data)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid box_weight %q", raw)
	}
	// 0 означает отсутствие веса
	if v != 0 {
		o.Value = &v
	}
	return nil
}

// optionalText строковое поле: отсутствует, очищено (null, "") или задано
type optionalText struct {
	Set   bool
	Value *string
}

func (o *optionalText) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Value = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s = strings.TrimSpace(s); s != "" {
		o.Value = &s
	}
	return nil
}

type productMappingRequest struct {
	ProductName *string        `json:"product_name"`
	BoxWeight   optionalWeight `json:"box_weight"`
	BoxSize     optionalText   `json:"box_size"`
}

type brandMappingRequest struct {
	BrandName     *string `json:"brand_name"`
	ReferenceName *string `json:"reference_name"`
}

type knownNameRequest struct {
	ProductName *string `json:"product_name"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// MappingHandler обработчик справочников
type MappingHandler struct {
	*BaseHandler
	service *services.MappingService
}

// NewMappingHandler создает обработчик справочников
func NewMappingHandler(service *services.MappingService, base *BaseHandler) *MappingHandler {
	return &MappingHandler{BaseHandler: base, service: service}
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.NewValidationError("Нет данных в запросе", err)
		}
		return apperrors.NewValidationError("Некорректный JSON: "+err.Error(), err)
	}
	return nil
}

// RegisterRoutes регистрирует маршруты справочников
func (h *MappingHandler) RegisterRoutes(api *gin.RouterGroup) {
	products := api.Group("/product-mappings")
	products.GET("", h.ListProductMappings)
	products.POST("", h.CreateProductMapping)
	products.GET("/:id", h.GetProductMapping)
	products.PUT("/:id", h.UpdateProductMapping)
	products.DELETE("/:id", h.DeleteProductMapping)

	brands := api.Group("/brand-mappings")
	brands.GET("", h.ListBrandMappings)
	brands.POST("", h.CreateBrandMapping)
	brands.GET("/:id", h.GetBrandMapping)
	brands.PUT("/:id", h.UpdateBrandMapping)
	brands.DELETE("/:id", h.DeleteBrandMapping)

	names := api.Group("/known-product-names")
	names.GET("", h.ListKnownNames)
	names.POST("", h.CreateKnownName)
	names.GET("/:id", h.GetKnownName)
	names.PUT("/:id", h.UpdateKnownName)
	names.DELETE("/:id", h.DeleteKnownName)
}

// ListProductMappings GET /api/product-mappings
func (h *MappingHandler) ListProductMappings(c *gin.Context) {
	res, err := h.service.ListProductMappings(c.Request.Context(), listFilter(c))
	if err != nil {
		h.SendError(c, err)
		return
	}
	SendJSONResponse(c, http.StatusOK, res)
}

// GetProductMapping GET /api/product-mappings/:id
func (h *MappingHandler) GetProductMapping(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.SendError(c, err)
		return
	}
	m, err := h.service.GetProductMapping(c.Request.Context(), id)
	if err != nil {
		h.SendError(c, err)
		return
	}
	SendJSONResponse(c, http.StatusOK, m)
}

// CreateProductMapping POST /api/product-mappings
func (h *MappingHandler) CreateProductMapping(c *gin.Context) {
	var req productMappingRequest
	if err := bindJSON(c, &req); err != nil {
		h.SendError(c, err)
		return
	}
	if req.ProductName == nil {
		h.SendError(c, apperrors.NewValidationError("product_name обязателен", nil))
		return
	}

	m, err := h.service.CreateProductMapping(c.Request.Context(), database.ProductMapping{
		ProductName: *req.ProductName,
		BoxWeight:   req.BoxWeight.Value,
		BoxSize:     req.BoxSize.Value,
	})
	if err != nil {
		h.SendError(c, err)
		return
	}
	SendJSONResponse(c, http.StatusCreated, m)
}

// UpdateProductMapping PUT /api/product-mappings/:id
func (h *MappingHandler) UpdateProductMapping(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.SendError(c, err)
		return
	}
	var req productMappingRequest
	if err := bindJSON(c, &req); err != nil {
		h.SendError(c, err)
		return
	}

	patch := database.ProductMappingPatch{ProductName: req.ProductName}
	if req.BoxWeight.Set {
		patch.BoxWeight = req.BoxWeight.Value
		patch.ClearWeight = req.BoxWeight.Value == nil
	}
	if req.BoxSize.Set {
		patch.BoxSize = req.BoxSize.Value
		patch.ClearSize = req.BoxSize.Value == nil
	}

	m, err := h.service.UpdateProductMapping(c.Request.Context(), id, patch)
	if err != nil {
		h.SendError(c, err)
		return
	}
	SendJSONResponse(c, http.StatusOK, m)
}

// DeleteProductMapping DELETE /api/product-mappings/:id
func (h *MappingHandler) DeleteProductMapping(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.SendError(c, err)
		return
	}
	if err := h.service.DeleteProductMapping(c.Request.Context(), id); err != nil {
		h.SendError(c, err)
		return
	}
	SendJSONResponse(c, http.StatusOK, messageResponse{Message: "Product mapping deleted successfully"})
}

// ListBrandMappings GET /api/brand-mappings
func (h *MappingHandler) ListBrandMappings(c *gin.Context) {
	res, err := h.service.ListBrandMappings(c.Request.Context(), listFilter(c))
	if err != nil {
		h.SendError(c, err)
		return
	}
	SendJSONResponse(c, http.StatusOK, res)
}

// GetBrandMapping GET /api/brand-mappings/:id
func (h *MappingHandler) GetBrandMapping(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.SendError(c, err)
		return
	}
	m, err := h.service.GetBrandMapping(c.Request.Context(), id)
	if err != nil {
		h.SendError(c, err)
		return
	}
	SendJSONResponse(c, http.StatusOK, m)
}

// CreateBrandMapping POST /api/brand-mappings
func (h *MappingHandler) CreateBrandMapping(c *gin.Context) {
	var req brandMappingRequest
	if err := bindJSON(c, &req); err != nil {
		h.SendError(c, err)
		return
	}
	if req.BrandName == nil || req.ReferenceName == nil {
		h.SendError(c, apperrors.NewValidationError("brand_name и reference_name обязательны", nil))
		return
	}

	m, err := h.service.CreateBrandMapping(c.Request.Context(), database.BrandMapping{
		BrandName:     *req.BrandName,
		ReferenceName: *req.ReferenceName,
	})
	if err != nil {
		h.SendError(c, err)
		return
	}
	SendJSONResponse(c, http.StatusCreated, m)
}

// UpdateBrandMapping PUT /api/brand-mappings/:id
func (h *MappingHandler) UpdateBrandMapping(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.SendError(c, err)
		return
	}
	var req brandMappingRequest
	if err := bindJSON(c, &req); err != nil {
		h.SendError(c, err)
		return
	}

	m, err := h.service.UpdateBrandMapping(c.Request.Context(), id, database.BrandMappingPatch{
		BrandName:     req.BrandName,
		ReferenceName: req.ReferenceName,
	})
	if err != nil {
		h.SendError(c, err)
		return
	}
	SendJSONResponse(c, http.StatusOK, m)
}

// DeleteBrandMapping DELETE /api/brand-mappings/:id
func (h *MappingHandler) DeleteBrandMapping(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.SendError(c, err)
		return
	}
	if err := h.service.DeleteBrandMapping(c.Request.Context(), id); err != nil {
		h.SendError(c, err)
		return
	}
	SendJSONResponse(c, http.StatusOK, messageResponse{Message: "Brand mapping deleted successfully"})
}

// ListKnownNames GET /api/known-product-names
func (h *MappingHandler) ListKnownNames(c *gin.Context) {
	res, err := h.service.ListKnownNames(c.Request.Context(), listFilter(c))
	if err != nil {
		h.SendError(c, err)
		return
	}
	SendJSONResponse(c, http.StatusOK, res)
}

// GetKnownName GET /api/known-product-names/:id
func (h *MappingHandler) GetKnownName(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.SendError(c, err)
		return
	}
	n, err := h.service.GetKnownName(c.Request.Context(), id)
	if err != nil {
		h.SendError(c, err)
		return
	}
	SendJSONResponse(c, http.StatusOK, n)
}

// CreateKnownName POST /api/known-product-names
func (h *MappingHandler) CreateKnownName(c *gin.Context) {
	var req knownNameRequest
	if err := bindJSON(c, &req); err != nil {
		h.SendError(c, err)
		return
	}
	if req.ProductName == nil {
		h.SendError(c, apperrors.NewValidationError("product_name обязателен", nil))
		return
	}

	n, err := h.service.CreateKnownName(c.Request.Context(), *req.ProductName)
	if err != nil {
		h.SendError(c, err)
		return
	}
	SendJSONResponse(c, http.StatusCreated, n)
}

// UpdateKnownName PUT /api/known-product-names/:id
func (h *MappingHandler) UpdateKnownName(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.SendError(c, err)
		return
	}
	var req knownNameRequest
	if err := bindJSON(c, &req); err != nil {
		h.SendError(c, err)
		return
	}
	if req.ProductName == nil {
		h.SendError(c, apperrors.NewValidationError("product_name обязателен", nil))
		return
	}

	n, err := h.service.UpdateKnownName(c.Request.Context(), id, *req.ProductName)
	if err != nil {
		h.SendError(c, err)
		return
	}
	SendJSONResponse(c, http.StatusOK, n)
}

// DeleteKnownName DELETE /api/known-product-names/:id
func (h *MappingHandler) DeleteKnownName(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.SendError(c, err)
		return
	}
	if err := h.service.DeleteKnownName(c.Request.Context(), id); err != nil {
		h.SendError(c, err)
		return
	}
	SendJSONResponse(c, http.StatusOK, messageResponse{Message: "Known product name deleted successfully"})
}
