package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"exportdecl/database"
	"exportdecl/normalization"
	"exportdecl/server/middleware"
	"exportdecl/server/monitoring"
	"exportdecl/server/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPipeline struct {
	res *normalization.Result
	err error
}

func (p *stubPipeline) Run(context.Context, []string) (*normalization.Result, error) {
	return p.res, p.err
}

type testServer struct {
	router  *gin.Engine
	db      *database.LookupDB
	metrics *monitoring.MetricsCollector
	dir     string
}

func newTestServer(t *testing.T, pipeline services.PipelineRunner) *testServer {
	t.Helper()

	dir := t.TempDir()
	db, err := database.NewLookupDB(filepath.Join(dir, "lookup.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	uploadDir := filepath.Join(dir, "uploads")
	metrics := monitoring.NewMetricsCollector()
	health := monitoring.NewHealthChecker("test")
	health.RegisterComponent("lookup_db", true, db.Ping)

	base := NewBaseHandler(zap.NewNop())
	reportSvc := services.NewReportService(db, pipeline, normalization.NewExporter(),
		uploadDir, filepath.Join(dir, "reports"), metrics, zap.NewNop())

	router := NewRouter(RouterDeps{
		Recorder:   metrics,
		Mappings:   NewMappingHandler(services.NewMappingService(db), base),
		Reports:    NewReportHandler(reportSvc, base),
		Uploads:    NewUploadHandler(services.NewUploadService(uploadDir, []string{"xlsx", "csv"}, 1<<20, nil), base, 4<<20),
		Monitoring: NewMonitoringHandler(health, metrics, base),
	})

	return &testServer{router: router, db: db, metrics: metrics, dir: dir}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestProductMappingsCRUD(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/product-mappings", `{"product_name":"ステンレスカップ","box_weight":"0.35","box_size":"10x10x8"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created database.ProductMapping
	decodeJSON(t, rec, &created)
	require.NotNil(t, created.BoxWeight)
	assert.Equal(t, 0.35, *created.BoxWeight)

	rec = s.do(t, http.MethodPost, "/api/product-mappings", `{"product_name":"ステンレスカップ"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// пустая строка очищает вес, размер не меняется
	rec = s.do(t, http.MethodPut, "/api/product-mappings/1", `{"box_weight":""}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated database.ProductMapping
	decodeJSON(t, rec, &updated)
	assert.Nil(t, updated.BoxWeight)
	require.NotNil(t, updated.BoxSize)
	assert.Equal(t, "10x10x8", *updated.BoxSize)

	rec = s.do(t, http.MethodPut, "/api/product-mappings/1", `{"box_weight":"heavy"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/product-mappings?search="+url.QueryEscape("カップ"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list database.ListResult[database.ProductMapping]
	decodeJSON(t, rec, &list)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, services.DefaultMappingsPerPage, list.PerPage)

	rec = s.do(t, http.MethodDelete, "/api/product-mappings/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Product mapping deleted successfully"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/product-mappings/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMappingsValidation(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"bad id", http.MethodGet, "/api/brand-mappings/abc", "", http.StatusBadRequest},
		{"zero id", http.MethodDelete, "/api/known-product-names/0", "", http.StatusBadRequest},
		{"empty body", http.MethodPost, "/api/brand-mappings", "", http.StatusBadRequest},
		{"missing reference", http.MethodPost, "/api/brand-mappings", `{"brand_name":"RJ"}`, http.StatusBadRequest},
		{"broken json", http.MethodPost, "/api/known-product-names", `{"product_name":`, http.StatusBadRequest},
		{"unknown brand", http.MethodPut, "/api/brand-mappings/42", `{"brand_name":"X"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())

			var body middleware.ErrorResponse
			decodeJSON(t, rec, &body)
			assert.True(t, body.Error)
			assert.NotEmpty(t, body.Message)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestBrandAndKnownNames(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/brand-mappings", `{"brand_name":"RJ","reference_name":"Rends Japan"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/brand-mappings?search=rends", "")
	var brands database.ListResult[database.BrandMapping]
	decodeJSON(t, rec, &brands)
	require.Len(t, brands.Items, 1)
	assert.Equal(t, "RJ", brands.Items[0].BrandName)

	rec = s.do(t, http.MethodPost, "/api/known-product-names", `{"product_name":"タンブラー"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/known-product-names", "")
	var names database.ListResult[database.KnownProductName]
	decodeJSON(t, rec, &names)
	assert.Equal(t, services.DefaultKnownNamesPerPage, names.PerPage)
	require.Len(t, names.Items, 1)

	rec = s.do(t, http.MethodPut, "/api/known-product-names/1", `{"product_name":"タンブラー大"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var renamed database.KnownProductName
	decodeJSON(t, rec, &renamed)
	assert.Equal(t, "タンブラー大", renamed.ProductName)
}

func TestUpload(t *testing.T) {
	s := newTestServer(t, nil)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(UploadFormField, "maker.xlsx")
	require.NoError(t, err)
	_, _ = part.Write([]byte("xlsx bytes"))
	part, err = w.CreateFormFile(UploadFormField, "readme.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("text"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var body uploadResponse
	decodeJSON(t, rec, &body)
	assert.Equal(t, []string{filepath.Join(s.dir, "uploads", "maker.xlsx")}, body.FilePaths)
	assert.Equal(t, []string{"readme.txt"}, body.Rejected)

	rec = s.do(t, http.MethodPost, "/api/upload", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateAndDownload(t *testing.T) {
	pipeline := &stubPipeline{res: &normalization.Result{
		Records: []normalization.SummaryRecord{{
			Brand:              "NPG",
			ProductName:        "Bottle",
			PriceBand:          normalization.Band500To1000,
			UnitCountTotal:     decimal.NewFromInt(3),
			PriceTotal:         decimal.NewFromInt(2100),
			CustomsDescription: "型号：B-1",
		}},
		FilesOK:    1,
		GrossRatio: 1.1,
	}}
	s := newTestServer(t, pipeline)

	rec := s.do(t, http.MethodPost, "/api/report/generate", `{"file_paths":["maker.xlsx"],"params":{"date_range":"2024-04"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body generateResponse
	decodeJSON(t, rec, &body)
	assert.Equal(t, database.ReportStatusComplete, body.Status)
	assert.Equal(t, "/api/report/download/"+body.ReportID, body.DownloadURL)
	require.NotNil(t, body.Summary)
	assert.Equal(t, 1, body.Summary.Records)

	rec = s.do(t, http.MethodGet, body.DownloadURL, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "board_summary_")
	assert.Equal(t, "PK", rec.Body.String()[:2])

	rec = s.do(t, http.MethodGet, "/api/report/"+body.ReportID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stored database.Report
	decodeJSON(t, rec, &stored)
	assert.Equal(t, "2024-04", stored.Parameters["date_range"])

	rec = s.do(t, http.MethodGet, "/api/report/download/UNKNOWN1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateFailureKeepsReportID(t *testing.T) {
	s := newTestServer(t, &stubPipeline{err: errors.New("ingestion cancelled")})

	rec := s.do(t, http.MethodPost, "/api/report/generate", `{"file_paths":["maker.xlsx"]}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body generateResponse
	decodeJSON(t, rec, &body)
	assert.Len(t, body.ReportID, 8)
	assert.Equal(t, database.ReportStatusError, body.Status)

	stored, err := s.db.GetReport(context.Background(), body.ReportID)
	require.NoError(t, err)
	assert.Equal(t, database.ReportStatusError, stored.Status)

	rec = s.do(t, http.MethodGet, "/api/report/download/"+body.ReportID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/report/generate", `{"file_paths":["../../etc/passwd"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health monitoring.HealthCheckResult
	decodeJSON(t, rec, &health)
	assert.Equal(t, monitoring.HealthStatusHealthy, health.Status)

	rec = s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")

	require.NoError(t, s.db.Close())
	rec = s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
