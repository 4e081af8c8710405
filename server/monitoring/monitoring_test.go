package monitoring

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"exportdecl/importer"
	"exportdecl/normalization"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollector_ObserveRun(t *testing.T) {
	mc := NewMetricsCollector()

	mc.ObserveRun(&normalization.Result{
		Records:      make([]normalization.SummaryRecord, 3),
		FileErrors:   []*importer.FileParseError{{Path: "a.xlsx"}},
		LookupErrors: []*normalization.LookupUnavailableError{{Registry: normalization.RegistryBrands}},
		RowsIngested: 10,
		RowsDropped:  2,
		GrossRatio:   1.0931,
		Duration:     150 * time.Millisecond,
	})
	mc.ObserveRun(&normalization.Result{})

	assert.Equal(t, 1.0, testutil.ToFloat64(mc.runsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.runsTotal.WithLabelValues("empty")))
	assert.Equal(t, 10.0, testutil.ToFloat64(mc.rowsIngested))
	assert.Equal(t, 2.0, testutil.ToFloat64(mc.rowsDropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.filesFailed))
	assert.Equal(t, 3.0, testutil.ToFloat64(mc.records))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.lookupErrors.WithLabelValues(normalization.RegistryBrands)))
	assert.Equal(t, 1.0931, testutil.ToFloat64(mc.grossRatio), "empty run keeps last ratio")
}

func TestMetricsCollector_Handler(t *testing.T) {
	mc := NewMetricsCollector()
	mc.RecordHTTPRequest("/api/report/generate", http.MethodPost, 201, 20*time.Millisecond)
	mc.RecordReportFailure()

	rec := httptest.NewRecorder()
	mc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `exportdecl_http_requests_total{method="POST",route="/api/report/generate",status="201"} 1`))
	assert.Contains(t, body, "exportdecl_reports_failed_total 1")
}

func TestHealthChecker(t *testing.T) {
	hc := NewHealthChecker("test")
	hc.RegisterComponent("lookup_db", true, func(context.Context) error { return nil })

	res := hc.Check(context.Background())
	assert.Equal(t, HealthStatusHealthy, res.Status)
	assert.Equal(t, "test", res.Version)

	hc.RegisterComponent("redis", false, func(context.Context) error { return errors.New("refused") })
	res = hc.Check(context.Background())
	assert.Equal(t, HealthStatusDegraded, res.Status)
	assert.Equal(t, HealthStatusDegraded, res.Components["redis"].Status)
	assert.Contains(t, res.Components["redis"].Message, "refused")

	hc.RegisterComponent("lookup_db", true, func(context.Context) error { return errors.New("locked") })
	res = hc.Check(context.Background())
	assert.Equal(t, HealthStatusUnhealthy, res.Status)
}
