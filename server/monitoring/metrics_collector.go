package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"exportdecl/normalization"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector метрики HTTP и запусков конвейера в собственном реестре Prometheus
type MetricsCollector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Histogram
	rowsIngested  prometheus.Counter
	rowsDropped   prometheus.Counter
	filesFailed   prometheus.Counter
	records       prometheus.Counter
	lookupErrors  *prometheus.CounterVec
	grossRatio    prometheus.Gauge
	reportsFailed prometheus.Counter
}

// NewMetricsCollector создает новый сборщик метрик
func NewMetricsCollector() *MetricsCollector {
	mc := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exportdecl_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exportdecl_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exportdecl_pipeline_runs_total",
			Help: "Pipeline runs by outcome (ok, empty)",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "exportdecl_pipeline_run_duration_seconds",
			Help:    "Pipeline run duration",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		rowsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exportdecl_pipeline_rows_ingested_total",
			Help: "Source rows accepted by ingestion",
		}),
		rowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exportdecl_pipeline_rows_dropped_total",
			Help: "Source rows dropped for missing product name or brand",
		}),
		filesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exportdecl_pipeline_files_failed_total",
			Help: "Source files skipped because they could not be parsed",
		}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exportdecl_pipeline_records_total",
			Help: "Summary records produced",
		}),
		lookupErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exportdecl_lookup_unavailable_total",
			Help: "Lookup registries that could not be read at run start",
		}, []string{"registry"}),
		grossRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "exportdecl_pipeline_gross_ratio",
			Help: "Gross weight ratio of the last run",
		}),
		reportsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exportdecl_reports_failed_total",
			Help: "Reports marked ERROR",
		}),
	}

	mc.registry.MustRegister(
		mc.httpRequests, mc.httpDuration,
		mc.runsTotal, mc.runDuration,
		mc.rowsIngested, mc.rowsDropped, mc.filesFailed, mc.records,
		mc.lookupErrors, mc.grossRatio, mc.reportsFailed,
		collectors.NewGoCollector(),
	)
	return mc
}

// RecordHTTPRequest записывает HTTP запрос
func (mc *MetricsCollector) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	mc.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	mc.httpDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// ObserveRun записывает итог запуска конвейера
func (mc *MetricsCollector) ObserveRun(res *normalization.Result) {
	outcome := "ok"
	if res.Empty() {
		outcome = "empty"
	}
	mc.runsTotal.WithLabelValues(outcome).Inc()
	mc.runDuration.Observe(res.Duration.Seconds())
	mc.rowsIngested.Add(float64(res.RowsIngested))
	mc.rowsDropped.Add(float64(res.RowsDropped))
	mc.filesFailed.Add(float64(len(res.FileErrors)))
	mc.records.Add(float64(len(res.Records)))
	for _, le := range res.LookupErrors {
		mc.lookupErrors.WithLabelValues(le.Registry).Inc()
	}
	if !res.Empty() {
		mc.grossRatio.Set(res.GrossRatio)
	}
}

// RecordReportFailure учитывает отчет со статусом ERROR
func (mc *MetricsCollector) RecordReportFailure() {
	mc.reportsFailed.Inc()
}

// Registry реестр для тестов и внешних сборщиков
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// Handler отдает метрики в формате Prometheus
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
}
