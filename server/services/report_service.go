package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"exportdecl/database"
	"exportdecl/normalization"
	apperrors "exportdecl/server/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReportStore история отчетов
type ReportStore interface {
	CreateReport(ctx context.Context, r *database.Report) error
	CompleteReport(ctx context.Context, id, filename string, grossRatio float64) error
	FailReport(ctx context.Context, id string, cause error) error
	GetReport(ctx context.Context, id string) (*database.Report, error)
}

// PipelineRunner один запуск конвейера над списком файлов
type PipelineRunner interface {
	Run(ctx context.Context, paths []string) (*normalization.Result, error)
}

// ReportWriter запись сводной таблицы в файл
type ReportWriter interface {
	Export(filename string, format normalization.ExportFormat, records []normalization.SummaryRecord) error
}

// FailureRecorder учет неудачных отчетов в метриках
type FailureRecorder interface {
	RecordReportFailure()
}

// GenerateRequest параметры генерации отчета
type GenerateRequest struct {
	FilePaths []string       `json:"file_paths"`
	Params    map[string]any `json:"params"`
	Format    string         `json:"format,omitempty"`
}

// RunSummary краткая статистика запуска для ответа API
type RunSummary struct {
	Records      int      `json:"records"`
	FilesOK      int      `json:"files_ok"`
	FilesFailed  []string `json:"files_failed"`
	RowsIngested int      `json:"rows_ingested"`
	RowsDropped  int      `json:"rows_dropped"`
	LookupErrors []string `json:"lookup_errors"`
	GrossRatio   float64  `json:"gross_ratio"`
	Empty        bool     `json:"empty"`
}

// GenerateResult итог генерации
type GenerateResult struct {
	ReportID    string     `json:"report_id"`
	Status      string     `json:"status"`
	Filename    string     `json:"filename,omitempty"`
	DownloadURL string     `json:"download_url,omitempty"`
	Summary     RunSummary `json:"summary"`
}

// ReportService генерация отчетов и их история
type ReportService struct {
	store     ReportStore
	pipeline  PipelineRunner
	writer    ReportWriter
	uploadDir string
	reportDir string
	failures  FailureRecorder
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService создает новый сервис отчетов
func NewReportService(
	store ReportStore,
	pipeline PipelineRunner,
	writer ReportWriter,
	uploadDir, reportDir string,
	failures FailureRecorder,
	logger *zap.Logger,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		store:     store,
		pipeline:  pipeline,
		writer:    writer,
		uploadDir: uploadDir,
		reportDir: reportDir,
		failures:  failures,
		logger:    logger,
		now:       time.Now,
	}
}

// NewReportID первые 8 символов UUID в верхнем регистре
func NewReportID() string {
	return strings.ToUpper(uuid.New().String()[:8])
}

// DownloadURL путь скачивания отчета
func DownloadURL(id string) string {
	return "/api/report/download/" + id
}

// Generate запускает конвейер и пишет отчет. История: PENDING, затем COMPLETE или ERROR.
// При ошибке после создания записи результат содержит report_id и статус ERROR.
func (s *ReportService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	format, err := normalization.ParseExportFormat(req.Format)
	if err != nil {
		return nil, apperrors.NewValidationError("неизвестный формат отчета", err)
	}

	paths, err := s.resolveSourcePaths(req.FilePaths)
	if err != nil {
		return nil, err
	}

	report := &database.Report{
		ID:          NewReportID(),
		Timestamp:   s.now().UTC(),
		Parameters:  req.Params,
		SourceFiles: paths,
	}
	if err := s.store.CreateReport(ctx, report); err != nil {
		return nil, apperrors.WrapError(err, "не удалось создать запись отчета")
	}

	result := &GenerateResult{ReportID: report.ID, Status: database.ReportStatusPending}

	runRes, err := s.pipeline.Run(ctx, paths)
	if err != nil {
		return s.fail(ctx, result, fmt.Errorf("pipeline run failed: %w", err))
	}
	result.Summary = summarize(runRes)

	if err := os.MkdirAll(s.reportDir, 0o755); err != nil {
		return s.fail(ctx, result, fmt.Errorf("failed to create report dir: %w", err))
	}
	filename := normalization.ReportFileName(s.now(), format)
	if err := s.writer.Export(filepath.Join(s.reportDir, filename), format, runRes.Records); err != nil {
		return s.fail(ctx, result, fmt.Errorf("failed to write report: %w", err))
	}

	if err := s.store.CompleteReport(ctx, report.ID, filename, runRes.GrossRatio); err != nil {
		return s.fail(ctx, result, fmt.Errorf("failed to complete report: %w", err))
	}

	result.Status = database.ReportStatusComplete
	result.Filename = filename
	result.DownloadURL = DownloadURL(report.ID)

	s.logger.Info("Report generated",
		zap.String("report_id", report.ID),
		zap.String("filename", filename),
		zap.Int("records", result.Summary.Records),
		zap.Bool("empty", result.Summary.Empty))

	return result, nil
}

func (s *ReportService) fail(ctx context.Context, result *GenerateResult, cause error) (*GenerateResult, error) {
	result.Status = database.ReportStatusError

	// запись статуса не должна зависеть от отмененного запроса
	storeCtx := context.WithoutCancel(ctx)
	if err := s.store.FailReport(storeCtx, result.ReportID, cause); err != nil {
		s.logger.Error("Failed to mark report as failed",
			zap.String("report_id", result.ReportID),
			zap.Error(err))
	}
	if s.failures != nil {
		s.failures.RecordReportFailure()
	}

	s.logger.Error("Report generation failed",
		zap.String("report_id", result.ReportID),
		zap.Error(cause))

	return result, apperrors.NewInternalError("report generation failed", cause)
}

// resolveSourcePaths принимает только файлы внутри каталога загрузок
func (s *ReportService) resolveSourcePaths(paths []string) ([]string, error) {
	root, err := filepath.Abs(s.uploadDir)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to resolve upload dir", err)
	}

	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		candidate := p
		// голое имя файла ищется в каталоге загрузок
		if filepath.Base(candidate) == candidate {
			candidate = filepath.Join(root, candidate)
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			return nil, apperrors.NewValidationError("некорректный путь к файлу: "+p, err)
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, apperrors.NewValidationError("файл вне каталога загрузок: "+p, nil)
		}
		out = append(out, abs)
	}
	return out, nil
}

func summarize(res *normalization.Result) RunSummary {
	sum := RunSummary{
		Records:      len(res.Records),
		FilesOK:      res.FilesOK,
		FilesFailed:  make([]string, 0, len(res.FileErrors)),
		RowsIngested: res.RowsIngested,
		RowsDropped:  res.RowsDropped,
		LookupErrors: make([]string, 0, len(res.LookupErrors)),
		GrossRatio:   res.GrossRatio,
		Empty:        res.Empty(),
	}
	for _, fe := range res.FileErrors {
		sum.FilesFailed = append(sum.FilesFailed, fe.Error())
	}
	for _, le := range res.LookupErrors {
		sum.LookupErrors = append(sum.LookupErrors, le.Registry)
	}
	return sum
}

// GetReport запись истории
func (s *ReportService) GetReport(ctx context.Context, id string) (*database.Report, error) {
	r, err := s.store.GetReport(ctx, strings.ToUpper(strings.TrimSpace(id)))
	if err != nil {
		return nil, apperrors.WrapError(err, "отчет не найден")
	}
	return r, nil
}

// DownloadPath путь к файлу готового отчета. Отчет не в статусе COMPLETE считается ненайденным.
func (s *ReportService) DownloadPath(ctx context.Context, id string) (string, string, error) {
	r, err := s.store.GetReport(ctx, strings.ToUpper(strings.TrimSpace(id)))
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return "", "", apperrors.WrapError(err, "не удалось получить отчет")
	}
	if err != nil || r.Status != database.ReportStatusComplete || r.Filename == "" {
		return "", "", apperrors.NewNotFoundError("Отчет не найден или еще не готов", err)
	}

	path := filepath.Join(s.reportDir, filepath.Base(r.Filename))
	if _, err := os.Stat(path); err != nil {
		return "", "", apperrors.NewNotFoundError("Файл отчета не найден", err)
	}
	return path, r.Filename, nil
}
