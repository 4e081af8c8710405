package normalization

import (
	"context"
	"time"

	"exportdecl/importer"

	"go.uber.org/zap"
)

// Loader источник строк одного запуска
type Loader interface {
	Load(ctx context.Context, paths []string) (*importer.Batch, error)
}

// RunObserver получает итог каждого запуска (метрики)
type RunObserver interface {
	ObserveRun(res *Result)
}

// Result итог запуска конвейера
type Result struct {
	Records      []SummaryRecord
	FileErrors   []*importer.FileParseError
	LookupErrors []*LookupUnavailableError
	FilesOK      int
	RowsIngested int
	RowsDropped  int
	GrossRatio   float64
	Duration     time.Duration
}

// Empty ни один файл не дал строк (ErrEmptyBatch); это не ошибка запуска
func (r *Result) Empty() bool {
	return len(r.Records) == 0
}

// EmptyErr возвращает ErrEmptyBatch для пустого результата
func (r *Result) EmptyErr() error {
	if r.Empty() {
		return ErrEmptyBatch
	}
	return nil
}

// Pipeline загрузка, нормализация и агрегация строк одного пакета файлов
type Pipeline struct {
	loader   Loader
	snapshot *SnapshotLoader
	engine   *AggregationEngine
	ratio    *GrossRatioPolicy
	observer RunObserver
	logger   *zap.Logger
}

// PipelineOption настройка конвейера
type PipelineOption func(*Pipeline)

// WithObserver подключает наблюдателя запусков
func WithObserver(o RunObserver) PipelineOption {
	return func(p *Pipeline) { p.observer = o }
}

// WithGrossRatio задает политику коэффициента брутто
func WithGrossRatio(policy *GrossRatioPolicy) PipelineOption {
	return func(p *Pipeline) { p.ratio = policy }
}

// WithLogger задает логгер
func WithLogger(logger *zap.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = logger }
}

// NewPipeline создает конвейер
func NewPipeline(loader Loader, snapshot *SnapshotLoader, engine *AggregationEngine, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		loader:   loader,
		snapshot: snapshot,
		engine:   engine,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.engine == nil {
		p.engine = NewAggregationEngine(nil)
	}
	if p.ratio == nil {
		p.ratio = NewGrossRatioPolicy(DefaultGrossRatioMin, DefaultGrossRatioMax, 0, nil)
	}
	if p.snapshot == nil {
		p.snapshot = NewSnapshotLoader(nil, nil, p.logger)
	}
	return p
}

// With копия конвейера с дополнительными настройками
func (p *Pipeline) With(opts ...PipelineOption) *Pipeline {
	cp := *p
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// Run выполняет один запуск. Ошибка возвращается только при отмене контекста;
// проблемы отдельных файлов и справочников попадают в Result.
func (p *Pipeline) Run(ctx context.Context, paths []string) (*Result, error) {
	start := time.Now()

	batch, err := p.loader.Load(ctx, paths)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Records:      []SummaryRecord{},
		FileErrors:   batch.FileErrors,
		FilesOK:      batch.FilesOK,
		RowsIngested: len(batch.Rows),
		RowsDropped:  batch.RowsDropped,
	}

	if batch.Empty() {
		res.Duration = time.Since(start)
		p.logger.Warn("No usable rows in source files",
			zap.Int("files", len(paths)),
			zap.Int("files_failed", len(batch.FileErrors)))
		p.observe(res)
		return res, nil
	}

	// снимок справочников на весь запуск
	snap, lookupErrs := p.snapshot.Load(ctx)
	res.LookupErrors = lookupErrs

	rows := NewRowNormalizerFromSnapshot(snap).NormalizeAll(batch.Rows)
	res.GrossRatio = p.ratio.Draw()
	res.Records = p.engine.Aggregate(rows, res.GrossRatio)
	res.Duration = time.Since(start)

	p.logger.Info("Pipeline run completed",
		zap.Int("files_ok", res.FilesOK),
		zap.Int("files_failed", len(res.FileErrors)),
		zap.Int("rows", res.RowsIngested),
		zap.Int("rows_dropped", res.RowsDropped),
		zap.Int("records", len(res.Records)),
		zap.Int("lookup_errors", len(res.LookupErrors)),
		zap.Float64("gross_ratio", res.GrossRatio),
		zap.Duration("duration", res.Duration))

	p.observe(res)
	return res, nil
}

func (p *Pipeline) observe(res *Result) {
	if p.observer != nil {
		p.observer.ObserveRun(res)
	}
}
