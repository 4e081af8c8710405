package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime/debug"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FileParseError файл не прочитан или в нем нет обязательных колонок.
// Файл пропускается, пакет продолжает обработку.
type FileParseError struct {
	Path string
	Err  error
}

func (e *FileParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *FileParseError) Unwrap() error {
	return e.Err
}

// Batch объединенные строки всех успешно прочитанных файлов
type Batch struct {
	Rows        []SourceRow
	FileErrors  []*FileParseError
	FilesOK     int
	RowsDropped int // строки без названия или бренда
}

// Empty true если ни один файл не дал ни одной строки
func (b *Batch) Empty() bool {
	return len(b.Rows) == 0
}

type fileResult struct {
	rows    []SourceRow
	dropped int
	err     error
}

// Coordinator читает файлы параллельно и склеивает строки в порядке входного списка
type Coordinator struct {
	reader  SourceReader
	aliases AliasTable
	workers int
	logger  *zap.Logger
}

// NewCoordinator создает координатор загрузки
func NewCoordinator(reader SourceReader, aliases AliasTable, workers int, logger *zap.Logger) *Coordinator {
	if reader == nil {
		reader = NewFileReader()
	}
	if aliases == nil {
		aliases = DefaultAliasTable()
	}
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{reader: reader, aliases: aliases, workers: workers, logger: logger}
}

// Load читает все файлы. Ошибки отдельных файлов собираются в Batch.FileErrors;
// ошибка возвращается только при отмене контекста.
func (c *Coordinator) Load(ctx context.Context, paths []string) (*Batch, error) {
	results := make([]fileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.loadFile(gctx, path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ingestion cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ingestion cancelled: %w", err)
	}

	batch := &Batch{}
	for i, res := range results {
		if res.err != nil {
			perr := &FileParseError{Path: paths[i], Err: res.err}
			batch.FileErrors = append(batch.FileErrors, perr)
			c.logger.Warn("Skipping source file",
				zap.String("file", paths[i]),
				zap.Error(res.err))
			continue
		}
		batch.FilesOK++
		batch.RowsDropped += res.dropped
		batch.Rows = append(batch.Rows, res.rows...)
	}

	c.logger.Info("Source files loaded",
		zap.Int("files_ok", batch.FilesOK),
		zap.Int("files_failed", len(batch.FileErrors)),
		zap.Int("rows", len(batch.Rows)),
		zap.Int("rows_dropped", batch.RowsDropped))

	return batch, nil
}

func (c *Coordinator) loadFile(ctx context.Context, path string) (res fileResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Panic while parsing source file",
				zap.String("file", path),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			res = fileResult{err: fmt.Errorf("panic: %v", r)}
		}
	}()

	table, err := c.reader.Read(ctx, path)
	if err != nil {
		return fileResult{err: err}
	}

	rows, dropped, err := ParseTable(table, c.aliases, path)
	if err != nil {
		return fileResult{err: err}
	}
	return fileResult{rows: rows, dropped: dropped}
}

// ParseTable сопоставляет колонки и строит строки. Пустые строки пропускаются,
// строки без названия или бренда считаются отброшенными.
func ParseTable(table *Table, aliases AliasTable, source string) ([]SourceRow, int, error) {
	cols, err := aliases.Resolve(table.Headers)
	if err != nil {
		return nil, 0, err
	}

	rows := make([]SourceRow, 0, len(table.Rows))
	dropped := 0
	for i, raw := range table.Rows {
		if isEmptyRow(raw) {
			continue
		}
		row, ok := buildRow(cols, raw, source, table.HeaderRow+i+1)
		if !ok {
			dropped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, dropped, nil
}
