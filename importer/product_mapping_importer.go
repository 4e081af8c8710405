package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"exportdecl/database"

	"go.uber.org/zap"
)

// Колонки справочного файла веса/размера
const (
	mappingColName   = "日文名字"
	mappingColSize   = "规格"
	mappingColWeight = "单件净重(kg)"
)

// ProductMappingStore хранилище, в которое перестраивается справочник веса/размера
type ProductMappingStore interface {
	ReplaceProductMappings(ctx context.Context, mappings []database.ProductMapping) (int, error)
}

// MappingDuplicate название встретилось повторно, оставлено первое вхождение
type MappingDuplicate struct {
	ProductName   string `json:"product_name"`
	FirstFile     string `json:"first_file"`
	DuplicateFile string `json:"duplicate_file"`
}

// SkippedFile файл пропущен целиком
type SkippedFile struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// RebuildReport итог перестроения справочника
type RebuildReport struct {
	FilesProcessed int                `json:"files_processed"`
	SkippedFiles   []SkippedFile      `json:"skipped_files"`
	RowsExamined   int                `json:"rows_examined"`
	Created        int                `json:"created"`
	Duplicates     []MappingDuplicate `json:"duplicates"`
}

// ProductMappingImporter перестраивает справочник веса/размера из Excel файлов
type ProductMappingImporter struct {
	reader SourceReader
	store  ProductMappingStore
	logger *zap.Logger
}

// NewProductMappingImporter создает импортер справочника
func NewProductMappingImporter(reader SourceReader, store ProductMappingStore, logger *zap.Logger) *ProductMappingImporter {
	if reader == nil {
		reader = NewFileReader()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductMappingImporter{reader: reader, store: store, logger: logger}
}

// RebuildFromDir очищает справочник и заполняет его из всех .xlsx/.xls файлов каталога
// (в алфавитном порядке имен)
func (p *ProductMappingImporter) RebuildFromDir(ctx context.Context, dir string) (*RebuildReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".xlsx" || ext == ".xls" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	return p.Rebuild(ctx, files)
}

// Rebuild очищает справочник и заполняет его из указанных файлов
func (p *ProductMappingImporter) Rebuild(ctx context.Context, files []string) (*RebuildReport, error) {
	report := &RebuildReport{}
	seen := make(map[string]string)
	var mappings []database.ProductMapping

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		table, err := p.reader.Read(ctx, file)
		if err != nil {
			report.SkippedFiles = append(report.SkippedFiles, SkippedFile{File: filepath.Base(file), Reason: err.Error()})
			p.logger.Warn("Skipping mapping file", zap.String("file", file), zap.Error(err))
			continue
		}

		parsed, examined, err := parseMappingTable(table)
		if err != nil {
			report.SkippedFiles = append(report.SkippedFiles, SkippedFile{File: filepath.Base(file), Reason: err.Error()})
			p.logger.Warn("Skipping mapping file", zap.String("file", file), zap.Error(err))
			continue
		}
		report.FilesProcessed++
		report.RowsExamined += examined

		for _, m := range parsed {
			if first, ok := seen[m.ProductName]; ok {
				report.Duplicates = append(report.Duplicates, MappingDuplicate{
					ProductName:   m.ProductName,
					FirstFile:     first,
					DuplicateFile: filepath.Base(file),
				})
				continue
			}
			seen[m.ProductName] = filepath.Base(file)
			mappings = append(mappings, m)
		}
	}

	created, err := p.store.ReplaceProductMappings(ctx, mappings)
	if err != nil {
		return nil, fmt.Errorf("failed to store product mappings: %w", err)
	}
	report.Created = created

	p.logger.Info("Product mappings rebuilt",
		zap.Int("files_processed", report.FilesProcessed),
		zap.Int("files_skipped", len(report.SkippedFiles)),
		zap.Int("rows_examined", report.RowsExamined),
		zap.Int("created", report.Created),
		zap.Int("duplicates", len(report.Duplicates)))

	return report, nil
}

// parseMappingTable извлекает записи; строки без веса и размера пропускаются,
// нулевой вес считается отсутствующим
func parseMappingTable(table *Table) ([]database.ProductMapping, int, error) {
	pos := map[string]int{}
	for i, h := range table.Headers {
		h = strings.TrimSpace(h)
		if _, ok := pos[h]; !ok {
			pos[h] = i
		}
	}

	var missing []string
	for _, col := range []string{mappingColName, mappingColSize, mappingColWeight} {
		if _, ok := pos[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	cell := func(row []string, col string) string {
		i := pos[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var result []database.ProductMapping
	examined := 0
	for _, row := range table.Rows {
		name := cell(row, mappingColName)
		if name == "" {
			continue
		}
		examined++

		var size *string
		if s := cell(row, mappingColSize); s != "" {
			size = &s
		}
		var weight *float64
		if d := ParseNumber(cell(row, mappingColWeight)); d != nil && d.IsPositive() {
			w := d.InexactFloat64()
			weight = &w
		}
		if size == nil && weight == nil {
			continue
		}

		result = append(result, database.ProductMapping{
			ProductName: name,
			BoxWeight:   weight,
			BoxSize:     size,
		})
	}
	return result, examined, nil
}
