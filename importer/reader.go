package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUnsupportedFormat расширение файла не поддерживается
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Table содержимое первого листа: заголовки и строки данных
type Table struct {
	Headers   []string
	Rows      [][]string
	HeaderRow int // номер строки заголовка в файле, с 1
}

// SourceReader читает табличный файл
type SourceReader interface {
	Read(ctx context.Context, path string) (*Table, error)
}

// FileReader читает .xlsx/.xlsm (excelize) и .csv
type FileReader struct{}

// NewFileReader создает читатель файлов
func NewFileReader() *FileReader {
	return &FileReader{}
}

// Read читает файл по расширению
func (r *FileReader) Read(ctx context.Context, path string) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readExcel(path)
	case ".xls":
		// excelize читает только OOXML
		return nil, fmt.Errorf("%w: legacy .xls, resave as .xlsx", ErrUnsupportedFormat)
	case ".csv":
		return readCSV(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func readExcel(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	// Сырые значения: иначе числа приходят в формате отображения ("¥1,000", "12%")
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	return tableFromRows(rows)
}

func readCSV(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}

	data, err = decodeText(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		rows = append(rows, record)
	}

	return tableFromRows(rows)
}

// decodeText приводит содержимое к UTF-8: UTF-8 (с BOM или без), UTF-16 с BOM, иначе Shift_JIS
func decodeText(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		return bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), nil
	}

	decoded, _, err := transform.Bytes(unicode.BOMOverride(japanese.ShiftJIS.NewDecoder()), data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode CSV text: %w", err)
	}
	return decoded, nil
}

func tableFromRows(rows [][]string) (*Table, error) {
	// Первая непустая строка считается заголовком
	start := 0
	for start < len(rows) && isEmptyRow(rows[start]) {
		start++
	}
	if start >= len(rows) {
		return nil, fmt.Errorf("file is empty")
	}

	return &Table{
		Headers:   rows[start],
		Rows:      rows[start+1:],
		HeaderRow: start + 1,
	}, nil
}
