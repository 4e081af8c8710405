package normalization

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportFormat формат экспорта
type ExportFormat string

const (
	FormatJSON  ExportFormat = "json"
	FormatCSV   ExportFormat = "csv"
	FormatExcel ExportFormat = "excel"
)

// SummarySheetName лист сводной таблицы в xlsx
const SummarySheetName = "Board Summary KPIs"

// SummaryColumns порядок колонок выходной таблицы
var SummaryColumns = []string{
	"brand",
	"product_name",
	"price_band",
	"category",
	"origin",
	"model_summary",
	"unit_count_total",
	"price_total",
	"unit_weight",
	"unit_size",
	"net_weight",
	"gross_weight",
	"customs_description",
}

// ParseExportFormat разбирает формат; пустая строка означает excel
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(s) {
	case "", FormatExcel, "xlsx":
		return FormatExcel, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Extension расширение файла для формата
func (f ExportFormat) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	default:
		return ".xlsx"
	}
}

// ReportFileName имя файла отчета: board_summary_YYYYMMDD_HHMMSS.<ext>
func ReportFileName(now time.Time, format ExportFormat) string {
	return "board_summary_" + now.Format("20060102_150405") + format.Extension()
}

// Exporter записывает сводную таблицу в файл
type Exporter struct{}

// NewExporter создает новый экспортер
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export записывает записи в файл выбранного формата
func (e *Exporter) Export(filename string, format ExportFormat, records []SummaryRecord) error {
	switch format {
	case FormatJSON:
		return e.ExportToJSON(filename, records)
	case FormatCSV:
		return e.ExportToCSV(filename, records)
	case FormatExcel:
		return e.ExportToExcel(filename, records)
	}
	return fmt.Errorf("unknown export format %q", format)
}

// ExportToJSON экспортирует данные в JSON
func (e *Exporter) ExportToJSON(filename string, records []SummaryRecord) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if records == nil {
		records = []SummaryRecord{}
	}
	result := map[string]interface{}{
		"exported_at": time.Now().Format(time.RFC3339),
		"total":       len(records),
		"records":     records,
	}

	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ExportToCSV экспортирует данные в CSV
func (e *Exporter) ExportToCSV(filename string, records []SummaryRecord) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(SummaryColumns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for _, r := range records {
		if err := writer.Write(csvRecord(r)); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func csvRecord(r SummaryRecord) []string {
	return []string{
		r.Brand,
		r.ProductName,
		r.PriceBand.Display(),
		r.Category,
		r.Origin,
		r.ModelSummary,
		r.UnitCountTotal.String(),
		r.PriceTotal.String(),
		formatFloat(r.UnitWeight),
		derefString(r.UnitSize),
		formatFloat(r.NetWeight),
		formatFloat(r.GrossWeight),
		r.CustomsDescription,
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ExportToExcel экспортирует данные в Excel, лист "Board Summary KPIs"
func (e *Exporter) ExportToExcel(filename string, records []SummaryRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	// лист по умолчанию переименовывается, лишних листов нет
	if err := f.SetSheetName(f.GetSheetName(0), SummarySheetName); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	index, err := f.GetSheetIndex(SummarySheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, header := range SummaryColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(SummarySheetName, cell, header)
		f.SetCellStyle(SummarySheetName, cell, cell, headerStyle)
	}

	for rowIdx, r := range records {
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		values := []interface{}{
			r.Brand,
			r.ProductName,
			r.PriceBand.Display(),
			r.Category,
			r.Origin,
			r.ModelSummary,
			r.UnitCountTotal.InexactFloat64(),
			r.PriceTotal.InexactFloat64(),
			floatCell(r.UnitWeight),
			stringCell(r.UnitSize),
			floatCell(r.NetWeight),
			floatCell(r.GrossWeight),
			r.CustomsDescription,
		}
		if err := f.SetSheetRow(SummarySheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", rowIdx+2, err)
		}
	}

	for i := range SummaryColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(SummarySheetName, col, col, 15)
	}
	last, _ := excelize.ColumnNumberToName(len(SummaryColumns))
	f.SetColWidth(SummarySheetName, last, last, 40)

	f.SetActiveSheet(index)

	if err := f.SaveAs(filename); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

// пустая ячейка вместо null
func floatCell(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func stringCell(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
