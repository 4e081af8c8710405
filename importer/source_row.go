package importer

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

// SourceRow одна товарная позиция из файла производителя
type SourceRow struct {
	ProductName string
	Brand       string
	UnitCount   *decimal.Decimal // nil если не распознано
	UnitPrice   *decimal.Decimal // nil если не распознано
	TotalPrice  *decimal.Decimal // nil если не распознано
	Category    string
	Origin      string
	ModelCode   string

	SourceFile string
	Line       int // номер строки в файле, с 1
}

var numberCleaner = strings.NewReplacer(
	",", "",
	"¥", "", "￥", "", "円", "", "元", "", "$", "",
	" ", "", " ", "", "　", "",
)

// ParseNumber разбирает число из ячейки. Пустое или нераспознанное значение -> nil,
// строка при этом не отбрасывается.
func ParseNumber(raw string) *decimal.Decimal {
	s := width.Narrow.String(strings.TrimSpace(raw))
	s = numberCleaner.Replace(s)
	if s == "" || s == "-" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// buildRow собирает SourceRow из строки файла. ok=false если нет названия или бренда.
func buildRow(cols ColumnIndex, row []string, file string, line int) (SourceRow, bool) {
	r := SourceRow{
		ProductName: cols.value(row, FieldProductName),
		Brand:       cols.value(row, FieldBrand),
		Category:    cols.value(row, FieldCategory),
		Origin:      cols.value(row, FieldOrigin),
		ModelCode:   cols.value(row, FieldModelCode),
		UnitCount:   ParseNumber(cols.value(row, FieldUnitCount)),
		UnitPrice:   ParseNumber(cols.value(row, FieldUnitPrice)),
		TotalPrice:  ParseNumber(cols.value(row, FieldTotalPrice)),
		SourceFile:  file,
		Line:        line,
	}
	if r.ProductName == "" || r.Brand == "" {
		return SourceRow{}, false
	}
	return r, true
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
