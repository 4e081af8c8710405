package importer

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/width"
)

// Field каноническое поле строки исходного файла
type Field string

const (
	FieldProductName Field = "product_name"
	FieldBrand       Field = "brand"
	FieldUnitCount   Field = "unit_count"
	FieldUnitPrice   Field = "unit_price"
	FieldTotalPrice  Field = "total_price"
	FieldCategory    Field = "category"
	FieldOrigin      Field = "origin"
	FieldModelCode   Field = "model_code"
)

// AllFields все поля в порядке колонок
var AllFields = []Field{
	FieldProductName, FieldBrand, FieldUnitCount, FieldUnitPrice,
	FieldTotalPrice, FieldCategory, FieldOrigin, FieldModelCode,
}

// RequiredFields без этих колонок файл пропускается целиком
var RequiredFields = []Field{
	FieldProductName, FieldBrand, FieldUnitCount, FieldUnitPrice,
	FieldTotalPrice, FieldCategory, FieldOrigin,
}

// AliasTable поле -> допустимые заголовки. Первый заголовок основной,
// остальные используются только если основного нет в файле.
type AliasTable map[Field][]string

// DefaultAliasTable заголовки выгрузок производителей
func DefaultAliasTable() AliasTable {
	return AliasTable{
		FieldProductName: {"TITLE", "商品名", "品名", "Name"},
		FieldBrand:       {"Maker", "メーカー", "品牌", "Brand"},
		FieldUnitCount:   {"Pcs", "数量", "Qty"},
		FieldUnitPrice:   {"Price", "単価", "单价"},
		FieldTotalPrice:  {"Total", "合計", "金额"},
		FieldCategory:    {"Category", "カテゴリ", "类别"},
		FieldOrigin:      {"Origin", "原産国", "原产地"},
		FieldModelCode:   {"品番", "Model", "型号"},
	}
}

// AliasTableFromConfig накладывает заголовки из конфигурации на таблицу по умолчанию
func AliasTableFromConfig(aliases map[string][]string) (AliasTable, error) {
	table := DefaultAliasTable()
	known := make(map[Field]bool, len(AllFields))
	for _, f := range AllFields {
		known[f] = true
	}

	for name, headers := range aliases {
		field := Field(strings.TrimSpace(name))
		if !known[field] {
			return nil, fmt.Errorf("unknown column field %q", name)
		}
		var cleaned []string
		for _, h := range headers {
			if h = strings.TrimSpace(h); h != "" {
				cleaned = append(cleaned, h)
			}
		}
		if len(cleaned) == 0 {
			return nil, fmt.Errorf("column field %q has no headers", name)
		}
		table[field] = cleaned
	}
	return table, nil
}

// ColumnIndex поле -> индекс колонки в файле
type ColumnIndex map[Field]int

// MissingColumnsError в файле нет обязательных колонок
type MissingColumnsError struct {
	Fields []Field
}

func (e *MissingColumnsError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = string(f)
	}
	return fmt.Sprintf("missing required columns: %s", strings.Join(names, ", "))
}

// normalizeHeader приводит заголовок к виду для сравнения:
// без пробелов по краям, полуширинные латиница/цифры, нижний регистр
func normalizeHeader(h string) string {
	return strings.ToLower(width.Fold.String(strings.TrimSpace(h)))
}

// Resolve сопоставляет заголовки файла с полями. Вызывается один раз на файл.
func (a AliasTable) Resolve(headers []string) (ColumnIndex, error) {
	positions := make(map[string]int, len(headers))
	for i, h := range headers {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		// при повторяющихся заголовках берется первый
		if _, exists := positions[key]; !exists {
			positions[key] = i
		}
	}

	index := make(ColumnIndex, len(a))
	for field, names := range a {
		for _, name := range names {
			if pos, ok := positions[normalizeHeader(name)]; ok {
				index[field] = pos
				break
			}
		}
	}

	var missing []Field
	for _, f := range RequiredFields {
		if _, ok := index[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return nil, &MissingColumnsError{Fields: missing}
	}

	return index, nil
}

func (c ColumnIndex) value(row []string, f Field) string {
	pos, ok := c[f]
	if !ok || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}
