package normalization

import (
	"exportdecl/importer"

	"github.com/shopspring/decimal"
)

// NormalizedRow строка после нормализации названия и бренда, с ценовым
// диапазоном и атрибутами по нормализованному названию
type NormalizedRow struct {
	Brand       string
	ProductName string
	Band        PriceBand
	Category    string
	Origin      string
	ModelCode   string
	UnitCount   *decimal.Decimal
	TotalPrice  *decimal.Decimal
	Attributes  Attributes
}

// RowNormalizer применяет реестр названий, ремаппер брендов и резолвер атрибутов
type RowNormalizer struct {
	names  *NameRegistry
	brands *BrandRemapper
	attrs  *AttributeResolver
}

// NewRowNormalizer создает нормализатор
func NewRowNormalizer(names *NameRegistry, brands *BrandRemapper, attrs *AttributeResolver) *RowNormalizer {
	if names == nil {
		names = NewNameRegistry(nil)
	}
	if brands == nil {
		brands = NewBrandRemapper(nil)
	}
	if attrs == nil {
		attrs = NewAttributeResolver(nil)
	}
	return &RowNormalizer{names: names, brands: brands, attrs: attrs}
}

// NewRowNormalizerFromSnapshot нормализатор по снимку справочников
func NewRowNormalizerFromSnapshot(s *Snapshot) *RowNormalizer {
	return NewRowNormalizer(s.Registry(), s.Remapper(), s.Resolver())
}

// Normalize нормализует одну строку
func (n *RowNormalizer) Normalize(row importer.SourceRow) NormalizedRow {
	name := n.names.Normalize(row.ProductName)
	return NormalizedRow{
		Brand:       n.brands.Remap(row.Brand),
		ProductName: name,
		Band:        ClassifyPrice(row.UnitPrice),
		Category:    row.Category,
		Origin:      row.Origin,
		ModelCode:   row.ModelCode,
		UnitCount:   row.UnitCount,
		TotalPrice:  row.TotalPrice,
		// атрибуты ищутся только по нормализованному названию
		Attributes: n.attrs.Resolve(name),
	}
}

// NormalizeAll нормализует строки с сохранением порядка
func (n *RowNormalizer) NormalizeAll(rows []importer.SourceRow) []NormalizedRow {
	out := make([]NormalizedRow, len(rows))
	for i, r := range rows {
		out[i] = n.Normalize(r)
	}
	return out
}
