package normalization

// BrandRemapper заменяет код бренда на стандартное название.
// Поиск только по точному ключу; неизвестный бренд возвращается как есть.
type BrandRemapper struct {
	mapping map[string]string
}

// NewBrandRemapper создает ремаппер; mapping копируется
func NewBrandRemapper(mapping map[string]string) *BrandRemapper {
	m := make(map[string]string, len(mapping))
	for k, v := range mapping {
		m[k] = v
	}
	return &BrandRemapper{mapping: m}
}

// Remap возвращает стандартное название бренда
func (b *BrandRemapper) Remap(brand string) string {
	if ref, ok := b.mapping[brand]; ok {
		return ref
	}
	return brand
}

// Known true если для бренда есть запись в справочнике
func (b *BrandRemapper) Known(brand string) bool {
	_, ok := b.mapping[brand]
	return ok
}
