package normalization

// Attributes вес одной единицы (кг) и размер коробки
type Attributes struct {
	Weight *float64 `json:"weight"`
	Size   *string  `json:"size"`
}

// AttributeResolver вес/размер по нормализованному названию товара
type AttributeResolver struct {
	byName map[string]Attributes
}

// NewAttributeResolver создает резолвер; byName копируется
func NewAttributeResolver(byName map[string]Attributes) *AttributeResolver {
	m := make(map[string]Attributes, len(byName))
	for k, v := range byName {
		m[k] = v
	}
	return &AttributeResolver{byName: m}
}

// Resolve возвращает атрибуты или пустые Attributes, если товара нет в справочнике.
// Ключ должен быть уже нормализован через NameRegistry.
func (r *AttributeResolver) Resolve(normalizedName string) Attributes {
	return r.byName[normalizedName]
}
