package normalization

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// SummaryRecord строка сводной декларации, уникальная по
// (бренд, название, ценовой диапазон, категория, страна происхождения)
type SummaryRecord struct {
	Brand              string          `json:"brand"`
	ProductName        string          `json:"product_name"`
	PriceBand          PriceBand       `json:"price_band"`
	Category           string          `json:"category"`
	Origin             string          `json:"origin"`
	ModelSummary       string          `json:"model_summary"`
	UnitCountTotal     decimal.Decimal `json:"unit_count_total"`
	PriceTotal         decimal.Decimal `json:"price_total"`
	UnitWeight         *float64        `json:"unit_weight"`
	UnitSize           *string         `json:"unit_size"`
	NetWeight          *float64        `json:"net_weight"`
	GrossWeight        *float64        `json:"gross_weight"`
	CustomsDescription string          `json:"customs_description"`
}

// GroupKey составной ключ записи
type GroupKey struct {
	Brand       string
	ProductName string
	Band        PriceBand
	Category    string
	Origin      string
}

// Key ключ группы записи
func (r *SummaryRecord) Key() GroupKey {
	return GroupKey{
		Brand:       r.Brand,
		ProductName: r.ProductName,
		Band:        r.PriceBand,
		Category:    r.Category,
		Origin:      r.Origin,
	}
}

type groupAcc struct {
	key        GroupKey
	models     []string
	seenModels map[string]bool
	count      decimal.Decimal
	total      decimal.Decimal
	weight     *float64
	size       *string
}

// AggregationEngine группирует нормализованные строки в записи декларации
type AggregationEngine struct {
	descriptions *DescriptionBuilder
}

// NewAggregationEngine создает движок; descriptions == nil означает описание без формулировок
func NewAggregationEngine(descriptions *DescriptionBuilder) *AggregationEngine {
	if descriptions == nil {
		descriptions = NewDescriptionBuilder(nil)
	}
	return &AggregationEngine{descriptions: descriptions}
}

// Aggregate группирует строки. grossRatio один на весь запуск.
// Результат отсортирован по бренду, названию, диапазону, категории, стране.
func (e *AggregationEngine) Aggregate(rows []NormalizedRow, grossRatio float64) []SummaryRecord {
	groups := make(map[GroupKey]*groupAcc)
	order := make([]*groupAcc, 0)

	for _, row := range rows {
		key := GroupKey{
			Brand:       row.Brand,
			ProductName: row.ProductName,
			Band:        row.Band,
			Category:    row.Category,
			Origin:      row.Origin,
		}

		g, ok := groups[key]
		if !ok {
			g = &groupAcc{key: key, seenModels: make(map[string]bool)}
			groups[key] = g
			order = append(order, g)
		}

		if m := strings.TrimSpace(row.ModelCode); m != "" && !g.seenModels[m] {
			g.seenModels[m] = true
			g.models = append(g.models, m)
		}
		if row.UnitCount != nil {
			g.count = g.count.Add(*row.UnitCount)
		}
		if row.TotalPrice != nil {
			g.total = g.total.Add(*row.TotalPrice)
		}
		// первое непустое значение в порядке строк
		if g.weight == nil && row.Attributes.Weight != nil {
			w := *row.Attributes.Weight
			g.weight = &w
		}
		if g.size == nil && row.Attributes.Size != nil {
			s := *row.Attributes.Size
			g.size = &s
		}
	}

	records := make([]SummaryRecord, 0, len(order))
	for _, g := range order {
		records = append(records, e.finish(g, grossRatio))
	}

	slices.SortStableFunc(records, func(a, b SummaryRecord) int {
		return cmp.Or(
			cmp.Compare(a.Brand, b.Brand),
			cmp.Compare(a.ProductName, b.ProductName),
			cmp.Compare(a.PriceBand, b.PriceBand),
			cmp.Compare(a.Category, b.Category),
			cmp.Compare(a.Origin, b.Origin),
		)
	})
	return records
}

func (e *AggregationEngine) finish(g *groupAcc, grossRatio float64) SummaryRecord {
	models := strings.Join(g.models, ", ")
	rec := SummaryRecord{
		Brand:              g.key.Brand,
		ProductName:        g.key.ProductName,
		PriceBand:          g.key.Band,
		Category:           g.key.Category,
		Origin:             g.key.Origin,
		ModelSummary:       models,
		UnitCountTotal:     g.count,
		PriceTotal:         g.total,
		UnitWeight:         g.weight,
		UnitSize:           g.size,
		CustomsDescription: e.descriptions.Build(g.key.Category, models),
	}

	if g.weight != nil {
		net := *g.weight * g.count.InexactFloat64()
		// нулевой вес означает отсутствие данных
		if net != 0 {
			gross := net * grossRatio
			rec.NetWeight = &net
			rec.GrossWeight = &gross
		}
	}
	return rec
}
