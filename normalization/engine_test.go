package normalization

import (
	"testing"

	"exportdecl/importer"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }
func sptr(s string) *string   { return &s }

func normRow(brand, name string, band PriceBand, model string, count, total string, attrs Attributes) NormalizedRow {
	row := NormalizedRow{
		Brand:       brand,
		ProductName: name,
		Band:        band,
		Category:    "アダルトグッズ",
		Origin:      "日本",
		ModelCode:   model,
		Attributes:  attrs,
	}
	if count != "" {
		row.UnitCount = dec(count)
	}
	if total != "" {
		row.TotalPrice = dec(total)
	}
	return row
}

func TestAggregate_MergesModelCodes(t *testing.T) {
	e := NewAggregationEngine(nil)
	rows := []NormalizedRow{
		normRow("RJ", "Cup", BandUpTo500, "M1", "2", "600", Attributes{}),
		normRow("RJ", "Cup", BandUpTo500, "M2", "3", "900", Attributes{}),
		normRow("RJ", "Cup", BandUpTo500, "M1", "1", "300", Attributes{}),
	}

	records := e.Aggregate(rows, 1.1)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "M1, M2", rec.ModelSummary)
	assert.True(t, rec.UnitCountTotal.Equal(decimal.NewFromInt(6)))
	assert.True(t, rec.PriceTotal.Equal(decimal.NewFromInt(1800)))
	assert.Equal(t, "型号：M1, M2", rec.CustomsDescription)
}

func TestAggregate_MissingAttributes(t *testing.T) {
	e := NewAggregationEngine(nil)
	records := e.Aggregate([]NormalizedRow{
		normRow("RJ", "Unmapped", BandUpTo500, "", "2", "100", Attributes{}),
	}, 1.1)

	require.Len(t, records, 1)
	rec := records[0]
	assert.Nil(t, rec.UnitWeight)
	assert.Nil(t, rec.UnitSize)
	assert.Nil(t, rec.NetWeight)
	assert.Nil(t, rec.GrossWeight)
	assert.Equal(t, "型号：无型号", rec.CustomsDescription)
}

func TestAggregate_WeightRules(t *testing.T) {
	e := NewAggregationEngine(nil)

	t.Run("first non-null weight and size win", func(t *testing.T) {
		records := e.Aggregate([]NormalizedRow{
			normRow("RJ", "Cup", BandUpTo500, "", "1", "1", Attributes{}),
			normRow("RJ", "Cup", BandUpTo500, "", "1", "1", Attributes{Weight: fptr(0.5)}),
			normRow("RJ", "Cup", BandUpTo500, "", "2", "1", Attributes{Weight: fptr(9), Size: sptr("S")}),
			normRow("RJ", "Cup", BandUpTo500, "", "", "1", Attributes{Size: sptr("L")}),
		}, 1.1)

		require.Len(t, records, 1)
		rec := records[0]
		require.NotNil(t, rec.UnitWeight)
		assert.Equal(t, 0.5, *rec.UnitWeight)
		assert.Equal(t, "S", *rec.UnitSize)
		require.NotNil(t, rec.NetWeight)
		assert.InDelta(t, 2.0, *rec.NetWeight, 1e-9)
		require.NotNil(t, rec.GrossWeight)
		assert.InDelta(t, 2.2, *rec.GrossWeight, 1e-9)
	})

	t.Run("zero net weight is null", func(t *testing.T) {
		records := e.Aggregate([]NormalizedRow{
			normRow("RJ", "Cup", BandUpTo500, "", "", "1", Attributes{Weight: fptr(0.5)}),
			normRow("RJ", "Gel", BandUpTo500, "", "3", "1", Attributes{Weight: fptr(0)}),
		}, 1.1)

		require.Len(t, records, 2)
		for _, rec := range records {
			assert.NotNil(t, rec.UnitWeight)
			assert.Nil(t, rec.NetWeight, rec.ProductName)
			assert.Nil(t, rec.GrossWeight, rec.ProductName)
		}
		assert.True(t, records[0].UnitCountTotal.IsZero())
	})

	t.Run("all weights null", func(t *testing.T) {
		records := e.Aggregate([]NormalizedRow{
			normRow("RJ", "Cup", BandUpTo500, "", "5", "1", Attributes{}),
			normRow("RJ", "Cup", BandUpTo500, "", "5", "1", Attributes{Size: sptr("S")}),
		}, 1.1)

		require.Len(t, records, 1)
		assert.Nil(t, records[0].NetWeight)
		assert.Nil(t, records[0].GrossWeight)
	})
}

func TestAggregate_ClausesFromConfig(t *testing.T) {
	e := NewAggregationEngine(NewDescriptionBuilder([]ClauseRule{
		{Name: "adult", Categories: []string{"アダルトグッズ"}, Clause: "成人用品"},
	}))

	records := e.Aggregate([]NormalizedRow{
		normRow("RJ", "Cup", BandUpTo500, "A-1", "1", "1", Attributes{}),
	}, 1.1)
	require.Len(t, records, 1)
	assert.Equal(t, "成人用品 型号：A-1", records[0].CustomsDescription)
}

func TestAggregate_SortedAndDeterministic(t *testing.T) {
	e := NewAggregationEngine(nil)
	rows := []NormalizedRow{
		normRow("TM", "Gel", BandUnknown, "", "1", "1", Attributes{}),
		normRow("RJ", "Gel", Band500To1000, "", "1", "1", Attributes{}),
		normRow("RJ", "Cup", BandOver30000, "", "1", "1", Attributes{}),
		normRow("RJ", "Cup", BandUpTo500, "", "1", "1", Attributes{}),
	}

	records := e.Aggregate(rows, 1.1)
	require.Len(t, records, 4)

	keys := make([]GroupKey, len(records))
	for i := range records {
		keys[i] = records[i].Key()
	}
	assert.Equal(t, []GroupKey{
		{Brand: "RJ", ProductName: "Cup", Band: BandUpTo500, Category: "アダルトグッズ", Origin: "日本"},
		{Brand: "RJ", ProductName: "Cup", Band: BandOver30000, Category: "アダルトグッズ", Origin: "日本"},
		{Brand: "RJ", ProductName: "Gel", Band: Band500To1000, Category: "アダルトグッズ", Origin: "日本"},
		{Brand: "TM", ProductName: "Gel", Band: BandUnknown, Category: "アダルトグッズ", Origin: "日本"},
	}, keys)

	assert.Equal(t, records, e.Aggregate(rows, 1.1))
}

func TestAggregate_KeysUnique(t *testing.T) {
	faker := gofakeit.New(2024)
	brands := []string{"RJ", "TM", "NPG", "A-one"}
	names := []string{"Cup", "Gel", "Lotion", "Ring"}
	categories := []string{"アダルトグッズ", "ローション", "雑貨"}
	origins := []string{"日本", "中国"}

	registry := NewNameRegistry([]string{"Cup", "Gel"})
	normalizer := NewRowNormalizer(registry, NewBrandRemapper(map[string]string{"RJ": "Rends"}), nil)

	src := make([]importer.SourceRow, 0, 2000)
	for i := 0; i < 2000; i++ {
		price := decimal.NewFromFloat(faker.Float64Range(0, 40000))
		count := decimal.NewFromInt(int64(faker.Number(0, 20)))
		row := importer.SourceRow{
			ProductName: faker.RandomString(names) + " " + faker.Word(),
			Brand:       faker.RandomString(brands),
			UnitCount:   &count,
			Category:    faker.RandomString(categories),
			Origin:      faker.RandomString(origins),
			ModelCode:   faker.RandomString([]string{"", "M1", "M2", "M3"}),
		}
		if faker.Bool() {
			row.UnitPrice = &price
			row.TotalPrice = &price
		}
		src = append(src, row)
	}

	records := NewAggregationEngine(nil).Aggregate(normalizer.NormalizeAll(src), 1.1)

	seen := make(map[GroupKey]bool, len(records))
	total := decimal.Zero
	for _, rec := range records {
		key := rec.Key()
		assert.False(t, seen[key], "duplicate key %+v", key)
		seen[key] = true
		total = total.Add(rec.UnitCountTotal)
	}

	want := decimal.Zero
	for _, r := range src {
		want = want.Add(*r.UnitCount)
	}
	assert.True(t, want.Equal(total), "sum of counts is preserved")
}

func TestRowNormalizer_AttributesUseNormalizedName(t *testing.T) {
	w := 0.3
	n := NewRowNormalizer(
		NewNameRegistry([]string{"Cup"}),
		NewBrandRemapper(map[string]string{"RJ": "Rends"}),
		NewAttributeResolver(map[string]Attributes{
			"Cup":           {Weight: &w},
			"Super Cup Red": {Weight: fptr(99)},
		}),
	)

	row := n.Normalize(importer.SourceRow{
		ProductName: "Super Cup Red",
		Brand:       "RJ",
		UnitPrice:   dec("500"),
	})

	assert.Equal(t, "Cup", row.ProductName)
	assert.Equal(t, "Rends", row.Brand)
	assert.Equal(t, BandUpTo500, row.Band)
	require.NotNil(t, row.Attributes.Weight)
	assert.Equal(t, 0.3, *row.Attributes.Weight)

	row = n.Normalize(importer.SourceRow{ProductName: "Other", Brand: "XX"})
	assert.Equal(t, "Other", row.ProductName)
	assert.Equal(t, "XX", row.Brand)
	assert.Equal(t, BandUnknown, row.Band)
	assert.Nil(t, row.Attributes.Weight)
}
