package normalization

import (
	"math/rand/v2"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestNameRegistry_Match(t *testing.T) {
	tests := []struct {
		name     string
		registry []string
		input    string
		want     string
		matched  bool
	}{
		{"substring", []string{"ABC"}, "xABCy", "ABC", true},
		{"empty registry", nil, "anything", "anything", false},
		{"empty registry empty input", nil, "", "", false},
		{"case insensitive", []string{"Rabbit"}, "super RABBIT x", "Rabbit", true},
		{"registry order wins over length", []string{"Cup", "Cup Deluxe"}, "Cup Deluxe 2", "Cup", true},
		{"later entry when earlier absent", []string{"Zeta", "Cup"}, "Cup Deluxe", "Cup", true},
		{"metacharacters are literal", []string{"a.b", "c+"}, "axb c+", "c+", true},
		{"dot does not match any char", []string{"a.b"}, "axb", "axb", false},
		{"parentheses", []string{"(新)"}, "商品(新)版", "(新)", true},
		{"japanese", []string{"ローション", "オナホール"}, "ぺぺローション360ml", "ローション", true},
		{"no match", []string{"ABC"}, "xyz", "xyz", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewNameRegistry(tt.registry)
			got, ok := r.Match(tt.input)
			assert.Equal(t, tt.matched, ok)
			assert.Equal(t, tt.want, r.Normalize(tt.input))
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNameRegistry_SkipsBlankAndDuplicates(t *testing.T) {
	r := NewNameRegistry([]string{" ", "A", " A ", "", "B"})
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"A", "B"}, r.Entries())
}

func TestNameRegistry_Idempotent(t *testing.T) {
	faker := gofakeit.New(42)
	entries := []string{"ABC", "Cup", "ローション", "a.b", "Deluxe Cup", "x"}
	r := NewNameRegistry(entries)

	for i := 0; i < 500; i++ {
		input := faker.Word() + faker.RandomString(append(entries, "", "zz")) + faker.Word()
		once := r.Normalize(input)
		assert.Equal(t, once, r.Normalize(once), "input %q", input)
	}
}

func TestBrandRemapper(t *testing.T) {
	mapping := map[string]string{"RJ": "Rends Japan", "TM": "Toys Heart"}
	b := NewBrandRemapper(mapping)

	assert.Equal(t, "Rends Japan", b.Remap("RJ"))
	assert.True(t, b.Known("TM"))

	// точное совпадение, без подстрок и регистра
	assert.Equal(t, "rj", b.Remap("rj"))
	assert.Equal(t, "RJX", b.Remap("RJX"))
	assert.False(t, b.Known("rj"))

	// изменение исходной карты не влияет на ремаппер
	mapping["XX"] = "Other"
	assert.Equal(t, "XX", b.Remap("XX"))
}

func TestBrandRemapper_IdentityForUnknown(t *testing.T) {
	faker := gofakeit.New(7)
	b := NewBrandRemapper(map[string]string{"RJ": "Rends Japan"})
	for i := 0; i < 200; i++ {
		token := faker.Company()
		if token == "RJ" {
			continue
		}
		assert.Equal(t, token, b.Remap(token))
	}
}

func TestAttributeResolver(t *testing.T) {
	w := 0.25
	size := "10x20x5"
	r := NewAttributeResolver(map[string]Attributes{
		"Cup":   {Weight: &w, Size: &size},
		"Gel":   {Size: &size},
		"Empty": {},
	})

	got := r.Resolve("Cup")
	require.NotNil(t, got.Weight)
	assert.Equal(t, 0.25, *got.Weight)
	assert.Equal(t, "10x20x5", *got.Size)

	got = r.Resolve("Gel")
	assert.Nil(t, got.Weight)
	assert.NotNil(t, got.Size)

	got = r.Resolve("Unknown")
	assert.Nil(t, got.Weight)
	assert.Nil(t, got.Size)
}

func TestClassifyPrice(t *testing.T) {
	tests := []struct {
		price string
		want  PriceBand
	}{
		{"-100", BandUpTo500},
		{"0", BandUpTo500},
		{"500", BandUpTo500},
		{"500.01", Band500To1000},
		{"1000", Band500To1000},
		{"1000.0001", Band1000To2500},
		{"2500", Band1000To2500},
		{"5000", Band2500To5000},
		{"10000", Band5000To10000},
		{"20000", Band10000To20000},
		{"30000", Band20000To30000},
		{"30000.01", BandOver30000},
		{"1e9", BandOver30000},
	}

	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyPrice(dec(tt.price)))
		})
	}

	assert.Equal(t, BandUnknown, ClassifyPrice(nil))
}

func TestClassifyPrice_Total(t *testing.T) {
	faker := gofakeit.New(1)
	for i := 0; i < 1000; i++ {
		p := decimal.NewFromFloat(faker.Float64Range(-1000, 100000))
		band := ClassifyPrice(&p)
		assert.GreaterOrEqual(t, int(band), int(BandUpTo500))
		assert.LessOrEqual(t, int(band), int(BandOver30000), "price %s", p)
	}
}

func TestPriceBand_Labels(t *testing.T) {
	assert.Equal(t, "≤500", ClassifyPrice(dec("500")).Display())
	assert.Equal(t, "500-1000", ClassifyPrice(dec("500.01")).Display())
	assert.Equal(t, "less_than_500", BandUpTo500.String())
	assert.Equal(t, "price_unknown", BandUnknown.String())

	text, err := Band2500To5000.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2500_to_5000", string(text))

	var b PriceBand
	require.NoError(t, b.UnmarshalText([]byte("over_30000")))
	assert.Equal(t, BandOver30000, b)
	assert.Error(t, b.UnmarshalText([]byte("cheap")))

	_, err = PriceBand(42).MarshalText()
	assert.Error(t, err)
}

func TestDescriptionBuilder(t *testing.T) {
	d := NewDescriptionBuilder([]ClauseRule{
		{Name: "adult", Categories: []string{"アダルトグッズ", "Adult"}, Clause: "成人用品"},
		{Name: "lotion", Categories: []string{"ローション"}, Clause: "润滑液 非药用"},
		{Name: "shadow", Categories: []string{"adult"}, Clause: "ignored"},
		{Name: "blank", Categories: []string{"misc"}, Clause: " "},
	})

	assert.Equal(t, "成人用品 型号：M1, M2", d.Build("アダルトグッズ", "M1, M2"))
	assert.Equal(t, "成人用品 型号：无型号", d.Build(" ADULT ", ""))
	assert.Equal(t, "润滑液 非药用 型号：L1", d.Build("ローション", "L1"))
	assert.Equal(t, "型号：X", d.Build("その他", "X"))
	assert.Equal(t, "型号：无型号", d.Build("misc", "  "))
	assert.Equal(t, "", d.Clause("misc"))
}

func TestGrossRatioPolicy_Bounds(t *testing.T) {
	p := NewGrossRatioPolicy(1.08, 1.12, 0, rand.New(rand.NewPCG(1, 2)))
	for i := 0; i < 2000; i++ {
		r := p.Draw()
		assert.GreaterOrEqual(t, r, 1.08)
		assert.LessOrEqual(t, r, 1.12)
		// шаг 0.0001
		assert.InDelta(t, r, float64(int64(r*1e4+0.5))/1e4, 1e-9)
	}
}

func TestGrossRatioPolicy_FixedAndDefaults(t *testing.T) {
	assert.Equal(t, 1.1, FixedGrossRatio(1.1).Draw())

	p := NewGrossRatioPolicy(0, 0, 0, nil)
	lo, hi := p.Range()
	assert.Equal(t, DefaultGrossRatioMin, lo)
	assert.Equal(t, DefaultGrossRatioMax, hi)

	p = NewGrossRatioPolicy(1.05, 1.05, 0, nil)
	assert.Equal(t, 1.05, p.Draw())
}
