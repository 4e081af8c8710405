package normalization

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceBand ценовой диапазон, интервалы закрыты справа: (a, b]
type PriceBand int

const (
	BandUpTo500 PriceBand = iota
	Band500To1000
	Band1000To2500
	Band2500To5000
	Band5000To10000
	Band10000To20000
	Band20000To30000
	BandOver30000
	// BandUnknown цена отсутствует или не распознана; строка сохраняется
	BandUnknown
)

var bandUpperBounds = []decimal.Decimal{
	decimal.NewFromInt(500),
	decimal.NewFromInt(1000),
	decimal.NewFromInt(2500),
	decimal.NewFromInt(5000),
	decimal.NewFromInt(10000),
	decimal.NewFromInt(20000),
	decimal.NewFromInt(30000),
}

var bandLabels = [...]string{
	"less_than_500",
	"500_to_1000",
	"1000_to_2500",
	"2500_to_5000",
	"5000_to_10000",
	"10000_to_20000",
	"20000_to_30000",
	"over_30000",
	"price_unknown",
}

var bandDisplay = [...]string{
	"≤500",
	"500-1000",
	"1000-2500",
	"2500-5000",
	"5000-10000",
	"10000-20000",
	"20000-30000",
	">30000",
	"unknown",
}

// ClassifyPrice относит цену к диапазону. Граница принадлежит нижнему диапазону.
func ClassifyPrice(price *decimal.Decimal) PriceBand {
	if price == nil {
		return BandUnknown
	}
	for i, upper := range bandUpperBounds {
		if price.LessThanOrEqual(upper) {
			return PriceBand(i)
		}
	}
	return BandOver30000
}

// String метка диапазона (less_than_500, 500_to_1000, ...)
func (b PriceBand) String() string {
	if b < 0 || int(b) >= len(bandLabels) {
		return fmt.Sprintf("PriceBand(%d)", int(b))
	}
	return bandLabels[b]
}

// Display короткая подпись для отчета: ≤500, 500-1000, ...
func (b PriceBand) Display() string {
	if b < 0 || int(b) >= len(bandDisplay) {
		return b.String()
	}
	return bandDisplay[b]
}

// MarshalText сериализует диапазон меткой
func (b PriceBand) MarshalText() ([]byte, error) {
	if b < 0 || int(b) >= len(bandLabels) {
		return nil, fmt.Errorf("invalid price band %d", int(b))
	}
	return []byte(bandLabels[b]), nil
}

// UnmarshalText разбирает метку диапазона
func (b *PriceBand) UnmarshalText(text []byte) error {
	for i, label := range bandLabels {
		if label == string(text) {
			*b = PriceBand(i)
			return nil
		}
	}
	return fmt.Errorf("unknown price band %q", string(text))
}
