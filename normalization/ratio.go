package normalization

import (
	"math"
	"math/rand/v2"
	"sync"
)

// Границы коэффициента брутто по умолчанию
const (
	DefaultGrossRatioMin = 1.08
	DefaultGrossRatioMax = 1.12
)

const ratioPrecision = 1e4

// GrossRatioPolicy выбирает коэффициент брутто один раз на запуск.
// Коэффициент одинаков для всех записей запуска.
type GrossRatioPolicy struct {
	min, max, fixed float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGrossRatioPolicy создает политику. fixed > 0 фиксирует коэффициент;
// rng == nil означает глобальный генератор.
func NewGrossRatioPolicy(lo, hi, fixed float64, rng *rand.Rand) *GrossRatioPolicy {
	if lo <= 0 || hi < lo {
		lo, hi = DefaultGrossRatioMin, DefaultGrossRatioMax
	}
	return &GrossRatioPolicy{min: lo, max: hi, fixed: fixed, rng: rng}
}

// FixedGrossRatio политика с постоянным коэффициентом
func FixedGrossRatio(ratio float64) *GrossRatioPolicy {
	return NewGrossRatioPolicy(ratio, ratio, ratio, nil)
}

// Draw выбирает коэффициент из [min, max] с шагом 0.0001, обе границы включены
func (p *GrossRatioPolicy) Draw() float64 {
	if p.fixed > 0 {
		return p.fixed
	}

	steps := int(math.Round((p.max - p.min) * ratioPrecision))
	if steps <= 0 {
		return p.min
	}

	var k int
	if p.rng != nil {
		p.mu.Lock()
		k = p.rng.IntN(steps + 1)
		p.mu.Unlock()
	} else {
		k = rand.IntN(steps + 1)
	}

	return math.Round(p.min*ratioPrecision+float64(k)) / ratioPrecision
}

// Range границы выбора
func (p *GrossRatioPolicy) Range() (float64, float64) {
	return p.min, p.max
}
