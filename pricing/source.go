package pricing

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/carbonex/carbonex/types"
)

// PriceSource produces the fractional price change applied by a drift
// tick. It is an interface so the randomness stays out of the tracker and
// deterministic fakes can drive tests.
type PriceSource interface {
	Drift(trend types.Trend, volatility, volume24h decimal.Decimal) decimal.Decimal
}

// RandomSource nudges prices with trend-biased random drift, scaled by
// volatility and dampened on thin volume. Display-only liveness between
// real trades.
type RandomSource struct {
	rng *rand.Rand
}

func NewRandomSource(seed int64) *RandomSource {
	return &RandomSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *RandomSource) Drift(trend types.Trend, volatility, volume24h decimal.Decimal) decimal.Decimal {
	noise := decimal.NewFromFloat(s.rng.Float64()*2 - 1)

	bias := decimal.Zero
	switch trend {
	case types.TrendUp:
		bias = decimal.NewFromFloat(0.25)
	case types.TrendDown:
		bias = decimal.NewFromFloat(-0.25)
	}

	// Thin markets barely move between trades.
	volumeFactor := volume24h.Div(volume24h.Add(decimal.NewFromInt(1000)))

	return volatility.Mul(noise.Add(bias)).Mul(volumeFactor)
}
