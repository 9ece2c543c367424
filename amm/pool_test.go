package amm_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/carbonex/carbonex/amm"
	"github.com/carbonex/carbonex/store"
)

type suitePoolTester struct {
	suite.Suite
}

func newTestPool() *amm.Pool {
	return amm.NewPool(
		"forestry-usdc",
		"forestry",
		"USDC",
		decimal.NewFromInt(100_000),
		decimal.NewFromInt(1_000_000),
		decimal.NewFromFloat(0.003),
	)
}

func (s *suitePoolTester) TestQuoteConstantProduct() {
	pool := newTestPool()
	input := decimal.NewFromInt(1000)

	quote, err := pool.Quote(input, true)
	s.NoError(err)

	// out = quoteReserve - k/(baseReserve + input*(1-fee))
	inputAfterFee := input.Mul(decimal.NewFromFloat(0.997))
	k := decimal.NewFromInt(100_000).Mul(decimal.NewFromInt(1_000_000))
	expected := decimal.NewFromInt(1_000_000).Sub(k.Div(decimal.NewFromInt(100_000).Add(inputAfterFee)))

	s.True(quote.OutputAmount.Equal(expected))
	s.True(quote.Fee.Equal(decimal.NewFromInt(3)))

	// ~1% price impact for a 1% trade against the base reserve.
	s.True(quote.PriceImpact.IsPositive())
	s.True(quote.PriceImpact.LessThan(decimal.NewFromFloat(0.011)))
	s.True(quote.PriceImpact.GreaterThan(decimal.NewFromFloat(0.009)))
}

func (s *suitePoolTester) TestQuoteDoesNotMoveReserves() {
	pool := newTestPool()

	_, err := pool.Quote(decimal.NewFromInt(1000), true)
	s.NoError(err)

	base, quote := pool.Reserves()
	s.True(base.Equal(decimal.NewFromInt(100_000)))
	s.True(quote.Equal(decimal.NewFromInt(1_000_000)))
}

func (s *suitePoolTester) TestQuoteRejectsNonPositiveInput() {
	pool := newTestPool()

	_, err := pool.Quote(decimal.Zero, true)
	s.ErrorIs(err, amm.ErrInvalidSwapAmount)

	_, err = pool.Quote(decimal.NewFromInt(-5), false)
	s.ErrorIs(err, amm.ErrInvalidSwapAmount)
}

func (s *suitePoolTester) TestQuoteEmptyPool() {
	pool := amm.NewPool("empty", "forestry", "USDC", decimal.Zero, decimal.Zero, decimal.NewFromFloat(0.003))

	_, err := pool.Quote(decimal.NewFromInt(10), true)
	s.ErrorIs(err, amm.ErrInsufficientLiquidity)
}

func (s *suitePoolTester) TestExecuteMovesReservesAndKeepsInvariant() {
	pool := newTestPool()
	input := decimal.NewFromInt(1000)

	kBefore := decimal.NewFromInt(100_000).Mul(decimal.NewFromInt(1_000_000))

	quote, err := pool.Execute(input, true)
	s.NoError(err)

	base, quoteReserve := pool.Reserves()
	s.True(base.Equal(decimal.NewFromInt(101_000)))
	s.True(quoteReserve.Equal(decimal.NewFromInt(1_000_000).Sub(quote.OutputAmount)))

	// Retained fees keep the reserve product from shrinking.
	s.True(base.Mul(quoteReserve).GreaterThanOrEqual(kBefore))
	s.True(pool.FeeVolume.IsPositive())
}

func (s *suitePoolTester) TestExecuteQuoteSide() {
	pool := newTestPool()
	input := decimal.NewFromInt(10_000)

	quote, err := pool.Execute(input, false)
	s.NoError(err)

	base, quoteReserve := pool.Reserves()
	s.True(quoteReserve.Equal(decimal.NewFromInt(1_010_000)))
	s.True(base.Equal(decimal.NewFromInt(100_000).Sub(quote.OutputAmount)))
	s.True(pool.FeeVolume.Equal(quote.Fee))
}

func (s *suitePoolTester) TestServiceSwapRoundTrip() {
	pools := store.NewMemoryPoolStore()
	service := amm.NewService(pools)

	s.NoError(pools.Save(newTestPool()))

	quoted, err := service.QuoteSwap("forestry-usdc", decimal.NewFromInt(500), true)
	s.NoError(err)

	executed, err := service.ExecuteSwap("forestry-usdc", decimal.NewFromInt(500), true)
	s.NoError(err)
	s.True(executed.OutputAmount.Equal(quoted.OutputAmount))

	stored, err := pools.Find("forestry-usdc")
	s.NoError(err)

	base, _ := stored.Reserves()
	s.True(base.Equal(decimal.NewFromInt(100_500)))
}

func (s *suitePoolTester) TestServiceUnknownPool() {
	service := amm.NewService(store.NewMemoryPoolStore())

	_, err := service.QuoteSwap("missing", decimal.NewFromInt(1), true)
	s.ErrorIs(err, amm.ErrPoolNotFound)

	_, err = service.ExecuteSwap("missing", decimal.NewFromInt(1), true)
	s.ErrorIs(err, amm.ErrPoolNotFound)
}

func (s *suitePoolTester) TestRecomputeStats() {
	pools := store.NewMemoryPoolStore()
	service := amm.NewService(pools)

	s.NoError(pools.Save(newTestPool()))

	_, err := service.ExecuteSwap("forestry-usdc", decimal.NewFromInt(1000), false)
	s.NoError(err)

	s.NoError(service.RecomputeStats(10 * time.Minute))

	stored, err := pools.Find("forestry-usdc")
	s.NoError(err)

	_, quoteReserve := stored.Reserves()
	s.True(stored.TotalLiquidity.Equal(quoteReserve.Mul(decimal.NewFromInt(2))))
	s.True(stored.APY.IsPositive())
	s.True(stored.FeeVolume.IsZero())
}

func TestPoolSuite(t *testing.T) {
	suite.Run(t, new(suitePoolTester))
}
