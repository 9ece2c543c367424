package amm

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carbonex/carbonex/config"
)

type PoolStore interface {
	Save(p *Pool) error
	Find(id string) (*Pool, error)
	All() ([]*Pool, error)
}

// Service fronts the registered liquidity pools.
type Service struct {
	Pools PoolStore
}

func NewService(pools PoolStore) *Service {
	return &Service{Pools: pools}
}

// QuoteSwap is a pure read, safe to call for UI previews.
func (s *Service) QuoteSwap(poolID string, inputAmount decimal.Decimal, isInputBase bool) (*SwapQuote, error) {
	pool, err := s.Pools.Find(poolID)
	if err != nil {
		return nil, err
	}

	return pool.Quote(inputAmount, isInputBase)
}

// ExecuteSwap commits a swap against the pool reserves.
func (s *Service) ExecuteSwap(poolID string, inputAmount decimal.Decimal, isInputBase bool) (*SwapQuote, error) {
	pool, err := s.Pools.Find(poolID)
	if err != nil {
		return nil, err
	}

	quote, err := pool.Execute(inputAmount, isInputBase)
	if err != nil {
		return nil, err
	}

	return quote, s.Pools.Save(pool)
}

// apyDaysPerYear annualizes the fee yield observed since the last stats
// pass, which runs on a fixed interval.
const apyDaysPerYear = 365

// RecomputeStats refreshes the informational aggregates of every pool:
// total liquidity (quote-denominated, both sides) and the fee-driven APY.
func (s *Service) RecomputeStats(interval time.Duration) error {
	pools, err := s.Pools.All()
	if err != nil {
		return err
	}

	for _, pool := range pools {
		pool.mu.Lock()

		pool.TotalLiquidity = pool.QuoteReserve.Mul(decimal.NewFromInt(2))

		if pool.TotalLiquidity.IsPositive() && interval > 0 {
			periodsPerDay := decimal.NewFromFloat(time.Hour.Hours() * 24 / interval.Hours())
			yearlyFees := pool.FeeVolume.Mul(periodsPerDay).Mul(decimal.NewFromInt(apyDaysPerYear))
			pool.APY = yearlyFees.Div(pool.TotalLiquidity)
		} else {
			pool.APY = decimal.Zero
		}

		pool.FeeVolume = decimal.Zero
		pool.UpdatedAt = time.Now()
		pool.mu.Unlock()

		if err := s.Pools.Save(pool); err != nil {
			config.Logger.Errorf("[amm.service] failed to persist pool %s stats: %s", pool.ID, err.Error())
		}
	}

	return nil
}
