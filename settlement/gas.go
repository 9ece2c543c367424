package settlement

import (
	"sync"

	"github.com/shopspring/decimal"
)

// GasEstimator values the network fee of a payout in the payment
// currency. Estimation is side-effect free beyond its own cache.
type GasEstimator interface {
	EstimateGasFee(currency string) (decimal.Decimal, error)
	Invalidate(currency string)
}

var gweiPerUnit = decimal.New(1, 9)

// baseGasUnits is the gas cost of a transfer per currency: a native
// transfer for ETH, an ERC-20 transfer for the stables.
func baseGasUnits(currency string) decimal.Decimal {
	switch currency {
	case "ETH":
		return decimal.NewFromInt(21000)
	case "USDC", "USDT":
		return decimal.NewFromInt(65000)
	default:
		return decimal.NewFromInt(50000)
	}
}

// StaticGasEstimator prices gas from a configured gwei price and priority
// multiplier, caching per currency until invalidated.
type StaticGasEstimator struct {
	mu    sync.Mutex
	cache map[string]decimal.Decimal

	GasPriceGwei       decimal.Decimal
	PriorityMultiplier decimal.Decimal
}

func NewStaticGasEstimator(gasPriceGwei, priorityMultiplier decimal.Decimal) *StaticGasEstimator {
	return &StaticGasEstimator{
		cache:              make(map[string]decimal.Decimal),
		GasPriceGwei:       gasPriceGwei,
		PriorityMultiplier: priorityMultiplier,
	}
}

func (e *StaticGasEstimator) EstimateGasFee(currency string) (decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if fee, found := e.cache[currency]; found {
		return fee, nil
	}

	fee := baseGasUnits(currency).Div(gweiPerUnit).Mul(e.GasPriceGwei).Mul(e.PriorityMultiplier)
	e.cache[currency] = fee

	return fee, nil
}

func (e *StaticGasEstimator) Invalidate(currency string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.cache, currency)
}
