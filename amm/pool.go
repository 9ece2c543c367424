package amm

import (
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrPoolNotFound          = errors.New("amm.pool.not_found")
	ErrInvalidSwapAmount     = errors.New("amm.swap.invalid_amount")
	ErrInsufficientLiquidity = errors.New("amm.pool.insufficient_liquidity")
)

// Pool is a constant-product market for one credit-type/quote-asset pair.
// Reserves only move under the pool lock; quoting never moves them.
type Pool struct {
	mu sync.RWMutex

	ID           string          `json:"id"`
	BaseAsset    string          `json:"base_asset"`
	QuoteAsset   string          `json:"quote_asset"`
	BaseReserve  decimal.Decimal `json:"base_reserve"`
	QuoteReserve decimal.Decimal `json:"quote_reserve"`
	FeeRate      decimal.Decimal `json:"fee_rate"`

	// Informational aggregates maintained by the pool stats job, never
	// by swap calls.
	TotalLiquidity decimal.Decimal `json:"total_liquidity"`
	APY            decimal.Decimal `json:"apy"`

	// FeeVolume accrues quote-denominated fees since the last stats run.
	FeeVolume decimal.Decimal `json:"fee_volume"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type SwapQuote struct {
	OutputAmount decimal.Decimal `json:"output_amount"`
	PriceImpact  decimal.Decimal `json:"price_impact"`
	Fee          decimal.Decimal `json:"fee"`
}

func NewPool(id, baseAsset, quoteAsset string, baseReserve, quoteReserve, feeRate decimal.Decimal) *Pool {
	return &Pool{
		ID:           id,
		BaseAsset:    baseAsset,
		QuoteAsset:   quoteAsset,
		BaseReserve:  baseReserve,
		QuoteReserve: quoteReserve,
		FeeRate:      feeRate,
		UpdatedAt:    time.Now(),
	}
}

// Quote prices a swap with x*y=k without touching the reserves. The fee
// comes off the input before the invariant is applied.
func (p *Pool) Quote(inputAmount decimal.Decimal, isInputBase bool) (*SwapQuote, error) {
	if !inputAmount.IsPositive() {
		return nil, ErrInvalidSwapAmount
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.quote(inputAmount, isInputBase)
}

func (p *Pool) quote(inputAmount decimal.Decimal, isInputBase bool) (*SwapQuote, error) {
	var inputReserve, outputReserve decimal.Decimal
	if isInputBase {
		inputReserve = p.BaseReserve
		outputReserve = p.QuoteReserve
	} else {
		inputReserve = p.QuoteReserve
		outputReserve = p.BaseReserve
	}

	if !inputReserve.IsPositive() || !outputReserve.IsPositive() {
		return nil, ErrInsufficientLiquidity
	}

	fee := inputAmount.Mul(p.FeeRate)
	inputAfterFee := inputAmount.Sub(fee)

	k := inputReserve.Mul(outputReserve)
	outputAmount := outputReserve.Sub(k.Div(inputReserve.Add(inputAfterFee)))

	spotPrice := outputReserve.Div(inputReserve)
	executionPrice := outputAmount.Div(inputAfterFee)
	priceImpact := decimal.NewFromInt(1).Sub(executionPrice.Div(spotPrice))

	return &SwapQuote{
		OutputAmount: outputAmount,
		PriceImpact:  priceImpact,
		Fee:          fee,
	}, nil
}

// Execute applies a quoted swap: the full input, fee included, joins the
// input reserve while the output leaves the other side. Retaining the fee
// is what keeps the reserve product non-decreasing.
func (p *Pool) Execute(inputAmount decimal.Decimal, isInputBase bool) (*SwapQuote, error) {
	if !inputAmount.IsPositive() {
		return nil, ErrInvalidSwapAmount
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	quote, err := p.quote(inputAmount, isInputBase)
	if err != nil {
		return nil, err
	}

	if isInputBase {
		p.BaseReserve = p.BaseReserve.Add(inputAmount)
		p.QuoteReserve = p.QuoteReserve.Sub(quote.OutputAmount)
		p.FeeVolume = p.FeeVolume.Add(quote.Fee.Mul(p.QuoteReserve.Div(p.BaseReserve)))
	} else {
		p.QuoteReserve = p.QuoteReserve.Add(inputAmount)
		p.BaseReserve = p.BaseReserve.Sub(quote.OutputAmount)
		p.FeeVolume = p.FeeVolume.Add(quote.Fee)
	}
	p.UpdatedAt = time.Now()

	return quote, nil
}

// Reserves returns a consistent view of both reserves.
func (p *Pool) Reserves() (base, quote decimal.Decimal) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.BaseReserve, p.QuoteReserve
}
