package entities

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carbonex/carbonex/amm"
	"github.com/carbonex/carbonex/pricing"
)

type MarketPriceEntity struct {
	CreditType string          `json:"credit_type"`
	Bid        decimal.Decimal `json:"bid"`
	Ask        decimal.Decimal `json:"ask"`
	Last       decimal.Decimal `json:"last"`
	Volume24h  decimal.Decimal `json:"volume_24h"`
	Volatility decimal.Decimal `json:"volatility"`
	Trend      string          `json:"trend"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func MarketPriceToEntity(mp *pricing.MarketPrice) *MarketPriceEntity {
	return &MarketPriceEntity{
		CreditType: mp.CreditType,
		Bid:        mp.Bid,
		Ask:        mp.Ask,
		Last:       mp.Last,
		Volume24h:  mp.Volume24h,
		Volatility: mp.Volatility,
		Trend:      string(mp.Trend),
		UpdatedAt:  mp.UpdatedAt,
	}
}

type SwapQuoteEntity struct {
	PoolID       string          `json:"pool_id"`
	InputAmount  decimal.Decimal `json:"input_amount"`
	OutputAmount decimal.Decimal `json:"output_amount"`
	PriceImpact  decimal.Decimal `json:"price_impact"`
	Fee          decimal.Decimal `json:"fee"`
}

func SwapQuoteToEntity(poolID string, inputAmount decimal.Decimal, quote *amm.SwapQuote) *SwapQuoteEntity {
	return &SwapQuoteEntity{
		PoolID:       poolID,
		InputAmount:  inputAmount,
		OutputAmount: quote.OutputAmount,
		PriceImpact:  quote.PriceImpact,
		Fee:          quote.Fee,
	}
}

type PoolEntity struct {
	ID             string          `json:"id"`
	BaseAsset      string          `json:"base_asset"`
	QuoteAsset     string          `json:"quote_asset"`
	BaseReserve    decimal.Decimal `json:"base_reserve"`
	QuoteReserve   decimal.Decimal `json:"quote_reserve"`
	FeeRate        decimal.Decimal `json:"fee_rate"`
	TotalLiquidity decimal.Decimal `json:"total_liquidity"`
	APY            decimal.Decimal `json:"apy"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func PoolToEntity(pool *amm.Pool) *PoolEntity {
	base_reserve, quote_reserve := pool.Reserves()

	return &PoolEntity{
		ID:             pool.ID,
		BaseAsset:      pool.BaseAsset,
		QuoteAsset:     pool.QuoteAsset,
		BaseReserve:    base_reserve,
		QuoteReserve:   quote_reserve,
		FeeRate:        pool.FeeRate,
		TotalLiquidity: pool.TotalLiquidity,
		APY:            pool.APY,
		UpdatedAt:      pool.UpdatedAt,
	}
}
