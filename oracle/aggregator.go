package oracle

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carbonex/carbonex/config"
)

var ErrNoFeeds = errors.New("oracle.feeds.unavailable")

const cacheKey = "carbonex:oracle:reference_price"

// Feed is one source's quote set with the confidence it assigns itself.
type Feed struct {
	Source     string          `json:"source"`
	USDCPrice  decimal.Decimal `json:"usdc_price"`
	USDTPrice  decimal.Decimal `json:"usdt_price"`
	ETHPrice   decimal.Decimal `json:"eth_price"`
	Confidence decimal.Decimal `json:"confidence"`
}

type FeedProvider interface {
	Fetch() (*Feed, error)
}

// ReferencePrice is the confidence-weighted aggregate across all live
// feeds. It values gas and fees in stable quote currency for the payment
// flows; matching never consults it.
type ReferencePrice struct {
	USDC       decimal.Decimal `json:"usdc"`
	USDT       decimal.Decimal `json:"usdt"`
	ETH        decimal.Decimal `json:"eth"`
	Confidence decimal.Decimal `json:"confidence"`
	Sources    int             `json:"sources"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type Aggregator struct {
	Providers []FeedProvider
	Cache     *config.CacheService
}

func NewAggregator(cache *config.CacheService, providers ...FeedProvider) *Aggregator {
	return &Aggregator{
		Providers: providers,
		Cache:     cache,
	}
}

// ReferencePrice fetches every registered feed and combines them into a
// confidence-weighted mean per asset. Feeds that error or report zero
// confidence are ignored; no usable feed at all is an error.
func (a *Aggregator) ReferencePrice() (*ReferencePrice, error) {
	usdc := decimal.Zero
	usdt := decimal.Zero
	eth := decimal.Zero
	weight := decimal.Zero
	sources := 0

	for _, provider := range a.Providers {
		feed, err := provider.Fetch()
		if err != nil {
			config.Logger.Errorf("[oracle.aggregator] feed fetch failed: %s", err.Error())
			continue
		}

		if !feed.Confidence.IsPositive() {
			continue
		}

		usdc = usdc.Add(feed.USDCPrice.Mul(feed.Confidence))
		usdt = usdt.Add(feed.USDTPrice.Mul(feed.Confidence))
		eth = eth.Add(feed.ETHPrice.Mul(feed.Confidence))
		weight = weight.Add(feed.Confidence)
		sources++
	}

	if sources == 0 || !weight.IsPositive() {
		return nil, ErrNoFeeds
	}

	reference := &ReferencePrice{
		USDC:       usdc.Div(weight),
		USDT:       usdt.Div(weight),
		ETH:        eth.Div(weight),
		Confidence: weight.Div(decimal.NewFromInt(int64(sources))),
		Sources:    sources,
		UpdatedAt:  time.Now(),
	}

	if a.Cache != nil {
		if err := a.Cache.SetKey(cacheKey, reference, 0); err != nil {
			config.Logger.Errorf("[oracle.aggregator] cache write failed: %s", err.Error())
		}
	}

	return reference, nil
}
