package pricing

import (
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carbonex/carbonex/config"
	"github.com/carbonex/carbonex/types"
)

var ErrPriceNotFound = errors.New("pricing.market_price.not_found")

// halfSpreadRate derives the displayed bid/ask band from the last price.
var halfSpreadRate = decimal.NewFromFloat(0.005)

// volatilityWeight is the EWMA weight of the newest trade return.
var volatilityWeight = decimal.NewFromFloat(0.1)

// volumeDecay shrinks the 24h volume a little on every drift tick so the
// figure tracks recent activity without a bucketed rolling window.
var volumeDecay = decimal.NewFromFloat(0.99)

type MarketPrice struct {
	CreditType       string          `json:"credit_type"`
	Bid              decimal.Decimal `json:"bid"`
	Ask              decimal.Decimal `json:"ask"`
	Last             decimal.Decimal `json:"last"`
	Volume24h        decimal.Decimal `json:"volume_24h"`
	CumulativeVolume decimal.Decimal `json:"cumulative_volume"`
	Volatility       decimal.Decimal `json:"volatility"`
	Trend            types.Trend     `json:"trend"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type PriceStore interface {
	Save(p *MarketPrice) error
	Find(creditType string) (*MarketPrice, error)
	All() ([]*MarketPrice, error)
}

// Tracker owns every MarketPrice record. Trade updates and drift ticks
// for the same credit type go through the same per-key lock, so the two
// writers never race within an update cycle.
type Tracker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex

	Store  PriceStore
	Source PriceSource
	Cache  *config.CacheService
}

func NewTracker(store PriceStore, source PriceSource, cache *config.CacheService) *Tracker {
	return &Tracker{
		locks:  make(map[string]*sync.Mutex),
		Store:  store,
		Source: source,
		Cache:  cache,
	}
}

func (t *Tracker) keyLock(creditType string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, found := t.locks[creditType]
	if !found {
		lock = &sync.Mutex{}
		t.locks[creditType] = lock
	}
	return lock
}

// Seed registers a credit type with a starting price and volatility so
// drift has something to work from before the first trade.
func (t *Tracker) Seed(creditType string, price, volatility decimal.Decimal) error {
	lock := t.keyLock(creditType)
	lock.Lock()
	defer lock.Unlock()

	if existing, err := t.Store.Find(creditType); err == nil && existing != nil {
		return nil
	}

	spread := price.Mul(halfSpreadRate)
	mp := &MarketPrice{
		CreditType: creditType,
		Bid:        price.Sub(spread),
		Ask:        price.Add(spread),
		Last:       price,
		Volatility: volatility,
		Trend:      types.TrendNeutral,
		UpdatedAt:  time.Now(),
	}

	return t.save(mp)
}

// RecordTrade folds an execution into the market price: last moves to the
// trade price, the bid/ask band follows, and the trend compares the new
// last against the previous band.
func (t *Tracker) RecordTrade(creditType string, price, quantity decimal.Decimal) error {
	lock := t.keyLock(creditType)
	lock.Lock()
	defer lock.Unlock()

	mp, err := t.Store.Find(creditType)
	if err != nil {
		mp = &MarketPrice{
			CreditType: creditType,
			Trend:      types.TrendNeutral,
		}
	}

	previousBid := mp.Bid
	previousAsk := mp.Ask
	previousLast := mp.Last

	t.reprice(mp, price, previousBid, previousAsk)

	mp.Volume24h = mp.Volume24h.Add(quantity)
	mp.CumulativeVolume = mp.CumulativeVolume.Add(quantity)

	if previousLast.IsPositive() {
		tradeReturn := price.Div(previousLast).Sub(decimal.NewFromInt(1)).Abs()
		carried := decimal.NewFromInt(1).Sub(volatilityWeight)
		mp.Volatility = mp.Volatility.Mul(carried).Add(tradeReturn.Mul(volatilityWeight))
	}

	return t.save(mp)
}

// Drift applies one periodic nudge to a tracked price.
func (t *Tracker) Drift(creditType string) error {
	lock := t.keyLock(creditType)
	lock.Lock()
	defer lock.Unlock()

	mp, err := t.Store.Find(creditType)
	if err != nil || mp == nil {
		return ErrPriceNotFound
	}

	change := t.Source.Drift(mp.Trend, mp.Volatility, mp.Volume24h)
	newLast := mp.Last.Mul(decimal.NewFromInt(1).Add(change))
	if !newLast.IsPositive() {
		newLast = mp.Last
	}

	t.reprice(mp, newLast, mp.Bid, mp.Ask)
	mp.Volume24h = mp.Volume24h.Mul(volumeDecay)

	return t.save(mp)
}

// DriftAll runs a drift tick over every tracked credit type.
func (t *Tracker) DriftAll() error {
	prices, err := t.Store.All()
	if err != nil {
		return err
	}

	for _, mp := range prices {
		if err := t.Drift(mp.CreditType); err != nil {
			config.Logger.Errorf("[pricing.tracker] drift failed for %s: %s", mp.CreditType, err.Error())
		}
	}

	return nil
}

// Get returns a copy so callers never hold a reference the tracker is
// still mutating.
func (t *Tracker) Get(creditType string) (*MarketPrice, error) {
	lock := t.keyLock(creditType)
	lock.Lock()
	defer lock.Unlock()

	mp, err := t.Store.Find(creditType)
	if err != nil || mp == nil {
		return nil, ErrPriceNotFound
	}

	copied := *mp
	return &copied, nil
}

func (t *Tracker) reprice(mp *MarketPrice, last, previousBid, previousAsk decimal.Decimal) {
	spread := last.Mul(halfSpreadRate)

	mp.Last = last
	mp.Bid = last.Sub(spread)
	mp.Ask = last.Add(spread)

	switch {
	case previousAsk.IsPositive() && last.GreaterThan(previousAsk):
		mp.Trend = types.TrendUp
	case previousBid.IsPositive() && last.LessThan(previousBid):
		mp.Trend = types.TrendDown
	default:
		mp.Trend = types.TrendNeutral
	}

	mp.UpdatedAt = time.Now()
}

func (t *Tracker) save(mp *MarketPrice) error {
	if err := t.Store.Save(mp); err != nil {
		return err
	}

	if t.Cache != nil {
		if err := t.Cache.SetKey("carbonex:market_price:"+mp.CreditType, mp, 0); err != nil {
			config.Logger.Errorf("[pricing.tracker] cache write failed: %s", err.Error())
		}
	}

	return nil
}
