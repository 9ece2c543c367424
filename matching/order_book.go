package matching

import (
	"sync"
	"time"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/shopspring/decimal"

	"github.com/carbonex/carbonex/config"
	"github.com/carbonex/carbonex/types"
)

// OrderBook holds the resting bids and asks for one credit type. All
// mutations are serialized behind its lock so price-time priority cannot
// be violated by concurrent submissions.
type OrderBook struct {
	sync.RWMutex
	CreditType string

	Bids *redblacktree.Tree
	Asks *redblacktree.Tree

	resting map[uint64]*Order
}

// makeComparator orders price levels so that tree.Right() is always the
// best level to match against: highest bid, lowest ask.
func makeComparator(a, b interface{}) int {
	aPriceLevel := a.(*PriceLevelKey)
	bPriceLevel := b.(*PriceLevelKey)

	switch {
	case aPriceLevel.Side == types.SideSell && aPriceLevel.Price.LessThan(bPriceLevel.Price):
		return 1

	case aPriceLevel.Side == types.SideSell && aPriceLevel.Price.GreaterThan(bPriceLevel.Price):
		return -1

	case aPriceLevel.Side == types.SideBuy && aPriceLevel.Price.LessThan(bPriceLevel.Price):
		return -1

	case aPriceLevel.Side == types.SideBuy && aPriceLevel.Price.GreaterThan(bPriceLevel.Price):
		return 1

	default:
		return 0
	}
}

func NewOrderBook(creditType string) *OrderBook {
	return &OrderBook{
		CreditType: creditType,
		Bids:       redblacktree.NewWith(makeComparator),
		Asks:       redblacktree.NewWith(makeComparator),
		resting:    make(map[uint64]*Order, 1024),
	}
}

// InsertOrder runs the taker against the opposite side, then rests the
// remainder. It returns the trades produced by this matching pass plus
// post-fill copies of every touched order, taken while the lock is still
// held so readers never observe a half-applied fill.
func (ob *OrderBook) InsertOrder(taker *Order, nextTradeID func() uint64) ([]*Trade, []*Order) {
	ob.Lock()
	defer ob.Unlock()

	config.Logger.Debugf("[matching.orderbook] insert order with id %d - %s * %s, side %s", taker.ID, taker.Price, taker.Quantity, taker.Side)

	trades := []*Trade{}
	affected := []*Order{}

	var makers *redblacktree.Tree
	if taker.IsAsk() {
		makers = ob.Bids
	} else {
		makers = ob.Asks
	}

	now := time.Now()

	for {
		best := makers.Right()
		if best == nil {
			break
		}

		price_level := best.Value.(*PriceLevel)

		maker := price_level.Top(now, func(dead *Order) {
			delete(ob.resting, dead.ID)
		})
		if maker == nil {
			makers.Remove(best.Key)
			continue
		}

		// The maker's price governs execution. A taker that no longer
		// crosses the best level is done matching.
		if !taker.IsCrossed(price_level.Price) {
			break
		}

		quantity := decimal.Min(taker.UnfilledQuantity(), maker.UnfilledQuantity())

		trade := ob.execute(maker, taker, quantity, nextTradeID(), now)
		trades = append(trades, trade)

		config.Logger.Debugf("[matching.orderbook] new trade with price %s", trade.Price)

		if maker.Filled() {
			price_level.Remove(maker)
			delete(ob.resting, maker.ID)
			if price_level.Empty() {
				makers.Remove(best.Key)
			}
		}

		affected = append(affected, maker.Clone())

		if taker.Filled() {
			return trades, append(affected, taker.Clone())
		}
	}

	if taker.UnfilledQuantity().IsPositive() && !taker.Terminal() {
		ob.add(taker)
	}

	return trades, append(affected, taker.Clone())
}

// execute fills both orders at the maker price and emits the trade.
func (ob *OrderBook) execute(maker, taker *Order, quantity decimal.Decimal, tradeID uint64, now time.Time) *Trade {
	trade := &Trade{
		ID:           tradeID,
		CreditType:   ob.CreditType,
		Price:        maker.Price,
		Quantity:     quantity,
		Total:        maker.Price.Mul(quantity),
		MakerOrderID: maker.ID,
		TakerOrderID: taker.ID,
		Status:       TradePending,
		CreatedAt:    now,
	}

	if maker.IsBid() {
		trade.Buyer = maker.Creator
		trade.Seller = taker.Creator
	} else {
		trade.Buyer = taker.Creator
		trade.Seller = maker.Creator
	}

	maker.ApplyFill(&Fill{
		TradeID:      trade.ID,
		Quantity:     quantity,
		Price:        maker.Price,
		Counterparty: taker.Creator,
		CreatedAt:    now,
	})
	taker.ApplyFill(&Fill{
		TradeID:      trade.ID,
		Quantity:     quantity,
		Price:        maker.Price,
		Counterparty: maker.Creator,
		CreatedAt:    now,
	})

	return trade
}

func (ob *OrderBook) add(o *Order) {
	var side *redblacktree.Tree
	if o.IsAsk() {
		side = ob.Asks
	} else {
		side = ob.Bids
	}

	pl := NewPriceLevel(o.Side, o.Price)

	value, found := side.Get(pl.Key())
	if !found {
		pl.Add(o)
		side.Put(pl.Key(), pl)
	} else {
		value.(*PriceLevel).Add(o)
	}

	ob.resting[o.ID] = o
}

// Remove cancels a resting order: it leaves the book and turns cancelled
// in a single step under the lock. The returned copy carries the final
// state; ok is false when the order is no longer resting.
func (ob *OrderBook) Remove(id uint64) (*Order, bool) {
	ob.Lock()
	defer ob.Unlock()

	target, ok := ob.resting[id]
	if !ok {
		return nil, false
	}

	var side *redblacktree.Tree
	if target.IsAsk() {
		side = ob.Asks
	} else {
		side = ob.Bids
	}

	pl := NewPriceLevel(target.Side, target.Price)
	if value, found := side.Get(pl.Key()); found {
		price_level := value.(*PriceLevel)
		price_level.Remove(target)
		if price_level.Empty() {
			side.Remove(pl.Key())
		}
	}

	delete(ob.resting, id)
	target.Status = StatusCancelled

	return target.Clone(), true
}

// BookSnapshot is a copy of the top of the book: bids by descending
// price, asks by ascending price.
type BookSnapshot struct {
	CreditType string   `json:"credit_type"`
	Bids       []*Order `json:"bids"`
	Asks       []*Order `json:"asks"`
}

// Snapshot copies up to limit live orders per side so readers never
// observe the book mid-mutation.
func (ob *OrderBook) Snapshot(limit int) *BookSnapshot {
	ob.RLock()
	defer ob.RUnlock()

	now := time.Now()
	snapshot := &BookSnapshot{
		CreditType: ob.CreditType,
		Bids:       make([]*Order, 0, limit),
		Asks:       make([]*Order, 0, limit),
	}

	snapshot.Bids = collectSide(ob.Bids, limit, now)
	snapshot.Asks = collectSide(ob.Asks, limit, now)

	return snapshot
}

func collectSide(side *redblacktree.Tree, limit int, now time.Time) []*Order {
	orders := make([]*Order, 0, limit)

	it := side.Iterator()
	it.End()
	for it.Prev() && len(orders) < limit {
		price_level := it.Value().(*PriceLevel)
		for _, o := range price_level.Orders {
			if o.Expired(now) || o.Terminal() || !o.UnfilledQuantity().IsPositive() {
				continue
			}
			orders = append(orders, o.Clone())
			if len(orders) >= limit {
				break
			}
		}
	}

	return orders
}
