package matching

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carbonex/carbonex/types"
)

// PriceLevel queues resting orders of one side at one price. Orders leave
// in creation order, which is what makes price-time priority hold.
type PriceLevel struct {
	Side   types.OrderSide
	Price  decimal.Decimal
	Orders []*Order
}

type PriceLevelKey struct {
	Side  types.OrderSide
	Price decimal.Decimal
}

func NewPriceLevel(side types.OrderSide, price decimal.Decimal) *PriceLevel {
	return &PriceLevel{
		Side:   side,
		Price:  price,
		Orders: make([]*Order, 0),
	}
}

func (p *PriceLevel) Key() *PriceLevelKey {
	return &PriceLevelKey{
		Side:  p.Side,
		Price: p.Price,
	}
}

func (p *PriceLevel) Add(order *Order) {
	for _, o := range p.Orders {
		if o.ID == order.ID {
			return
		}
	}

	p.Orders = append(p.Orders, order)
	sort.SliceStable(p.Orders, func(i, j int) bool {
		if !p.Orders[i].CreatedAt.Equal(p.Orders[j].CreatedAt) {
			return p.Orders[i].CreatedAt.Before(p.Orders[j].CreatedAt)
		}
		return p.Orders[i].ID < p.Orders[j].ID
	})
}

// Top returns the earliest live order at this level, dropping expired
// orders it walks over. Dropped orders are reported through evict so the
// book can release its own references to them.
func (p *PriceLevel) Top(now time.Time, evict func(*Order)) *Order {
	for len(p.Orders) > 0 {
		o := p.Orders[0]
		if o.Expired(now) || o.Terminal() || !o.UnfilledQuantity().IsPositive() {
			p.Orders = p.Orders[1:]
			if evict != nil {
				evict(o)
			}
			continue
		}
		return o
	}

	return nil
}

func (p *PriceLevel) Empty() bool {
	return len(p.Orders) == 0
}

func (p *PriceLevel) Size() int {
	return len(p.Orders)
}

// Total sums the unfilled quantity of live orders at this level.
func (p *PriceLevel) Total(now time.Time) decimal.Decimal {
	total := decimal.Zero

	for _, order := range p.Orders {
		if order.Expired(now) {
			continue
		}
		total = total.Add(order.UnfilledQuantity())
	}

	return total
}

func (p *PriceLevel) Remove(order *Order) {
	for index, o := range p.Orders {
		if o.ID == order.ID {
			p.Orders = append(p.Orders[:index], p.Orders[index+1:]...)
			return
		}
	}
}
