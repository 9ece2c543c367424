package matching

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carbonex/carbonex/types"
)

var (
	ErrInvalidOrder  = errors.New("matching.order.invalid")
	ErrAlreadyFilled = errors.New("matching.order.already_filled")
	ErrOrderNotFound = errors.New("matching.order.not_found")
)

type OrderStatus string

const (
	StatusOpen            OrderStatus = "open"
	StatusPartiallyFilled OrderStatus = "partially-filled"
	StatusFilled          OrderStatus = "filled"
	StatusCancelled       OrderStatus = "cancelled"
)

// Fill is the immutable record appended to an order for every match it
// takes part in.
type Fill struct {
	TradeID      uint64          `json:"trade_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Counterparty string          `json:"counterparty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Order struct {
	ID             uint64            `json:"id"`
	Side           types.OrderSide   `json:"side"`
	CreditType     string            `json:"credit_type"`
	Quantity       decimal.Decimal   `json:"quantity"`
	Price          decimal.Decimal   `json:"price"`
	Total          decimal.Decimal   `json:"total"`
	Creator        string            `json:"creator"`
	Status         OrderStatus       `json:"status"`
	FilledQuantity decimal.Decimal   `json:"filled_quantity"`
	Fills          []*Fill           `json:"fills"`
	CreatedAt      time.Time         `json:"created_at"`
	ExpiresAt      time.Time         `json:"expires_at"`
}

func (o *Order) IsAsk() bool {
	return o.Side == types.SideSell
}

func (o *Order) IsBid() bool {
	return o.Side == types.SideBuy
}

// UnfilledQuantity is zero for terminal orders so that a cancelled order
// never matches again.
func (o *Order) UnfilledQuantity() decimal.Decimal {
	if o.Status == StatusCancelled {
		return decimal.Zero
	}

	return o.Quantity.Sub(o.FilledQuantity)
}

func (o *Order) Filled() bool {
	return o.FilledQuantity.GreaterThanOrEqual(o.Quantity)
}

func (o *Order) Terminal() bool {
	return o.Status == StatusFilled || o.Status == StatusCancelled
}

// Expired reports whether the advisory expiry has passed. A zero ExpiresAt
// means the order never expires.
func (o *Order) Expired(now time.Time) bool {
	return !o.ExpiresAt.IsZero() && now.After(o.ExpiresAt)
}

// IsCrossed reports whether the order accepts execution at price: a bid
// matches at or below its limit, an ask at or above.
func (o *Order) IsCrossed(price decimal.Decimal) bool {
	if o.IsBid() {
		return price.LessThanOrEqual(o.Price)
	}

	return price.GreaterThanOrEqual(o.Price)
}

// ApplyFill appends the fill record and moves the order status forward.
// Terminal orders never apply fills.
func (o *Order) ApplyFill(fill *Fill) {
	if o.Terminal() {
		return
	}

	o.Fills = append(o.Fills, fill)
	o.FilledQuantity = o.FilledQuantity.Add(fill.Quantity)

	if o.Filled() {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}
}

// Clone returns an independent copy of the order with its own fills
// slice, safe to read after the book has moved on.
func (o *Order) Clone() *Order {
	copied := *o
	copied.Fills = append([]*Fill(nil), o.Fills...)
	return &copied
}

// OrderStore retains every order, resting or terminal, for historical
// query. The matching engine never assumes a backing store.
type OrderStore interface {
	Save(o *Order) error
	Find(id uint64) (*Order, error)
	ByCreditType(creditType string) ([]*Order, error)
	CreditTypes() ([]string, error)
}
