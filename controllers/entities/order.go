package entities

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carbonex/carbonex/matching"
)

type FillEntity struct {
	TradeID      uint64          `json:"trade_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Counterparty string          `json:"counterparty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type OrderEntity struct {
	ID               uint64          `json:"id"`
	Side             string          `json:"side"`
	CreditType       string          `json:"credit_type"`
	Quantity         decimal.Decimal `json:"quantity"`
	Price            decimal.Decimal `json:"price"`
	Total            decimal.Decimal `json:"total"`
	Creator          string          `json:"creator"`
	Status           string          `json:"status"`
	FilledQuantity   decimal.Decimal `json:"filled_quantity"`
	UnfilledQuantity decimal.Decimal `json:"unfilled_quantity"`
	Fills            []*FillEntity   `json:"fills"`
	CreatedAt        time.Time       `json:"created_at"`
	ExpiresAt        *time.Time      `json:"expires_at,omitempty"`
}

func OrderToEntity(order *matching.Order) *OrderEntity {
	fills := make([]*FillEntity, 0, len(order.Fills))
	for _, fill := range order.Fills {
		fills = append(fills, &FillEntity{
			TradeID:      fill.TradeID,
			Quantity:     fill.Quantity,
			Price:        fill.Price,
			Counterparty: fill.Counterparty,
			CreatedAt:    fill.CreatedAt,
		})
	}

	entity := &OrderEntity{
		ID:               order.ID,
		Side:             string(order.Side),
		CreditType:       order.CreditType,
		Quantity:         order.Quantity,
		Price:            order.Price,
		Total:            order.Total,
		Creator:          order.Creator,
		Status:           string(order.Status),
		FilledQuantity:   order.FilledQuantity,
		UnfilledQuantity: order.UnfilledQuantity(),
		Fills:            fills,
		CreatedAt:        order.CreatedAt,
	}

	if !order.ExpiresAt.IsZero() {
		expires_at := order.ExpiresAt
		entity.ExpiresAt = &expires_at
	}

	return entity
}

type BookLevelEntity struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Orders   int             `json:"orders"`
}

type OrderBookEntity struct {
	CreditType string             `json:"credit_type"`
	Bids       []*BookLevelEntity `json:"bids"`
	Asks       []*BookLevelEntity `json:"asks"`
}

// BookToEntity collapses the snapshot's orders into one row per price
// level, best price first on both sides.
func BookToEntity(snapshot *matching.BookSnapshot) *OrderBookEntity {
	return &OrderBookEntity{
		CreditType: snapshot.CreditType,
		Bids:       levelize(snapshot.Bids),
		Asks:       levelize(snapshot.Asks),
	}
}

func levelize(orders []*matching.Order) []*BookLevelEntity {
	levels := make([]*BookLevelEntity, 0)

	for _, order := range orders {
		if len(levels) > 0 && levels[len(levels)-1].Price.Equal(order.Price) {
			last := levels[len(levels)-1]
			last.Quantity = last.Quantity.Add(order.UnfilledQuantity())
			last.Orders++
			continue
		}

		levels = append(levels, &BookLevelEntity{
			Price:    order.Price,
			Quantity: order.UnfilledQuantity(),
			Orders:   1,
		})
	}

	return levels
}
