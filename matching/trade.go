package matching

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null"
)

var ErrTradeNotFound = errors.New("matching.trade.not_found")

type TradeStatus string

const (
	TradePending   TradeStatus = "pending"
	TradeConfirmed TradeStatus = "confirmed"
	TradeSettled   TradeStatus = "settled"
)

// Trade represents two opposed matched orders. It is created exactly once
// per match event; only Status and BlockchainRef change afterwards.
type Trade struct {
	ID            uint64          `json:"id"`
	CreditType    string          `json:"credit_type"`
	Price         decimal.Decimal `json:"price"`
	Quantity      decimal.Decimal `json:"quantity"`
	Total         decimal.Decimal `json:"total"`
	MakerOrderID  uint64          `json:"maker_order_id"`
	TakerOrderID  uint64          `json:"taker_order_id"`
	Buyer         string          `json:"buyer"`
	Seller        string          `json:"seller"`
	Status        TradeStatus     `json:"status"`
	BlockchainRef null.String     `json:"blockchain_ref"`
	CreatedAt     time.Time       `json:"created_at"`
}

type TradeStore interface {
	Save(t *Trade) error
	Find(id uint64) (*Trade, error)
	ByCreditType(creditType string) ([]*Trade, error)
	LastID() (uint64, error)
}
