package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/carbonex/carbonex/matching"
)

type Trade struct {
	ID            uint64          `json:"id" gorm:"primaryKey"`
	CreditType    string          `json:"credit_type" gorm:"index"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(32,16)"`
	Quantity      decimal.Decimal `json:"quantity" gorm:"type:decimal(32,16)"`
	Total         decimal.Decimal `json:"total" gorm:"type:decimal(32,16)"`
	MakerOrderID  uint64          `json:"maker_order_id"`
	TakerOrderID  uint64          `json:"taker_order_id"`
	Buyer         string          `json:"buyer"`
	Seller        string          `json:"seller"`
	Status        string          `json:"status"`
	BlockchainRef null.String     `json:"blockchain_ref"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func TradeFromDomain(t *matching.Trade) *Trade {
	return &Trade{
		ID:            t.ID,
		CreditType:    t.CreditType,
		Price:         t.Price,
		Quantity:      t.Quantity,
		Total:         t.Total,
		MakerOrderID:  t.MakerOrderID,
		TakerOrderID:  t.TakerOrderID,
		Buyer:         t.Buyer,
		Seller:        t.Seller,
		Status:        string(t.Status),
		BlockchainRef: t.BlockchainRef,
		CreatedAt:     t.CreatedAt,
	}
}

func (m *Trade) ToDomain() *matching.Trade {
	return &matching.Trade{
		ID:            m.ID,
		CreditType:    m.CreditType,
		Price:         m.Price,
		Quantity:      m.Quantity,
		Total:         m.Total,
		MakerOrderID:  m.MakerOrderID,
		TakerOrderID:  m.TakerOrderID,
		Buyer:         m.Buyer,
		Seller:        m.Seller,
		Status:        matching.TradeStatus(m.Status),
		BlockchainRef: m.BlockchainRef,
		CreatedAt:     m.CreatedAt,
	}
}

type GormTradeStore struct {
	db *gorm.DB
}

func NewTradeStore(db *gorm.DB) *GormTradeStore {
	return &GormTradeStore{db: db}
}

func (s *GormTradeStore) Save(t *matching.Trade) error {
	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(TradeFromDomain(t)).Error
}

func (s *GormTradeStore) Find(id uint64) (*matching.Trade, error) {
	trade := &Trade{}
	if err := s.db.First(trade, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, matching.ErrTradeNotFound
		}
		return nil, err
	}

	return trade.ToDomain(), nil
}

func (s *GormTradeStore) ByCreditType(creditType string) ([]*matching.Trade, error) {
	var records []*Trade
	if err := s.db.Where("credit_type = ?", creditType).Order("id asc").Find(&records).Error; err != nil {
		return nil, err
	}

	trades := make([]*matching.Trade, 0, len(records))
	for _, record := range records {
		trades = append(trades, record.ToDomain())
	}
	return trades, nil
}

func (s *GormTradeStore) LastID() (uint64, error) {
	var last uint64
	if err := s.db.Model(&Trade{}).Select("COALESCE(MAX(id), 0)").Row().Scan(&last); err != nil {
		return 0, err
	}
	return last, nil
}
