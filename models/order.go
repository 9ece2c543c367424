package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/carbonex/carbonex/matching"
	"github.com/carbonex/carbonex/models/datatypes"
	"github.com/carbonex/carbonex/types"
)

type Order struct {
	ID             uint64          `json:"id" gorm:"primaryKey"`
	Side           string          `json:"side"`
	CreditType     string          `json:"credit_type" gorm:"index"`
	Quantity       decimal.Decimal `json:"quantity" gorm:"type:decimal(32,16)"`
	Price          decimal.Decimal `json:"price" gorm:"type:decimal(32,16)"`
	Total          decimal.Decimal `json:"total" gorm:"type:decimal(32,16)"`
	Creator        string          `json:"creator" gorm:"index"`
	Status         string          `json:"status" gorm:"index"`
	FilledQuantity decimal.Decimal `json:"filled_quantity" gorm:"type:decimal(32,16)"`
	Fills          datatypes.Fills `json:"fills"`
	CreatedAt      time.Time       `json:"created_at"`
	ExpiresAt      time.Time       `json:"expires_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func OrderFromDomain(o *matching.Order) *Order {
	return &Order{
		ID:             o.ID,
		Side:           string(o.Side),
		CreditType:     o.CreditType,
		Quantity:       o.Quantity,
		Price:          o.Price,
		Total:          o.Total,
		Creator:        o.Creator,
		Status:         string(o.Status),
		FilledQuantity: o.FilledQuantity,
		Fills:          datatypes.Fills(o.Fills),
		CreatedAt:      o.CreatedAt,
		ExpiresAt:      o.ExpiresAt,
	}
}

func (m *Order) ToDomain() *matching.Order {
	return &matching.Order{
		ID:             m.ID,
		Side:           types.OrderSide(m.Side),
		CreditType:     m.CreditType,
		Quantity:       m.Quantity,
		Price:          m.Price,
		Total:          m.Total,
		Creator:        m.Creator,
		Status:         matching.OrderStatus(m.Status),
		FilledQuantity: m.FilledQuantity,
		Fills:          m.Fills,
		CreatedAt:      m.CreatedAt,
		ExpiresAt:      m.ExpiresAt,
	}
}

// GormOrderStore is the durable OrderStore.
type GormOrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *GormOrderStore {
	return &GormOrderStore{db: db}
}

func (s *GormOrderStore) Save(o *matching.Order) error {
	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(OrderFromDomain(o)).Error
}

func (s *GormOrderStore) Find(id uint64) (*matching.Order, error) {
	order := &Order{}
	if err := s.db.First(order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, matching.ErrOrderNotFound
		}
		return nil, err
	}

	return order.ToDomain(), nil
}

func (s *GormOrderStore) ByCreditType(creditType string) ([]*matching.Order, error) {
	var records []*Order
	if err := s.db.Where("credit_type = ?", creditType).Order("id asc").Find(&records).Error; err != nil {
		return nil, err
	}

	orders := make([]*matching.Order, 0, len(records))
	for _, record := range records {
		orders = append(orders, record.ToDomain())
	}
	return orders, nil
}

func (s *GormOrderStore) CreditTypes() ([]string, error) {
	var creditTypes []string
	if err := s.db.Model(&Order{}).Distinct().Pluck("credit_type", &creditTypes).Error; err != nil {
		return nil, err
	}
	return creditTypes, nil
}
