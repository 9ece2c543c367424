package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/carbonex/carbonex/pricing"
	"github.com/carbonex/carbonex/types"
)

type MarketPrice struct {
	CreditType       string          `json:"credit_type" gorm:"primaryKey"`
	Bid              decimal.Decimal `json:"bid" gorm:"type:decimal(32,16)"`
	Ask              decimal.Decimal `json:"ask" gorm:"type:decimal(32,16)"`
	Last             decimal.Decimal `json:"last" gorm:"type:decimal(32,16)"`
	Volume24h        decimal.Decimal `json:"volume_24h" gorm:"type:decimal(32,16)"`
	CumulativeVolume decimal.Decimal `json:"cumulative_volume" gorm:"type:decimal(32,16)"`
	Volatility       decimal.Decimal `json:"volatility" gorm:"type:decimal(32,16)"`
	Trend            string          `json:"trend"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func MarketPriceFromDomain(mp *pricing.MarketPrice) *MarketPrice {
	return &MarketPrice{
		CreditType:       mp.CreditType,
		Bid:              mp.Bid,
		Ask:              mp.Ask,
		Last:             mp.Last,
		Volume24h:        mp.Volume24h,
		CumulativeVolume: mp.CumulativeVolume,
		Volatility:       mp.Volatility,
		Trend:            string(mp.Trend),
		UpdatedAt:        mp.UpdatedAt,
	}
}

func (m *MarketPrice) ToDomain() *pricing.MarketPrice {
	return &pricing.MarketPrice{
		CreditType:       m.CreditType,
		Bid:              m.Bid,
		Ask:              m.Ask,
		Last:             m.Last,
		Volume24h:        m.Volume24h,
		CumulativeVolume: m.CumulativeVolume,
		Volatility:       m.Volatility,
		Trend:            types.Trend(m.Trend),
		UpdatedAt:        m.UpdatedAt,
	}
}

type GormPriceStore struct {
	db *gorm.DB
}

func NewPriceStore(db *gorm.DB) *GormPriceStore {
	return &GormPriceStore{db: db}
}

func (s *GormPriceStore) Save(p *pricing.MarketPrice) error {
	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(MarketPriceFromDomain(p)).Error
}

func (s *GormPriceStore) Find(credit_type string) (*pricing.MarketPrice, error) {
	price := &MarketPrice{}
	if err := s.db.First(price, "credit_type = ?", credit_type).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pricing.ErrPriceNotFound
		}
		return nil, err
	}

	return price.ToDomain(), nil
}

func (s *GormPriceStore) All() ([]*pricing.MarketPrice, error) {
	var records []*MarketPrice
	if err := s.db.Order("credit_type asc").Find(&records).Error; err != nil {
		return nil, err
	}

	prices := make([]*pricing.MarketPrice, 0, len(records))
	for _, record := range records {
		prices = append(prices, record.ToDomain())
	}
	return prices, nil
}
