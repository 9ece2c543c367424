package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/carbonex/carbonex/amm"
)

type LiquidityPool struct {
	ID             string          `json:"id" gorm:"primaryKey"`
	BaseAsset      string          `json:"base_asset" gorm:"index"`
	QuoteAsset     string          `json:"quote_asset"`
	BaseReserve    decimal.Decimal `json:"base_reserve" gorm:"type:decimal(32,16)"`
	QuoteReserve   decimal.Decimal `json:"quote_reserve" gorm:"type:decimal(32,16)"`
	FeeRate        decimal.Decimal `json:"fee_rate" gorm:"type:decimal(32,16)"`
	TotalLiquidity decimal.Decimal `json:"total_liquidity" gorm:"type:decimal(32,16)"`
	APY            decimal.Decimal `json:"apy" gorm:"type:decimal(32,16)"`
	FeeVolume      decimal.Decimal `json:"fee_volume" gorm:"type:decimal(32,16)"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func PoolFromDomain(p *amm.Pool) *LiquidityPool {
	base_reserve, quote_reserve := p.Reserves()

	return &LiquidityPool{
		ID:             p.ID,
		BaseAsset:      p.BaseAsset,
		QuoteAsset:     p.QuoteAsset,
		BaseReserve:    base_reserve,
		QuoteReserve:   quote_reserve,
		FeeRate:        p.FeeRate,
		TotalLiquidity: p.TotalLiquidity,
		APY:            p.APY,
		FeeVolume:      p.FeeVolume,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (m *LiquidityPool) ToDomain() *amm.Pool {
	pool := amm.NewPool(m.ID, m.BaseAsset, m.QuoteAsset, m.BaseReserve, m.QuoteReserve, m.FeeRate)
	pool.TotalLiquidity = m.TotalLiquidity
	pool.APY = m.APY
	pool.FeeVolume = m.FeeVolume
	pool.UpdatedAt = m.UpdatedAt

	return pool
}

type GormPoolStore struct {
	db *gorm.DB
}

func NewPoolStore(db *gorm.DB) *GormPoolStore {
	return &GormPoolStore{db: db}
}

func (s *GormPoolStore) Save(p *amm.Pool) error {
	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(PoolFromDomain(p)).Error
}

func (s *GormPoolStore) Find(id string) (*amm.Pool, error) {
	pool := &LiquidityPool{}
	if err := s.db.First(pool, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, amm.ErrPoolNotFound
		}
		return nil, err
	}

	return pool.ToDomain(), nil
}

func (s *GormPoolStore) All() ([]*amm.Pool, error) {
	var records []*LiquidityPool
	if err := s.db.Order("id asc").Find(&records).Error; err != nil {
		return nil, err
	}

	pools := make([]*amm.Pool, 0, len(records))
	for _, record := range records {
		pools = append(pools, record.ToDomain())
	}
	return pools, nil
}
