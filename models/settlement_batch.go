package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/carbonex/carbonex/models/datatypes"
	"github.com/carbonex/carbonex/settlement"
)

type SettlementBatch struct {
	ID             string              `json:"id" gorm:"primaryKey"`
	TransactionIDs datatypes.UUIDArray `json:"transaction_ids"`
	TotalAmount    decimal.Decimal     `json:"total_amount" gorm:"type:decimal(32,16)"`
	TotalCredits   decimal.Decimal     `json:"total_credits" gorm:"type:decimal(32,16)"`
	Status         string              `json:"status" gorm:"index"`
	SettlementRef  null.String         `json:"settlement_ref"`
	PayoutRefs     datatypes.StringMap `json:"payout_refs"`
	CreatedAt      time.Time           `json:"created_at"`
	ProcessedAt    time.Time           `json:"processed_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func BatchFromDomain(b *settlement.Batch) *SettlementBatch {
	return &SettlementBatch{
		ID:             b.ID,
		TransactionIDs: datatypes.UUIDArray(b.TransactionIDs),
		TotalAmount:    b.TotalAmount,
		TotalCredits:   b.TotalCredits,
		Status:         string(b.Status),
		SettlementRef:  b.SettlementRef,
		PayoutRefs:     datatypes.StringMap(b.PayoutRefs),
		CreatedAt:      b.CreatedAt,
		ProcessedAt:    b.ProcessedAt,
	}
}

func (m *SettlementBatch) ToDomain() *settlement.Batch {
	return &settlement.Batch{
		ID:             m.ID,
		TransactionIDs: m.TransactionIDs,
		TotalAmount:    m.TotalAmount,
		TotalCredits:   m.TotalCredits,
		Status:         settlement.BatchStatus(m.Status),
		SettlementRef:  m.SettlementRef,
		PayoutRefs:     m.PayoutRefs,
		CreatedAt:      m.CreatedAt,
		ProcessedAt:    m.ProcessedAt,
	}
}

type GormBatchStore struct {
	db *gorm.DB
}

func NewBatchStore(db *gorm.DB) *GormBatchStore {
	return &GormBatchStore{db: db}
}

func (s *GormBatchStore) Save(b *settlement.Batch) error {
	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(BatchFromDomain(b)).Error
}

func (s *GormBatchStore) Find(id string) (*settlement.Batch, error) {
	batch := &SettlementBatch{}
	if err := s.db.First(batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, settlement.ErrBatchNotFound
		}
		return nil, err
	}

	return batch.ToDomain(), nil
}

func (s *GormBatchStore) Pending() ([]*settlement.Batch, error) {
	var records []*SettlementBatch
	if err := s.db.Where("status <> ?", string(settlement.BatchProcessed)).Find(&records).Error; err != nil {
		return nil, err
	}

	batches := make([]*settlement.Batch, 0, len(records))
	for _, record := range records {
		batches = append(batches, record.ToDomain())
	}
	return batches, nil
}
