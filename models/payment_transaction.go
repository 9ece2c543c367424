package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/carbonex/carbonex/settlement"
)

type PaymentTransaction struct {
	ID                    uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID             string          `json:"project_id" gorm:"index"`
	Credits               decimal.Decimal `json:"credits" gorm:"type:decimal(32,16)"`
	Amount                decimal.Decimal `json:"amount" gorm:"type:decimal(32,16)"`
	Currency              string          `json:"currency"`
	Buyer                 string          `json:"buyer"`
	Seller                string          `json:"seller" gorm:"index"`
	Status                string          `json:"status" gorm:"index"`
	RequiredConfirmations int             `json:"required_confirmations"`
	Confirmations         int             `json:"confirmations"`
	GasFee                decimal.Decimal `json:"gas_fee" gorm:"type:decimal(32,16)"`
	BlockchainRef         null.String     `json:"blockchain_ref"`
	RefundRef             null.String     `json:"refund_ref"`
	BatchID               null.String     `json:"batch_id" gorm:"index"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

func TransactionFromDomain(t *settlement.Transaction) *PaymentTransaction {
	return &PaymentTransaction{
		ID:                    t.ID,
		ProjectID:             t.ProjectID,
		Credits:               t.Credits,
		Amount:                t.Amount,
		Currency:              t.Currency,
		Buyer:                 t.Buyer,
		Seller:                t.Seller,
		Status:                string(t.Status),
		RequiredConfirmations: t.RequiredConfirmations,
		Confirmations:         t.Confirmations,
		GasFee:                t.GasFee,
		BlockchainRef:         t.BlockchainRef,
		RefundRef:             t.RefundRef,
		BatchID:               t.BatchID,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
}

func (m *PaymentTransaction) ToDomain() *settlement.Transaction {
	return &settlement.Transaction{
		ID:                    m.ID,
		ProjectID:             m.ProjectID,
		Credits:               m.Credits,
		Amount:                m.Amount,
		Currency:              m.Currency,
		Buyer:                 m.Buyer,
		Seller:                m.Seller,
		Status:                settlement.TransactionStatus(m.Status),
		RequiredConfirmations: m.RequiredConfirmations,
		Confirmations:         m.Confirmations,
		GasFee:                m.GasFee,
		BlockchainRef:         m.BlockchainRef,
		RefundRef:             m.RefundRef,
		BatchID:               m.BatchID,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

type GormTransactionStore struct {
	db *gorm.DB
}

func NewTransactionStore(db *gorm.DB) *GormTransactionStore {
	return &GormTransactionStore{db: db}
}

func (s *GormTransactionStore) Save(t *settlement.Transaction) error {
	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(TransactionFromDomain(t)).Error
}

func (s *GormTransactionStore) Find(id uuid.UUID) (*settlement.Transaction, error) {
	transaction := &PaymentTransaction{}
	if err := s.db.First(transaction, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, settlement.ErrTransactionNotFound
		}
		return nil, err
	}

	return transaction.ToDomain(), nil
}

func (s *GormTransactionStore) ByBatch(batchID string) ([]*settlement.Transaction, error) {
	var records []*PaymentTransaction
	if err := s.db.Where("batch_id = ?", batchID).Order("created_at asc").Find(&records).Error; err != nil {
		return nil, err
	}

	transactions := make([]*settlement.Transaction, 0, len(records))
	for _, record := range records {
		transactions = append(transactions, record.ToDomain())
	}
	return transactions, nil
}
