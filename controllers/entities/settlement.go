package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/carbonex/carbonex/settlement"
)

type TransactionEntity struct {
	ID                    uuid.UUID       `json:"id"`
	ProjectID             string          `json:"project_id"`
	Credits               decimal.Decimal `json:"credits"`
	Amount                decimal.Decimal `json:"amount"`
	Currency              string          `json:"currency"`
	Buyer                 string          `json:"buyer"`
	Seller                string          `json:"seller"`
	Status                string          `json:"status"`
	Confirmations         int             `json:"confirmations"`
	RequiredConfirmations int             `json:"required_confirmations"`
	GasFee                decimal.Decimal `json:"gas_fee"`
	BlockchainRef         string          `json:"blockchain_ref,omitempty"`
	RefundRef             string          `json:"refund_ref,omitempty"`
	BatchID               string          `json:"batch_id,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

func TransactionToEntity(t *settlement.Transaction) *TransactionEntity {
	return &TransactionEntity{
		ID:                    t.ID,
		ProjectID:             t.ProjectID,
		Credits:               t.Credits,
		Amount:                t.Amount,
		Currency:              t.Currency,
		Buyer:                 t.Buyer,
		Seller:                t.Seller,
		Status:                string(t.Status),
		Confirmations:         t.Confirmations,
		RequiredConfirmations: t.RequiredConfirmations,
		GasFee:                t.GasFee,
		BlockchainRef:         t.BlockchainRef.String,
		RefundRef:             t.RefundRef.String,
		BatchID:               t.BatchID.String,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
}

type BatchEntity struct {
	ID             string            `json:"id"`
	TransactionIDs []uuid.UUID       `json:"transaction_ids"`
	TotalAmount    decimal.Decimal   `json:"total_amount"`
	TotalCredits   decimal.Decimal   `json:"total_credits"`
	Status         string            `json:"status"`
	SettlementRef  string            `json:"settlement_ref,omitempty"`
	PayoutRefs     map[string]string `json:"payout_refs"`
	CreatedAt      time.Time         `json:"created_at"`
	ProcessedAt    *time.Time        `json:"processed_at,omitempty"`
}

func BatchToEntity(b *settlement.Batch) *BatchEntity {
	entity := &BatchEntity{
		ID:             b.ID,
		TransactionIDs: b.TransactionIDs,
		TotalAmount:    b.TotalAmount,
		TotalCredits:   b.TotalCredits,
		Status:         string(b.Status),
		SettlementRef:  b.SettlementRef.String,
		PayoutRefs:     b.PayoutRefs,
		CreatedAt:      b.CreatedAt,
	}

	if !b.ProcessedAt.IsZero() {
		processed_at := b.ProcessedAt
		entity.ProcessedAt = &processed_at
	}

	return entity
}
