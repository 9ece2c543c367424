package settlement

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null"
)

var (
	ErrTransactionNotFound = errors.New("settlement.transaction.not_found")
	ErrTransactionFailed   = errors.New("settlement.transaction.failed")
	ErrBatchNotFound       = errors.New("settlement.batch.not_found")
	ErrSlippageExceeded    = errors.New("settlement.payment.slippage_exceeded")
	ErrAlreadySettled      = errors.New("settlement.transaction.already_settled")
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionConfirmed TransactionStatus = "confirmed"
	TransactionSettled   TransactionStatus = "settled"
	TransactionFailed    TransactionStatus = "failed"
)

// RequiredConfirmations is the finality threshold below which a payment
// stays pending.
const RequiredConfirmations = 6

// slippageTolerance bounds how far a payment amount may drift from
// credits x price before initiation is rejected.
var slippageTolerance = decimal.NewFromFloat(0.05)

type Transaction struct {
	ID                    uuid.UUID         `json:"id"`
	ProjectID             string            `json:"project_id"`
	Credits               decimal.Decimal   `json:"credits"`
	Amount                decimal.Decimal   `json:"amount"`
	Currency              string            `json:"currency"`
	Buyer                 string            `json:"buyer"`
	Seller                string            `json:"seller"`
	Status                TransactionStatus `json:"status"`
	RequiredConfirmations int               `json:"required_confirmations"`
	Confirmations         int               `json:"confirmations"`
	GasFee                decimal.Decimal   `json:"gas_fee"`
	BlockchainRef         null.String       `json:"blockchain_ref"`
	RefundRef             null.String       `json:"refund_ref"`
	BatchID               null.String       `json:"batch_id"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

func (t *Transaction) Terminal() bool {
	return t.Status == TransactionSettled || t.Status == TransactionFailed
}

// ValidatePayment rejects a payment whose amount strays more than the
// slippage tolerance from the economic value of the credits.
func ValidatePayment(amount, credits, pricePerCredit decimal.Decimal) error {
	expected := credits.Mul(pricePerCredit)
	if !expected.IsPositive() {
		return ErrSlippageExceeded
	}

	drift := amount.Sub(expected).Abs().Div(expected)
	if drift.GreaterThan(slippageTolerance) {
		return ErrSlippageExceeded
	}

	return nil
}

type TransactionStore interface {
	Save(t *Transaction) error
	Find(id uuid.UUID) (*Transaction, error)
	ByBatch(batchID string) ([]*Transaction, error)
}
