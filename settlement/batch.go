package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null"
)

type BatchStatus string

const (
	BatchPending   BatchStatus = "pending"
	BatchProcessed BatchStatus = "processed"
	BatchFailed    BatchStatus = "failed"
)

// AutoProcessThreshold is how many confirmed transactions a batch holds
// before the settlement sweep processes it. Explicit processing ignores
// the threshold.
const AutoProcessThreshold = 5

// Batch groups the confirmed payments of one settlement period so each
// seller receives a single netted payout. Append-only until processed.
type Batch struct {
	ID             string          `json:"id"`
	TransactionIDs []uuid.UUID     `json:"transaction_ids"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TotalCredits   decimal.Decimal `json:"total_credits"`
	Status         BatchStatus     `json:"status"`
	SettlementRef  null.String     `json:"settlement_ref"`

	// PayoutRefs records the ledger reference of every completed
	// per-seller payout, so a retry after a mid-batch failure never pays
	// the same seller twice.
	PayoutRefs map[string]string `json:"payout_refs"`

	CreatedAt   time.Time `json:"created_at"`
	ProcessedAt time.Time `json:"processed_at"`
}

func NewBatch(id string) *Batch {
	return &Batch{
		ID:             id,
		TransactionIDs: make([]uuid.UUID, 0),
		Status:         BatchPending,
		PayoutRefs:     make(map[string]string),
		CreatedAt:      time.Now(),
	}
}

func (b *Batch) Add(t *Transaction) {
	for _, id := range b.TransactionIDs {
		if id == t.ID {
			return
		}
	}

	b.TransactionIDs = append(b.TransactionIDs, t.ID)
	b.TotalAmount = b.TotalAmount.Add(t.Amount)
	b.TotalCredits = b.TotalCredits.Add(t.Credits)
}

func (b *Batch) Remove(t *Transaction) {
	for index, id := range b.TransactionIDs {
		if id == t.ID {
			b.TransactionIDs = append(b.TransactionIDs[:index], b.TransactionIDs[index+1:]...)
			b.TotalAmount = b.TotalAmount.Sub(t.Amount)
			b.TotalCredits = b.TotalCredits.Sub(t.Credits)
			return
		}
	}
}

// Payout is one seller's netted share of a processed batch.
type Payout struct {
	BatchID      string          `json:"batch_id"`
	Seller       string          `json:"seller"`
	Currency     string          `json:"currency"`
	Amount       decimal.Decimal `json:"amount"`
	Credits      decimal.Decimal `json:"credits"`
	Transactions int             `json:"transactions"`
}

type BatchStore interface {
	Save(b *Batch) error
	Find(id string) (*Batch, error)
	Pending() ([]*Batch, error)
}
