package settlement

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null"

	"github.com/carbonex/carbonex/config"
	"github.com/carbonex/carbonex/events"
)

// PayoutExecutor is the external blockchain collaborator: it submits one
// netted payout and returns the transaction hash.
type PayoutExecutor interface {
	ExecutePayout(payout *Payout) (string, error)
}

// SimulatedLedger stands in for chain submission and always succeeds.
type SimulatedLedger struct{}

func (SimulatedLedger) ExecutePayout(payout *Payout) (string, error) {
	return "0x" + strings.ReplaceAll(uuid.NewString(), "-", ""), nil
}

// Pipeline turns executed trades into confirmed, batched, per-seller
// payouts. All transaction and batch mutations are serialized behind one
// lock; payout execution is the only external call made while holding it,
// which is why settlement runs decoupled from order submission.
type Pipeline struct {
	mu sync.Mutex

	Transactions TransactionStore
	Batches      BatchStore
	Gas          GasEstimator
	Ledger       PayoutExecutor
	Events       *events.Publisher
}

func NewPipeline(transactions TransactionStore, batches BatchStore, gas GasEstimator, ledger PayoutExecutor, publisher *events.Publisher) *Pipeline {
	return &Pipeline{
		Transactions: transactions,
		Batches:      batches,
		Gas:          gas,
		Ledger:       ledger,
		Events:       publisher,
	}
}

// periodKey buckets confirmations into calendar-day settlement batches.
func periodKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// InitiatePayment creates a pending transaction after the slippage check.
// No state is written when validation fails.
func (p *Pipeline) InitiatePayment(projectID string, credits, amount decimal.Decimal, currency, buyer, seller string, pricePerCredit decimal.Decimal) (*Transaction, error) {
	if err := ValidatePayment(amount, credits, pricePerCredit); err != nil {
		return nil, err
	}

	gasFee := decimal.Zero
	if p.Gas != nil {
		fee, err := p.Gas.EstimateGasFee(currency)
		if err != nil {
			config.Logger.Errorf("[settlement.pipeline] gas estimate failed for %s: %s", currency, err.Error())
		} else {
			gasFee = fee
		}
	}

	now := time.Now()
	transaction := &Transaction{
		ID:                    uuid.New(),
		ProjectID:             projectID,
		Credits:               credits,
		Amount:                amount,
		Currency:              currency,
		Buyer:                 buyer,
		Seller:                seller,
		Status:                TransactionPending,
		RequiredConfirmations: RequiredConfirmations,
		GasFee:                gasFee,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.Transactions.Save(transaction); err != nil {
		return nil, err
	}

	return transaction, nil
}

// ConfirmPayment records the observed confirmation count. The payment
// confirms, and joins the current settlement period's batch, only at the
// finality threshold.
func (p *Pipeline) ConfirmPayment(id uuid.UUID, blockchainRef string, confirmations int) (*Transaction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	transaction, err := p.Transactions.Find(id)
	if err != nil {
		return nil, ErrTransactionNotFound
	}

	switch transaction.Status {
	case TransactionSettled:
		return nil, ErrAlreadySettled
	case TransactionFailed:
		return nil, ErrTransactionFailed
	}

	transaction.Confirmations = confirmations
	transaction.BlockchainRef = null.StringFrom(blockchainRef)
	transaction.UpdatedAt = time.Now()

	if transaction.Status == TransactionPending && confirmations >= transaction.RequiredConfirmations {
		transaction.Status = TransactionConfirmed

		if err := p.assignToBatch(transaction); err != nil {
			return nil, err
		}
	}

	if err := p.Transactions.Save(transaction); err != nil {
		return nil, err
	}

	return transaction, nil
}

func (p *Pipeline) assignToBatch(transaction *Transaction) error {
	batchID := periodKey(time.Now())

	batch, err := p.Batches.Find(batchID)
	if err != nil || batch == nil {
		batch = NewBatch(batchID)
		config.Logger.Infof("[settlement.pipeline] opened settlement batch %s", batchID)
	}

	batch.Add(transaction)
	transaction.BatchID = null.StringFrom(batch.ID)

	return p.Batches.Save(batch)
}

// ProcessBatch nets the batch's confirmed transactions by seller and
// issues one payout per seller. Sellers already paid out in an earlier
// failed attempt are skipped, so retrying a failed batch is idempotent.
func (p *Pipeline) ProcessBatch(batchID string) (*Batch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.processBatch(batchID)
}

func (p *Pipeline) processBatch(batchID string) (*Batch, error) {
	batch, err := p.Batches.Find(batchID)
	if err != nil || batch == nil {
		return nil, ErrBatchNotFound
	}

	if batch.Status == BatchProcessed {
		return batch, nil
	}

	transactions, err := p.confirmedTransactions(batch)
	if err != nil {
		return nil, err
	}

	payouts := netBySeller(batch, transactions)

	for _, payout := range payouts {
		if _, paid := batch.PayoutRefs[payout.Seller]; paid {
			continue
		}

		ref, err := p.Ledger.ExecutePayout(payout)
		if err != nil {
			batch.Status = BatchFailed
			if saveErr := p.Batches.Save(batch); saveErr != nil {
				config.Logger.Errorf("[settlement.pipeline] failed to persist batch %s: %s", batch.ID, saveErr.Error())
			}
			config.Logger.Errorf("[settlement.pipeline] payout to %s failed for batch %s: %s", payout.Seller, batch.ID, err.Error())
			return batch, err
		}

		batch.PayoutRefs[payout.Seller] = ref
	}

	for _, transaction := range transactions {
		transaction.Status = TransactionSettled
		transaction.UpdatedAt = time.Now()
		if err := p.Transactions.Save(transaction); err != nil {
			return nil, err
		}
	}

	batch.Status = BatchProcessed
	batch.SettlementRef = null.StringFrom(fmt.Sprintf("settle_%s", uuid.NewString()))
	batch.ProcessedAt = time.Now()

	if err := p.Batches.Save(batch); err != nil {
		return nil, err
	}

	p.Events.Publish("settlement.batch.processed", batch)

	return batch, nil
}

func (p *Pipeline) confirmedTransactions(batch *Batch) ([]*Transaction, error) {
	transactions := make([]*Transaction, 0, len(batch.TransactionIDs))

	for _, id := range batch.TransactionIDs {
		transaction, err := p.Transactions.Find(id)
		if err != nil {
			return nil, err
		}
		if transaction.Status != TransactionConfirmed {
			continue
		}
		transactions = append(transactions, transaction)
	}

	return transactions, nil
}

// netBySeller folds a batch's transactions into one payout per seller,
// ordered deterministically.
func netBySeller(batch *Batch, transactions []*Transaction) []*Payout {
	grouped := make(map[string]*Payout)

	for _, transaction := range transactions {
		payout, found := grouped[transaction.Seller]
		if !found {
			payout = &Payout{
				BatchID:  batch.ID,
				Seller:   transaction.Seller,
				Currency: transaction.Currency,
			}
			grouped[transaction.Seller] = payout
		}

		payout.Amount = payout.Amount.Add(transaction.Amount)
		payout.Credits = payout.Credits.Add(transaction.Credits)
		payout.Transactions++
	}

	payouts := make([]*Payout, 0, len(grouped))
	for _, payout := range grouped {
		payouts = append(payouts, payout)
	}
	sort.Slice(payouts, func(i, j int) bool {
		return payouts[i].Seller < payouts[j].Seller
	})

	return payouts
}

// Sweep processes every pending batch that has reached the auto-process
// threshold. Failed batches are retried on the next sweep.
func (p *Pipeline) Sweep() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	batches, err := p.Batches.Pending()
	if err != nil {
		return err
	}

	for _, batch := range batches {
		transactions, err := p.confirmedTransactions(batch)
		if err != nil {
			return err
		}

		if len(transactions) < AutoProcessThreshold {
			continue
		}

		if _, err := p.processBatch(batch.ID); err != nil {
			config.Logger.Errorf("[settlement.pipeline] sweep failed for batch %s: %s", batch.ID, err.Error())
		}
	}

	return nil
}

// Refund is the outcome of a refund request.
type Refund struct {
	Success   bool        `json:"success"`
	RefundRef null.String `json:"refund_hash,omitempty"`
}

// RefundTransaction fails a not-yet-settled transaction and returns a
// refund reference. Refunding an already-failed transaction returns the
// original reference without acting again.
func (p *Pipeline) RefundTransaction(id uuid.UUID, reason string) (*Refund, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	transaction, err := p.Transactions.Find(id)
	if err != nil {
		return nil, ErrTransactionNotFound
	}

	if transaction.Status == TransactionSettled {
		return nil, ErrAlreadySettled
	}

	if transaction.Status == TransactionFailed {
		return &Refund{Success: true, RefundRef: transaction.RefundRef}, nil
	}

	// A confirmed transaction leaves its batch so the seller is not paid
	// for refunded credits.
	if transaction.BatchID.Valid {
		if batch, err := p.Batches.Find(transaction.BatchID.String); err == nil && batch != nil && batch.Status == BatchPending {
			batch.Remove(transaction)
			if err := p.Batches.Save(batch); err != nil {
				return nil, err
			}
		}
		transaction.BatchID = null.String{}
	}

	transaction.Status = TransactionFailed
	transaction.RefundRef = null.StringFrom("refund_" + uuid.NewString())
	transaction.UpdatedAt = time.Now()

	if err := p.Transactions.Save(transaction); err != nil {
		return nil, err
	}

	config.Logger.Infof("[settlement.pipeline] refunded transaction %s: %s", transaction.ID, reason)

	return &Refund{Success: true, RefundRef: transaction.RefundRef}, nil
}
