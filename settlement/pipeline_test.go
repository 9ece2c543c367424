package settlement_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/carbonex/carbonex/config"
	"github.com/carbonex/carbonex/events"
	"github.com/carbonex/carbonex/settlement"
	"github.com/carbonex/carbonex/store"
)

// recordingLedger counts payouts per seller and can be told to fail a
// seller once.
type recordingLedger struct {
	payouts  map[string]int
	failOnce map[string]bool
}

func newRecordingLedger() *recordingLedger {
	return &recordingLedger{
		payouts:  make(map[string]int),
		failOnce: make(map[string]bool),
	}
}

func (l *recordingLedger) ExecutePayout(payout *settlement.Payout) (string, error) {
	if l.failOnce[payout.Seller] {
		delete(l.failOnce, payout.Seller)
		return "", errors.New("ledger unreachable")
	}

	l.payouts[payout.Seller]++
	return "0xref_" + payout.Seller, nil
}

type suitePipelineTester struct {
	suite.Suite

	transactions settlement.TransactionStore
	batches      settlement.BatchStore
	ledger       *recordingLedger
	pipeline     *settlement.Pipeline
}

func (s *suitePipelineTester) SetupSuite() {
	config.NewLoggerService()
}

func (s *suitePipelineTester) SetupTest() {
	s.transactions = store.NewMemoryTransactionStore()
	s.batches = store.NewMemoryBatchStore()
	s.ledger = newRecordingLedger()
	s.pipeline = settlement.NewPipeline(
		s.transactions,
		s.batches,
		settlement.NewStaticGasEstimator(decimal.NewFromInt(30), decimal.NewFromFloat(1.2)),
		s.ledger,
		events.NewPublisher(nil),
	)
}

func (s *suitePipelineTester) initiate(seller string, credits, price int64) *settlement.Transaction {
	creditsDec := decimal.NewFromInt(credits)
	priceDec := decimal.NewFromInt(price)

	transaction, err := s.pipeline.InitiatePayment(
		"forestry", creditsDec, creditsDec.Mul(priceDec), "USDC", "buyer-1", seller, priceDec,
	)
	s.Require().NoError(err)

	return transaction
}

func (s *suitePipelineTester) confirm(t *settlement.Transaction) *settlement.Transaction {
	confirmed, err := s.pipeline.ConfirmPayment(t.ID, "0xabc", settlement.RequiredConfirmations)
	s.Require().NoError(err)
	return confirmed
}

func (s *suitePipelineTester) TestInitiatePayment() {
	transaction := s.initiate("seller-1", 10, 12)

	s.Equal(settlement.TransactionPending, transaction.Status)
	s.Equal(settlement.RequiredConfirmations, transaction.RequiredConfirmations)
	s.True(transaction.GasFee.IsPositive())
	s.False(transaction.BatchID.Valid)

	stored, err := s.transactions.Find(transaction.ID)
	s.NoError(err)
	s.Equal(settlement.TransactionPending, stored.Status)
}

func (s *suitePipelineTester) TestInitiatePaymentSlippage() {
	credits := decimal.NewFromInt(10)
	price := decimal.NewFromInt(12)

	// 4% drift passes, 6% does not.
	_, err := s.pipeline.InitiatePayment("forestry", credits, decimal.NewFromFloat(124.8), "USDC", "b", "s", price)
	s.NoError(err)

	_, err = s.pipeline.InitiatePayment("forestry", credits, decimal.NewFromFloat(127.2), "USDC", "b", "s", price)
	s.ErrorIs(err, settlement.ErrSlippageExceeded)
}

func (s *suitePipelineTester) TestConfirmBelowThresholdStaysPending() {
	transaction := s.initiate("seller-1", 10, 12)

	updated, err := s.pipeline.ConfirmPayment(transaction.ID, "0xabc", settlement.RequiredConfirmations-1)
	s.NoError(err)

	s.Equal(settlement.TransactionPending, updated.Status)
	s.Equal(settlement.RequiredConfirmations-1, updated.Confirmations)
	s.False(updated.BatchID.Valid)
	s.Equal("0xabc", updated.BlockchainRef.String)
}

func (s *suitePipelineTester) TestConfirmAtThresholdJoinsBatch() {
	transaction := s.initiate("seller-1", 10, 12)

	confirmed := s.confirm(transaction)

	s.Equal(settlement.TransactionConfirmed, confirmed.Status)
	s.True(confirmed.BatchID.Valid)
	s.Equal(time.Now().UTC().Format("2006-01-02"), confirmed.BatchID.String)

	batch, err := s.batches.Find(confirmed.BatchID.String)
	s.NoError(err)
	s.Len(batch.TransactionIDs, 1)
	s.True(batch.TotalCredits.Equal(decimal.NewFromInt(10)))
	s.True(batch.TotalAmount.Equal(decimal.NewFromInt(120)))
}

func (s *suitePipelineTester) TestConfirmTerminalStates() {
	_, err := s.pipeline.ConfirmPayment(uuid.New(), "0xabc", settlement.RequiredConfirmations)
	s.ErrorIs(err, settlement.ErrTransactionNotFound)

	refunded := s.initiate("seller-1", 1, 1)
	_, err = s.pipeline.RefundTransaction(refunded.ID, "test")
	s.NoError(err)

	_, err = s.pipeline.ConfirmPayment(refunded.ID, "0xabc", settlement.RequiredConfirmations)
	s.ErrorIs(err, settlement.ErrTransactionFailed)
}

func (s *suitePipelineTester) TestProcessBatchNetsBySeller() {
	for i := 0; i < 3; i++ {
		s.confirm(s.initiate("seller-a", 10, 12))
	}
	for i := 0; i < 3; i++ {
		s.confirm(s.initiate("seller-b", 5, 12))
	}

	batchID := time.Now().UTC().Format("2006-01-02")
	batch, err := s.pipeline.ProcessBatch(batchID)
	s.NoError(err)

	s.Equal(settlement.BatchProcessed, batch.Status)
	s.True(batch.SettlementRef.Valid)
	s.False(batch.ProcessedAt.IsZero())

	// One netted payout per seller.
	s.Equal(1, s.ledger.payouts["seller-a"])
	s.Equal(1, s.ledger.payouts["seller-b"])
	s.Len(batch.PayoutRefs, 2)

	for _, id := range batch.TransactionIDs {
		transaction, err := s.transactions.Find(id)
		s.NoError(err)
		s.Equal(settlement.TransactionSettled, transaction.Status)
	}
}

func (s *suitePipelineTester) TestProcessBatchIdempotent() {
	s.confirm(s.initiate("seller-a", 10, 12))

	batchID := time.Now().UTC().Format("2006-01-02")

	_, err := s.pipeline.ProcessBatch(batchID)
	s.NoError(err)

	batch, err := s.pipeline.ProcessBatch(batchID)
	s.NoError(err)
	s.Equal(settlement.BatchProcessed, batch.Status)
	s.Equal(1, s.ledger.payouts["seller-a"])
}

func (s *suitePipelineTester) TestProcessBatchUnknown() {
	_, err := s.pipeline.ProcessBatch("2001-01-01")
	s.ErrorIs(err, settlement.ErrBatchNotFound)
}

func (s *suitePipelineTester) TestFailedPayoutRetryNeverPaysTwice() {
	s.confirm(s.initiate("seller-a", 10, 12))
	s.confirm(s.initiate("seller-b", 5, 12))

	s.ledger.failOnce["seller-b"] = true

	batchID := time.Now().UTC().Format("2006-01-02")
	batch, err := s.pipeline.ProcessBatch(batchID)
	s.Error(err)
	s.Equal(settlement.BatchFailed, batch.Status)

	// seller-a was paid before the failure.
	s.Equal(1, s.ledger.payouts["seller-a"])
	s.Equal(0, s.ledger.payouts["seller-b"])

	// The retry completes the batch without paying seller-a again.
	batch, err = s.pipeline.ProcessBatch(batchID)
	s.NoError(err)
	s.Equal(settlement.BatchProcessed, batch.Status)
	s.Equal(1, s.ledger.payouts["seller-a"])
	s.Equal(1, s.ledger.payouts["seller-b"])
}

func (s *suitePipelineTester) TestSweepHonorsThreshold() {
	for i := 0; i < settlement.AutoProcessThreshold-1; i++ {
		s.confirm(s.initiate("seller-a", 10, 12))
	}

	s.NoError(s.pipeline.Sweep())
	s.Equal(0, s.ledger.payouts["seller-a"])

	s.confirm(s.initiate("seller-a", 10, 12))

	s.NoError(s.pipeline.Sweep())
	s.Equal(1, s.ledger.payouts["seller-a"])
}

func (s *suitePipelineTester) TestRefundPending() {
	transaction := s.initiate("seller-a", 10, 12)

	refund, err := s.pipeline.RefundTransaction(transaction.ID, "buyer cancelled")
	s.NoError(err)
	s.True(refund.Success)
	s.True(refund.RefundRef.Valid)

	stored, err := s.transactions.Find(transaction.ID)
	s.NoError(err)
	s.Equal(settlement.TransactionFailed, stored.Status)

	// Refunding again returns the original reference.
	again, err := s.pipeline.RefundTransaction(transaction.ID, "retry")
	s.NoError(err)
	s.Equal(refund.RefundRef, again.RefundRef)
}

func (s *suitePipelineTester) TestRefundConfirmedLeavesBatch() {
	kept := s.confirm(s.initiate("seller-a", 10, 12))
	refunded := s.confirm(s.initiate("seller-b", 5, 12))

	_, err := s.pipeline.RefundTransaction(refunded.ID, "dispute")
	s.NoError(err)

	batch, err := s.batches.Find(kept.BatchID.String)
	s.NoError(err)
	s.Len(batch.TransactionIDs, 1)
	s.True(batch.TotalCredits.Equal(decimal.NewFromInt(10)))

	_, err = s.pipeline.ProcessBatch(batch.ID)
	s.NoError(err)
	s.Equal(0, s.ledger.payouts["seller-b"])
}

func (s *suitePipelineTester) TestRefundSettled() {
	transaction := s.confirm(s.initiate("seller-a", 10, 12))

	_, err := s.pipeline.ProcessBatch(transaction.BatchID.String)
	s.NoError(err)

	_, err = s.pipeline.RefundTransaction(transaction.ID, "too late")
	s.ErrorIs(err, settlement.ErrAlreadySettled)
}

func (s *suitePipelineTester) TestGasFeeFormula() {
	estimator := settlement.NewStaticGasEstimator(decimal.NewFromInt(30), decimal.NewFromFloat(1.2))

	eth, err := estimator.EstimateGasFee("ETH")
	s.NoError(err)
	s.True(eth.Equal(decimal.NewFromFloat(0.000756)))

	usdc, err := estimator.EstimateGasFee("USDC")
	s.NoError(err)
	s.True(usdc.Equal(decimal.NewFromFloat(0.00234)))

	other, err := estimator.EstimateGasFee("DAI")
	s.NoError(err)
	s.True(other.Equal(decimal.NewFromFloat(0.0018)))

	estimator.Invalidate("ETH")
	eth, err = estimator.EstimateGasFee("ETH")
	s.NoError(err)
	s.True(eth.Equal(decimal.NewFromFloat(0.000756)))
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(suitePipelineTester))
}
