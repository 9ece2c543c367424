package engines

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/carbonex/carbonex/config"
	"github.com/carbonex/carbonex/events"
	"github.com/carbonex/carbonex/matching"
	"github.com/carbonex/carbonex/pricing"
	"github.com/carbonex/carbonex/settlement"
	"github.com/carbonex/carbonex/store"
)

type suiteTradeExecutorTester struct {
	suite.Suite

	trades       matching.TradeStore
	transactions settlement.TransactionStore
	tracker      *pricing.Tracker
	worker       *TradeExecutorWorker
}

func (s *suiteTradeExecutorTester) SetupSuite() {
	config.NewLoggerService()
}

func (s *suiteTradeExecutorTester) SetupTest() {
	s.trades = store.NewMemoryTradeStore()
	s.transactions = store.NewMemoryTransactionStore()
	s.tracker = pricing.NewTracker(store.NewMemoryPriceStore(), pricing.NewRandomSource(1), nil)

	pipeline := settlement.NewPipeline(
		s.transactions,
		store.NewMemoryBatchStore(),
		settlement.NewStaticGasEstimator(decimal.NewFromInt(30), decimal.NewFromFloat(1.2)),
		settlement.SimulatedLedger{},
		events.NewPublisher(nil),
	)

	s.worker = NewTradeExecutorWorker(s.trades, s.tracker, pipeline, events.NewPublisher(nil), "USDC")
}

func (s *suiteTradeExecutorTester) TestProcess() {
	trade := &matching.Trade{
		ID:           1,
		CreditType:   "forestry",
		Price:        decimal.NewFromInt(11),
		Quantity:     decimal.NewFromInt(10),
		Total:        decimal.NewFromInt(110),
		MakerOrderID: 1,
		TakerOrderID: 2,
		Buyer:        "alice",
		Seller:       "bob",
		Status:       matching.TradePending,
		CreatedAt:    time.Now(),
	}

	payload, err := json.Marshal(trade)
	s.Require().NoError(err)

	s.NoError(s.worker.Process(payload))

	stored, err := s.trades.Find(1)
	s.NoError(err)
	s.Equal(matching.TradeConfirmed, stored.Status)

	mp, err := s.tracker.Get("forestry")
	s.NoError(err)
	s.True(mp.Last.Equal(decimal.NewFromInt(11)))
	s.True(mp.Volume24h.Equal(decimal.NewFromInt(10)))
}

func (s *suiteTradeExecutorTester) TestProcessInvalidPayload() {
	s.Error(s.worker.Process([]byte("not json")))
}

func TestTradeExecutorSuite(t *testing.T) {
	suite.Run(t, new(suiteTradeExecutorTester))
}
