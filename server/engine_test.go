package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/carbonex/carbonex/config"
	"github.com/carbonex/carbonex/events"
	"github.com/carbonex/carbonex/matching"
	"github.com/carbonex/carbonex/store"
	"github.com/carbonex/carbonex/types"
)

// channelWorker hands every payload to the test goroutine.
type channelWorker struct {
	payloads chan []byte
}

func newChannelWorker() *channelWorker {
	return &channelWorker{payloads: make(chan []byte, 64)}
}

func (w *channelWorker) Process(payload []byte) error {
	w.payloads <- payload
	return nil
}

func (w *channelWorker) nextTrade(s *suiteEngineTester) *matching.Trade {
	select {
	case payload := <-w.payloads:
		trade := &matching.Trade{}
		s.Require().NoError(json.Unmarshal(payload, trade))
		return trade
	case <-time.After(time.Second):
		s.FailNow("no trade dispatched")
		return nil
	}
}

type suiteEngineTester struct {
	suite.Suite

	orders matching.OrderStore
	worker *channelWorker
	server *EngineServer
}

func (s *suiteEngineTester) SetupSuite() {
	config.NewLoggerService()
}

func (s *suiteEngineTester) SetupTest() {
	s.orders = store.NewMemoryOrderStore()
	s.worker = newChannelWorker()
	s.server = NewEngineServer(s.orders, s.worker, events.NewPublisher(nil))
}

func (s *suiteEngineTester) TearDownTest() {
	s.server.Stop()
}

func (s *suiteEngineTester) submit(side types.OrderSide, quantity, price int64, creator string) *matching.Order {
	order, err := s.server.SubmitOrder(side, "forestry", decimal.NewFromInt(quantity), decimal.NewFromInt(price), creator, 0)
	s.Require().NoError(err)
	return order
}

func (s *suiteEngineTester) TestSubmitOrderValidation() {
	_, err := s.server.SubmitOrder("hold", "forestry", decimal.NewFromInt(1), decimal.NewFromInt(1), "alice", 0)
	s.ErrorIs(err, matching.ErrInvalidOrder)

	_, err = s.server.SubmitOrder(types.SideBuy, "", decimal.NewFromInt(1), decimal.NewFromInt(1), "alice", 0)
	s.ErrorIs(err, matching.ErrInvalidOrder)

	_, err = s.server.SubmitOrder(types.SideBuy, "forestry", decimal.Zero, decimal.NewFromInt(1), "alice", 0)
	s.ErrorIs(err, matching.ErrInvalidOrder)

	_, err = s.server.SubmitOrder(types.SideBuy, "forestry", decimal.NewFromInt(1), decimal.NewFromInt(-2), "alice", 0)
	s.ErrorIs(err, matching.ErrInvalidOrder)

	_, err = s.server.SubmitOrder(types.SideBuy, "forestry", decimal.NewFromInt(1), decimal.NewFromInt(1), "", 0)
	s.ErrorIs(err, matching.ErrInvalidOrder)
}

func (s *suiteEngineTester) TestSubmitOrderRests() {
	order := s.submit(types.SideBuy, 10, 12, "alice")

	s.Equal(matching.StatusOpen, order.Status)
	s.True(order.Total.Equal(decimal.NewFromInt(120)))

	stored, err := s.server.GetOrder(order.ID)
	s.NoError(err)
	s.Equal(matching.StatusOpen, stored.Status)

	book := s.server.OrderBook("forestry")
	s.Len(book.Bids, 1)
	s.Empty(book.Asks)
}

func (s *suiteEngineTester) TestSubmitOrderMatches() {
	maker := s.submit(types.SideSell, 10, 11, "bob")
	taker := s.submit(types.SideBuy, 10, 12, "alice")

	s.Equal(matching.StatusFilled, taker.Status)
	s.Len(taker.Fills, 1)
	s.True(taker.Fills[0].Price.Equal(decimal.NewFromInt(11)))

	trade := s.worker.nextTrade(s)
	s.Equal(maker.ID, trade.MakerOrderID)
	s.Equal(taker.ID, trade.TakerOrderID)
	s.Equal("alice", trade.Buyer)
	s.Equal("bob", trade.Seller)
	s.True(trade.Price.Equal(decimal.NewFromInt(11)))
	s.True(trade.Total.Equal(decimal.NewFromInt(110)))

	stored, err := s.server.GetOrder(maker.ID)
	s.NoError(err)
	s.Equal(matching.StatusFilled, stored.Status)
}

func (s *suiteEngineTester) TestCancelOrder() {
	s.ErrorIs(s.server.CancelOrder(999), matching.ErrOrderNotFound)

	order := s.submit(types.SideSell, 10, 11, "bob")
	s.NoError(s.server.CancelOrder(order.ID))

	stored, err := s.server.GetOrder(order.ID)
	s.NoError(err)
	s.Equal(matching.StatusCancelled, stored.Status)

	// Cancelling again is a no-op.
	s.NoError(s.server.CancelOrder(order.ID))

	// A cancelled ask never matches.
	taker := s.submit(types.SideBuy, 10, 12, "alice")
	s.Equal(matching.StatusOpen, taker.Status)
}

func (s *suiteEngineTester) TestCancelFilledOrder() {
	maker := s.submit(types.SideSell, 10, 11, "bob")
	s.submit(types.SideBuy, 10, 12, "alice")

	s.ErrorIs(s.server.CancelOrder(maker.ID), matching.ErrAlreadyFilled)
}

func (s *suiteEngineTester) TestOrderBookDepthCap() {
	for i := int64(1); i <= 15; i++ {
		s.submit(types.SideBuy, 1, i, "alice")
	}

	book := s.server.OrderBook("forestry")
	s.Len(book.Bids, 10)
	s.True(book.Bids[0].Price.Equal(decimal.NewFromInt(15)))
}

func (s *suiteEngineTester) TestLoadOrders() {
	restingBid := s.submit(types.SideBuy, 10, 12, "alice")
	cancelled := s.submit(types.SideBuy, 5, 11, "alice")
	s.NoError(s.server.CancelOrder(cancelled.ID))

	replayed := NewEngineServer(s.orders, newChannelWorker(), events.NewPublisher(nil))
	defer replayed.Stop()

	s.NoError(replayed.LoadOrders("forestry"))

	book := replayed.OrderBook("forestry")
	s.Len(book.Bids, 1)
	s.Equal(restingBid.ID, book.Bids[0].ID)

	// The replayed sequence continues past the stored orders.
	next, err := replayed.SubmitOrder(types.SideSell, "forestry", decimal.NewFromInt(1), decimal.NewFromInt(20), "bob", 0)
	s.NoError(err)
	s.Greater(next.ID, cancelled.ID)
}

func (s *suiteEngineTester) TestGetOrderDuringMatching() {
	maker := s.submit(types.SideSell, 100, 10, "bob")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_, err := s.server.SubmitOrder(types.SideBuy, "forestry", decimal.NewFromInt(2), decimal.NewFromInt(10), "alice", 0)
			if err != nil {
				s.T().Error(err)
				return
			}
		}
	}()

	// Readers polling the order mid-match always see an internally
	// consistent snapshot: the fills sum to the filled quantity.
	for finished := false; !finished; {
		select {
		case <-done:
			finished = true
		default:
		}

		order, err := s.server.GetOrder(maker.ID)
		s.Require().NoError(err)

		filled := decimal.Zero
		for _, fill := range order.Fills {
			filled = filled.Add(fill.Quantity)
		}
		s.Require().True(filled.Equal(order.FilledQuantity))
		s.Require().True(order.FilledQuantity.LessThanOrEqual(order.Quantity))
	}

	final, err := s.server.GetOrder(maker.ID)
	s.NoError(err)
	s.Equal(matching.StatusFilled, final.Status)
	s.Len(final.Fills, 50)
}

func (s *suiteEngineTester) TestReloadRestoresBooksAndSequences() {
	maker := s.submit(types.SideSell, 10, 11, "bob")
	s.submit(types.SideBuy, 10, 12, "alice")

	executed := s.worker.nextTrade(s)
	s.Equal(maker.ID, executed.MakerOrderID)

	trades := store.NewMemoryTradeStore()
	s.Require().NoError(trades.Save(executed))

	resting := s.submit(types.SideBuy, 5, 9, "carol")

	// A restarted server over the same stores picks the book back up.
	worker := newChannelWorker()
	restarted := NewEngineServer(s.orders, worker, events.NewPublisher(nil))
	defer restarted.Stop()

	s.NoError(restarted.Reload(trades))

	book := restarted.OrderBook("forestry")
	s.Len(book.Bids, 1)
	s.Equal(resting.ID, book.Bids[0].ID)

	// Order and trade ids continue past everything already persisted, so
	// fresh activity never overwrites historical rows.
	taker, err := restarted.SubmitOrder(types.SideSell, "forestry", decimal.NewFromInt(5), decimal.NewFromInt(9), "dave", 0)
	s.NoError(err)
	s.Greater(taker.ID, resting.ID)

	trade := worker.nextTrade(s)
	s.Greater(trade.ID, executed.ID)
	s.Equal(resting.ID, trade.MakerOrderID)
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(suiteEngineTester))
}
