package server

import (
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carbonex/carbonex/config"
	"github.com/carbonex/carbonex/events"
	"github.com/carbonex/carbonex/matching"
	"github.com/carbonex/carbonex/types"
)

// orderBookDepthLimit caps the orders returned per side of a book
// snapshot.
const orderBookDepthLimit = 10

const tradeQueueCap = 1024

// Worker consumes a JSON payload produced by the engine, one at a time.
type Worker interface {
	Process(payload []byte) error
}

// EngineServer owns one matching engine per credit type and the order
// sequence. Submission is synchronous through the engine; executed trades
// are handed to the trade executor through an in-process queue so a slow
// settlement path never blocks submission.
type EngineServer struct {
	enginesMutex sync.RWMutex
	Engines      map[string]*matching.Engine

	Orders matching.OrderStore
	Events *events.Publisher

	orderSequence uint64
	tradeSequence uint64

	tradeQueue chan []byte
	worker     Worker
	done       chan struct{}
}

func NewEngineServer(orders matching.OrderStore, worker Worker, publisher *events.Publisher) *EngineServer {
	s := &EngineServer{
		Engines:    make(map[string]*matching.Engine),
		Orders:     orders,
		Events:     publisher,
		tradeQueue: make(chan []byte, tradeQueueCap),
		worker:     worker,
		done:       make(chan struct{}),
	}

	go s.dispatchLoop()

	return s
}

func (s *EngineServer) dispatchLoop() {
	for {
		select {
		case payload := <-s.tradeQueue:
			if err := s.worker.Process(payload); err != nil {
				config.Logger.Errorf("[server.engine] trade executor failed: %s", err.Error())
			}
		case <-s.done:
			return
		}
	}
}

// Stop shuts the dispatch loop down. Queued trades not yet processed are
// dropped, which is acceptable only at process exit.
func (s *EngineServer) Stop() {
	close(s.done)
}

func (s *EngineServer) engineFor(creditType string) *matching.Engine {
	s.enginesMutex.RLock()
	engine, found := s.Engines[creditType]
	s.enginesMutex.RUnlock()
	if found {
		return engine
	}

	s.enginesMutex.Lock()
	defer s.enginesMutex.Unlock()

	if engine, found = s.Engines[creditType]; found {
		return engine
	}

	engine = matching.NewEngine(creditType)
	engine.Initialized = true
	s.Engines[creditType] = engine
	config.Logger.Infof("[server.engine] %s engine initialized", creditType)

	return engine
}

func (s *EngineServer) nextTradeID() uint64 {
	return atomic.AddUint64(&s.tradeSequence, 1)
}

// SubmitOrder validates, records and matches an order in one synchronous
// pass; the caller observes the order's final status for this pass.
func (s *EngineServer) SubmitOrder(side types.OrderSide, creditType string, quantity, price decimal.Decimal, creator string, ttl time.Duration) (*matching.Order, error) {
	if side != types.SideBuy && side != types.SideSell {
		return nil, matching.ErrInvalidOrder
	}
	if len(creditType) == 0 || len(creator) == 0 {
		return nil, matching.ErrInvalidOrder
	}
	if !quantity.IsPositive() || !price.IsPositive() {
		return nil, matching.ErrInvalidOrder
	}

	now := time.Now()
	order := &matching.Order{
		ID:         atomic.AddUint64(&s.orderSequence, 1),
		Side:       side,
		CreditType: creditType,
		Quantity:   quantity,
		Price:      price,
		Total:      quantity.Mul(price),
		Creator:    creator,
		Status:     matching.StatusOpen,
		Fills:      make([]*matching.Fill, 0),
		CreatedAt:  now,
	}
	if ttl > 0 {
		order.ExpiresAt = now.Add(ttl)
	}

	if err := s.Orders.Save(order); err != nil {
		return nil, err
	}

	engine := s.engineFor(creditType)
	trades, affected := engine.Submit(order, s.nextTradeID)

	// affected carries copies taken under the book lock, so persisting
	// them never races with the matcher.
	var saveErr error
	for _, touched := range affected {
		if err := s.Orders.Save(touched); err != nil {
			if touched.ID == order.ID {
				saveErr = err
			} else {
				config.Logger.Errorf("[server.engine] failed to persist order %d: %s", touched.ID, err.Error())
			}
		}
	}
	if saveErr != nil {
		return nil, saveErr
	}

	for _, trade := range trades {
		s.dispatch(trade)
	}

	return s.Orders.Find(order.ID)
}

func (s *EngineServer) dispatch(trade *matching.Trade) {
	payload, err := json.Marshal(trade)
	if err != nil {
		config.Logger.Errorf("[server.engine] failed to marshal trade %d: %s", trade.ID, err.Error())
		return
	}

	select {
	case s.tradeQueue <- payload:
	default:
		// Queue full: process inline rather than dropping the trade.
		if err := s.worker.Process(payload); err != nil {
			config.Logger.Errorf("[server.engine] trade executor failed: %s", err.Error())
		}
	}
}

// CancelOrder pulls a resting order from its book. Fills already executed
// stay in place. Cancelling a cancelled order is a no-op.
func (s *EngineServer) CancelOrder(id uint64) error {
	order, err := s.Orders.Find(id)
	if err != nil {
		return matching.ErrOrderNotFound
	}

	if order.Status == matching.StatusFilled {
		return matching.ErrAlreadyFilled
	}
	if order.Status == matching.StatusCancelled {
		return nil
	}

	engine := s.engineFor(order.CreditType)
	cancelled, ok := engine.Cancel(order.ID)
	if !ok {
		// Not resting anymore: the matcher beat the cancel, or an
		// expired order was already swept out of the book.
		order, err = s.Orders.Find(id)
		if err != nil {
			return matching.ErrOrderNotFound
		}
		if order.Status == matching.StatusFilled {
			return matching.ErrAlreadyFilled
		}
		if order.Status == matching.StatusCancelled {
			return nil
		}

		order.Status = matching.StatusCancelled
		cancelled = order
	}

	if err := s.Orders.Save(cancelled); err != nil {
		return err
	}

	s.Events.Publish("order.cancelled", cancelled)

	return nil
}

// OrderBook returns the top of the book for one credit type.
func (s *EngineServer) OrderBook(creditType string) *matching.BookSnapshot {
	return s.engineFor(creditType).OrderBook.Snapshot(orderBookDepthLimit)
}

// GetOrder exposes historical order lookup.
func (s *EngineServer) GetOrder(id uint64) (*matching.Order, error) {
	return s.Orders.Find(id)
}

// LoadOrders replays a credit type's resting orders from the store into a
// fresh book, oldest first, and advances the order sequence past them.
func (s *EngineServer) LoadOrders(creditType string) error {
	orders, err := s.Orders.ByCreditType(creditType)
	if err != nil {
		return err
	}

	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })

	engine := s.engineFor(creditType)
	now := time.Now()

	for _, order := range orders {
		for order.ID > atomic.LoadUint64(&s.orderSequence) {
			atomic.AddUint64(&s.orderSequence, 1)
		}

		if order.Terminal() || order.Expired(now) || !order.UnfilledQuantity().IsPositive() {
			continue
		}

		trades, affected := engine.Submit(order, s.nextTradeID)
		for _, touched := range affected {
			if err := s.Orders.Save(touched); err != nil {
				config.Logger.Errorf("[server.engine] failed to persist order %d: %s", touched.ID, err.Error())
			}
		}
		for _, trade := range trades {
			s.dispatch(trade)
		}
	}

	config.Logger.Infof("[server.engine] %s engine reloaded", creditType)

	return nil
}

// Reload rebuilds every credit type's book from the durable store after a
// restart. The trade sequence is seeded past the persisted trades first so
// ids produced during or after replay never collide with history.
func (s *EngineServer) Reload(trades matching.TradeStore) error {
	lastTradeID, err := trades.LastID()
	if err != nil {
		return err
	}
	for lastTradeID > atomic.LoadUint64(&s.tradeSequence) {
		atomic.AddUint64(&s.tradeSequence, 1)
	}

	creditTypes, err := s.Orders.CreditTypes()
	if err != nil {
		return err
	}

	for _, creditType := range creditTypes {
		if err := s.LoadOrders(creditType); err != nil {
			return err
		}
	}

	return nil
}
