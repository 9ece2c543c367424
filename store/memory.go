// Package store provides the in-memory implementations of the venue's
// storage interfaces. They back tests and single-process deployments; the
// gorm implementations in models/ are the durable variant.
package store

import (
	"sync"

	"github.com/google/uuid"

	"github.com/carbonex/carbonex/amm"
	"github.com/carbonex/carbonex/matching"
	"github.com/carbonex/carbonex/pricing"
	"github.com/carbonex/carbonex/settlement"
)

type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[uint64]*matching.Order
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{orders: make(map[uint64]*matching.Order)}
}

// Save records a copy of the order. The store never aliases order objects
// the matcher still mutates, and callers may keep mutating theirs.
func (s *MemoryOrderStore) Save(o *matching.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.ID] = o.Clone()
	return nil
}

func (s *MemoryOrderStore) Find(id uint64) (*matching.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, found := s.orders[id]
	if !found {
		return nil, matching.ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (s *MemoryOrderStore) ByCreditType(creditType string) ([]*matching.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]*matching.Order, 0)
	for _, o := range s.orders {
		if o.CreditType == creditType {
			orders = append(orders, o.Clone())
		}
	}
	return orders, nil
}

func (s *MemoryOrderStore) CreditTypes() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	creditTypes := make([]string, 0)
	for _, o := range s.orders {
		if !seen[o.CreditType] {
			seen[o.CreditType] = true
			creditTypes = append(creditTypes, o.CreditType)
		}
	}
	return creditTypes, nil
}

type MemoryTradeStore struct {
	mu     sync.RWMutex
	trades map[uint64]*matching.Trade
}

func NewMemoryTradeStore() *MemoryTradeStore {
	return &MemoryTradeStore{trades: make(map[uint64]*matching.Trade)}
}

func (s *MemoryTradeStore) Save(t *matching.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *t
	s.trades[t.ID] = &copied
	return nil
}

func (s *MemoryTradeStore) Find(id uint64) (*matching.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, found := s.trades[id]
	if !found {
		return nil, matching.ErrTradeNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *MemoryTradeStore) ByCreditType(creditType string) ([]*matching.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := make([]*matching.Trade, 0)
	for _, t := range s.trades {
		if t.CreditType == creditType {
			copied := *t
			trades = append(trades, &copied)
		}
	}
	return trades, nil
}

func (s *MemoryTradeStore) LastID() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last uint64
	for id := range s.trades {
		if id > last {
			last = id
		}
	}
	return last, nil
}

type MemoryTransactionStore struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]*settlement.Transaction
}

func NewMemoryTransactionStore() *MemoryTransactionStore {
	return &MemoryTransactionStore{transactions: make(map[uuid.UUID]*settlement.Transaction)}
}

func (s *MemoryTransactionStore) Save(t *settlement.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions[t.ID] = t
	return nil
}

func (s *MemoryTransactionStore) Find(id uuid.UUID) (*settlement.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, found := s.transactions[id]
	if !found {
		return nil, settlement.ErrTransactionNotFound
	}
	return t, nil
}

func (s *MemoryTransactionStore) ByBatch(batchID string) ([]*settlement.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	transactions := make([]*settlement.Transaction, 0)
	for _, t := range s.transactions {
		if t.BatchID.Valid && t.BatchID.String == batchID {
			transactions = append(transactions, t)
		}
	}
	return transactions, nil
}

type MemoryBatchStore struct {
	mu      sync.RWMutex
	batches map[string]*settlement.Batch
}

func NewMemoryBatchStore() *MemoryBatchStore {
	return &MemoryBatchStore{batches: make(map[string]*settlement.Batch)}
}

func (s *MemoryBatchStore) Save(b *settlement.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches[b.ID] = b
	return nil
}

func (s *MemoryBatchStore) Find(id string) (*settlement.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, found := s.batches[id]
	if !found {
		return nil, settlement.ErrBatchNotFound
	}
	return b, nil
}

// Pending returns every batch that has not finished processing, failed
// batches included so sweeps retry them.
func (s *MemoryBatchStore) Pending() ([]*settlement.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batches := make([]*settlement.Batch, 0)
	for _, b := range s.batches {
		if b.Status != settlement.BatchProcessed {
			batches = append(batches, b)
		}
	}
	return batches, nil
}

type MemoryPoolStore struct {
	mu    sync.RWMutex
	pools map[string]*amm.Pool
}

func NewMemoryPoolStore() *MemoryPoolStore {
	return &MemoryPoolStore{pools: make(map[string]*amm.Pool)}
}

func (s *MemoryPoolStore) Save(p *amm.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pools[p.ID] = p
	return nil
}

func (s *MemoryPoolStore) Find(id string) (*amm.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, found := s.pools[id]
	if !found {
		return nil, amm.ErrPoolNotFound
	}
	return p, nil
}

func (s *MemoryPoolStore) All() ([]*amm.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pools := make([]*amm.Pool, 0, len(s.pools))
	for _, p := range s.pools {
		pools = append(pools, p)
	}
	return pools, nil
}

type MemoryPriceStore struct {
	mu     sync.RWMutex
	prices map[string]*pricing.MarketPrice
}

func NewMemoryPriceStore() *MemoryPriceStore {
	return &MemoryPriceStore{prices: make(map[string]*pricing.MarketPrice)}
}

func (s *MemoryPriceStore) Save(p *pricing.MarketPrice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prices[p.CreditType] = p
	return nil
}

func (s *MemoryPriceStore) Find(creditType string) (*pricing.MarketPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, found := s.prices[creditType]
	if !found {
		return nil, pricing.ErrPriceNotFound
	}
	return p, nil
}

func (s *MemoryPriceStore) All() ([]*pricing.MarketPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prices := make([]*pricing.MarketPrice, 0, len(s.prices))
	for _, p := range s.prices {
		prices = append(prices, p)
	}
	return prices, nil
}
