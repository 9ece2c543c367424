package matching

type Engine struct {
	CreditType  string
	OrderBook   *OrderBook
	Initialized bool
}

func NewEngine(creditType string) *Engine {
	return &Engine{
		CreditType: creditType,
		OrderBook:  NewOrderBook(creditType),
	}
}

// Submit runs one synchronous matching pass for the order and returns
// the trades it produced plus copies of every order they touched.
func (e *Engine) Submit(o *Order, nextTradeID func() uint64) ([]*Trade, []*Order) {
	return e.OrderBook.InsertOrder(o, nextTradeID)
}

// Cancel pulls a resting order from the book. ok is false when the order
// is not resting anymore.
func (e *Engine) Cancel(id uint64) (*Order, bool) {
	return e.OrderBook.Remove(id)
}
