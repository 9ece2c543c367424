package engines

import (
	"encoding/json"

	"github.com/carbonex/carbonex/config"
	"github.com/carbonex/carbonex/events"
	"github.com/carbonex/carbonex/matching"
	"github.com/carbonex/carbonex/pricing"
	"github.com/carbonex/carbonex/settlement"
)

// TradeExecutorWorker consumes executed trades off the engine queue. Each
// trade is persisted, folded into the market price and turned into a
// pending payment transaction.
type TradeExecutorWorker struct {
	Trades   matching.TradeStore
	Tracker  *pricing.Tracker
	Pipeline *settlement.Pipeline
	Events   *events.Publisher

	// SettlementCurrency denominates the payments created from trades.
	SettlementCurrency string
}

func NewTradeExecutorWorker(trades matching.TradeStore, tracker *pricing.Tracker, pipeline *settlement.Pipeline, publisher *events.Publisher, settlementCurrency string) *TradeExecutorWorker {
	return &TradeExecutorWorker{
		Trades:             trades,
		Tracker:            tracker,
		Pipeline:           pipeline,
		Events:             publisher,
		SettlementCurrency: settlementCurrency,
	}
}

func (w *TradeExecutorWorker) Process(payload []byte) error {
	trade := &matching.Trade{}
	if err := json.Unmarshal(payload, trade); err != nil {
		return err
	}

	if err := w.Trades.Save(trade); err != nil {
		return err
	}

	if err := w.Tracker.RecordTrade(trade.CreditType, trade.Price, trade.Quantity); err != nil {
		config.Logger.Errorf("[workers.trade_executor] price update failed for %s: %s", trade.CreditType, err.Error())
	}

	// The payment inherits the trade's economics, so the slippage check
	// holds by construction here; it bites on externally initiated
	// payments.
	transaction, err := w.Pipeline.InitiatePayment(trade.CreditType, trade.Quantity, trade.Total, w.SettlementCurrency, trade.Buyer, trade.Seller, trade.Price)
	if err != nil {
		return err
	}

	trade.Status = matching.TradeConfirmed
	if err := w.Trades.Save(trade); err != nil {
		return err
	}

	config.Logger.Debugf("[workers.trade_executor] trade %d -> payment %s", trade.ID, transaction.ID)

	w.Events.Publish("trade.executed", trade)

	return nil
}
