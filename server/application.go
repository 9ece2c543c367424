package server

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/carbonex/carbonex/amm"
	"github.com/carbonex/carbonex/config"
	"github.com/carbonex/carbonex/events"
	"github.com/carbonex/carbonex/jobs/cron"
	"github.com/carbonex/carbonex/matching"
	"github.com/carbonex/carbonex/models"
	"github.com/carbonex/carbonex/oracle"
	"github.com/carbonex/carbonex/pricing"
	"github.com/carbonex/carbonex/settlement"
	"github.com/carbonex/carbonex/store"
	"github.com/carbonex/carbonex/workers/daemons"
	"github.com/carbonex/carbonex/workers/engines"
)

// DefaultSettlementCurrency denominates payments created from matched
// trades.
const DefaultSettlementCurrency = "USDC"

// Stores bundles the persistence dependencies of every service so the
// application wires the same way over memory and over postgres.
type Stores struct {
	Orders       matching.OrderStore
	Trades       matching.TradeStore
	Transactions settlement.TransactionStore
	Batches      settlement.BatchStore
	Pools        amm.PoolStore
	Prices       pricing.PriceStore
}

func MemoryStores() *Stores {
	return &Stores{
		Orders:       store.NewMemoryOrderStore(),
		Trades:       store.NewMemoryTradeStore(),
		Transactions: store.NewMemoryTransactionStore(),
		Batches:      store.NewMemoryBatchStore(),
		Pools:        store.NewMemoryPoolStore(),
		Prices:       store.NewMemoryPriceStore(),
	}
}

func DatabaseStores(db *gorm.DB) *Stores {
	return &Stores{
		Orders:       models.NewOrderStore(db),
		Trades:       models.NewTradeStore(db),
		Transactions: models.NewTransactionStore(db),
		Batches:      models.NewBatchStore(db),
		Pools:        models.NewPoolStore(db),
		Prices:       models.NewPriceStore(db),
	}
}

// Application is the composition root: one engine server, the settlement
// pipeline, the liquidity pools, the price tracker, the oracle and the
// cron daemon, all sharing one event publisher.
type Application struct {
	Engine   *EngineServer
	Swaps    *amm.Service
	Pipeline *settlement.Pipeline
	Tracker  *pricing.Tracker
	Oracle   *oracle.Aggregator
	Events   *events.Publisher
	Cron     *daemons.CronJob
}

func NewApplication(stores *Stores) *Application {
	publisher := events.NewPublisher(config.Nats)

	gas := settlement.NewStaticGasEstimator(decimal.NewFromInt(30), decimal.NewFromFloat(1.2))
	pipeline := settlement.NewPipeline(stores.Transactions, stores.Batches, gas, settlement.SimulatedLedger{}, publisher)

	tracker := pricing.NewTracker(stores.Prices, pricing.NewRandomSource(time.Now().UnixNano()), config.Redis)
	swaps := amm.NewService(stores.Pools)

	aggregator := oracle.NewAggregator(
		config.Redis,
		oracle.NewSimulatedFeedProvider("coingecko", oracle.Feed{
			USDCPrice:  decimal.NewFromInt(1),
			USDTPrice:  decimal.NewFromInt(1),
			ETHPrice:   decimal.NewFromInt(2400),
			Confidence: decimal.NewFromFloat(0.9),
		}, time.Now().UnixNano()),
		oracle.NewSimulatedFeedProvider("chainlink", oracle.Feed{
			USDCPrice:  decimal.NewFromInt(1),
			USDTPrice:  decimal.NewFromFloat(0.999),
			ETHPrice:   decimal.NewFromInt(2400),
			Confidence: decimal.NewFromFloat(0.95),
		}, time.Now().UnixNano()+1),
	)

	worker := engines.NewTradeExecutorWorker(stores.Trades, tracker, pipeline, publisher, DefaultSettlementCurrency)
	engine := NewEngineServer(stores.Orders, worker, publisher)

	// Resting orders persisted by a previous run go back into the books,
	// and the id sequences move past everything already stored.
	if err := engine.Reload(stores.Trades); err != nil {
		config.Logger.Errorf("[server.application] order book replay failed: %s", err.Error())
	}

	cronDaemon := daemons.NewCronJob(
		cron.NewPriceDriftJob(tracker),
		cron.NewSettlementSweepJob(pipeline),
		cron.NewPoolStatsJob(swaps),
	)

	return &Application{
		Engine:   engine,
		Swaps:    swaps,
		Pipeline: pipeline,
		Tracker:  tracker,
		Oracle:   aggregator,
		Events:   publisher,
		Cron:     cronDaemon,
	}
}
