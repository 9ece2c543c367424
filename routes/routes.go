package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/carbonex/carbonex/controllers"
	"github.com/carbonex/carbonex/server"
)

func SetupRouter(app *server.Application) *fiber.App {
	router := fiber.New()

	public := &controllers.PublicController{Oracle: app.Oracle}
	trading := &controllers.TradingController{Engine: app.Engine}
	market := &controllers.MarketController{Tracker: app.Tracker}
	swap := &controllers.SwapController{Swaps: app.Swaps}
	payments := &controllers.PaymentsController{Pipeline: app.Pipeline}

	router.Get("/api/v2/public/timestamp", public.GetTimestamp)
	router.Get("/api/v2/public/reference_price", public.GetReferencePrice)

	router.Post("/api/v2/market/orders", trading.CreateOrder)
	router.Get("/api/v2/market/orders/:id", trading.GetOrder)
	router.Delete("/api/v2/market/orders/:id", trading.CancelOrder)
	router.Get("/api/v2/market/:credit_type/order_book", trading.GetOrderBook)
	router.Get("/api/v2/market/:credit_type/price", market.GetMarketPrice)

	router.Get("/api/v2/swap/pools", swap.GetPools)
	router.Get("/api/v2/swap/pools/:id", swap.GetPool)
	router.Get("/api/v2/swap/quote", swap.GetSwapQuote)
	router.Post("/api/v2/swap", swap.ExecuteSwap)

	router.Post("/api/v2/payments", payments.InitiatePayment)
	router.Get("/api/v2/payments/:id", payments.GetPayment)
	router.Post("/api/v2/payments/:id/confirm", payments.ConfirmPayment)
	router.Post("/api/v2/payments/:id/refund", payments.RefundPayment)
	router.Get("/api/v2/settlement/batches/:id", payments.GetBatch)
	router.Post("/api/v2/settlement/batches/:id/process", payments.ProcessBatch)

	return router
}
