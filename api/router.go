package api

import (
	"github.com/gofiber/fiber/v3"

	"spreadhunter/api/handlers"
	"spreadhunter/config"
	"spreadhunter/internal/arbitrage"
	"spreadhunter/internal/ledger"
	"spreadhunter/internal/scanner"
	"spreadhunter/internal/scheduler"
)

func SetupRoutes(app *fiber.App, calc *arbitrage.Calculator, sc *scanner.Scanner, sched *scheduler.Scheduler, led *ledger.Ledger, cfg *config.Config) {
	arbHandler := handlers.NewArbitrageHandler(calc, sc, sched, led, cfg)
	ledHandler := handlers.NewLedgerHandler(calc, led)

	api := app.Group("/api")

	api.Get("/exchanges", arbHandler.Exchanges)

	arb := api.Group("/arbitrage")
	arb.Get("/analyze", arbHandler.Analyze)
	arb.Get("/scan", arbHandler.Scan)
	arb.Get("/ticker-scan", arbHandler.TickerScan)
	arb.Get("/background", arbHandler.Background)
	arb.Get("/coins", arbHandler.Coins)
	arb.Get("/orderbook/:exchange", arbHandler.OrderBook)

	arb.Post("/simulate", ledHandler.Simulate)
	arb.Post("/trades/:id/execute", ledHandler.Execute)
	arb.Get("/history", ledHandler.History)
	arb.Get("/pl-summary", ledHandler.PLSummary)
}
