package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"spreadhunter/config"
	"spreadhunter/internal/arbitrage"
	"spreadhunter/internal/ledger"
	"spreadhunter/internal/scanner"
	"spreadhunter/internal/scheduler"
)

const defaultSymbol = "BTC/USDT"

// ArbitrageHandler serves the analysis and scan endpoints.
type ArbitrageHandler struct {
	calc    *arbitrage.Calculator
	scanner *scanner.Scanner
	sched   *scheduler.Scheduler
	ledger  *ledger.Ledger
	cfg     *config.Config
}

func NewArbitrageHandler(calc *arbitrage.Calculator, sc *scanner.Scanner, sched *scheduler.Scheduler, led *ledger.Ledger, cfg *config.Config) *ArbitrageHandler {
	return &ArbitrageHandler{calc: calc, scanner: sc, sched: sched, ledger: led, cfg: cfg}
}

// Analyze handles GET /api/arbitrage/analyze.
func (h *ArbitrageHandler) Analyze(c fiber.Ctx) error {
	symbol := c.Query("symbol", defaultSymbol)

	amount, err := strconv.ParseFloat(c.Query("amount", "1"), 64)
	if err != nil || amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid amount parameter",
		})
	}

	result, err := h.calc.Analyze(c.Context(), symbol, amount)
	if err != nil {
		return analysisError(c, err)
	}

	// Every profitable pair goes into the opportunity log.
	for _, opp := range result.Opportunities {
		if opp.IsProfitable {
			h.ledger.LogOpportunity(opp)
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    result,
		"meta": fiber.Map{
			"trade_amount":        amount,
			"exchanges_analyzed":  len(result.OrderBooks),
			"total_opportunities": len(result.Opportunities),
			"request_timestamp":   time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// Scan handles GET /api/arbitrage/scan.
func (h *ArbitrageHandler) Scan(c fiber.Ctx) error {
	amountUSD, err := strconv.ParseFloat(c.Query("amountUSD", "1000"), 64)
	if err != nil || amountUSD <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid amountUSD parameter",
		})
	}

	symbols, preset := h.symbolList(c)

	scan, err := h.scanner.Scan(c.Context(), symbols, amountUSD)
	if err != nil {
		return analysisError(c, err)
	}

	for _, r := range scan.Results {
		if r.Best != nil && r.Best.IsProfitable {
			h.ledger.LogOpportunity(*r.Best)
			log.Info().
				Str("symbol", r.Symbol).
				Str("buy", r.Best.BuyExchange).
				Str("sell", r.Best.SellExchange).
				Float64("net_pct", r.Best.NetProfitPercentage).
				Msg("profitable opportunity found")
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    scan,
		"meta": fiber.Map{
			"trade_amount_usd":  amountUSD,
			"preset":            preset,
			"request_timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// TickerScan handles GET /api/arbitrage/ticker-scan.
func (h *ArbitrageHandler) TickerScan(c fiber.Ctx) error {
	symbols, preset := h.symbolList(c)

	scan, err := h.scanner.TickerScan(c.Context(), symbols)
	if err != nil {
		return analysisError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    scan,
		"meta": fiber.Map{
			"preset":            preset,
			"request_timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// Background handles GET /api/arbitrage/background, serving the scheduler's
// latest cached scan.
func (h *ArbitrageHandler) Background(c fiber.Ctx) error {
	if h.sched == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "background scanning is disabled",
		})
	}

	latest := h.sched.Latest()
	if latest == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "no background scan completed yet",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    latest,
	})
}

// OrderBook handles GET /api/arbitrage/orderbook/:exchange.
func (h *ArbitrageHandler) OrderBook(c fiber.Ctx) error {
	adapter, ok := h.calc.Adapter(c.Params("exchange"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "unknown exchange id",
		})
	}

	symbol := c.Query("symbol", defaultSymbol)
	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid limit parameter",
		})
	}

	book, err := adapter.FetchOrderBook(c.Context(), symbol, limit)
	if err != nil {
		log.Warn().Err(err).Str("exchange", adapter.ID()).Msg("order book fetch failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"error":   "failed to fetch order book",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"order_book": book,
			"fees":       adapter.TradingFees(),
		},
	})
}

// Coins handles GET /api/arbitrage/coins.
func (h *ArbitrageHandler) Coins(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"presets": h.cfg.Presets,
		},
	})
}

// Exchanges handles GET /api/exchanges.
func (h *ArbitrageHandler) Exchanges(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"exchanges": h.calc.Exchanges(),
		},
	})
}

// symbolList resolves an explicit comma-separated symbols parameter, falling
// back to the named preset.
func (h *ArbitrageHandler) symbolList(c fiber.Ctx) ([]string, string) {
	if raw := c.Query("symbols"); raw != "" {
		return splitSymbols(raw), "custom"
	}
	preset := c.Query("preset", "all")
	return h.cfg.Preset(preset), preset
}

// analysisError maps calculator and scanner errors onto HTTP statuses:
// invalid input is the caller's fault, insufficient data means upstream
// exchanges are not cooperating right now.
func analysisError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, arbitrage.ErrInvalidAmount),
		errors.Is(err, arbitrage.ErrInvalidSymbol),
		errors.Is(err, scanner.ErrInvalidAmount),
		errors.Is(err, scanner.ErrNoSymbols):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	case errors.Is(err, arbitrage.ErrInsufficientData):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	default:
		log.Error().Err(err).Msg("analysis failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "analysis failed",
		})
	}
}

func splitSymbols(raw string) []string {
	var symbols []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.ToUpper(strings.TrimSpace(part)); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}
