package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"spreadhunter/internal/arbitrage"
	"spreadhunter/internal/ledger"
	"spreadhunter/internal/models"
)

// LedgerHandler serves the simulate and P&L dashboard endpoints.
type LedgerHandler struct {
	calc   *arbitrage.Calculator
	ledger *ledger.Ledger
}

func NewLedgerHandler(calc *arbitrage.Calculator, led *ledger.Ledger) *LedgerHandler {
	return &LedgerHandler{calc: calc, ledger: led}
}

type simulateRequest struct {
	Symbol string  `json:"symbol"`
	Amount float64 `json:"amount"`
	UserID string  `json:"user_id"`
}

// Simulate handles POST /api/arbitrage/simulate. It runs a fresh analysis
// and records the best profitable opportunity as a simulated trade; finding
// nothing profitable is a legitimate outcome, reported as 404.
func (h *LedgerHandler) Simulate(c fiber.Ctx) error {
	req := simulateRequest{Symbol: defaultSymbol, Amount: 1}
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}

	result, err := h.calc.Analyze(c.Context(), req.Symbol, req.Amount)
	if err != nil {
		return analysisError(c, err)
	}

	if result.Best == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "no profitable arbitrage opportunity found",
		})
	}

	trade := h.ledger.RecordSimulatedTrade(req.Symbol, *result.Best, req.UserID)
	log.Info().
		Str("trade_id", trade.ID).
		Str("symbol", trade.Symbol).
		Float64("net_profit", trade.Opportunity.NetProfit).
		Msg("trade simulated")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"trade":   trade,
			"message": "trade simulated successfully",
		},
	})
}

// Execute handles POST /api/arbitrage/trades/:id/execute, advancing a
// simulated trade to executed status.
func (h *LedgerHandler) Execute(c fiber.Ctx) error {
	trade, err := h.ledger.MarkExecuted(c.Params("id"))
	switch {
	case errors.Is(err, ledger.ErrTradeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	case errors.Is(err, ledger.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to execute trade",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"trade": trade},
	})
}

// History handles GET /api/arbitrage/history.
func (h *LedgerHandler) History(c fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid limit parameter",
		})
	}

	trades := h.ledger.Trades(ledger.TradeFilter{
		UserID: c.Query("user_id"),
		Status: models.TradeStatus(c.Query("status")),
		Limit:  limit,
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"trades":               trades,
			"recent_opportunities": h.ledger.RecentOpportunities(limit),
			"total_trades":         len(trades),
		},
	})
}

// PLSummary handles GET /api/arbitrage/pl-summary.
func (h *LedgerHandler) PLSummary(c fiber.Ctx) error {
	summary := h.ledger.Summary(c.Query("user_id"))
	last24h := h.ledger.Statistics(24 * time.Hour)
	last7d := h.ledger.Statistics(7 * 24 * time.Hour)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"overall": summary,
			"periods": fiber.Map{
				"last_24h": last24h,
				"last_7d":  last7d,
			},
		},
	})
}
