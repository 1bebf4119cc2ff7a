package exchange

import (
	"context"

	"spreadhunter/internal/models"
)

// Adapter normalizes one exchange into the capability set the calculators
// need. Concrete adapters wrap a specific exchange API and are otherwise
// interchangeable; nothing downstream may special-case an exchange by name.
//
// All fetch methods may fail (exchange down, symbol not listed, timeout).
// Callers treat a failure as "this exchange contributes no data this cycle",
// never as a fatal error.
type Adapter interface {
	// ID is the stable lowercase identifier, e.g. "binance".
	ID() string
	// Name is the display name, e.g. "Binance".
	Name() string
	// IsAvailable probes the exchange. The result may be cached briefly so
	// scans don't re-probe per symbol.
	IsAvailable(ctx context.Context) bool
	FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error)
	FetchOrderBook(ctx context.Context, symbol string, limit int) (*models.OrderBook, error)
	TradingFees() models.TradingFees
}
