package scanner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spreadhunter/config"
	"spreadhunter/internal/arbitrage"
	"spreadhunter/internal/exchange"
	"spreadhunter/internal/models"
)

type fakeAdapter struct {
	id      string
	fees    models.TradingFees
	tickers map[string]models.Ticker
	books   map[string]*models.OrderBook
}

func (f *fakeAdapter) ID() string                       { return f.id }
func (f *fakeAdapter) Name() string                     { return f.id }
func (f *fakeAdapter) TradingFees() models.TradingFees  { return f.fees }
func (f *fakeAdapter) IsAvailable(context.Context) bool { return true }

func (f *fakeAdapter) FetchTicker(_ context.Context, symbol string) (*models.Ticker, error) {
	t, ok := f.tickers[symbol]
	if !ok {
		return nil, fmt.Errorf("%s: symbol %s not listed", f.id, symbol)
	}
	return &t, nil
}

func (f *fakeAdapter) FetchOrderBook(_ context.Context, symbol string, _ int) (*models.OrderBook, error) {
	b, ok := f.books[symbol]
	if !ok {
		return nil, fmt.Errorf("%s: symbol %s not listed", f.id, symbol)
	}
	return b, nil
}

func fastCfg() config.ScannerConfig {
	return config.ScannerConfig{
		FillTolerance:    0.9,
		MinProfitPercent: 0.01,
		BookDepth:        50,
		BookBatchSize:    3,
		BookBatchDelay:   time.Millisecond,
		TickerBatchSize:  5,
		TickerBatchDelay: time.Millisecond,
		TopN:             10,
	}
}

func tick(id, symbol string, bid, ask, last float64) models.Ticker {
	return models.Ticker{
		Symbol:       symbol,
		ExchangeName: id,
		ExchangeID:   id,
		Bid:          bid,
		Ask:          ask,
		Last:         last,
		Volume:       1000,
		Timestamp:    time.Now(),
	}
}

func depthBook(id, symbol string, bid, ask, amount float64) *models.OrderBook {
	return &models.OrderBook{
		Symbol:       symbol,
		ExchangeName: id,
		ExchangeID:   id,
		Bids:         []models.OrderBookLevel{{Price: bid, Amount: amount, Total: amount}},
		Asks:         []models.OrderBookLevel{{Price: ask, Amount: amount, Total: amount}},
	}
}

func newScanner(adapters ...exchange.Adapter) *Scanner {
	cfg := fastCfg()
	return New(adapters, arbitrage.NewCalculator(adapters, cfg), cfg)
}

func TestScanner_Scan(t *testing.T) {
	alpha := &fakeAdapter{
		id:   "alpha",
		fees: models.TradingFees{Maker: 0.001, Taker: 0.001, Percentage: true},
		tickers: map[string]models.Ticker{
			"BTC/USDT": tick("alpha", "BTC/USDT", 99.9, 100, 100),
		},
		books: map[string]*models.OrderBook{
			"BTC/USDT": depthBook("alpha", "BTC/USDT", 99.9, 100, 50),
		},
	}
	beta := &fakeAdapter{
		id:   "beta",
		fees: models.TradingFees{Maker: 0.001, Taker: 0.001, Percentage: true},
		tickers: map[string]models.Ticker{
			"BTC/USDT": tick("beta", "BTC/USDT", 103, 103.1, 103),
		},
		books: map[string]*models.OrderBook{
			"BTC/USDT": depthBook("beta", "BTC/USDT", 103, 103.1, 50),
		},
	}

	t.Run("notional converted via first ticker", func(t *testing.T) {
		scan, err := newScanner(alpha, beta).Scan(context.Background(), []string{"BTC/USDT"}, 1000)
		require.NoError(t, err)

		require.Len(t, scan.Results, 1)
		r := scan.Results[0]
		assert.Empty(t, r.Error)
		assert.InDelta(t, 10, r.TradeAmountBase, 1e-9) // $1000 at last=100
		assert.Equal(t, 2, r.ExchangesResponded)
		require.NotNil(t, r.Best)
		assert.Equal(t, "alpha", r.Best.BuyExchangeID)
		assert.Equal(t, "beta", r.Best.SellExchangeID)
		assert.True(t, r.Best.IsProfitable)
		assert.Equal(t, 1, scan.ProfitableSymbols)
		assert.Equal(t, 1, scan.SymbolsWithData)
	})

	t.Run("failed symbol keeps its slot", func(t *testing.T) {
		scan, err := newScanner(alpha, beta).Scan(context.Background(), []string{"BTC/USDT", "FOO/USDT"}, 1000)
		require.NoError(t, err)

		require.Len(t, scan.Results, 2)
		// Sorted best-first, so the failed symbol comes last.
		good, bad := scan.Results[0], scan.Results[1]
		assert.Equal(t, "BTC/USDT", good.Symbol)
		assert.Equal(t, "FOO/USDT", bad.Symbol)
		assert.NotEmpty(t, bad.Error)
		assert.Zero(t, bad.ExchangesResponded)
		assert.Nil(t, bad.Best)

		require.Len(t, scan.TopOpportunities, 1)
		assert.Equal(t, "BTC/USDT", scan.TopOpportunities[0].Symbol)
	})

	t.Run("empty symbol list rejected", func(t *testing.T) {
		_, err := newScanner(alpha, beta).Scan(context.Background(), nil, 1000)
		assert.ErrorIs(t, err, ErrNoSymbols)
	})

	t.Run("non-positive notional rejected", func(t *testing.T) {
		_, err := newScanner(alpha, beta).Scan(context.Background(), []string{"BTC/USDT"}, 0)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("cancelled context stops between batches", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		symbols := []string{"A/USDT", "B/USDT", "C/USDT", "D/USDT"}
		_, err := newScanner(alpha, beta).Scan(ctx, symbols, 1000)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
