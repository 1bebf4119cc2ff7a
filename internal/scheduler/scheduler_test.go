package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spreadhunter/config"
	"spreadhunter/internal/arbitrage"
	"spreadhunter/internal/exchange"
	"spreadhunter/internal/models"
	"spreadhunter/internal/scanner"
)

type quoteAdapter struct {
	id  string
	bid float64
	ask float64
}

func (a *quoteAdapter) ID() string                       { return a.id }
func (a *quoteAdapter) Name() string                     { return a.id }
func (a *quoteAdapter) IsAvailable(context.Context) bool { return true }

func (a *quoteAdapter) TradingFees() models.TradingFees {
	return models.TradingFees{Maker: 0.001, Taker: 0.001, Percentage: true}
}

func (a *quoteAdapter) FetchTicker(_ context.Context, symbol string) (*models.Ticker, error) {
	return &models.Ticker{
		Symbol:     symbol,
		ExchangeID: a.id,
		Bid:        a.bid,
		Ask:        a.ask,
		Last:       a.bid,
		Timestamp:  time.Now(),
	}, nil
}

func (a *quoteAdapter) FetchOrderBook(context.Context, string, int) (*models.OrderBook, error) {
	return nil, context.DeadlineExceeded
}

func TestScheduler_RefreshAndStop(t *testing.T) {
	cfg := config.ScannerConfig{
		FillTolerance:    0.9,
		MinProfitPercent: 0.01,
		TickerBatchSize:  5,
		TickerBatchDelay: time.Millisecond,
		TopN:             10,
	}
	adapters := []exchange.Adapter{
		&quoteAdapter{id: "alpha", bid: 99.9, ask: 100},
		&quoteAdapter{id: "beta", bid: 103, ask: 103.1},
	}
	sc := scanner.New(adapters, arbitrage.NewCalculator(adapters, cfg), cfg)

	sched := New(sc, []string{"BTC/USDT"}, time.Hour)
	assert.Nil(t, sched.Latest())

	sched.Start(context.Background())
	defer sched.Stop()

	// The first refresh runs immediately; wait for the cache to fill.
	require.Eventually(t, func() bool {
		return sched.Latest() != nil
	}, 2*time.Second, 10*time.Millisecond)

	latest := sched.Latest()
	assert.Equal(t, 1, latest.SymbolsScanned)
	assert.Equal(t, 1, latest.SymbolsWithData)
	require.Len(t, latest.Results, 1)
	assert.NotNil(t, latest.Results[0].BestSpread)
}
