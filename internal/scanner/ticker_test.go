package scanner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spreadhunter/internal/arbitrage"
	"spreadhunter/internal/exchange"
	"spreadhunter/internal/models"
)

func tickerScanner() *Scanner {
	alpha := &fakeAdapter{
		id:   "alpha",
		fees: models.TradingFees{Maker: 0.001, Taker: 0.002, Percentage: true},
		tickers: map[string]models.Ticker{
			"BTC/USDT": tick("alpha", "BTC/USDT", 100.4, 100.5, 100.45),
			"DOG/USDT": tick("alpha", "DOG/USDT", 0.10, 0.11, 0.105),
		},
	}
	beta := &fakeAdapter{
		id:   "beta",
		fees: models.TradingFees{Maker: 0, Taker: 0.0005, Percentage: true},
		tickers: map[string]models.Ticker{
			"BTC/USDT": tick("beta", "BTC/USDT", 101.5, 101.6, 101.55),
		},
	}
	adapters := []exchange.Adapter{alpha, beta}
	cfg := fastCfg()
	return New(adapters, arbitrage.NewCalculator(adapters, cfg), cfg)
}

func TestScanner_TickerScan(t *testing.T) {
	t.Run("three fee scenarios on a real spread", func(t *testing.T) {
		scan, err := tickerScanner().TickerScan(context.Background(), []string{"BTC/USDT"})
		require.NoError(t, err)

		require.Len(t, scan.Results, 1)
		r := scan.Results[0]
		assert.Equal(t, 2, r.ExchangeCount)
		require.NotNil(t, r.BestSpread)

		best := r.BestSpread
		assert.Equal(t, "alpha", best.BuyExchangeID)
		assert.Equal(t, "beta", best.SellExchangeID)
		assert.InDelta(t, 100.5, best.BuyPrice, 1e-9)
		assert.InDelta(t, 101.5, best.SellPrice, 1e-9)

		gross := (101.5 - 100.5) / 100.5 * 100
		assert.InDelta(t, gross, best.GrossSpreadPercent, 1e-9)

		// alpha maker 0.1%, beta maker 0%; alpha taker 0.2%, beta taker 0.05%.
		assert.InDelta(t, gross-0.1, best.MakerFees.Percent, 1e-9)
		assert.InDelta(t, gross-0.25, best.TakerFees.Percent, 1e-9)
		assert.InDelta(t, gross-0.15, best.HybridFees.Percent, 1e-9)
		assert.True(t, best.ProfitableMaker)
		assert.True(t, best.ProfitableTaker)

		// Net percent times 10 is the dollar estimate per $1000.
		assert.InDelta(t, best.MakerFees.Percent*10, best.ProfitPer1000USD.WithMakerFees, 1e-9)
		assert.InDelta(t, best.TakerFees.Percent*10, best.ProfitPer1000USD.WithTakerFees, 1e-9)
		assert.InDelta(t, best.HybridFees.Percent*10, best.ProfitPer1000USD.WithHybridFees, 1e-9)

		assert.Equal(t, 1, scan.ProfitableWithMaker)
		assert.Equal(t, 1, scan.ProfitableWithTaker)
		require.Len(t, scan.TopOpportunities, 1)
	})

	t.Run("single quoting exchange drops the symbol", func(t *testing.T) {
		scan, err := tickerScanner().TickerScan(context.Background(), []string{"DOG/USDT"})
		require.NoError(t, err)

		assert.Empty(t, scan.Results)
		assert.Equal(t, 1, scan.SymbolsScanned)
		assert.Zero(t, scan.SymbolsWithData)
	})

	t.Run("identical inputs give identical spreads", func(t *testing.T) {
		s := tickerScanner()
		first, err := s.TickerScan(context.Background(), []string{"BTC/USDT", "DOG/USDT"})
		require.NoError(t, err)
		second, err := s.TickerScan(context.Background(), []string{"BTC/USDT", "DOG/USDT"})
		require.NoError(t, err)

		assert.Equal(t, first.Results, second.Results)
		assert.Equal(t, first.TopOpportunities, second.TopOpportunities)
	})

	t.Run("empty symbol list rejected", func(t *testing.T) {
		_, err := tickerScanner().TickerScan(context.Background(), nil)
		assert.ErrorIs(t, err, ErrNoSymbols)
	})
}
