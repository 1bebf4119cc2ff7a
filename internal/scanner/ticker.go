package scanner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"spreadhunter/internal/exchange"
	"spreadhunter/internal/models"
)

// tickerWithFees joins one exchange's quote with its fee schedule for the
// pairwise spread pass.
type tickerWithFees struct {
	ticker *models.Ticker
	fees   models.TradingFees
}

// TickerScan compares best bid/ask across exchanges for each symbol, with
// three fee scenarios per pair. It never touches order-book depth; it exists
// as a fast pre-filter for symbols worth a full depth analysis.
func (s *Scanner) TickerScan(ctx context.Context, symbols []string) (*models.TickerSpreadScan, error) {
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}

	start := time.Now()
	s.warmUp(ctx)

	var results []models.TickerSpreadResult
	err := s.inBatches(ctx, symbols, s.cfg.TickerBatchSize, s.cfg.TickerBatchDelay, func(batch []string) {
		batchResults := make([]*models.TickerSpreadResult, len(batch))

		var wg sync.WaitGroup
		for i, symbol := range batch {
			wg.Add(1)
			go func(i int, symbol string) {
				defer wg.Done()
				batchResults[i] = s.scanSymbolSpread(ctx, symbol)
			}(i, symbol)
		}
		wg.Wait()

		for _, r := range batchResults {
			if r != nil {
				results = append(results, *r)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return bestGross(results[i]) > bestGross(results[j])
	})

	scan := &models.TickerSpreadScan{
		Timestamp:      time.Now(),
		ScanDurationMS: time.Since(start).Milliseconds(),
		SymbolsScanned: len(symbols),
		Results:        results,
	}
	for _, r := range results {
		if r.ExchangeCount >= 2 {
			scan.SymbolsWithData++
		}
		if r.BestSpread != nil {
			if r.BestSpread.MakerFees.Percent > 0 {
				scan.ProfitableWithMaker++
			}
			if r.BestSpread.TakerFees.Percent > 0 {
				scan.ProfitableWithTaker++
			}
			if r.BestSpread.GrossSpreadPercent > 0 && len(scan.TopOpportunities) < s.cfg.TopN {
				scan.TopOpportunities = append(scan.TopOpportunities, r)
			}
		}
	}
	return scan, nil
}

// scanSymbolSpread fetches tickers from every adapter concurrently and runs
// the pairwise spread comparison. Returns nil when fewer than two exchanges
// quoted the symbol.
func (s *Scanner) scanSymbolSpread(ctx context.Context, symbol string) *models.TickerSpreadResult {
	fetched := make(chan *tickerWithFees, len(s.exchanges))

	var wg sync.WaitGroup
	for _, ex := range s.exchanges {
		wg.Add(1)
		go func(ex exchange.Adapter) {
			defer wg.Done()

			ticker, err := ex.FetchTicker(ctx, symbol)
			if err != nil {
				log.Debug().Err(err).Str("exchange", ex.ID()).Str("symbol", symbol).
					Msg("ticker fetch failed, skipping")
				fetched <- nil
				return
			}
			if ticker.Bid <= 0 || ticker.Ask <= 0 {
				fetched <- nil
				return
			}
			fetched <- &tickerWithFees{ticker: ticker, fees: ex.TradingFees()}
		}(ex)
	}

	go func() {
		wg.Wait()
		close(fetched)
	}()

	var tickers []tickerWithFees
	for t := range fetched {
		if t != nil {
			tickers = append(tickers, *t)
		}
	}

	if len(tickers) < 2 {
		return nil
	}

	sort.Slice(tickers, func(i, j int) bool {
		return tickers[i].ticker.ExchangeID < tickers[j].ticker.ExchangeID
	})

	spreads := crossSpreads(tickers)
	sort.SliceStable(spreads, func(i, j int) bool {
		return spreads[i].GrossSpreadPercent > spreads[j].GrossSpreadPercent
	})

	result := &models.TickerSpreadResult{
		Symbol:        symbol,
		ExchangeCount: len(tickers),
		AllSpreads:    spreads,
	}
	if len(spreads) > 0 {
		result.BestSpread = &spreads[0]
	}
	for _, sp := range spreads {
		if sp.GrossSpreadPercent > 0 {
			result.PositiveSpreads++
		}
	}
	for _, t := range tickers {
		result.Tickers = append(result.Tickers, models.TickerQuote{
			Exchange:   t.ticker.ExchangeName,
			ExchangeID: t.ticker.ExchangeID,
			Bid:        t.ticker.Bid,
			Ask:        t.ticker.Ask,
			Spread:     (t.ticker.Ask - t.ticker.Bid) / t.ticker.Bid * 100,
			Volume:     t.ticker.Volume,
			MakerFee:   t.fees.Maker,
			TakerFee:   t.fees.Taker,
		})
	}
	return result
}

// crossSpreads evaluates every ordered exchange pair under the three fee
// assumptions. This is a pure function of the quotes; no hidden state.
func crossSpreads(tickers []tickerWithFees) []models.SpreadOpportunity {
	var spreads []models.SpreadOpportunity
	for _, buy := range tickers {
		for _, sell := range tickers {
			if buy.ticker.ExchangeID == sell.ticker.ExchangeID {
				continue
			}

			// Buy at the ask on one exchange, sell at the bid on the other.
			buyPrice := buy.ticker.Ask
			sellPrice := sell.ticker.Bid
			grossPct := (sellPrice - buyPrice) / buyPrice * 100

			makerFeePct := (buy.fees.Maker + sell.fees.Maker) * 100
			takerFeePct := (buy.fees.Taker + sell.fees.Taker) * 100
			hybridFeePct := (buy.fees.Maker + sell.fees.Taker) * 100

			makerNet := grossPct - makerFeePct
			takerNet := grossPct - takerFeePct
			hybridNet := grossPct - hybridFeePct

			spreads = append(spreads, models.SpreadOpportunity{
				BuyExchange:        buy.ticker.ExchangeName,
				BuyExchangeID:      buy.ticker.ExchangeID,
				SellExchange:       sell.ticker.ExchangeName,
				SellExchangeID:     sell.ticker.ExchangeID,
				BuyPrice:           buyPrice,
				SellPrice:          sellPrice,
				GrossSpreadPercent: grossPct,
				MakerFees: models.FeeScenario{
					Percent:    makerNet,
					FeePercent: makerFeePct,
					Label:      "Both limit orders (maker+maker)",
				},
				TakerFees: models.FeeScenario{
					Percent:    takerNet,
					FeePercent: takerFeePct,
					Label:      "Both market orders (taker+taker)",
				},
				HybridFees: models.FeeScenario{
					Percent:    hybridNet,
					FeePercent: hybridFeePct,
					Label:      "Limit buy + market sell (maker+taker)",
				},
				ProfitableMaker: makerNet > 0,
				ProfitableTaker: takerNet > 0,
				ProfitPer1000USD: models.ProfitPer1000{
					WithMakerFees:  makerNet * 10,
					WithTakerFees:  takerNet * 10,
					WithHybridFees: hybridNet * 10,
				},
			})
		}
	}
	return spreads
}

func bestGross(r models.TickerSpreadResult) float64 {
	if r.BestSpread == nil {
		return negInf
	}
	return r.BestSpread.GrossSpreadPercent
}
