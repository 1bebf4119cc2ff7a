// Package scanner orchestrates the arbitrage calculators over many symbols
// in bounded-size concurrent batches, with pacing between batches to stay
// under aggregate exchange rate limits.
package scanner

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"spreadhunter/config"
	"spreadhunter/internal/arbitrage"
	"spreadhunter/internal/exchange"
	"spreadhunter/internal/models"
)

var negInf = math.Inf(-1)

var (
	// ErrNoSymbols rejects an empty symbol list before any network call.
	ErrNoSymbols = errors.New("symbol list must not be empty")
	// ErrInvalidAmount rejects a non-positive USD notional.
	ErrInvalidAmount = errors.New("trade amount must be positive")
)

// Scanner runs ticker and depth scans across the configured exchanges.
type Scanner struct {
	exchanges []exchange.Adapter
	calc      *arbitrage.Calculator
	cfg       config.ScannerConfig
}

func New(exchanges []exchange.Adapter, calc *arbitrage.Calculator, cfg config.ScannerConfig) *Scanner {
	return &Scanner{exchanges: exchanges, calc: calc, cfg: cfg}
}

// Scan runs the depth-based calculator over each symbol, sizing each trade
// from a USD notional via the first available ticker. Per-symbol failures
// keep their slot as zero-result entries so a partial scan still reports
// everything that succeeded.
func (s *Scanner) Scan(ctx context.Context, symbols []string, amountUSD float64) (*models.MultiSymbolScan, error) {
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}
	if amountUSD <= 0 {
		return nil, ErrInvalidAmount
	}

	start := time.Now()
	s.warmUp(ctx)

	var results []models.SymbolScanResult
	err := s.inBatches(ctx, symbols, s.cfg.BookBatchSize, s.cfg.BookBatchDelay, func(batch []string) {
		batchResults := make([]models.SymbolScanResult, len(batch))

		var wg sync.WaitGroup
		for i, symbol := range batch {
			wg.Add(1)
			go func(i int, symbol string) {
				defer wg.Done()
				batchResults[i] = s.scanSymbol(ctx, symbol, amountUSD)
			}(i, symbol)
		}
		wg.Wait()

		results = append(results, batchResults...)
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return bestNetPct(results[i]) > bestNetPct(results[j])
	})

	scan := &models.MultiSymbolScan{
		Timestamp:      time.Now(),
		ScanDurationMS: time.Since(start).Milliseconds(),
		SymbolsScanned: len(symbols),
		Results:        results,
	}
	for _, r := range results {
		if r.ExchangesResponded >= 2 {
			scan.SymbolsWithData++
		}
		if r.Best != nil && r.Best.IsProfitable {
			scan.ProfitableSymbols++
		}
		if r.Best != nil && len(scan.TopOpportunities) < s.cfg.TopN {
			scan.TopOpportunities = append(scan.TopOpportunities, r)
		}
	}
	return scan, nil
}

// scanSymbol converts the notional to a base amount and runs one depth
// analysis. Failures degrade to a zero-result entry, never an aborted scan.
func (s *Scanner) scanSymbol(ctx context.Context, symbol string, amountUSD float64) models.SymbolScanResult {
	result := models.SymbolScanResult{
		Symbol:         symbol,
		TradeAmountUSD: amountUSD,
	}

	amount := s.baseAmount(ctx, symbol, amountUSD)
	result.TradeAmountBase = amount

	analysis, err := s.calc.Analyze(ctx, symbol, amount)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("symbol analysis failed")
		result.TradeAmountBase = 0
		result.Error = err.Error()
		return result
	}

	result.ExchangesResponded = len(analysis.OrderBooks)
	result.TotalOpportunities = len(analysis.Opportunities)
	result.Profitable = analysis.Summary.ProfitableOpportunities
	if len(analysis.Opportunities) > 0 {
		// Already sorted by net profit percentage descending.
		result.Best = &analysis.Opportunities[0]
	}
	return result
}

// baseAmount estimates the base-currency amount worth amountUSD using the
// first exchange that quotes a last price. Falls back to 1 unit when no
// ticker is available; the analysis will then fail with its own error.
func (s *Scanner) baseAmount(ctx context.Context, symbol string, amountUSD float64) float64 {
	for _, ex := range s.exchanges {
		ticker, err := ex.FetchTicker(ctx, symbol)
		if err != nil {
			continue
		}
		if ticker.Last > 0 {
			return amountUSD / ticker.Last
		}
	}
	return 1
}

// warmUp probes every adapter concurrently so market caches are loaded once
// per scan rather than once per symbol.
func (s *Scanner) warmUp(ctx context.Context) {
	var wg sync.WaitGroup
	for _, ex := range s.exchanges {
		wg.Add(1)
		go func(ex exchange.Adapter) {
			defer wg.Done()
			ex.IsAvailable(ctx)
		}(ex)
	}
	wg.Wait()
}

// inBatches walks symbols in fixed-size chunks, invoking process for each,
// and sleeps the pacing delay between chunks. The delay is a static
// backpressure mechanism; exchange rate limits are external state this
// system cannot observe.
func (s *Scanner) inBatches(ctx context.Context, symbols []string, size int, delay time.Duration, process func([]string)) error {
	if size <= 0 {
		size = 1
	}
	for i := 0; i < len(symbols); i += size {
		end := i + size
		if end > len(symbols) {
			end = len(symbols)
		}
		process(symbols[i:end])

		if end < len(symbols) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil
}

func bestNetPct(r models.SymbolScanResult) float64 {
	if r.Best == nil {
		return negInf
	}
	return r.Best.NetProfitPercentage
}
