package arbitrage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"spreadhunter/config"
	"spreadhunter/internal/exchange"
	"spreadhunter/internal/models"
)

var (
	// ErrInvalidAmount rejects non-positive trade amounts before any
	// network call is issued.
	ErrInvalidAmount = errors.New("trade amount must be positive")
	// ErrInvalidSymbol rejects empty symbols before any network call.
	ErrInvalidSymbol = errors.New("symbol must not be empty")
	// ErrInsufficientData means fewer than two exchanges produced a usable
	// order book for the symbol this cycle.
	ErrInsufficientData = errors.New("not enough exchange data for arbitrage analysis")
)

// Calculator evaluates depth-based arbitrage across a fixed set of adapters.
type Calculator struct {
	exchanges []exchange.Adapter
	cfg       config.ScannerConfig
}

// exchangeBook pairs an adapter with the order book and fee schedule fetched
// for one analysis cycle.
type exchangeBook struct {
	adapter exchange.Adapter
	book    *models.OrderBook
	fees    models.TradingFees
}

func NewCalculator(exchanges []exchange.Adapter, cfg config.ScannerConfig) *Calculator {
	return &Calculator{exchanges: exchanges, cfg: cfg}
}

// Exchanges returns the display names of the configured adapters.
func (c *Calculator) Exchanges() []string {
	names := make([]string, 0, len(c.exchanges))
	for _, ex := range c.exchanges {
		names = append(names, ex.Name())
	}
	return names
}

// Adapter looks up a configured adapter by id.
func (c *Calculator) Adapter(id string) (exchange.Adapter, bool) {
	for _, ex := range c.exchanges {
		if ex.ID() == id {
			return ex, true
		}
	}
	return nil, false
}

// Analyze fetches order books from every adapter concurrently and evaluates
// every ordered exchange pair for the symbol and trade amount. A single
// failing adapter just contributes no data; only the aggregate "fewer than
// two books" condition is an error.
func (c *Calculator) Analyze(ctx context.Context, symbol string, amount float64) (*models.ArbitrageResult, error) {
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	books := c.fetchBooks(ctx, symbol)
	if len(books) < 2 {
		return nil, fmt.Errorf("%w: symbol %s, %d exchange(s) responded", ErrInsufficientData, symbol, len(books))
	}

	opportunities := c.findOpportunities(books, amount)

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].NetProfitPercentage > opportunities[j].NetProfitPercentage
	})

	var best *models.ArbitrageCalculation
	profitable := 0
	spreadSum := 0.0
	for i := range opportunities {
		spreadSum += opportunities[i].NetProfitPercentage
		if opportunities[i].IsProfitable {
			profitable++
			if best == nil {
				best = &opportunities[i]
			}
		}
	}

	summary := models.ArbitrageSummary{
		TotalOpportunities:      len(opportunities),
		ProfitableOpportunities: profitable,
	}
	if best != nil {
		summary.BestNetProfitPercentage = best.NetProfitPercentage
	}
	if len(opportunities) > 0 {
		summary.AverageSpread = spreadSum / float64(len(opportunities))
	}

	orderBooks := make([]*models.OrderBook, 0, len(books))
	for _, b := range books {
		orderBooks = append(orderBooks, b.book)
	}

	return &models.ArbitrageResult{
		Timestamp:     time.Now(),
		Symbol:        symbol,
		OrderBooks:    orderBooks,
		Opportunities: opportunities,
		Best:          best,
		Summary:       summary,
	}, nil
}

// fetchBooks fans out one order-book fetch per adapter and gathers whatever
// settled successfully. The result is sorted by exchange id so downstream
// pair evaluation is deterministic.
func (c *Calculator) fetchBooks(ctx context.Context, symbol string) []exchangeBook {
	results := make(chan *exchangeBook, len(c.exchanges))

	var wg sync.WaitGroup
	for _, ex := range c.exchanges {
		wg.Add(1)
		go func(ex exchange.Adapter) {
			defer wg.Done()

			if !ex.IsAvailable(ctx) {
				log.Warn().Str("exchange", ex.ID()).Msg("exchange unavailable, skipping")
				results <- nil
				return
			}

			book, err := ex.FetchOrderBook(ctx, symbol, c.cfg.BookDepth)
			if err != nil {
				log.Warn().Err(err).Str("exchange", ex.ID()).Str("symbol", symbol).
					Msg("order book fetch failed, skipping")
				results <- nil
				return
			}

			results <- &exchangeBook{adapter: ex, book: book, fees: ex.TradingFees()}
		}(ex)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var books []exchangeBook
	for result := range results {
		if result != nil {
			books = append(books, *result)
		}
	}

	sort.Slice(books, func(i, j int) bool {
		return books[i].adapter.ID() < books[j].adapter.ID()
	})
	return books
}

// findOpportunities runs the O(E^2) ordered-pair comparison. E is single
// digits, so the quadratic cost is noise next to the network round-trips.
func (c *Calculator) findOpportunities(books []exchangeBook, amount float64) []models.ArbitrageCalculation {
	opportunities := make([]models.ArbitrageCalculation, 0, len(books)*(len(books)-1))
	for i := range books {
		for j := range books {
			if i == j {
				continue
			}
			if calc, ok := c.calculatePair(books[i], books[j], amount); ok {
				opportunities = append(opportunities, calc)
			}
		}
	}
	return opportunities
}

// calculatePair prices buying amount on buy's asks and selling it on sell's
// bids. Both legs are assumed to execute as market orders, so taker fees
// apply. Returns ok=false when either book lacks the depth for the amount.
func (c *Calculator) calculatePair(buy, sell exchangeBook, amount float64) (models.ArbitrageCalculation, bool) {
	buyFill, ok := ExecutionPrice(buy.book.Asks, amount, c.cfg.FillTolerance)
	if !ok {
		return models.ArbitrageCalculation{}, false
	}
	sellFill, ok := ExecutionPrice(sell.book.Bids, amount, c.cfg.FillTolerance)
	if !ok {
		return models.ArbitrageCalculation{}, false
	}

	buyPrice := buyFill.WeightedAvgPrice
	sellPrice := sellFill.WeightedAvgPrice

	totalCost := buyPrice * amount
	grossRevenue := sellPrice * amount
	grossProfit := grossRevenue - totalCost

	buyFee := totalCost * buy.fees.Taker
	sellFee := grossRevenue * sell.fees.Taker
	totalFees := buyFee + sellFee

	// Slippage is measured against the best level on each side.
	bestAsk := buy.book.Asks[0].Price
	bestBid := sell.book.Bids[0].Price
	buySlippage := math.Abs(buyPrice-bestAsk) * amount
	sellSlippage := math.Abs(sellPrice-bestBid) * amount

	netProfit := grossProfit - totalFees
	netProfitPct := (netProfit / totalCost) * 100

	return models.ArbitrageCalculation{
		BuyExchange:    buy.adapter.Name(),
		BuyExchangeID:  buy.adapter.ID(),
		SellExchange:   sell.adapter.Name(),
		SellExchangeID: sell.adapter.ID(),
		BuyPrice:       buyPrice,
		SellPrice:      sellPrice,
		Amount:         amount,
		GrossProfit:    grossProfit,
		TradingFees: models.FeeBreakdown{
			BuyFee:  buyFee,
			SellFee: sellFee,
			Total:   totalFees,
		},
		Slippage: models.SlippageBreakdown{
			BuySlippage:  buySlippage,
			SellSlippage: sellSlippage,
			Total:        buySlippage + sellSlippage,
		},
		NetProfit:           netProfit,
		NetProfitPercentage: netProfitPct,
		IsProfitable:        netProfit > 0 && netProfitPct >= c.cfg.MinProfitPercent,
		OrderBookDepth: models.DepthInfo{
			BuyExchangeAskDepth:  buy.book.Asks[len(buy.book.Asks)-1].Total,
			SellExchangeBidDepth: sell.book.Bids[len(sell.book.Bids)-1].Total,
		},
	}, true
}
