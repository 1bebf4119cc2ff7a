package models

import "time"

// Ticker is a best bid/ask snapshot for one symbol on one exchange.
type Ticker struct {
	Symbol       string    `json:"symbol"`
	ExchangeName string    `json:"exchange"`
	ExchangeID   string    `json:"exchange_id"`
	Bid          float64   `json:"bid"`
	Ask          float64   `json:"ask"`
	Last         float64   `json:"last"`
	Volume       float64   `json:"volume"` // 24h base volume
	Timestamp    time.Time `json:"timestamp"`
}

// OrderBookLevel is a single price level. Total is the cumulative base amount
// from the top of the book through this level, filled in during normalization.
type OrderBookLevel struct {
	Price  float64 `json:"price"`
	Amount float64 `json:"amount"`
	Total  float64 `json:"total"`
}

// OrderBook is an immutable depth snapshot. Bids are sorted by price
// descending, asks ascending. Depth is bounded by the fetch limit; liquidity
// beyond the fetched levels is unknown, not zero.
type OrderBook struct {
	Symbol       string           `json:"symbol"`
	ExchangeName string           `json:"exchange"`
	ExchangeID   string           `json:"exchange_id"`
	Bids         []OrderBookLevel `json:"bids"`
	Asks         []OrderBookLevel `json:"asks"`
	Timestamp    time.Time        `json:"timestamp"`
	Nonce        int64            `json:"nonce,omitempty"`
}

// TradingFees holds an exchange's fee schedule as fractional rates
// (0.001 = 0.1%).
type TradingFees struct {
	Maker      float64 `json:"maker"`
	Taker      float64 `json:"taker"`
	Percentage bool    `json:"percentage"`
}

// FeeBreakdown itemizes the cost of both legs of a trade.
type FeeBreakdown struct {
	BuyFee  float64 `json:"buy_fee"`
	SellFee float64 `json:"sell_fee"`
	Total   float64 `json:"total"`
}

// SlippageBreakdown reports the cost of walking past the best level on each side.
type SlippageBreakdown struct {
	BuySlippage  float64 `json:"buy_slippage"`
	SellSlippage float64 `json:"sell_slippage"`
	Total        float64 `json:"total"`
}

// DepthInfo reports the total visible base amount on the side of the book each
// leg would execute against.
type DepthInfo struct {
	BuyExchangeAskDepth  float64 `json:"buy_exchange_ask_depth"`
	SellExchangeBidDepth float64 `json:"sell_exchange_bid_depth"`
}

// ArbitrageCalculation is one evaluated buy-exchange/sell-exchange pair for a
// symbol and trade amount. Prices are volume-weighted fill prices, not
// top-of-book quotes. NetProfit subtracts fees only; slippage is already baked
// into the weighted prices and reported separately for transparency.
type ArbitrageCalculation struct {
	BuyExchange         string            `json:"buy_exchange"`
	BuyExchangeID       string            `json:"buy_exchange_id"`
	SellExchange        string            `json:"sell_exchange"`
	SellExchangeID      string            `json:"sell_exchange_id"`
	BuyPrice            float64           `json:"buy_price"`
	SellPrice           float64           `json:"sell_price"`
	Amount              float64           `json:"amount"`
	GrossProfit         float64           `json:"gross_profit"`
	TradingFees         FeeBreakdown      `json:"trading_fees"`
	Slippage            SlippageBreakdown `json:"slippage"`
	NetProfit           float64           `json:"net_profit"`
	NetProfitPercentage float64           `json:"net_profit_percentage"`
	IsProfitable        bool              `json:"is_profitable"`
	OrderBookDepth      DepthInfo         `json:"order_book_depth"`
}

// ArbitrageResult is the envelope returned by one depth-based analysis of a
// single symbol.
type ArbitrageResult struct {
	Timestamp     time.Time              `json:"timestamp"`
	Symbol        string                 `json:"symbol"`
	OrderBooks    []*OrderBook           `json:"order_books"`
	Opportunities []ArbitrageCalculation `json:"opportunities"`
	Best          *ArbitrageCalculation  `json:"best_opportunity"`
	Summary       ArbitrageSummary       `json:"summary"`
}

type ArbitrageSummary struct {
	TotalOpportunities      int     `json:"total_opportunities"`
	ProfitableOpportunities int     `json:"profitable_opportunities"`
	BestNetProfitPercentage float64 `json:"best_net_profit_percentage"`
	AverageSpread           float64 `json:"average_spread"`
}

// FeeScenario is one fee assumption applied to a raw spread.
type FeeScenario struct {
	Percent    float64 `json:"percent"`
	FeePercent float64 `json:"fee_percent"`
	Label      string  `json:"label"`
}

// ProfitPer1000 estimates USD profit per $1000 notional under each scenario.
type ProfitPer1000 struct {
	WithMakerFees  float64 `json:"with_maker_fees"`
	WithTakerFees  float64 `json:"with_taker_fees"`
	WithHybridFees float64 `json:"with_hybrid_fees"`
}

// SpreadOpportunity is a ticker-based cross-exchange spread with three fee
// scenarios. No depth walk, no slippage.
type SpreadOpportunity struct {
	BuyExchange        string        `json:"buy_exchange"`
	BuyExchangeID      string        `json:"buy_exchange_id"`
	SellExchange       string        `json:"sell_exchange"`
	SellExchangeID     string        `json:"sell_exchange_id"`
	BuyPrice           float64       `json:"buy_price"`
	SellPrice          float64       `json:"sell_price"`
	GrossSpreadPercent float64       `json:"gross_spread_percent"`
	MakerFees          FeeScenario   `json:"net_profit_with_maker_fees"`
	TakerFees          FeeScenario   `json:"net_profit_with_taker_fees"`
	HybridFees         FeeScenario   `json:"net_profit_hybrid"`
	ProfitableMaker    bool          `json:"is_profitable_with_maker"`
	ProfitableTaker    bool          `json:"is_profitable_with_taker"`
	ProfitPer1000USD   ProfitPer1000 `json:"estimated_profit_per_1000_usd"`
}

// TickerQuote is the per-exchange quote echoed back in ticker scan results.
type TickerQuote struct {
	Exchange   string  `json:"exchange"`
	ExchangeID string  `json:"exchange_id"`
	Bid        float64 `json:"bid"`
	Ask        float64 `json:"ask"`
	Spread     float64 `json:"spread"` // own bid/ask spread, percent
	Volume     float64 `json:"volume"`
	MakerFee   float64 `json:"maker_fee"`
	TakerFee   float64 `json:"taker_fee"`
}

// TickerSpreadResult is the per-symbol output of the ticker spread scanner.
type TickerSpreadResult struct {
	Symbol          string              `json:"symbol"`
	ExchangeCount   int                 `json:"exchange_count"`
	Tickers         []TickerQuote       `json:"tickers"`
	BestSpread      *SpreadOpportunity  `json:"best_spread"`
	AllSpreads      []SpreadOpportunity `json:"all_spreads"`
	PositiveSpreads int                 `json:"positive_spreads"`
}

// TickerSpreadScan is the envelope for a whole ticker scan.
type TickerSpreadScan struct {
	Timestamp           time.Time            `json:"timestamp"`
	ScanDurationMS      int64                `json:"scan_duration_ms"`
	SymbolsScanned      int                  `json:"symbols_scanned"`
	SymbolsWithData     int                  `json:"symbols_with_data"`
	ProfitableWithMaker int                  `json:"profitable_with_maker_fees"`
	ProfitableWithTaker int                  `json:"profitable_with_taker_fees"`
	Results             []TickerSpreadResult `json:"results"`
	TopOpportunities    []TickerSpreadResult `json:"top_opportunities"`
}

// SymbolScanResult summarizes one symbol from a multi-symbol depth scan. A
// failed symbol keeps its slot with zero counts and an error string so a
// partially failed scan still reports everything that succeeded.
type SymbolScanResult struct {
	Symbol             string                `json:"symbol"`
	TradeAmountUSD     float64               `json:"trade_amount_usd"`
	TradeAmountBase    float64               `json:"trade_amount_base"`
	ExchangesResponded int                   `json:"exchanges_responded"`
	TotalOpportunities int                   `json:"total_opportunities"`
	Profitable         int                   `json:"profitable_opportunities"`
	Best               *ArbitrageCalculation `json:"best_opportunity"`
	Error              string                `json:"error,omitempty"`
}

// MultiSymbolScan is the envelope for a whole depth-based scan.
type MultiSymbolScan struct {
	Timestamp         time.Time          `json:"timestamp"`
	ScanDurationMS    int64              `json:"scan_duration_ms"`
	SymbolsScanned    int                `json:"symbols_scanned"`
	SymbolsWithData   int                `json:"symbols_with_data"`
	ProfitableSymbols int                `json:"profitable_symbols"`
	Results           []SymbolScanResult `json:"results"`
	TopOpportunities  []SymbolScanResult `json:"top_opportunities"`
}

// TradeStatus is the lifecycle state of a simulated trade. Transitions are
/// monotonic: detected -> simulated -> executed, never backwards.
type TradeStatus string

const (
	TradeDetected  TradeStatus = "detected"
	TradeSimulated TradeStatus = "simulated"
	TradeExecuted  TradeStatus = "executed"
)

func (s TradeStatus) rank() int {
	switch s {
	case TradeDetected:
		return 0
	case TradeSimulated:
		return 1
	case TradeExecuted:
		return 2
	}
	return -1
}

// CanTransitionTo reports whether moving from s to next is a forward step.
func (s TradeStatus) CanTransitionTo(next TradeStatus) bool {
	return next.rank() > s.rank() && s.rank() >= 0
}

// SimulatedTrade is a paper trade recorded against a detected opportunity.
type SimulatedTrade struct {
	ID          string               `json:"id"`
	Timestamp   time.Time            `json:"timestamp"`
	Symbol      string               `json:"symbol"`
	Opportunity ArbitrageCalculation `json:"opportunity"`
	Status      TradeStatus          `json:"status"`
	UserID      string               `json:"user_id,omitempty"`
}

// LoggedOpportunity is one entry in the ledger's opportunity FIFO.
type LoggedOpportunity struct {
	Timestamp   time.Time            `json:"timestamp"`
	Opportunity ArbitrageCalculation `json:"opportunity"`
}

// PLSummary aggregates the simulated-trade history.
type PLSummary struct {
	TotalOpportunitiesDetected int             `json:"total_opportunities_detected"`
	TotalSimulatedTrades       int             `json:"total_simulated_trades"`
	CumulativeProfitUSD        float64         `json:"cumulative_profit_usd"`
	CumulativeProfitPercentage float64         `json:"cumulative_profit_percentage"`
	AverageProfitPerTrade      float64         `json:"average_profit_per_trade"`
	BestTrade                  *SimulatedTrade `json:"best_trade"`
	WorstTrade                 *SimulatedTrade `json:"worst_trade"`
	ProfitableTrades           int             `json:"profitable_trades_count"`
	TotalTrades                int             `json:"total_trades_count"`
	WinRate                    float64         `json:"win_rate"`
}

// PeriodStats restricts the trade aggregates to a trailing time window.
type PeriodStats struct {
	OpportunitiesInPeriod int     `json:"opportunities_in_period"`
	TradesInPeriod        int     `json:"trades_in_period"`
	AvgProfitPercentage   float64 `json:"avg_profit_percentage"`
	TotalProfitUSD        float64 `json:"total_profit_usd"`
}
