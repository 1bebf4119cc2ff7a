package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"spreadhunter/internal/models"
)

// BinanceAdapter speaks the Binance spot REST API.
type BinanceAdapter struct {
	restClient
	baseURL string
	fees    models.TradingFees
}

type binanceTicker struct {
	LastPrice string `json:"lastPrice"`
	BidPrice  string `json:"bidPrice"`
	AskPrice  string `json:"askPrice"`
	Volume    string `json:"volume"`
	CloseTime int64  `json:"closeTime"` // Unix ms
}

type binanceDepth struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         []rawLevel `json:"bids"`
	Asks         []rawLevel `json:"asks"`
}

func NewBinanceAdapter(fees models.TradingFees, timeout time.Duration) *BinanceAdapter {
	return &BinanceAdapter{
		restClient: newRESTClient(timeout),
		baseURL:    "https://api.binance.com",
		fees:       fees,
	}
}

func (b *BinanceAdapter) ID() string   { return "binance" }
func (b *BinanceAdapter) Name() string { return "Binance" }

func (b *BinanceAdapter) TradingFees() models.TradingFees { return b.fees }

func (b *BinanceAdapter) IsAvailable(ctx context.Context) bool {
	return b.probe(ctx, func(ctx context.Context) error {
		var out struct{}
		return b.getJSON(ctx, b.baseURL+"/api/v3/ping", &out)
	})
}

func (b *BinanceAdapter) FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	url := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", b.baseURL, concatSymbol(symbol))

	var raw binanceTicker
	if err := b.getJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("binance ticker: %w", err)
	}

	bid, err := strconv.ParseFloat(raw.BidPrice, 64)
	if err != nil {
		return nil, fmt.Errorf("binance ticker: failed to parse bid: %w", err)
	}
	ask, err := strconv.ParseFloat(raw.AskPrice, 64)
	if err != nil {
		return nil, fmt.Errorf("binance ticker: failed to parse ask: %w", err)
	}
	last, err := strconv.ParseFloat(raw.LastPrice, 64)
	if err != nil {
		return nil, fmt.Errorf("binance ticker: failed to parse last: %w", err)
	}
	volume, _ := strconv.ParseFloat(raw.Volume, 64)

	return &models.Ticker{
		Symbol:       symbol,
		ExchangeName: b.Name(),
		ExchangeID:   b.ID(),
		Bid:          bid,
		Ask:          ask,
		Last:         last,
		Volume:       volume,
		Timestamp:    time.UnixMilli(raw.CloseTime),
	}, nil
}

func (b *BinanceAdapter) FetchOrderBook(ctx context.Context, symbol string, limit int) (*models.OrderBook, error) {
	url := fmt.Sprintf("%s/api/v3/depth?symbol=%s&limit=%d", b.baseURL, concatSymbol(symbol), limit)

	var raw binanceDepth
	if err := b.getJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("binance depth: %w", err)
	}

	bids, err := parseLevels(raw.Bids)
	if err != nil {
		return nil, fmt.Errorf("binance depth: %w", err)
	}
	asks, err := parseLevels(raw.Asks)
	if err != nil {
		return nil, fmt.Errorf("binance depth: %w", err)
	}

	return normalizeBook(&models.OrderBook{
		Symbol:       symbol,
		ExchangeName: b.Name(),
		ExchangeID:   b.ID(),
		Bids:         bids,
		Asks:         asks,
		Timestamp:    time.Now(),
		Nonce:        raw.LastUpdateID,
	}), nil
}
