package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"spreadhunter/internal/models"
)

// MexcAdapter speaks the MEXC spot REST API, which mirrors the Binance v3
// surface closely enough to share the raw types.
type MexcAdapter struct {
	restClient
	baseURL string
	fees    models.TradingFees
}

func NewMexcAdapter(fees models.TradingFees, timeout time.Duration) *MexcAdapter {
	return &MexcAdapter{
		restClient: newRESTClient(timeout),
		baseURL:    "https://api.mexc.com",
		fees:       fees,
	}
}

func (m *MexcAdapter) ID() string   { return "mexc" }
func (m *MexcAdapter) Name() string { return "MEXC" }

func (m *MexcAdapter) TradingFees() models.TradingFees { return m.fees }

func (m *MexcAdapter) IsAvailable(ctx context.Context) bool {
	return m.probe(ctx, func(ctx context.Context) error {
		var out struct{}
		return m.getJSON(ctx, m.baseURL+"/api/v3/ping", &out)
	})
}

func (m *MexcAdapter) FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	url := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", m.baseURL, concatSymbol(symbol))

	var raw binanceTicker
	if err := m.getJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("mexc ticker: %w", err)
	}

	bid, err := strconv.ParseFloat(raw.BidPrice, 64)
	if err != nil {
		return nil, fmt.Errorf("mexc ticker: failed to parse bid: %w", err)
	}
	ask, err := strconv.ParseFloat(raw.AskPrice, 64)
	if err != nil {
		return nil, fmt.Errorf("mexc ticker: failed to parse ask: %w", err)
	}
	last, err := strconv.ParseFloat(raw.LastPrice, 64)
	if err != nil {
		return nil, fmt.Errorf("mexc ticker: failed to parse last: %w", err)
	}
	volume, _ := strconv.ParseFloat(raw.Volume, 64)

	return &models.Ticker{
		Symbol:       symbol,
		ExchangeName: m.Name(),
		ExchangeID:   m.ID(),
		Bid:          bid,
		Ask:          ask,
		Last:         last,
		Volume:       volume,
		Timestamp:    time.UnixMilli(raw.CloseTime),
	}, nil
}

func (m *MexcAdapter) FetchOrderBook(ctx context.Context, symbol string, limit int) (*models.OrderBook, error) {
	url := fmt.Sprintf("%s/api/v3/depth?symbol=%s&limit=%d", m.baseURL, concatSymbol(symbol), limit)

	var raw binanceDepth
	if err := m.getJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("mexc depth: %w", err)
	}

	bids, err := parseLevels(raw.Bids)
	if err != nil {
		return nil, fmt.Errorf("mexc depth: %w", err)
	}
	asks, err := parseLevels(raw.Asks)
	if err != nil {
		return nil, fmt.Errorf("mexc depth: %w", err)
	}

	return normalizeBook(&models.OrderBook{
		Symbol:       symbol,
		ExchangeName: m.Name(),
		ExchangeID:   m.ID(),
		Bids:         bids,
		Asks:         asks,
		Timestamp:    time.Now(),
		Nonce:        raw.LastUpdateID,
	}), nil
}
