package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"spreadhunter/internal/models"
)

// BybitAdapter speaks the Bybit v5 spot REST API.
type BybitAdapter struct {
	restClient
	baseURL string
	fees    models.TradingFees
}

type bybitResponse[T any] struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  T      `json:"result"`
}

type bybitTickerList struct {
	List []struct {
		LastPrice string `json:"lastPrice"`
		Bid1Price string `json:"bid1Price"`
		Ask1Price string `json:"ask1Price"`
		Volume24h string `json:"volume24h"`
	} `json:"list"`
}

type bybitOrderBook struct {
	Bids []rawLevel `json:"b"`
	Asks []rawLevel `json:"a"`
	Ts   int64      `json:"ts"`
	Seq  int64      `json:"seq"`
}

func NewBybitAdapter(fees models.TradingFees, timeout time.Duration) *BybitAdapter {
	return &BybitAdapter{
		restClient: newRESTClient(timeout),
		baseURL:    "https://api.bybit.com",
		fees:       fees,
	}
}

func (b *BybitAdapter) ID() string   { return "bybit" }
func (b *BybitAdapter) Name() string { return "Bybit" }

func (b *BybitAdapter) TradingFees() models.TradingFees { return b.fees }

func (b *BybitAdapter) IsAvailable(ctx context.Context) bool {
	return b.probe(ctx, func(ctx context.Context) error {
		var out bybitResponse[map[string]any]
		return b.getJSON(ctx, b.baseURL+"/v5/market/time", &out)
	})
}

func (b *BybitAdapter) FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	url := fmt.Sprintf("%s/v5/market/tickers?category=spot&symbol=%s", b.baseURL, concatSymbol(symbol))

	var raw bybitResponse[bybitTickerList]
	if err := b.getJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("bybit ticker: %w", err)
	}
	if raw.RetCode != 0 {
		return nil, fmt.Errorf("bybit ticker: api error %d: %s", raw.RetCode, raw.RetMsg)
	}
	if len(raw.Result.List) == 0 {
		return nil, fmt.Errorf("bybit ticker: no data for %s", symbol)
	}

	t := raw.Result.List[0]
	bid, err := strconv.ParseFloat(t.Bid1Price, 64)
	if err != nil {
		return nil, fmt.Errorf("bybit ticker: failed to parse bid: %w", err)
	}
	ask, err := strconv.ParseFloat(t.Ask1Price, 64)
	if err != nil {
		return nil, fmt.Errorf("bybit ticker: failed to parse ask: %w", err)
	}
	last, err := strconv.ParseFloat(t.LastPrice, 64)
	if err != nil {
		return nil, fmt.Errorf("bybit ticker: failed to parse last: %w", err)
	}
	volume, _ := strconv.ParseFloat(t.Volume24h, 64)

	return &models.Ticker{
		Symbol:       symbol,
		ExchangeName: b.Name(),
		ExchangeID:   b.ID(),
		Bid:          bid,
		Ask:          ask,
		Last:         last,
		Volume:       volume,
		Timestamp:    time.Now(),
	}, nil
}

func (b *BybitAdapter) FetchOrderBook(ctx context.Context, symbol string, limit int) (*models.OrderBook, error) {
	// Bybit caps spot order book depth at 200 levels.
	if limit > 200 {
		limit = 200
	}
	url := fmt.Sprintf("%s/v5/market/orderbook?category=spot&symbol=%s&limit=%d",
		b.baseURL, concatSymbol(symbol), limit)

	var raw bybitResponse[bybitOrderBook]
	if err := b.getJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("bybit depth: %w", err)
	}
	if raw.RetCode != 0 {
		return nil, fmt.Errorf("bybit depth: api error %d: %s", raw.RetCode, raw.RetMsg)
	}

	bids, err := parseLevels(raw.Result.Bids)
	if err != nil {
		return nil, fmt.Errorf("bybit depth: %w", err)
	}
	asks, err := parseLevels(raw.Result.Asks)
	if err != nil {
		return nil, fmt.Errorf("bybit depth: %w", err)
	}

	return normalizeBook(&models.OrderBook{
		Symbol:       symbol,
		ExchangeName: b.Name(),
		ExchangeID:   b.ID(),
		Bids:         bids,
		Asks:         asks,
		Timestamp:    time.UnixMilli(raw.Result.Ts),
		Nonce:        raw.Result.Seq,
	}), nil
}
