package exchange

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"spreadhunter/internal/models"
)

// KrakenAdapter speaks the Kraken public REST API. Kraken names Bitcoin XBT
// and wraps every response in an {error, result} envelope keyed by its own
// pair spelling, so both are translated here.
type KrakenAdapter struct {
	restClient
	baseURL string
	fees    models.TradingFees
}

type krakenTickerInfo struct {
	Ask    []string `json:"a"` // [price, wholeLotVolume, lotVolume]
	Bid    []string `json:"b"`
	Close  []string `json:"c"` // [price, lotVolume]
	Volume []string `json:"v"` // [today, last24h]
}

type krakenBookSide [][]any // [price string, volume string, timestamp number]

type krakenBook struct {
	Asks krakenBookSide `json:"asks"`
	Bids krakenBookSide `json:"bids"`
}

type krakenResponse[T any] struct {
	Error  []string     `json:"error"`
	Result map[string]T `json:"result"`
}

func NewKrakenAdapter(fees models.TradingFees, timeout time.Duration) *KrakenAdapter {
	return &KrakenAdapter{
		restClient: newRESTClient(timeout),
		baseURL:    "https://api.kraken.com",
		fees:       fees,
	}
}

func (k *KrakenAdapter) ID() string   { return "kraken" }
func (k *KrakenAdapter) Name() string { return "Kraken" }

func (k *KrakenAdapter) TradingFees() models.TradingFees { return k.fees }

func (k *KrakenAdapter) IsAvailable(ctx context.Context) bool {
	return k.probe(ctx, func(ctx context.Context) error {
		var out krakenResponse[any]
		return k.getJSON(ctx, k.baseURL+"/0/public/Time", &out)
	})
}

func (k *KrakenAdapter) FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	url := fmt.Sprintf("%s/0/public/Ticker?pair=%s", k.baseURL, toKrakenPair(symbol))

	var raw krakenResponse[krakenTickerInfo]
	if err := k.getJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("kraken ticker: %w", err)
	}
	if len(raw.Error) > 0 {
		return nil, fmt.Errorf("kraken ticker: api error: %s", strings.Join(raw.Error, "; "))
	}

	info, err := firstResult(raw.Result)
	if err != nil {
		return nil, fmt.Errorf("kraken ticker: %w", err)
	}
	if len(info.Ask) == 0 || len(info.Bid) == 0 || len(info.Close) == 0 {
		return nil, fmt.Errorf("kraken ticker: incomplete data for %s", symbol)
	}

	ask, err := strconv.ParseFloat(info.Ask[0], 64)
	if err != nil {
		return nil, fmt.Errorf("kraken ticker: failed to parse ask: %w", err)
	}
	bid, err := strconv.ParseFloat(info.Bid[0], 64)
	if err != nil {
		return nil, fmt.Errorf("kraken ticker: failed to parse bid: %w", err)
	}
	last, err := strconv.ParseFloat(info.Close[0], 64)
	if err != nil {
		return nil, fmt.Errorf("kraken ticker: failed to parse last: %w", err)
	}
	volume := 0.0
	if len(info.Volume) > 1 {
		volume, _ = strconv.ParseFloat(info.Volume[1], 64)
	}

	return &models.Ticker{
		Symbol:       symbol,
		ExchangeName: k.Name(),
		ExchangeID:   k.ID(),
		Bid:          bid,
		Ask:          ask,
		Last:         last,
		Volume:       volume,
		Timestamp:    time.Now(),
	}, nil
}

func (k *KrakenAdapter) FetchOrderBook(ctx context.Context, symbol string, limit int) (*models.OrderBook, error) {
	url := fmt.Sprintf("%s/0/public/Depth?pair=%s&count=%d", k.baseURL, toKrakenPair(symbol), limit)

	var raw krakenResponse[krakenBook]
	if err := k.getJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("kraken depth: %w", err)
	}
	if len(raw.Error) > 0 {
		return nil, fmt.Errorf("kraken depth: api error: %s", strings.Join(raw.Error, "; "))
	}

	book, err := firstResult(raw.Result)
	if err != nil {
		return nil, fmt.Errorf("kraken depth: %w", err)
	}

	bids, err := book.Bids.levels()
	if err != nil {
		return nil, fmt.Errorf("kraken depth: %w", err)
	}
	asks, err := book.Asks.levels()
	if err != nil {
		return nil, fmt.Errorf("kraken depth: %w", err)
	}

	return normalizeBook(&models.OrderBook{
		Symbol:       symbol,
		ExchangeName: k.Name(),
		ExchangeID:   k.ID(),
		Bids:         bids,
		Asks:         asks,
		Timestamp:    time.Now(),
	}), nil
}

func (s krakenBookSide) levels() ([]models.OrderBookLevel, error) {
	levels := make([]models.OrderBookLevel, 0, len(s))
	for _, entry := range s {
		if len(entry) < 2 {
			return nil, fmt.Errorf("malformed book level %v", entry)
		}
		priceStr, ok1 := entry[0].(string)
		amountStr, ok2 := entry[1].(string)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("malformed book level %v", entry)
		}
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse level price %q: %w", priceStr, err)
		}
		amount, err := strconv.ParseFloat(amountStr, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse level amount %q: %w", amountStr, err)
		}
		levels = append(levels, models.OrderBookLevel{Price: price, Amount: amount})
	}
	return levels, nil
}

// firstResult pulls the single entry out of a Kraken result map. Kraken keys
// it by its own pair spelling, which doesn't always match the requested one.
func firstResult[T any](result map[string]T) (T, error) {
	for _, v := range result {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("empty result")
}

// toKrakenPair turns "BTC/USDT" into "XBTUSDT".
func toKrakenPair(symbol string) string {
	base, quote, found := strings.Cut(symbol, "/")
	if !found {
		return symbol
	}
	if base == "BTC" {
		base = "XBT"
	}
	return base + quote
}
