package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"spreadhunter/internal/models"
)

// How old a streamed tick may be before FetchTicker falls back to REST.
const streamTickTTL = 10 * time.Second

// TickerStream keeps a live ticker cache fed by the Binance combined
// websocket stream, so scan cycles can read Binance quotes without a REST
// round-trip.
type TickerStream struct {
	url     string
	symbols []string

	mu    sync.RWMutex
	ticks map[string]models.Ticker // keyed by "BASE/QUOTE"
}

type binanceStreamMessage struct {
	Stream string `json:"stream"`
	Data   struct {
		EventTime int64  `json:"E"` // Unix ms
		Symbol    string `json:"s"`
		Last      string `json:"c"`
		Bid       string `json:"b"`
		Ask       string `json:"a"`
		Volume    string `json:"v"`
	} `json:"data"`
}

// NewTickerStream subscribes to the 24h ticker stream for the given
// "BASE/QUOTE" symbols.
func NewTickerStream(symbols []string) *TickerStream {
	streams := make([]string, 0, len(symbols))
	for _, s := range symbols {
		streams = append(streams, strings.ToLower(concatSymbol(s))+"@ticker")
	}
	return &TickerStream{
		url:     "wss://stream.binance.com:9443/stream?streams=" + strings.Join(streams, "/"),
		symbols: symbols,
		ticks:   make(map[string]models.Ticker),
	}
}

// Run connects and reads until ctx is cancelled, reconnecting with
// exponential backoff on failure.
func (s *TickerStream) Run(ctx context.Context) {
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("ticker stream: context cancelled, shutting down")
			return
		default:
		}

		log.Info().Str("url", s.url).Stringer("backoff", backoff).Msg("ticker stream: connecting")
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
		if err != nil {
			log.Error().Err(err).Msg("ticker stream: connection failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
				backoff *= 2
				if backoff > 16*time.Second {
					backoff = 16 * time.Second
				}
			}
			continue
		}

		backoff = time.Second
		log.Info().Int("symbols", len(s.symbols)).Msg("ticker stream: connected")

		s.readLoop(ctx, conn)
		conn.Close()
	}
}

func (s *TickerStream) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Error().Err(err).Msg("ticker stream: read failed, reconnecting")
			}
			return
		}

		var msg binanceStreamMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Warn().Err(err).Msg("ticker stream: failed to parse message")
			continue
		}

		tick, err := msg.tick()
		if err != nil {
			log.Warn().Err(err).Str("stream", msg.Stream).Msg("ticker stream: bad tick")
			continue
		}

		s.mu.Lock()
		s.ticks[tick.Symbol] = tick
		s.mu.Unlock()
	}
}

func (m binanceStreamMessage) tick() (models.Ticker, error) {
	bid, err := strconv.ParseFloat(m.Data.Bid, 64)
	if err != nil {
		return models.Ticker{}, fmt.Errorf("failed to parse bid: %w", err)
	}
	ask, err := strconv.ParseFloat(m.Data.Ask, 64)
	if err != nil {
		return models.Ticker{}, fmt.Errorf("failed to parse ask: %w", err)
	}
	last, err := strconv.ParseFloat(m.Data.Last, 64)
	if err != nil {
		return models.Ticker{}, fmt.Errorf("failed to parse last: %w", err)
	}
	volume, _ := strconv.ParseFloat(m.Data.Volume, 64)

	return models.Ticker{
		Symbol:       toSlashSymbol(m.Data.Symbol),
		ExchangeName: "Binance",
		ExchangeID:   "binance",
		Bid:          bid,
		Ask:          ask,
		Last:         last,
		Volume:       volume,
		Timestamp:    time.UnixMilli(m.Data.EventTime),
	}, nil
}

// Tick returns the cached tick for a symbol if it is fresh.
func (s *TickerStream) Tick(symbol string) (models.Ticker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tick, ok := s.ticks[symbol]
	if !ok || time.Since(tick.Timestamp) > streamTickTTL {
		return models.Ticker{}, false
	}
	return tick, true
}

// StreamingBinanceAdapter serves tickers from the websocket cache when fresh
// and falls back to the REST adapter otherwise. Order books and probes always
// go through REST.
type StreamingBinanceAdapter struct {
	*BinanceAdapter
	stream *TickerStream
}

func NewStreamingBinanceAdapter(rest *BinanceAdapter, stream *TickerStream) *StreamingBinanceAdapter {
	return &StreamingBinanceAdapter{BinanceAdapter: rest, stream: stream}
}

func (a *StreamingBinanceAdapter) FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	if tick, ok := a.stream.Tick(symbol); ok {
		return &tick, nil
	}
	return a.BinanceAdapter.FetchTicker(ctx, symbol)
}

// toSlashSymbol turns "BTCUSDT" back into "BTC/USDT". Quote detection covers
// the quote currencies the configured presets use.
func toSlashSymbol(symbol string) string {
	for _, quote := range []string{"USDT", "USDC", "BTC", "ETH", "EUR", "USD"} {
		if strings.HasSuffix(symbol, quote) && len(symbol) > len(quote) {
			return symbol[:len(symbol)-len(quote)] + "/" + quote
		}
	}
	return symbol
}
