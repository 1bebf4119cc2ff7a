package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spreadhunter/internal/models"
)

func testKraken(t *testing.T, handler http.HandlerFunc) *KrakenAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	adapter := NewKrakenAdapter(models.TradingFees{Maker: 0.0016, Taker: 0.0026, Percentage: true}, time.Second)
	adapter.baseURL = srv.URL
	return adapter
}

func TestKrakenAdapter_FetchTicker(t *testing.T) {
	adapter := testKraken(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/0/public/Ticker", r.URL.Path)
		assert.Equal(t, "XBTUSDT", r.URL.Query().Get("pair"))
		w.Write([]byte(`{
			"error": [],
			"result": {
				"XBTUSDT": {
					"a": ["50000.20000", "1", "1.000"],
					"b": ["49999.90000", "2", "2.000"],
					"c": ["50000.10000", "0.00100000"],
					"v": ["120.5", "340.7"]
				}
			}
		}`))
	})

	ticker, err := adapter.FetchTicker(context.Background(), "BTC/USDT")
	require.NoError(t, err)

	assert.Equal(t, "kraken", ticker.ExchangeID)
	assert.Equal(t, 49999.9, ticker.Bid)
	assert.Equal(t, 50000.2, ticker.Ask)
	assert.Equal(t, 50000.1, ticker.Last)
	assert.Equal(t, 340.7, ticker.Volume) // 24h volume, second entry
}

func TestKrakenAdapter_APIError(t *testing.T) {
	adapter := testKraken(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": ["EQuery:Unknown asset pair"], "result": {}}`))
	})

	_, err := adapter.FetchTicker(context.Background(), "FOO/USDT")
	assert.ErrorContains(t, err, "EQuery:Unknown asset pair")

	_, err = adapter.FetchOrderBook(context.Background(), "FOO/USDT", 50)
	assert.ErrorContains(t, err, "EQuery:Unknown asset pair")
}

func TestKrakenAdapter_FetchOrderBook(t *testing.T) {
	adapter := testKraken(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/0/public/Depth", r.URL.Path)
		w.Write([]byte(`{
			"error": [],
			"result": {
				"XBTUSDT": {
					"asks": [["50000.2", "1.0", 1756700000], ["50000.1", "0.5", 1756700001]],
					"bids": [["49999.9", "2.0", 1756700000], ["50000.0", "1.0", 1756700001]]
				}
			}
		}`))
	})

	book, err := adapter.FetchOrderBook(context.Background(), "BTC/USDT", 50)
	require.NoError(t, err)

	require.Len(t, book.Bids, 2)
	require.Len(t, book.Asks, 2)
	assert.Equal(t, 50000.0, book.Bids[0].Price)
	assert.Equal(t, 50000.1, book.Asks[0].Price)
	assert.Equal(t, 1.5, book.Asks[1].Total)
}

func TestKrakenAdapter_EmptyResult(t *testing.T) {
	adapter := testKraken(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": [], "result": {}}`))
	})

	_, err := adapter.FetchTicker(context.Background(), "BTC/USDT")
	assert.ErrorContains(t, err, "empty result")
}
