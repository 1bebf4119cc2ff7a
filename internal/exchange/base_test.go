package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spreadhunter/internal/models"
)

func TestNormalizeBook(t *testing.T) {
	book := normalizeBook(&models.OrderBook{
		Bids: []models.OrderBookLevel{
			{Price: 99, Amount: 2},
			{Price: 101, Amount: 1},
			{Price: 100, Amount: 3},
		},
		Asks: []models.OrderBookLevel{
			{Price: 104, Amount: 5},
			{Price: 102, Amount: 1},
			{Price: 103, Amount: 2},
		},
	})

	// Bids descending, asks ascending.
	assert.Equal(t, []float64{101, 100, 99}, prices(book.Bids))
	assert.Equal(t, []float64{102, 103, 104}, prices(book.Asks))

	// Totals accumulate in walk order.
	assert.Equal(t, []float64{1, 4, 6}, totals(book.Bids))
	assert.Equal(t, []float64{1, 3, 8}, totals(book.Asks))
}

func prices(levels []models.OrderBookLevel) []float64 {
	out := make([]float64, len(levels))
	for i, l := range levels {
		out[i] = l.Price
	}
	return out
}

func totals(levels []models.OrderBookLevel) []float64 {
	out := make([]float64, len(levels))
	for i, l := range levels {
		out[i] = l.Total
	}
	return out
}

func TestParseLevels(t *testing.T) {
	levels, err := parseLevels([]rawLevel{{"100.5", "2"}, {"100.4", "0.25"}})
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Equal(t, 100.5, levels[0].Price)
	assert.Equal(t, 0.25, levels[1].Amount)

	_, err = parseLevels([]rawLevel{{"not-a-price", "2"}})
	assert.Error(t, err)

	_, err = parseLevels([]rawLevel{{"100", "not-an-amount"}})
	assert.Error(t, err)
}

func TestConcatSymbol(t *testing.T) {
	assert.Equal(t, "BTCUSDT", concatSymbol("BTC/USDT"))
	assert.Equal(t, "ETHUSDT", concatSymbol("ETHUSDT"))
}

func TestToKrakenPair(t *testing.T) {
	assert.Equal(t, "XBTUSDT", toKrakenPair("BTC/USDT"))
	assert.Equal(t, "ETHUSD", toKrakenPair("ETH/USD"))
	assert.Equal(t, "BTCUSDT", toKrakenPair("BTCUSDT")) // no slash, passed through
}

func TestToSlashSymbol(t *testing.T) {
	assert.Equal(t, "BTC/USDT", toSlashSymbol("BTCUSDT"))
	assert.Equal(t, "ETH/BTC", toSlashSymbol("ETHBTC"))
	assert.Equal(t, "UNKNOWN", toSlashSymbol("UNKNOWN"))
}
