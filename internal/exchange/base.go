package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"spreadhunter/internal/models"
)

// How long a successful availability probe stays valid.
const availabilityTTL = 5 * time.Minute

// restClient is the shared transport state embedded by every REST adapter.
type restClient struct {
	httpClient *http.Client

	mu        sync.Mutex
	probedAt  time.Time
	available bool
}

func newRESTClient(timeout time.Duration) restClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return restClient{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// getJSON issues a GET and decodes the body into out.
func (c *restClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// probe runs check at most once per availabilityTTL and caches the outcome.
func (c *restClient) probe(ctx context.Context, check func(context.Context) error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.available && time.Since(c.probedAt) < availabilityTTL {
		return true
	}

	c.available = check(ctx) == nil
	c.probedAt = time.Now()
	return c.available
}

// rawLevel is a ["price", "amount"] pair as most exchanges encode book levels.
type rawLevel [2]string

func (l rawLevel) parse() (price, amount float64, err error) {
	price, err = strconv.ParseFloat(l[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse level price %q: %w", l[0], err)
	}
	amount, err = strconv.ParseFloat(l[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse level amount %q: %w", l[1], err)
	}
	return price, amount, nil
}

func parseLevels(raw []rawLevel) ([]models.OrderBookLevel, error) {
	levels := make([]models.OrderBookLevel, 0, len(raw))
	for _, l := range raw {
		price, amount, err := l.parse()
		if err != nil {
			return nil, err
		}
		levels = append(levels, models.OrderBookLevel{Price: price, Amount: amount})
	}
	return levels, nil
}

// normalizeBook enforces the side orderings (bids descending, asks ascending)
// and computes cumulative totals. Adapters call this on every fetched book so
// downstream code can rely on the invariants.
func normalizeBook(book *models.OrderBook) *models.OrderBook {
	sort.Slice(book.Bids, func(i, j int) bool {
		return book.Bids[i].Price > book.Bids[j].Price
	})
	sort.Slice(book.Asks, func(i, j int) bool {
		return book.Asks[i].Price < book.Asks[j].Price
	})

	cumulative := 0.0
	for i := range book.Bids {
		cumulative += book.Bids[i].Amount
		book.Bids[i].Total = cumulative
	}
	cumulative = 0.0
	for i := range book.Asks {
		cumulative += book.Asks[i].Amount
		book.Asks[i].Total = cumulative
	}
	return book
}

// concatSymbol turns "BTC/USDT" into "BTCUSDT".
func concatSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "")
}
