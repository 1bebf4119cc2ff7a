// Package ledger keeps the process-wide history of detected opportunities
// and simulated trades. The caller constructs one Ledger and passes it by
// reference; state starts empty and lives for the process lifetime.
package ledger

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"spreadhunter/internal/models"
)

var (
	// ErrTradeNotFound means the given trade id has never been recorded.
	ErrTradeNotFound = errors.New("trade not found")
	// ErrInvalidTransition means a status change would move backwards in
	// the detected -> simulated -> executed lifecycle.
	ErrInvalidTransition = errors.New("invalid trade status transition")
)

// Ledger is safe for concurrent use. Writes are infrequent relative to
// reads, so a single RWMutex covers both the opportunity FIFO and the trade
// map; reads return copies and never mutate state.
type Ledger struct {
	mu            sync.RWMutex
	opportunities []models.LoggedOpportunity
	trades        map[string]models.SimulatedTrade
	maxHistory    int

	now func() time.Time
}

// TradeFilter narrows Trades results. Zero values mean "no constraint".
type TradeFilter struct {
	UserID string
	Status models.TradeStatus
	Limit  int
}

func New(maxHistory int) *Ledger {
	if maxHistory <= 0 {
		maxHistory = 1000
	}
	return &Ledger{
		trades:     make(map[string]models.SimulatedTrade),
		maxHistory: maxHistory,
		now:        time.Now,
	}
}

// LogOpportunity appends to the opportunity FIFO, evicting the oldest entry
// once the cap is exceeded.
func (l *Ledger) LogOpportunity(opp models.ArbitrageCalculation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.opportunities = append(l.opportunities, models.LoggedOpportunity{
		Timestamp:   l.now(),
		Opportunity: opp,
	})
	if len(l.opportunities) > l.maxHistory {
		l.opportunities = l.opportunities[1:]
	}
}

// RecordSimulatedTrade stores a new trade with a fresh id and status
// "simulated" and returns it.
func (l *Ledger) RecordSimulatedTrade(symbol string, opp models.ArbitrageCalculation, userID string) models.SimulatedTrade {
	trade := models.SimulatedTrade{
		ID:          uuid.NewString(),
		Timestamp:   l.now(),
		Symbol:      symbol,
		Opportunity: opp,
		Status:      models.TradeSimulated,
		UserID:      userID,
	}

	l.mu.Lock()
	l.trades[trade.ID] = trade
	l.mu.Unlock()

	return trade
}

// MarkExecuted advances a trade to executed status. Transitions are
// monotonic; moving backwards is rejected.
func (l *Ledger) MarkExecuted(id string) (models.SimulatedTrade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	trade, ok := l.trades[id]
	if !ok {
		return models.SimulatedTrade{}, ErrTradeNotFound
	}
	if !trade.Status.CanTransitionTo(models.TradeExecuted) {
		return models.SimulatedTrade{}, ErrInvalidTransition
	}

	trade.Status = models.TradeExecuted
	l.trades[id] = trade
	return trade, nil
}

// Trades returns matching trades sorted newest-first.
func (l *Ledger) Trades(filter TradeFilter) []models.SimulatedTrade {
	l.mu.RLock()
	trades := make([]models.SimulatedTrade, 0, len(l.trades))
	for _, t := range l.trades {
		if filter.UserID != "" && t.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		trades = append(trades, t)
	}
	l.mu.RUnlock()

	sort.Slice(trades, func(i, j int) bool {
		return trades[i].Timestamp.After(trades[j].Timestamp)
	})

	if filter.Limit > 0 && len(trades) > filter.Limit {
		trades = trades[:filter.Limit]
	}
	return trades
}

// RecentOpportunities returns up to limit entries, newest first.
func (l *Ledger) RecentOpportunities(limit int) []models.LoggedOpportunity {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.opportunities)
	if limit <= 0 || limit > n {
		limit = n
	}

	recent := make([]models.LoggedOpportunity, limit)
	for i := 0; i < limit; i++ {
		recent[i] = l.opportunities[n-1-i]
	}
	return recent
}

// Summary aggregates the trade history, optionally restricted to one user.
// Zero trades yield all-zero aggregates with nil best/worst, never a panic.
func (l *Ledger) Summary(userID string) models.PLSummary {
	trades := l.Trades(TradeFilter{UserID: userID})

	l.mu.RLock()
	opportunityCount := len(l.opportunities)
	l.mu.RUnlock()

	summary := models.PLSummary{
		TotalOpportunitiesDetected: opportunityCount,
	}
	if len(trades) == 0 {
		return summary
	}

	best := &trades[0]
	worst := &trades[0]
	for i := range trades {
		t := &trades[i]
		summary.CumulativeProfitUSD += t.Opportunity.NetProfit
		summary.CumulativeProfitPercentage += t.Opportunity.NetProfitPercentage
		if t.Opportunity.IsProfitable {
			summary.ProfitableTrades++
		}
		if t.Opportunity.NetProfit > best.Opportunity.NetProfit {
			best = t
		}
		if t.Opportunity.NetProfit < worst.Opportunity.NetProfit {
			worst = t
		}
	}

	summary.TotalSimulatedTrades = len(trades)
	summary.TotalTrades = len(trades)
	summary.AverageProfitPerTrade = summary.CumulativeProfitUSD / float64(len(trades))
	summary.BestTrade = best
	summary.WorstTrade = worst
	summary.WinRate = float64(summary.ProfitableTrades) / float64(len(trades)) * 100
	return summary
}

// Statistics restricts the aggregates to entries newer than now - window.
// A zero window means "all time".
func (l *Ledger) Statistics(window time.Duration) models.PeriodStats {
	var cutoff time.Time
	if window > 0 {
		cutoff = l.now().Add(-window)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var stats models.PeriodStats
	for _, o := range l.opportunities {
		if o.Timestamp.After(cutoff) {
			stats.OpportunitiesInPeriod++
		}
	}

	pctSum := 0.0
	for _, t := range l.trades {
		if !t.Timestamp.After(cutoff) {
			continue
		}
		stats.TradesInPeriod++
		stats.TotalProfitUSD += t.Opportunity.NetProfit
		pctSum += t.Opportunity.NetProfitPercentage
	}
	if stats.TradesInPeriod > 0 {
		stats.AvgProfitPercentage = pctSum / float64(stats.TradesInPeriod)
	}
	return stats
}

// Reset clears all history.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opportunities = nil
	l.trades = make(map[string]models.SimulatedTrade)
}
