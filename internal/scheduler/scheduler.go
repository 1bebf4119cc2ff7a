package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"spreadhunter/internal/models"
	"spreadhunter/internal/scanner"
)

// Scheduler runs the ticker spread scanner over a fixed preset on an
// interval and caches the latest result for the API. A failed refresh keeps
// the previous cache; nothing here is fatal.
type Scheduler struct {
	scanner  *scanner.Scanner
	symbols  []string
	interval time.Duration

	mu     sync.RWMutex
	latest *models.TickerSpreadScan

	stopCh chan struct{}
}

func New(sc *scanner.Scanner, symbols []string, interval time.Duration) *Scheduler {
	return &Scheduler{
		scanner:  sc,
		symbols:  symbols,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the polling loop in a background goroutine. The first scan
// runs immediately so the cache isn't empty on the first request.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		s.refresh(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.refresh(ctx)
			case <-ctx.Done():
				log.Info().Msg("scheduler stopped")
				return
			case <-s.stopCh:
				log.Info().Msg("scheduler stopped")
				return
			}
		}
	}()

	log.Info().
		Stringer("interval", s.interval).
		Int("symbols", len(s.symbols)).
		Msg("scheduler started")
}

// Stop signals the background goroutine to exit cleanly.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}

// Latest returns the most recent cached scan, or nil before the first scan
// completes.
func (s *Scheduler) Latest() *models.TickerSpreadScan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Scheduler) refresh(ctx context.Context) {
	scan, err := s.scanner.TickerScan(ctx, s.symbols)
	if err != nil {
		log.Error().Err(err).Msg("scheduler refresh failed")
		return
	}

	s.mu.Lock()
	s.latest = scan
	s.mu.Unlock()

	log.Info().
		Int("symbols_with_data", scan.SymbolsWithData).
		Int("profitable_taker", scan.ProfitableWithTaker).
		Int64("duration_ms", scan.ScanDurationMS).
		Msg("background scan refreshed")
}
