package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pricelock/usdescrow/internal/domain"
)

// trackedDeal is one deadline the sweeper is watching.
type trackedDeal struct {
	id       uint64
	deadline time.Time
}

// RefundSweeper tracks open deals sorted by deadline and periodically
// issues RefundIfExpired for every deal whose deadline has passed. It is
// an ordinary caller of the public operation — the engine's own
// semantics are unchanged by its presence.
type RefundSweeper struct {
	interval time.Duration
	engine   *Engine
	logger   zerolog.Logger
	pending  []trackedDeal // sorted by deadline ASC
	mu       sync.Mutex    // protects pending
}

// NewRefundSweeper creates a sweeper ticking at the given interval.
func NewRefundSweeper(interval time.Duration, engine *Engine, logger zerolog.Logger) *RefundSweeper {
	return &RefundSweeper{
		interval: interval,
		engine:   engine,
		logger:   logger,
		pending:  make([]trackedDeal, 0),
	}
}

// Track inserts a deal into the sorted pending slice, maintaining
// deadline ASC order. Implements DeadlineTracker.
func (s *RefundSweeper) Track(id uint64, deadline time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Binary search for the insertion point.
	idx := sort.Search(len(s.pending), func(i int) bool {
		return s.pending[i].deadline.After(deadline)
	})
	s.pending = append(s.pending, trackedDeal{})
	copy(s.pending[idx+1:], s.pending[idx:])
	s.pending[idx] = trackedDeal{id: id, deadline: deadline}
}

// Start launches a background goroutine that ticks at the configured
// interval and refunds expired deals. It stops when ctx is cancelled.
func (s *RefundSweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				s.tick(t)
			}
		}
	}()
}

// tick pops every deal whose deadline has passed off the front of the
// sorted slice and issues the refund for it.
func (s *RefundSweeper) tick(now time.Time) {
	s.mu.Lock()
	var due []trackedDeal
	cutoff := 0
	for cutoff < len(s.pending) {
		if s.pending[cutoff].deadline.After(now) {
			break
		}
		due = append(due, s.pending[cutoff])
		cutoff++
	}
	if cutoff > 0 {
		s.pending = s.pending[cutoff:]
	}
	s.mu.Unlock()

	for _, d := range due {
		s.refund(d)
	}
}

// refund issues RefundIfExpired for one due deal. A deal that settled or
// was canceled since tracking started is simply dropped; a deal whose
// deadline has not passed by the engine's clock, or whose reversal
// failed transiently, is re-tracked so the next tick retries it.
func (s *RefundSweeper) refund(d trackedDeal) {
	err := s.engine.RefundIfExpired(d.id)
	switch {
	case err == nil:
		s.logger.Info().Uint64("deal_id", d.id).Msg("expired deal refunded")
	case errors.Is(err, domain.ErrAlreadyTerminal), errors.Is(err, domain.ErrDealNotFound):
		// Nothing left to do for this deal.
	default:
		s.logger.Warn().Uint64("deal_id", d.id).Err(err).Msg("refund attempt failed, will retry")
		s.Track(d.id, d.deadline)
	}
}

// PendingCount returns the number of deals currently tracked. Useful
// for testing.
func (s *RefundSweeper) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
