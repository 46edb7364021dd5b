// Package oracle reads external USD price feeds and validates their
// answers before the engine locks them into a deal. The adapter performs
// no caching: every price lock re-reads both feeds live.
package oracle

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/pricelock/usdescrow/internal/domain"
)

// Reading is one observation from a price feed: a fixed-point integer
// price scaled by 10^Decimals and the feed's own update timestamp.
type Reading struct {
	Answer    *big.Int
	Decimals  uint8
	UpdatedAt time.Time
}

// Clone returns a deep copy so callers can hold onto a reading without
// sharing the answer with the feed implementation.
func (r Reading) Clone() Reading {
	clone := Reading{Decimals: r.Decimals, UpdatedAt: r.UpdatedAt}
	if r.Answer != nil {
		clone.Answer = new(big.Int).Set(r.Answer)
	}
	return clone
}

// Feed is a single external price feed for one asset quoted against USD.
type Feed interface {
	LatestReading(ctx context.Context) (Reading, error)
}

// Adapter validates feed readings against a fixed freshness window.
// maxAge is an engine-deployment setting, never adjustable per deal.
type Adapter struct {
	maxAge time.Duration
	nowFn  func() time.Time
}

// NewAdapter creates an adapter enforcing the given freshness window.
func NewAdapter(maxAge time.Duration) *Adapter {
	return &Adapter{
		maxAge: maxAge,
		nowFn:  time.Now,
	}
}

// SetNowFunc overrides the time source. Intended for tests that need
// deterministic freshness decisions.
func (a *Adapter) SetNowFunc(now func() time.Time) {
	if now == nil {
		a.nowFn = time.Now
		return
	}
	a.nowFn = now
}

// Fresh reports whether a reading updated at the given time is still
// within the adapter's freshness window at now.
func (a *Adapter) Fresh(updatedAt, now time.Time) bool {
	return now.Sub(updatedAt) <= a.maxAge
}

// Read fetches the latest reading from the feed and validates it.
// Returns domain.ErrInvalidPrice for a non-positive answer and
// domain.ErrStalePrice for a reading older than the freshness window.
// Feed transport errors are propagated as-is.
func (a *Adapter) Read(ctx context.Context, feed Feed) (Reading, error) {
	reading, err := feed.LatestReading(ctx)
	if err != nil {
		return Reading{}, fmt.Errorf("oracle read: %w", err)
	}
	if reading.Answer == nil || reading.Answer.Sign() <= 0 {
		return Reading{}, fmt.Errorf("%w: feed answered %v", domain.ErrInvalidPrice, reading.Answer)
	}
	now := a.nowFn()
	if !a.Fresh(reading.UpdatedAt, now) {
		return Reading{}, fmt.Errorf("%w: updated %s ago, max age %s",
			domain.ErrStalePrice, now.Sub(reading.UpdatedAt), a.maxAge)
	}
	return reading.Clone(), nil
}
