package oracle

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// StaticFeed is an in-memory feed implementation used by tests and for
// manual overrides during incident response.
type StaticFeed struct {
	mu      sync.RWMutex
	reading Reading
	set     bool
	err     error
}

// NewStaticFeed constructs an empty static feed. Reading it before any
// Set call fails.
func NewStaticFeed() *StaticFeed {
	return &StaticFeed{}
}

// Set stores the reading returned by subsequent LatestReading calls.
func (f *StaticFeed) Set(answer *big.Int, decimals uint8, updatedAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reading = Reading{Decimals: decimals, UpdatedAt: updatedAt}
	if answer != nil {
		f.reading.Answer = new(big.Int).Set(answer)
	}
	f.set = true
	f.err = nil
}

// Fail makes subsequent LatestReading calls return err.
func (f *StaticFeed) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *StaticFeed) LatestReading(context.Context) (Reading, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.err != nil {
		return Reading{}, f.err
	}
	if !f.set {
		return Reading{}, fmt.Errorf("static feed: no reading set")
	}
	return f.reading.Clone(), nil
}
