package engine

import (
	"sync"
	"sync/atomic"

	"github.com/google/btree"

	"github.com/pricelock/usdescrow/internal/domain"
)

// dealEntry pairs a deal with its exclusive-access guard. Every
// state-changing operation holds mu for its full duration, so no two
// operations on the same deal ever interleave; operations on different
// deals proceed fully concurrently.
type dealEntry struct {
	mu   sync.Mutex
	deal *domain.Deal
}

func entryLess(a, b *dealEntry) bool {
	return a.deal.ID < b.deal.ID
}

// Registry owns the collection of deals. Ids come from a single atomic
// counter; the B-tree keeps deals ordered by id for listing. Deals are
// never removed — terminal deals remain as immutable audit records.
type Registry struct {
	mu      sync.RWMutex
	nextID  atomic.Uint64
	byID    map[uint64]*dealEntry
	ordered *btree.BTreeG[*dealEntry]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	const degree = 32
	return &Registry{
		byID:    make(map[uint64]*dealEntry),
		ordered: btree.NewG[*dealEntry](degree, entryLess),
	}
}

// Add assigns the next id to the deal and stores it. Returns the id.
func (r *Registry) Add(deal *domain.Deal) uint64 {
	id := r.nextID.Add(1)
	deal.ID = id
	entry := &dealEntry{deal: deal}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id] = entry
	r.ordered.ReplaceOrInsert(entry)
	return id
}

// WithDeal runs fn with exclusive access to the deal. fn sees the live
// record; whatever it does to it is the operation's atomic unit.
func (r *Registry) WithDeal(id uint64, fn func(*domain.Deal) error) error {
	r.mu.RLock()
	entry, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return domain.ErrDealNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.deal)
}

// Snapshot returns a deep copy of the deal for read-side consumers.
func (r *Registry) Snapshot(id uint64) (*domain.Deal, error) {
	var clone *domain.Deal
	err := r.WithDeal(id, func(d *domain.Deal) error {
		clone = d.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return clone, nil
}

// List returns deep copies of all deals in ascending id order.
func (r *Registry) List() []*domain.Deal {
	r.mu.RLock()
	entries := make([]*dealEntry, 0, r.ordered.Len())
	r.ordered.Ascend(func(e *dealEntry) bool {
		entries = append(entries, e)
		return true
	})
	r.mu.RUnlock()

	deals := make([]*domain.Deal, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		deals = append(deals, e.deal.Clone())
		e.mu.Unlock()
	}
	return deals
}

// Len returns the number of deals ever created.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ordered.Len()
}
