// Package service assembles read-side views of deals for the HTTP
// surface. All state changes go through the engine; this layer only
// renders snapshots.
package service

import (
	"math/big"
	"time"

	"github.com/pricelock/usdescrow/internal/domain"
	"github.com/pricelock/usdescrow/internal/engine"
)

// DealView is the read model for a single deal. Token amounts and
// oracle prices are rendered as decimal strings: they are big integers
// that would silently lose precision as JSON numbers.
type DealView struct {
	ID              uint64
	PartyA          string
	PartyB          string
	Status          domain.DealStatus
	USDA            string // decimal dollars, e.g. "20" or "19.99"
	USDB            string
	Deadline        time.Time
	UnwrapRequested bool

	PriceLocked     bool
	LockedAt        *time.Time // nil until the price lock
	LockedPriceA    *string
	LockedPriceB    *string
	RequiredAmountA *string
	RequiredAmountB *string

	FundedA bool
	FundedB bool

	CancelReason *string
	CreatedAt    time.Time
	SettledAt    *time.Time
	CanceledAt   *time.Time
}

// DealService serves deal snapshots.
type DealService struct {
	engine *engine.Engine
}

// NewDealService creates a new DealService backed by the engine.
func NewDealService(engine *engine.Engine) *DealService {
	return &DealService{engine: engine}
}

// Get returns the view of one deal.
func (s *DealService) Get(id uint64) (*DealView, error) {
	deal, err := s.engine.GetDeal(id)
	if err != nil {
		return nil, err
	}
	return newDealView(deal), nil
}

// List returns views of every deal in ascending id order.
func (s *DealService) List() []*DealView {
	deals := s.engine.ListDeals()
	views := make([]*DealView, len(deals))
	for i, d := range deals {
		views[i] = newDealView(d)
	}
	return views
}

func newDealView(d *domain.Deal) *DealView {
	v := &DealView{
		ID:              d.ID,
		PartyA:          string(d.PartyA),
		PartyB:          string(d.PartyB),
		Status:          d.Status(),
		USDA:            d.USDA.String(),
		USDB:            d.USDB.String(),
		Deadline:        d.Deadline,
		UnwrapRequested: d.UnwrapRequested,
		PriceLocked:     d.PriceLocked,
		FundedA:         d.FundedA,
		FundedB:         d.FundedB,
		CreatedAt:       d.CreatedAt,
		SettledAt:       d.SettledAt,
		CanceledAt:      d.CanceledAt,
	}

	if d.PriceLocked {
		lockedAt := d.LockedAt
		v.LockedAt = &lockedAt
		v.LockedPriceA = bigString(d.LockedPriceA)
		v.LockedPriceB = bigString(d.LockedPriceB)
		v.RequiredAmountA = bigString(d.RequiredAmountA)
		v.RequiredAmountB = bigString(d.RequiredAmountB)
	}

	if d.Canceled {
		reason := string(d.CancelReason)
		v.CancelReason = &reason
	}

	return v
}

func bigString(v *big.Int) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}
