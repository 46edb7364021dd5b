package domain

import (
	"math/big"
	"time"
)

// Party identifies one side of a deal. Parties are opaque identifiers:
// the engine only ever compares them for equality and hands them to the
// ledger as account owners.
type Party string

// DealStatus represents the externally visible lifecycle state of a deal.
// Price locking is not a state of its own — it always co-occurs with the
// first funding call.
type DealStatus string

const (
	DealStatusOpen            DealStatus = "open"
	DealStatusPartiallyFunded DealStatus = "partially_funded"
	DealStatusSettled         DealStatus = "settled"
	DealStatusCanceled        DealStatus = "canceled"
	DealStatusRefunded        DealStatus = "refunded"
)

// CancelReason distinguishes a party-initiated cancel from an
// expiry-driven refund. Both share the canceled terminal marker.
type CancelReason string

const (
	CancelReasonParty   CancelReason = "canceled_by_party"
	CancelReasonExpired CancelReason = "deadline_expired"
)

// Deal is the sole aggregate of the escrow engine: one bilateral,
// USD-denominated swap between PartyA (volatile collateral side) and
// PartyB (stable side). USDA/USDB are fixed at creation; the price lock
// fields are written exactly once by whichever funding call arrives
// first; Settled and Canceled are mutually exclusive terminal markers.
type Deal struct {
	ID              uint64
	PartyA          Party
	PartyB          Party
	Deadline        time.Time
	UnwrapRequested bool
	USDA            USD
	USDB            USD

	PriceLocked    bool
	LockedAt       time.Time
	LockedPriceA   *big.Int
	PriceDecimalsA uint8
	LockedPriceB   *big.Int
	PriceDecimalsB uint8

	// RequiredAmountA/B are nil until the price lock computes them.
	RequiredAmountA *big.Int
	RequiredAmountB *big.Int

	FundedA bool
	FundedB bool

	Settled      bool
	Canceled     bool
	CancelReason CancelReason

	CreatedAt  time.Time
	SettledAt  *time.Time
	CanceledAt *time.Time
}

// Terminal reports whether the deal has reached a terminal state.
// No operation may mutate a terminal deal.
func (d *Deal) Terminal() bool {
	return d.Settled || d.Canceled
}

// Status derives the externally visible state from the stored flags.
func (d *Deal) Status() DealStatus {
	switch {
	case d.Settled:
		return DealStatusSettled
	case d.Canceled && d.CancelReason == CancelReasonExpired:
		return DealStatusRefunded
	case d.Canceled:
		return DealStatusCanceled
	case d.FundedA || d.FundedB:
		return DealStatusPartiallyFunded
	default:
		return DealStatusOpen
	}
}

// Clone returns a deep copy of the deal so callers can read or render it
// without racing against the engine's mutations.
func (d *Deal) Clone() *Deal {
	if d == nil {
		return nil
	}
	clone := *d
	clone.LockedPriceA = cloneBig(d.LockedPriceA)
	clone.LockedPriceB = cloneBig(d.LockedPriceB)
	clone.RequiredAmountA = cloneBig(d.RequiredAmountA)
	clone.RequiredAmountB = cloneBig(d.RequiredAmountB)
	if d.SettledAt != nil {
		t := *d.SettledAt
		clone.SettledAt = &t
	}
	if d.CanceledAt != nil {
		t := *d.CanceledAt
		clone.CanceledAt = &t
	}
	return &clone
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
