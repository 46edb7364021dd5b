// Package engine implements the deal lifecycle: creation, the two
// symmetric funding paths with their shared one-time price lock,
// synchronous settlement on the second funding, and the cancel/refund
// reversal paths. Every operation on a deal executes as one indivisible
// unit behind the deal's exclusive lock.
package engine

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"github.com/pricelock/usdescrow/internal/domain"
	"github.com/pricelock/usdescrow/internal/ledger"
	"github.com/pricelock/usdescrow/internal/oracle"
)

// DeadlineTracker is notified of every created deal so a background
// sweeper can call RefundIfExpired once the deadline passes. The engine
// itself never schedules anything.
type DeadlineTracker interface {
	Track(id uint64, deadline time.Time)
}

// Config carries the engine's collaborators.
type Config struct {
	Oracle        *oracle.Adapter
	FeedA         oracle.Feed // collateral/USD
	FeedB         oracle.Feed // stable/USD
	Ledger        ledger.Ledger
	Assets        domain.AssetPair
	EscrowAccount domain.Party
	Logger        zerolog.Logger
}

// Engine validates and applies every state-changing deal operation.
type Engine struct {
	registry *Registry
	adapter  *oracle.Adapter
	feedA    oracle.Feed
	feedB    oracle.Feed
	ledger   ledger.Ledger
	assets   domain.AssetPair
	settler  *Settler
	tracker  DeadlineTracker
	nowFn    func() time.Time
	logger   zerolog.Logger
}

// New creates an engine operating on the given registry.
func New(registry *Registry, cfg Config) *Engine {
	return &Engine{
		registry: registry,
		adapter:  cfg.Oracle,
		feedA:    cfg.FeedA,
		feedB:    cfg.FeedB,
		ledger:   cfg.Ledger,
		assets:   cfg.Assets,
		settler:  NewSettler(cfg.Assets, cfg.EscrowAccount),
		nowFn:    time.Now,
		logger:   cfg.Logger,
	}
}

// SetNowFunc overrides the engine's time source. Primarily intended for
// tests needing deterministic deadlines.
func (e *Engine) SetNowFunc(now func() time.Time) {
	if now == nil {
		e.nowFn = time.Now
		return
	}
	e.nowFn = now
}

// SetDeadlineTracker wires the tracker notified on deal creation.
func (e *Engine) SetDeadlineTracker(t DeadlineTracker) {
	e.tracker = t
}

// CreateParams are the caller-supplied terms of a new deal.
type CreateParams struct {
	PartyA          domain.Party
	PartyB          domain.Party
	Deadline        time.Time
	USDA            domain.USD
	USDB            domain.USD
	UnwrapRequested bool
}

// CreateDeal validates the terms and allocates a new open deal. The USD
// notionals and the parties are immutable from here on.
func (e *Engine) CreateDeal(p CreateParams) (*domain.Deal, error) {
	if p.PartyA == "" || p.PartyB == "" || p.PartyA == p.PartyB {
		return nil, domain.ErrInvalidParty
	}
	now := e.nowFn()
	if !p.Deadline.After(now) {
		return nil, domain.ErrInvalidDeadline
	}
	if p.USDA <= 0 || p.USDB <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	deal := &domain.Deal{
		PartyA:          p.PartyA,
		PartyB:          p.PartyB,
		Deadline:        p.Deadline,
		UnwrapRequested: p.UnwrapRequested,
		USDA:            p.USDA,
		USDB:            p.USDB,
		CreatedAt:       now,
	}
	id := e.registry.Add(deal)

	e.logger.Info().
		Uint64("deal_id", id).
		Str("party_a", string(p.PartyA)).
		Str("party_b", string(p.PartyB)).
		Str("usd_a", p.USDA.String()).
		Str("usd_b", p.USDB.String()).
		Time("deadline", p.Deadline).
		Bool("unwrap_requested", p.UnwrapRequested).
		Msg("deal created")

	if e.tracker != nil {
		e.tracker.Track(id, p.Deadline)
	}
	return deal.Clone(), nil
}

// GetDeal returns a read-only copy of the deal.
func (e *Engine) GetDeal(id uint64) (*domain.Deal, error) {
	return e.registry.Snapshot(id)
}

// ListDeals returns read-only copies of all deals in id order.
func (e *Engine) ListDeals() []*domain.Deal {
	return e.registry.List()
}

type side int

const (
	sideA side = iota
	sideB
)

func (s side) String() string {
	if s == sideA {
		return "a"
	}
	return "b"
}

// FundA deposits partyA's collateral. The deposit is the native coin,
// wrapped on the way into escrow. The first funding call on a deal —
// whichever side it is — also performs the one-time price lock.
func (e *Engine) FundA(ctx context.Context, id uint64, deposited *big.Int) error {
	return e.fund(ctx, id, sideA, deposited)
}

// FundB deposits partyB's stable asset via the allowance-based pull
// path. Symmetric to FundA, including the price lock.
func (e *Engine) FundB(ctx context.Context, id uint64, deposited *big.Int) error {
	return e.fund(ctx, id, sideB, deposited)
}

func (e *Engine) fund(ctx context.Context, id uint64, s side, deposited *big.Int) error {
	return e.registry.WithDeal(id, func(deal *domain.Deal) error {
		now := e.nowFn()
		if deal.Terminal() {
			return domain.ErrAlreadyTerminal
		}
		if now.After(deal.Deadline) {
			return domain.ErrDeadlinePassed
		}
		alreadyFunded := deal.FundedA
		if s == sideB {
			alreadyFunded = deal.FundedB
		}
		if alreadyFunded {
			return domain.ErrAlreadyFunded
		}

		// All fallible work happens on a private copy; the live record
		// is replaced only once everything has succeeded.
		work := deal.Clone()
		locking := !work.PriceLocked
		if locking {
			if err := e.lockPrices(ctx, work, now); err != nil {
				return err
			}
		}

		required := work.RequiredAmountA
		if s == sideB {
			required = work.RequiredAmountB
		}
		if deposited == nil || deposited.Cmp(required) != 0 {
			return fmt.Errorf("%w: deposited %v, required %s", domain.ErrWrongFundingAmount, deposited, required)
		}

		// Deposit — and, when the other side is already in, settlement —
		// run as a single all-or-nothing ledger transaction.
		settleNow := (s == sideA && work.FundedB) || (s == sideB && work.FundedA)
		var receipts []ledger.Receipt
		err := e.ledger.Atomic(func(tx ledger.Ledger) error {
			var err error
			if s == sideA {
				receipts, err = e.settler.DepositA(tx, work, deposited)
			} else {
				receipts, err = e.settler.DepositB(tx, work, deposited)
			}
			if err != nil {
				return err
			}
			if settleNow {
				settleReceipts, err := e.settler.Settle(tx, work, work.RequiredAmountA, work.RequiredAmountB)
				if err != nil {
					return err
				}
				receipts = append(receipts, settleReceipts...)
			}
			return nil
		})
		if err != nil {
			return err
		}

		if s == sideA {
			work.FundedA = true
		} else {
			work.FundedB = true
		}
		if settleNow {
			work.Settled = true
			settledAt := now
			work.SettledAt = &settledAt
		}
		*deal = *work

		logger := e.logger.With().Uint64("deal_id", id).Str("side", s.String()).Logger()
		if locking {
			logger.Info().
				Str("locked_price_a", deal.LockedPriceA.String()).
				Str("locked_price_b", deal.LockedPriceB.String()).
				Str("required_amount_a", deal.RequiredAmountA.String()).
				Str("required_amount_b", deal.RequiredAmountB.String()).
				Msg("price locked")
		}
		logger.Info().
			Str("amount", deposited.String()).
			Strs("receipts", receiptIDs(receipts)).
			Msg("side funded")
		if settleNow {
			logger.Info().Msg("deal settled")
		}
		return nil
	})
}

// lockPrices reads both feeds live, converts the USD notionals into
// required token amounts, and writes every lock field onto work. It
// happens at most once per deal, inside whichever funding call arrives
// first.
func (e *Engine) lockPrices(ctx context.Context, work *domain.Deal, now time.Time) error {
	readingA, err := e.adapter.Read(ctx, e.feedA)
	if err != nil {
		return err
	}
	readingB, err := e.adapter.Read(ctx, e.feedB)
	if err != nil {
		return err
	}

	requiredA, err := domain.RequiredTokenAmount(work.USDA, readingA.Answer, readingA.Decimals, e.assets.Collateral.Decimals)
	if err != nil {
		return err
	}
	requiredB, err := domain.RequiredTokenAmount(work.USDB, readingB.Answer, readingB.Decimals, e.assets.Stable.Decimals)
	if err != nil {
		return err
	}

	work.LockedPriceA = readingA.Answer
	work.PriceDecimalsA = readingA.Decimals
	work.LockedPriceB = readingB.Answer
	work.PriceDecimalsB = readingB.Decimals
	work.RequiredAmountA = requiredA
	work.RequiredAmountB = requiredB
	work.LockedAt = now
	work.PriceLocked = true
	return nil
}

// Cancel aborts a partially funded deal. Only the party whose deposit is
// in escrow may cancel, and only while the other side remains unfunded;
// the deposit goes back to its depositor in the same atomic step as the
// state flip.
func (e *Engine) Cancel(id uint64, caller domain.Party) error {
	return e.registry.WithDeal(id, func(deal *domain.Deal) error {
		if deal.Terminal() {
			return domain.ErrAlreadyTerminal
		}

		var reverse func(ledger.Ledger, *domain.Deal) (ledger.Receipt, error)
		switch {
		case caller == deal.PartyA && deal.FundedA:
			reverse = e.settler.ReverseA
		case caller == deal.PartyB && deal.FundedB:
			reverse = e.settler.ReverseB
		default:
			return domain.ErrUnauthorizedCaller
		}

		var receipt ledger.Receipt
		err := e.ledger.Atomic(func(tx ledger.Ledger) error {
			var err error
			receipt, err = reverse(tx, deal)
			return err
		})
		if err != nil {
			return err
		}

		now := e.nowFn()
		deal.Canceled = true
		deal.CancelReason = domain.CancelReasonParty
		deal.CanceledAt = &now

		e.logger.Info().
			Uint64("deal_id", id).
			Str("caller", string(caller)).
			Str("receipt", receipt.ID).
			Msg("deal canceled")
		return nil
	})
}

// RefundIfExpired closes a deal whose deadline has passed, returning
// every currently funded deposit to its original depositor. Callable by
// anyone; the refund sweeper is just one such caller on a timer.
func (e *Engine) RefundIfExpired(id uint64) error {
	return e.registry.WithDeal(id, func(deal *domain.Deal) error {
		if deal.Terminal() {
			return domain.ErrAlreadyTerminal
		}
		now := e.nowFn()
		if !now.After(deal.Deadline) {
			return domain.ErrDealNotExpired
		}

		var receipts []ledger.Receipt
		err := e.ledger.Atomic(func(tx ledger.Ledger) error {
			if deal.FundedA {
				r, err := e.settler.ReverseA(tx, deal)
				if err != nil {
					return err
				}
				receipts = append(receipts, r)
			}
			if deal.FundedB {
				r, err := e.settler.ReverseB(tx, deal)
				if err != nil {
					return err
				}
				receipts = append(receipts, r)
			}
			return nil
		})
		if err != nil {
			return err
		}

		deal.Canceled = true
		deal.CancelReason = domain.CancelReasonExpired
		deal.CanceledAt = &now

		e.logger.Info().
			Uint64("deal_id", id).
			Strs("receipts", receiptIDs(receipts)).
			Msg("deal refunded after expiry")
		return nil
	})
}

func receiptIDs(receipts []ledger.Receipt) []string {
	ids := make([]string, len(receipts))
	for i, r := range receipts {
		ids[i] = r.ID
	}
	return ids
}
