package engine

import (
	"fmt"
	"math/big"

	"github.com/pricelock/usdescrow/internal/domain"
	"github.com/pricelock/usdescrow/internal/ledger"
)

// Settler builds the asset movements for settlement and for the reversal
// paths (cancel, refund after expiry). It only ever appends legs to the
// ledger transaction handed to it — the engine decides when that
// transaction commits, so a failed leg leaves the deal untouched.
type Settler struct {
	assets domain.AssetPair
	escrow domain.Party
}

// NewSettler creates a settler moving assets in and out of the escrow
// account.
func NewSettler(assets domain.AssetPair, escrow domain.Party) *Settler {
	return &Settler{assets: assets, escrow: escrow}
}

// Settle delivers amountB of the stable asset to partyA and amountA of
// the collateral to partyB, unwrapping the collateral to native form
// first when the deal requests it. Both payouts run on the same ledger
// transaction.
func (s *Settler) Settle(tx ledger.Ledger, deal *domain.Deal, amountA, amountB *big.Int) ([]ledger.Receipt, error) {
	receipts := make([]ledger.Receipt, 0, 3)

	stable, err := tx.Transfer(s.assets.Stable.Symbol, s.escrow, deal.PartyA, amountB)
	if err != nil {
		return nil, fmt.Errorf("settle stable leg: %w", err)
	}
	receipts = append(receipts, stable)

	collateralAsset := s.assets.Collateral.Symbol
	if deal.UnwrapRequested {
		unwrapped, err := tx.Unwrap(s.escrow, amountA)
		if err != nil {
			return nil, fmt.Errorf("settle unwrap leg: %w", err)
		}
		receipts = append(receipts, unwrapped)
		collateralAsset = s.assets.CollateralNative.Symbol
	}

	collateral, err := tx.Transfer(collateralAsset, s.escrow, deal.PartyB, amountA)
	if err != nil {
		return nil, fmt.Errorf("settle collateral leg: %w", err)
	}
	receipts = append(receipts, collateral)

	return receipts, nil
}

// DepositA wraps partyA's native collateral and moves the wrapped form
// into escrow.
func (s *Settler) DepositA(tx ledger.Ledger, deal *domain.Deal, amount *big.Int) ([]ledger.Receipt, error) {
	wrapped, err := tx.Wrap(deal.PartyA, amount)
	if err != nil {
		return nil, fmt.Errorf("deposit wrap leg: %w", err)
	}
	moved, err := tx.Transfer(s.assets.Collateral.Symbol, deal.PartyA, s.escrow, amount)
	if err != nil {
		return nil, fmt.Errorf("deposit collateral leg: %w", err)
	}
	return []ledger.Receipt{wrapped, moved}, nil
}

// DepositB pulls partyB's approved stable amount into escrow.
func (s *Settler) DepositB(tx ledger.Ledger, deal *domain.Deal, amount *big.Int) ([]ledger.Receipt, error) {
	pulled, err := tx.Pull(s.assets.Stable.Symbol, deal.PartyB, s.escrow, amount)
	if err != nil {
		return nil, fmt.Errorf("deposit stable leg: %w", err)
	}
	return []ledger.Receipt{pulled}, nil
}

// ReverseA returns partyA's wrapped collateral deposit. The refund stays
// in wrapped form, matching what escrow holds.
func (s *Settler) ReverseA(tx ledger.Ledger, deal *domain.Deal) (ledger.Receipt, error) {
	receipt, err := tx.Transfer(s.assets.Collateral.Symbol, s.escrow, deal.PartyA, deal.RequiredAmountA)
	if err != nil {
		return ledger.Receipt{}, fmt.Errorf("reverse collateral leg: %w", err)
	}
	return receipt, nil
}

// ReverseB returns partyB's stable deposit.
func (s *Settler) ReverseB(tx ledger.Ledger, deal *domain.Deal) (ledger.Receipt, error) {
	receipt, err := tx.Transfer(s.assets.Stable.Symbol, s.escrow, deal.PartyB, deal.RequiredAmountB)
	if err != nil {
		return ledger.Receipt{}, fmt.Errorf("reverse stable leg: %w", err)
	}
	return receipt, nil
}
