// Package ledger defines the asset-transfer collaborator the escrow
// engine settles through, plus an in-memory implementation. Production
// deployments satisfy the same interface with a real transfer layer.
package ledger

import (
	"math/big"

	"github.com/pricelock/usdescrow/internal/domain"
)

// Receipt records one executed ledger movement.
type Receipt struct {
	ID     string
	Kind   string // transfer, pull, wrap, unwrap
	Asset  string
	From   domain.Party
	To     domain.Party
	Amount *big.Int
}

// Ledger moves assets between party accounts. Implementations must make
// Atomic all-or-nothing: either every movement inside fn is applied, or
// none is. The engine relies on this for settlement and reversals.
type Ledger interface {
	// Transfer moves amount of asset from one account to another.
	Transfer(asset string, from, to domain.Party, amount *big.Int) (Receipt, error)

	// Pull is the allowance-based withdrawal path: spender withdraws
	// amount of asset from owner, consuming owner's prior approval.
	Pull(asset string, owner, spender domain.Party, amount *big.Int) (Receipt, error)

	// Wrap converts amount of the owner's native asset into its wrapped
	// form, 1:1.
	Wrap(owner domain.Party, amount *big.Int) (Receipt, error)

	// Unwrap converts amount of the owner's wrapped asset back to native
	// form, 1:1.
	Unwrap(owner domain.Party, amount *big.Int) (Receipt, error)

	// Atomic executes fn so that its ledger operations commit together
	// or not at all.
	Atomic(fn func(Ledger) error) error
}
