package ledger

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/google/uuid"

	"github.com/pricelock/usdescrow/internal/domain"
)

type allowanceKey struct {
	owner   domain.Party
	spender domain.Party
	asset   string
}

// InMemory is a thread-safe in-memory account ledger. Balances are held
// per party per asset symbol; wrap/unwrap converts between one configured
// native/wrapped asset pair at 1:1.
type InMemory struct {
	mu         sync.Mutex
	native     string
	wrapped    string
	balances   map[domain.Party]map[string]*big.Int
	allowances map[allowanceKey]*big.Int
}

// NewInMemory creates an empty ledger with the given native/wrapped
// asset pair.
func NewInMemory(nativeSymbol, wrappedSymbol string) *InMemory {
	return &InMemory{
		native:     nativeSymbol,
		wrapped:    wrappedSymbol,
		balances:   make(map[domain.Party]map[string]*big.Int),
		allowances: make(map[allowanceKey]*big.Int),
	}
}

// Mint credits amount of asset to the party's account. Test and bootstrap
// helper, not part of the Ledger interface.
func (l *InMemory) Mint(party domain.Party, asset string, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(party, asset, amount)
}

// Approve grants spender the right to Pull up to amount of asset from
// owner. It replaces any previous allowance for the triple.
func (l *InMemory) Approve(owner, spender domain.Party, asset string, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.allowances[allowanceKey{owner, spender, asset}] = new(big.Int).Set(amount)
}

// Balance returns the party's balance of asset. The returned value is a
// copy.
func (l *InMemory) Balance(party domain.Party, asset string) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.balances[party][asset]; ok {
		return new(big.Int).Set(b)
	}
	return big.NewInt(0)
}

func (l *InMemory) Transfer(asset string, from, to domain.Party, amount *big.Int) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := validAmount(amount); err != nil {
		return Receipt{}, err
	}
	if err := l.debit(from, asset, amount); err != nil {
		return Receipt{}, err
	}
	l.credit(to, asset, amount)
	return newReceipt("transfer", asset, from, to, amount), nil
}

func (l *InMemory) Pull(asset string, owner, spender domain.Party, amount *big.Int) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := validAmount(amount); err != nil {
		return Receipt{}, err
	}
	key := allowanceKey{owner, spender, asset}
	allowance := l.allowances[key]
	if allowance == nil || allowance.Cmp(amount) < 0 {
		return Receipt{}, fmt.Errorf("%w: %s of %s from %s", domain.ErrInsufficientAllowance, amount, asset, owner)
	}
	if err := l.debit(owner, asset, amount); err != nil {
		return Receipt{}, err
	}
	allowance.Sub(allowance, amount)
	l.credit(spender, asset, amount)
	return newReceipt("pull", asset, owner, spender, amount), nil
}

func (l *InMemory) Wrap(owner domain.Party, amount *big.Int) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := validAmount(amount); err != nil {
		return Receipt{}, err
	}
	if err := l.debit(owner, l.native, amount); err != nil {
		return Receipt{}, err
	}
	l.credit(owner, l.wrapped, amount)
	return newReceipt("wrap", l.wrapped, owner, owner, amount), nil
}

func (l *InMemory) Unwrap(owner domain.Party, amount *big.Int) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := validAmount(amount); err != nil {
		return Receipt{}, err
	}
	if err := l.debit(owner, l.wrapped, amount); err != nil {
		return Receipt{}, err
	}
	l.credit(owner, l.native, amount)
	return newReceipt("unwrap", l.native, owner, owner, amount), nil
}

// Atomic runs fn against a private copy of the ledger state and commits
// the copy only when fn succeeds. Any error leaves the ledger exactly as
// it was.
func (l *InMemory) Atomic(fn func(Ledger) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	tx := l.snapshot()
	if err := fn(tx); err != nil {
		return err
	}
	l.balances = tx.balances
	l.allowances = tx.allowances
	return nil
}

// snapshot deep-copies the ledger state into a fresh instance with its
// own lock, so fn in Atomic can call the ordinary methods on it.
func (l *InMemory) snapshot() *InMemory {
	tx := NewInMemory(l.native, l.wrapped)
	for party, assets := range l.balances {
		tx.balances[party] = make(map[string]*big.Int, len(assets))
		for asset, amount := range assets {
			tx.balances[party][asset] = new(big.Int).Set(amount)
		}
	}
	for key, amount := range l.allowances {
		tx.allowances[key] = new(big.Int).Set(amount)
	}
	return tx
}

// debit and credit assume l.mu is held.
func (l *InMemory) debit(party domain.Party, asset string, amount *big.Int) error {
	balance := l.balances[party][asset]
	if balance == nil || balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s needs %s %s", domain.ErrInsufficientBalance, party, amount, asset)
	}
	balance.Sub(balance, amount)
	return nil
}

func (l *InMemory) credit(party domain.Party, asset string, amount *big.Int) {
	assets := l.balances[party]
	if assets == nil {
		assets = make(map[string]*big.Int)
		l.balances[party] = assets
	}
	if assets[asset] == nil {
		assets[asset] = big.NewInt(0)
	}
	assets[asset].Add(assets[asset], amount)
}

func validAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("ledger: amount must be non-negative, got %v", amount)
	}
	return nil
}

func newReceipt(kind, asset string, from, to domain.Party, amount *big.Int) Receipt {
	return Receipt{
		ID:     "TXN_" + uuid.New().String(),
		Kind:   kind,
		Asset:  asset,
		From:   from,
		To:     to,
		Amount: new(big.Int).Set(amount),
	}
}
