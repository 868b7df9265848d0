package ledger

import (
	"sync"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Ledger holds total supply of the token and balances of all accounts.
//
// Sum of all balances always equals the total supply. Accounts with zero
// balance are not stored.
type Ledger struct {
	mtx sync.RWMutex

	totalSupply uint256.Int
	balances    map[util.Uint160]uint256.Int
}

// New constructs Ledger with the whole supply allocated to the owner. Zero
// supply is allowed.
//
// New does not publish genesis notification, see Construct.
func New(supply *uint256.Int, owner util.Uint160) *Ledger {
	l := &Ledger{
		totalSupply: *supply,
		balances:    make(map[util.Uint160]uint256.Int),
	}

	l.setBalance(owner, supply)

	return l
}

// TotalSupply returns amount of tokens fixed at construction.
func (l *Ledger) TotalSupply() *uint256.Int {
	// immutable, no lock needed
	return l.totalSupply.Clone()
}

// BalanceOf returns balance of the given account. Unknown accounts have zero
// balance.
func (l *Ledger) BalanceOf(account util.Uint160) *uint256.Int {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	return l.balanceOf(account)
}

// Holders returns all accounts with non-zero balance. Order is not defined.
func (l *Ledger) Holders() []util.Uint160 {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	res := make([]util.Uint160, 0, len(l.balances))
	for acc := range l.balances {
		res = append(res, acc)
	}

	return res
}

// Circulating returns sum of all balances. It equals TotalSupply for any
// Ledger built by this package.
func (l *Ledger) Circulating() *uint256.Int {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	return l.circulating()
}

func (l *Ledger) circulating() *uint256.Int {
	var sum uint256.Int
	for _, b := range l.balances {
		b := b
		sum.Add(&sum, &b)
	}

	return &sum
}

// balanceOf is BalanceOf without locking.
func (l *Ledger) balanceOf(account util.Uint160) *uint256.Int {
	b, ok := l.balances[account]
	if !ok {
		return new(uint256.Int)
	}

	return &b
}

// setBalance overwrites balance of the account. Must be called under the
// write lock except construction.
func (l *Ledger) setBalance(account util.Uint160, value *uint256.Int) {
	if value.IsZero() {
		delete(l.balances, account)
		return
	}

	l.balances[account] = *value
}
