package token

import (
	"math/big"

	"crowdledger/core/types"
)

type allowanceKey struct {
	owner   types.Address
	spender types.Address
}

// MemoryLedger is an in-process token ledger used by the daemon in standalone
// mode and by tests. It mirrors the external service's semantics: balances,
// allowances, and an operator principal that Transfer and Mint act as.
type MemoryLedger struct {
	operator   types.Address
	balances   map[types.Address]*big.Int
	allowances map[allowanceKey]*big.Int
}

// NewMemoryLedger constructs an empty ledger whose Transfer and Mint calls
// act as the supplied operator.
func NewMemoryLedger(operator types.Address) *MemoryLedger {
	return &MemoryLedger{
		operator:   operator,
		balances:   make(map[types.Address]*big.Int),
		allowances: make(map[allowanceKey]*big.Int),
	}
}

func (l *MemoryLedger) balance(addr types.Address) *big.Int {
	if bal, ok := l.balances[addr]; ok {
		return bal
	}
	return big.NewInt(0)
}

// BalanceOf returns a copy of the account balance.
func (l *MemoryLedger) BalanceOf(addr types.Address) (*big.Int, error) {
	return new(big.Int).Set(l.balance(addr)), nil
}

// Allowance returns a copy of the amount the spender may draw from the owner.
func (l *MemoryLedger) Allowance(owner, spender types.Address) (*big.Int, error) {
	if allowed, ok := l.allowances[allowanceKey{owner, spender}]; ok {
		return new(big.Int).Set(allowed), nil
	}
	return big.NewInt(0), nil
}

// Approve grants the spender a draw limit on the owner's balance.
func (l *MemoryLedger) Approve(owner, spender types.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	l.allowances[allowanceKey{owner, spender}] = new(big.Int).Set(amount)
	return nil
}

// TransferFrom moves tokens on the strength of the operator's allowance.
func (l *MemoryLedger) TransferFrom(from, to types.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	key := allowanceKey{from, l.operator}
	allowed, ok := l.allowances[key]
	if !ok || allowed.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if l.balance(from).Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.allowances[key] = new(big.Int).Sub(allowed, amount)
	l.balances[from] = new(big.Int).Sub(l.balance(from), amount)
	l.balances[to] = new(big.Int).Add(l.balance(to), amount)
	return nil
}

// Transfer moves tokens out of the operator's own balance.
func (l *MemoryLedger) Transfer(to types.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if l.balance(l.operator).Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.balances[l.operator] = new(big.Int).Sub(l.balance(l.operator), amount)
	l.balances[to] = new(big.Int).Add(l.balance(to), amount)
	return nil
}

// Mint issues new tokens to the account.
func (l *MemoryLedger) Mint(to types.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.balances[to] = new(big.Int).Add(l.balance(to), amount)
	return nil
}
