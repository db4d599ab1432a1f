// Package token defines the fungible-token collaborator the platform settles
// fees and rewards against. The platform consumes this interface; the real
// ledger is an external account-balance service provided by the host.
package token

import (
	"errors"
	"math/big"

	"crowdledger/core/types"
)

var (
	ErrInvalidAmount         = errors.New("token: amount must be positive")
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
)

// Ledger is the external token service contract. Transfer and Mint act on
// behalf of the platform principal the ledger was bound to.
type Ledger interface {
	BalanceOf(addr types.Address) (*big.Int, error)
	Allowance(owner, spender types.Address) (*big.Int, error)
	TransferFrom(from, to types.Address, amount *big.Int) error
	Transfer(to types.Address, amount *big.Int) error
	Mint(to types.Address, amount *big.Int) error
}
