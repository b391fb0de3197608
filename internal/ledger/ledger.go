// =============================
// File: internal/ledger/ledger.go
// =============================
package ledger

import (
	"context"
	"errors"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnknownAccount    = errors.New("unknown account")
	ErrAmountOverflow    = errors.New("amount overflow")
)

// Ledger is the fungible-token collaborator: it custodies both launched
// assets and the settlement currency. Every call is atomic; an error leaves
// no partial balance change behind.
type Ledger interface {
	Mint(ctx context.Context, asset, to string, amount uint64) error
	Burn(ctx context.Context, asset, from string, amount uint64) error
	Transfer(ctx context.Context, asset, from, to string, amount uint64) error
	Balance(ctx context.Context, asset, who string) (uint64, error)
	EnsureAccountReady(ctx context.Context, asset, who string) error
}
