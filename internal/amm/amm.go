// =============================
// File: internal/amm/amm.go
// =============================
package amm

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPairNotFound     = errors.New("pair not found")
	ErrDeadlineExceeded = errors.New("deadline exceeded")
	ErrSlippage         = errors.New("output below minimum")
	ErrBadPath          = errors.New("unsupported swap path")
)

// AMM is the external constant-product DEX that receives migrated liquidity.
// Pairs are keyed (asset, currency); amounts are base units.
type AMM interface {
	PairExists(ctx context.Context, asset, currency string) (bool, error)
	// Reserves returns (reserveAsset, reserveCurrency).
	Reserves(ctx context.Context, asset, currency string) (uint64, uint64, error)
	// AddLiquidity seeds the pair when it does not exist yet.
	AddLiquidity(ctx context.Context, asset, currency string,
		amountAsset, minAsset, amountCurrency, minCurrency uint64,
		recipient string, deadline time.Time) error
	// SwapExactIn swaps along a two-element path and returns the output amount.
	SwapExactIn(ctx context.Context, amountIn, minOut uint64, path []string,
		recipient string, deadline time.Time) (uint64, error)
}
