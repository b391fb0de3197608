// =============================
// File: internal/engine/errors.go
// =============================
package engine

import (
	"errors"

	"github.com/rovshanmuradov/launchpad/internal/curve"
)

// One sentinel per user-visible condition so callers can react with
// errors.Is instead of parsing messages.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("caller is not the configured authority")
	ErrAssetNotFound    = errors.New("asset not found")
	ErrAssetExists      = errors.New("asset already launched")
	ErrAlreadyCompleted = errors.New("pool already completed")
	ErrAmountTooLow     = errors.New("amount below minimum trade size")
	ErrSlippageExceeded = errors.New("price impact exceeds slippage bound")
	// ErrInsufficientBalance is about the trader's holdings; curve-side
	// shortfalls surface as ErrInsufficientLiquidity.
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrWaitNotReached      = errors.New("last buyer wait time not reached")
	ErrWaitWindowClosed    = errors.New("wait window closed for further trades")
	ErrNoSellInHighFee     = errors.New("selling disabled during high fee period")
	ErrNoLastBuyer         = errors.New("no last buyer recorded")
	ErrThresholdNotReached = errors.New("migration threshold not reached")

	// ErrInsufficientLiquidity aliases the curve sentinel so both packages
	// report the same condition.
	ErrInsufficientLiquidity = curve.ErrInsufficientLiquidity
)
