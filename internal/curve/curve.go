// =============================
// File: internal/curve/curve.go
// =============================
package curve

import (
	"errors"
	"fmt"
	"math/big"
)

// PriceScale is the fixed-point scale used for spot prices (8 decimals).
const PriceScale = 100_000_000

// BpsDenominator is the basis-points denominator shared with fee math.
const BpsDenominator = 10_000

var (
	// ErrInsufficientLiquidity covers every curve precondition violation:
	// zero reserves, a request draining a reserve, or a mutation that would
	// shrink the constant product.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// ErrOverflow is returned when a result does not fit in uint64.
	ErrOverflow = errors.New("curve arithmetic overflow")
)

// mulDivCeil returns ceil(a*b/den) using arbitrary-precision intermediates.
// den must be nonzero.
func mulDivCeil(a, b, den uint64) (uint64, error) {
	num := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	d := new(big.Int).SetUint64(den)
	q, r := new(big.Int).QuoRem(num, d, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	if !q.IsUint64() {
		return 0, ErrOverflow
	}
	return q.Uint64(), nil
}

// CostToBuy returns the settlement cost of taking exactly tokenAmount out of
// the curve: Δx = ceil(x*y/(y-Δy)) - x. The quotient is ceiled so the cost
// rounds up and the pool is never under-charged.
func CostToBuy(settlementReserve, tokenReserve, tokenAmount uint64) (uint64, error) {
	if settlementReserve == 0 || tokenReserve == 0 {
		return 0, fmt.Errorf("%w: zero reserve", ErrInsufficientLiquidity)
	}
	if tokenAmount == 0 {
		return 0, nil
	}
	if tokenAmount >= tokenReserve {
		return 0, fmt.Errorf("%w: buy of %d would drain token reserve %d",
			ErrInsufficientLiquidity, tokenAmount, tokenReserve)
	}
	newSettlement, err := mulDivCeil(settlementReserve, tokenReserve, tokenReserve-tokenAmount)
	if err != nil {
		return 0, err
	}
	return newSettlement - settlementReserve, nil
}

// TokensForSettlement returns how many tokens exactly settlementAmount buys:
// Δy = y - ceil(x*y/(x+Δx)). Ceiling the quotient rounds the token output
// down, so the curve never gives out more tokens than warranted.
func TokensForSettlement(tokenReserve, settlementReserve, settlementAmount uint64) (uint64, error) {
	if settlementReserve == 0 || tokenReserve == 0 {
		return 0, fmt.Errorf("%w: zero reserve", ErrInsufficientLiquidity)
	}
	if settlementAmount == 0 {
		return 0, nil
	}
	newSettlement := settlementReserve + settlementAmount
	if newSettlement < settlementReserve {
		return 0, ErrOverflow
	}
	newToken, err := mulDivCeil(tokenReserve, settlementReserve, newSettlement)
	if err != nil {
		return 0, err
	}
	return tokenReserve - newToken, nil
}

// SettlementForTokens returns the settlement payout for selling exactly
// tokenAmount into the curve: Δx = x - ceil(x*y/(y+Δy)). Ceiling the
// quotient rounds the payout down in the pool's favor.
func SettlementForTokens(tokenReserve, settlementReserve, tokenAmount uint64) (uint64, error) {
	if settlementReserve == 0 || tokenReserve == 0 {
		return 0, fmt.Errorf("%w: zero reserve", ErrInsufficientLiquidity)
	}
	if tokenAmount == 0 {
		return 0, nil
	}
	newToken := tokenReserve + tokenAmount
	if newToken < tokenReserve {
		return 0, ErrOverflow
	}
	newSettlement, err := mulDivCeil(settlementReserve, tokenReserve, newToken)
	if err != nil {
		return 0, err
	}
	return settlementReserve - newSettlement, nil
}

// VerifyK fails when the constant product would decrease, or when either
// final reserve hits zero. Callers invoke it after every reserve mutation.
func VerifyK(initialTokens, initialSettlement, finalTokens, finalSettlement uint64) error {
	if finalTokens == 0 || finalSettlement == 0 {
		return fmt.Errorf("%w: reserve drained to zero", ErrInsufficientLiquidity)
	}
	before := new(big.Int).Mul(new(big.Int).SetUint64(initialTokens), new(big.Int).SetUint64(initialSettlement))
	after := new(big.Int).Mul(new(big.Int).SetUint64(finalTokens), new(big.Int).SetUint64(finalSettlement))
	if after.Cmp(before) < 0 {
		return fmt.Errorf("%w: constant product decreased", ErrInsufficientLiquidity)
	}
	return nil
}

// SpotPrice returns the fixed-point price settlement/token scaled by
// PriceScale, truncated.
func SpotPrice(settlementReserve, tokenReserve uint64) (uint64, error) {
	if tokenReserve == 0 {
		return 0, fmt.Errorf("%w: zero token reserve", ErrInsufficientLiquidity)
	}
	num := new(big.Int).Mul(new(big.Int).SetUint64(settlementReserve), big.NewInt(PriceScale))
	num.Quo(num, new(big.Int).SetUint64(tokenReserve))
	if !num.IsUint64() {
		return 0, ErrOverflow
	}
	return num.Uint64(), nil
}

// PriceImpactBps computes |p1-p0|/p0 in basis points without intermediate
// truncation: impact = |s1*t0 - s0*t1| * 10000 / (s0*t1). A state that
// drains either side of the final reserves reports maximal impact.
func PriceImpactBps(beforeSettlement, beforeToken, afterSettlement, afterToken uint64) uint64 {
	if beforeSettlement == afterSettlement && beforeToken == afterToken {
		return 0
	}
	if beforeSettlement == 0 || beforeToken == 0 || afterSettlement == 0 || afterToken == 0 {
		return BpsDenominator
	}
	s0 := new(big.Int).SetUint64(beforeSettlement)
	t0 := new(big.Int).SetUint64(beforeToken)
	s1 := new(big.Int).SetUint64(afterSettlement)
	t1 := new(big.Int).SetUint64(afterToken)

	diff := new(big.Int).Sub(new(big.Int).Mul(s1, t0), new(big.Int).Mul(s0, t1))
	diff.Abs(diff)
	diff.Mul(diff, big.NewInt(BpsDenominator))
	diff.Quo(diff, new(big.Int).Mul(s0, t1))
	if !diff.IsUint64() {
		return BpsDenominator
	}
	return diff.Uint64()
}
