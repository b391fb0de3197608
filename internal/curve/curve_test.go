package curve

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	baseUnit = 100_000_000 // 8 decimals

	initTokenReserve      = 100_000_000 * uint64(baseUnit)
	initSettlementReserve = 100_000 * uint64(baseUnit)
)

func TestCostToBuy_ConcreteScenario(t *testing.T) {
	// Launch-state reserves: 100M tokens / 100k settlement, 8 decimals.
	tokenAmount := uint64(4_000_000) * baseUnit

	cost, err := CostToBuy(initSettlementReserve, initTokenReserve, tokenAmount)
	require.NoError(t, err)
	assert.Positive(t, cost)

	// Convexity: the exact cost exceeds the linear spot estimate Δy*x/y.
	spotEstimate := uint64(new(big.Int).Quo(
		new(big.Int).Mul(new(big.Int).SetUint64(tokenAmount), new(big.Int).SetUint64(initSettlementReserve)),
		new(big.Int).SetUint64(initTokenReserve),
	).Uint64())
	assert.Greater(t, cost, spotEstimate)

	// Exact value: ceil(1e13 * 1e16 / 9.6e15) - 1e13.
	assert.Equal(t, uint64(416_666_666_667), cost)

	// The caller applies the mutation; the token side ends at 96M tokens.
	assert.Equal(t, uint64(96_000_000)*baseUnit, initTokenReserve-tokenAmount)

	require.NoError(t, VerifyK(initTokenReserve, initSettlementReserve,
		initTokenReserve-tokenAmount, initSettlementReserve+cost))
}

func TestCostToBuy_Preconditions(t *testing.T) {
	_, err := CostToBuy(0, initTokenReserve, baseUnit)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, err = CostToBuy(initSettlementReserve, 0, baseUnit)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	// Draining or exceeding the token reserve is maximal impact.
	_, err = CostToBuy(initSettlementReserve, initTokenReserve, initTokenReserve)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
	_, err = CostToBuy(initSettlementReserve, initTokenReserve, initTokenReserve+1)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	cost, err := CostToBuy(initSettlementReserve, initTokenReserve, 0)
	require.NoError(t, err)
	assert.Zero(t, cost)
}

func TestRoundTrip_NeverFavorsTrader(t *testing.T) {
	states := []struct {
		tokens, settlement uint64
	}{
		{initTokenReserve, initSettlementReserve},
		{96_000_000 * baseUnit, 10_416_666_666_667},
		{1_000_000, 1_000_000},
		{7, 13},
		{initTokenReserve / 3, initSettlementReserve * 7},
	}
	amounts := []uint64{1, 999, baseUnit, 4_000_000 * uint64(baseUnit)}

	for _, st := range states {
		for _, amount := range amounts {
			if amount >= st.tokens {
				continue
			}
			cost, err := CostToBuy(st.settlement, st.tokens, amount)
			require.NoError(t, err)
			got, err := TokensForSettlement(st.tokens, st.settlement, cost)
			require.NoError(t, err)
			assert.LessOrEqual(t, got, amount,
				"round trip must not return more tokens than the request")
		}
	}
}

func TestSettlementForTokens_RoundsDown(t *testing.T) {
	// Selling into the curve must never pay out the full linear value.
	tokens := uint64(1_000_000) * baseUnit
	payout, err := SettlementForTokens(initTokenReserve, initSettlementReserve, tokens)
	require.NoError(t, err)
	assert.Positive(t, payout)
	assert.Less(t, payout, initSettlementReserve)

	require.NoError(t, VerifyK(initTokenReserve, initSettlementReserve,
		initTokenReserve+tokens, initSettlementReserve-payout))

	// Payout for one base unit of a tiny pool floors to zero rather than
	// rounding against the pool.
	payout, err = SettlementForTokens(1_000_000, 10, 1)
	require.NoError(t, err)
	assert.Zero(t, payout)
}

func TestVerifyK(t *testing.T) {
	assert.NoError(t, VerifyK(100, 200, 100, 200))
	assert.NoError(t, VerifyK(100, 200, 50, 401))

	err := VerifyK(100, 200, 50, 399)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	err = VerifyK(100, 200, 0, 20_000_000)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
	err = VerifyK(100, 200, 20_000_000, 0)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestSpotPrice(t *testing.T) {
	price, err := SpotPrice(initSettlementReserve, initTokenReserve)
	require.NoError(t, err)
	// 100k settlement / 100M tokens = 0.001, scaled by 1e8.
	assert.Equal(t, uint64(100_000), price)

	_, err = SpotPrice(initSettlementReserve, 0)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestPriceImpactBps(t *testing.T) {
	// No movement, no impact.
	assert.Zero(t, PriceImpactBps(initSettlementReserve, initTokenReserve,
		initSettlementReserve, initTokenReserve))

	// Draining a side reports 100%.
	assert.Equal(t, uint64(BpsDenominator),
		PriceImpactBps(initSettlementReserve, initTokenReserve, 0, initTokenReserve))

	// A 4M-token buy moves the price by (25/24)^2-1 ≈ 8.5%.
	cost, err := CostToBuy(initSettlementReserve, initTokenReserve, 4_000_000*uint64(baseUnit))
	require.NoError(t, err)
	impact := PriceImpactBps(initSettlementReserve, initTokenReserve,
		initSettlementReserve+cost, initTokenReserve-4_000_000*uint64(baseUnit))
	assert.InDelta(t, 850, float64(impact), 5)
}
