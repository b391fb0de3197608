package amm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/ledger"
)

const (
	testAsset    = "doge"
	testCurrency = "apt"
	payer        = "escrow"
)

func newTestAMM(t *testing.T) (*Memory, *ledger.Memory) {
	t.Helper()
	l := ledger.NewMemory(zap.NewNop())
	ctx := context.Background()
	require.NoError(t, l.Mint(ctx, testAsset, payer, 1_000_000))
	require.NoError(t, l.Mint(ctx, testCurrency, payer, 1_000_000))
	return NewMemory(l, payer, zap.NewNop()), l
}

func TestMemory_AddLiquidityCreatesPair(t *testing.T) {
	ctx := context.Background()
	m, l := newTestAMM(t)

	exists, err := m.PairExists(ctx, testAsset, testCurrency)
	require.NoError(t, err)
	assert.False(t, exists)

	deadline := time.Now().Add(time.Minute)
	require.NoError(t, m.AddLiquidity(ctx, testAsset, testCurrency,
		500_000, 0, 250_000, 0, "creator", deadline))

	exists, err = m.PairExists(ctx, testAsset, testCurrency)
	require.NoError(t, err)
	assert.True(t, exists)

	ra, rc, err := m.Reserves(ctx, testAsset, testCurrency)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000), ra)
	assert.Equal(t, uint64(250_000), rc)

	payerAsset, _ := l.Balance(ctx, testAsset, payer)
	assert.Equal(t, uint64(500_000), payerAsset)
}

func TestMemory_AddLiquidityDeadline(t *testing.T) {
	m, _ := newTestAMM(t)
	err := m.AddLiquidity(context.Background(), testAsset, testCurrency,
		1, 0, 1, 0, "creator", time.Now().Add(-time.Second))
	assert.ErrorIs(t, err, ErrDeadlineExceeded)
}

func TestMemory_SwapExactIn(t *testing.T) {
	ctx := context.Background()
	m, l := newTestAMM(t)
	deadline := time.Now().Add(time.Minute)
	require.NoError(t, m.AddLiquidity(ctx, testAsset, testCurrency,
		500_000, 0, 250_000, 0, "creator", deadline))

	// Swap settlement currency into the asset.
	out, err := m.SwapExactIn(ctx, 10_000, 1, []string{testCurrency, testAsset},
		"sink", deadline)
	require.NoError(t, err)
	assert.Positive(t, out)
	// 500000*10000/260000 ≈ 19230, minus pool-favoring rounding.
	assert.InDelta(t, 19_230, float64(out), 2)

	sinkBal, _ := l.Balance(ctx, testAsset, "sink")
	assert.Equal(t, out, sinkBal)

	ra, rc, err := m.Reserves(ctx, testAsset, testCurrency)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000)-out, ra)
	assert.Equal(t, uint64(260_000), rc)
}

func TestMemory_SwapUnknownPair(t *testing.T) {
	m, _ := newTestAMM(t)
	_, err := m.SwapExactIn(context.Background(), 1, 0,
		[]string{"x", "y"}, "sink", time.Now().Add(time.Minute))
	assert.ErrorIs(t, err, ErrPairNotFound)
}

func TestMemory_SwapMinOut(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestAMM(t)
	deadline := time.Now().Add(time.Minute)
	require.NoError(t, m.AddLiquidity(ctx, testAsset, testCurrency,
		500_000, 0, 250_000, 0, "creator", deadline))

	_, err := m.SwapExactIn(ctx, 10_000, 1_000_000,
		[]string{testCurrency, testAsset}, "sink", deadline)
	assert.ErrorIs(t, err, ErrSlippage)
}
