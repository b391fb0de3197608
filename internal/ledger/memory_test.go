package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemory_MintTransferBurn(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(zap.NewNop())

	require.NoError(t, m.Mint(ctx, "apt", "alice", 1_000))
	require.NoError(t, m.Transfer(ctx, "apt", "alice", "bob", 400))

	aliceBal, err := m.Balance(ctx, "apt", "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(600), aliceBal)

	bobBal, err := m.Balance(ctx, "apt", "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(400), bobBal)

	require.NoError(t, m.Burn(ctx, "apt", "bob", 400))
	bobBal, _ = m.Balance(ctx, "apt", "bob")
	assert.Zero(t, bobBal)
}

func TestMemory_FailuresLeaveNoPartialChange(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(zap.NewNop())
	require.NoError(t, m.Mint(ctx, "apt", "alice", 100))

	err := m.Transfer(ctx, "apt", "alice", "bob", 101)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	err = m.Burn(ctx, "apt", "alice", 101)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	err = m.Transfer(ctx, "btc", "alice", "bob", 1)
	assert.ErrorIs(t, err, ErrUnknownAccount)

	aliceBal, _ := m.Balance(ctx, "apt", "alice")
	assert.Equal(t, uint64(100), aliceBal)
	bobBal, _ := m.Balance(ctx, "apt", "bob")
	assert.Zero(t, bobBal)
}

func TestMemory_BalanceOfUnknownAssetIsZero(t *testing.T) {
	m := NewMemory(zap.NewNop())
	bal, err := m.Balance(context.Background(), "nope", "alice")
	require.NoError(t, err)
	assert.Zero(t, bal)
}
