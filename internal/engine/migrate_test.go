// =============================
// File: internal/engine/migrate_test.go
// =============================
package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/launchpad/internal/engine"
)

// crossThreshold buys 100,000 tokens for alice. At harness scale that costs
// 111,112 settlement, which crosses the 100,000 threshold in one trade and
// records alice as the last buyer.
func crossThreshold(t *testing.T, h *harness) {
	t.Helper()
	h.fund(t, "alice", 200_000)
	_, err := h.engine.Buy(context.Background(), "alice", "MEME", 100_000)
	require.NoError(t, err)
}

func TestClaimMigrationRight(t *testing.T) {
	ctx := context.Background()

	t.Run("seeds a fresh pair", func(t *testing.T) {
		h := newHarness(t)
		h.launch(t, "MEME")
		crossThreshold(t, h)
		h.clock.Advance(h.cfg.LastBuyerWait + time.Second)

		r, err := h.engine.ClaimMigrationRight(ctx, "alice", "MEME")
		require.NoError(t, err)

		// Final curve state: 1,111,112 / 900,000, spot price 123,456,888.
		// Seeding 111,112 real settlement at that price takes 90,000
		// tokens; the remaining 810,000 virtual tokens are burned and a
		// tenth of them is the claimant's reward.
		require.Equal(t, uint64(90_000), r.TokenSeeded)
		require.Equal(t, uint64(810_000), r.Burned)
		require.Equal(t, uint64(81_000), r.Reward)
		require.Equal(t, uint64(1_000), r.GasReserve)
		require.Equal(t, uint64(110_112), r.SettlementMoved)
		require.Equal(t, uint64(0), r.SwappedLeftover)

		exists, err := h.dex.PairExists(ctx, "MEME", testSettlement)
		require.NoError(t, err)
		require.True(t, exists)
		ra, rc, err := h.dex.Reserves(ctx, "MEME", testSettlement)
		require.NoError(t, err)
		require.Equal(t, uint64(90_000), ra)
		require.Equal(t, uint64(110_112), rc)

		// Claimant keeps the bought tokens and gains the reward.
		require.Equal(t, uint64(181_000), h.tokenBalance(t, "MEME", "alice"))
		// Buy fee 1,111 plus the migration gas reserve.
		require.Equal(t, uint64(2_111), h.settlementBalance(t, testFeeRecipient))
		// Vault and escrow are fully drained.
		require.Equal(t, uint64(0), h.settlementBalance(t, engine.VaultAccount("MEME")))
		require.Equal(t, uint64(0), h.settlementBalance(t, engine.EscrowAccount))
		require.Equal(t, uint64(0), h.tokenBalance(t, "MEME", engine.EscrowAccount))

		info, err := h.engine.PoolInfo("MEME")
		require.NoError(t, err)
		require.Equal(t, engine.StageCompleted, info.Stage)
		require.Equal(t, uint64(0), info.RealBalance)
	})

	t.Run("existing pair absorbs the settlement surplus", func(t *testing.T) {
		h := newHarness(t)
		h.launch(t, "MEME")

		// Pre-existing pair at 0.5 settlement per token. The DEX draws
		// from the escrow account, so stage its funds directly.
		require.NoError(t, h.ledger.Mint(ctx, "MEME", engine.EscrowAccount, 100_000))
		h.fund(t, engine.EscrowAccount, 50_000)
		require.NoError(t, h.dex.AddLiquidity(ctx, "MEME", testSettlement,
			100_000, 100_000, 50_000, 50_000, "lp-owner", h.clock.Now().Add(time.Minute)))

		crossThreshold(t, h)
		h.clock.Advance(h.cfg.LastBuyerWait + time.Second)

		r, err := h.engine.ClaimMigrationRight(ctx, "alice", "MEME")
		require.NoError(t, err)

		// The ratio takes 45,000 settlement against all 90,000 seed
		// tokens; the 65,112 surplus is swapped through the pair and the
		// 77,266 token output lands on the fee recipient.
		require.Equal(t, uint64(90_000), r.TokenSeeded)
		require.Equal(t, uint64(65_112), r.SwappedLeftover)

		ra, rc, err := h.dex.Reserves(ctx, "MEME", testSettlement)
		require.NoError(t, err)
		require.Equal(t, uint64(112_734), ra)
		require.Equal(t, uint64(160_112), rc)
		require.Equal(t, uint64(77_266), h.tokenBalance(t, "MEME", testFeeRecipient))
	})

	t.Run("existing pair absorbs the token surplus", func(t *testing.T) {
		h := newHarness(t)
		h.launch(t, "MEME")

		// Pre-existing pair at 2 settlement per token; the seed is
		// settlement-bound, leftover tokens go to the fee recipient.
		require.NoError(t, h.ledger.Mint(ctx, "MEME", engine.EscrowAccount, 10_000))
		h.fund(t, engine.EscrowAccount, 20_000)
		require.NoError(t, h.dex.AddLiquidity(ctx, "MEME", testSettlement,
			10_000, 10_000, 20_000, 20_000, "lp-owner", h.clock.Now().Add(time.Minute)))

		crossThreshold(t, h)
		h.clock.Advance(h.cfg.LastBuyerWait + time.Second)

		r, err := h.engine.ClaimMigrationRight(ctx, "alice", "MEME")
		require.NoError(t, err)
		require.Equal(t, uint64(0), r.SwappedLeftover)

		// useToken = 110,112 * 10,000 / 20,000 = 55,056; the other
		// 34,944 seed tokens land on the fee recipient.
		ra, rc, err := h.dex.Reserves(ctx, "MEME", testSettlement)
		require.NoError(t, err)
		require.Equal(t, uint64(10_000+55_056), ra)
		require.Equal(t, uint64(20_000+110_112), rc)
		require.Equal(t, uint64(34_944), h.tokenBalance(t, "MEME", testFeeRecipient))
		require.Equal(t, uint64(0), h.tokenBalance(t, "MEME", engine.EscrowAccount))
	})

	t.Run("too early", func(t *testing.T) {
		h := newHarness(t)
		h.launch(t, "MEME")
		crossThreshold(t, h)
		h.clock.Advance(h.cfg.LastBuyerWait - time.Second)

		_, err := h.engine.ClaimMigrationRight(ctx, "alice", "MEME")
		require.ErrorIs(t, err, engine.ErrWaitNotReached)
	})

	t.Run("any caller may claim, reward goes to the last buyer", func(t *testing.T) {
		h := newHarness(t)
		h.launch(t, "MEME")
		crossThreshold(t, h)
		h.clock.Advance(h.cfg.LastBuyerWait + time.Second)

		r, err := h.engine.ClaimMigrationRight(ctx, "bob", "MEME")
		require.NoError(t, err)
		require.Equal(t, "bob", r.Claimant)
		require.Equal(t, uint64(81_000), r.Reward)
		require.Equal(t, uint64(181_000), h.tokenBalance(t, "MEME", "alice"))
		require.Equal(t, uint64(0), h.tokenBalance(t, "MEME", "bob"))
	})

	t.Run("threshold not reached", func(t *testing.T) {
		h := newHarness(t)
		h.launch(t, "MEME")
		h.fund(t, "alice", 60_000)
		_, err := h.engine.Buy(ctx, "alice", "MEME", 50_000)
		require.NoError(t, err)

		_, err = h.engine.ClaimMigrationRight(ctx, "alice", "MEME")
		require.ErrorIs(t, err, engine.ErrThresholdNotReached)
	})

	t.Run("no last buyer after threshold lowered", func(t *testing.T) {
		h := newHarness(t)
		h.launch(t, "MEME")
		h.fund(t, "alice", 60_000)
		_, err := h.engine.Buy(ctx, "alice", "MEME", 50_000)
		require.NoError(t, err)

		require.NoError(t, h.engine.SetMigrationThreshold(testAuthority, 50_000))
		_, err = h.engine.ClaimMigrationRight(ctx, "alice", "MEME")
		require.ErrorIs(t, err, engine.ErrNoLastBuyer)
	})

	t.Run("claim is one shot", func(t *testing.T) {
		h := newHarness(t)
		h.launch(t, "MEME")
		crossThreshold(t, h)
		h.clock.Advance(h.cfg.LastBuyerWait + time.Second)

		_, err := h.engine.ClaimMigrationRight(ctx, "alice", "MEME")
		require.NoError(t, err)
		_, err = h.engine.ClaimMigrationRight(ctx, "alice", "MEME")
		require.ErrorIs(t, err, engine.ErrAlreadyCompleted)
	})

	t.Run("completed pool rejects trades", func(t *testing.T) {
		h := newHarness(t)
		h.launch(t, "MEME")
		crossThreshold(t, h)
		h.clock.Advance(h.cfg.LastBuyerWait + time.Second)

		_, err := h.engine.ClaimMigrationRight(ctx, "alice", "MEME")
		require.NoError(t, err)

		_, err = h.engine.Buy(ctx, "alice", "MEME", 1_000)
		require.ErrorIs(t, err, engine.ErrAlreadyCompleted)
		_, err = h.engine.Sell(ctx, "alice", "MEME", 1_000)
		require.ErrorIs(t, err, engine.ErrAlreadyCompleted)
		_, err = h.engine.QuoteBuy("MEME", 1_000)
		require.ErrorIs(t, err, engine.ErrAlreadyCompleted)
	})
}
