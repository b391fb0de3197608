// =============================
// File: internal/engine/migrate.go
// =============================
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/events"
)

// lastBuyerRewardDivisor gives the last buyer one tenth of the token supply
// the migration retires from the curve.
const lastBuyerRewardDivisor = 10

// MigrationReceipt reports a completed migration back to the caller.
type MigrationReceipt struct {
	Asset           string
	Claimant        string
	SettlementMoved uint64 // net of the gas reserve
	GasReserve      uint64
	TokenSeeded     uint64
	Burned          uint64
	Reward          uint64
	SwappedLeftover uint64 // settlement swapped into the pair after seeding
	SpotPrice       uint64
	CompletedAt     time.Time
}

// ClaimMigrationRight moves the pool's accumulated settlement balance to
// the external DEX and completes the pool. Any caller may file the claim
// once the wait window has elapsed; the reward always goes to the recorded
// last buyer.
func (e *Engine) ClaimMigrationRight(ctx context.Context, caller, asset string) (*MigrationReceipt, error) {
	if caller == "" || asset == "" {
		return nil, fmt.Errorf("%w: empty caller or asset", ErrInvalidInput)
	}
	cfg := e.snapshotConfig()
	entry, err := e.entry(asset)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	p := &entry.pool
	if p.IsCompleted {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyCompleted, asset)
	}
	if entry.realBalance < cfg.MigrationThreshold {
		return nil, fmt.Errorf("%w: real balance %d < %d", ErrThresholdNotReached, entry.realBalance, cfg.MigrationThreshold)
	}
	if p.LastBuyer == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoLastBuyer, asset)
	}
	now := e.now()
	eligibleAt := p.LastBuyer.Timestamp.Add(cfg.LastBuyerWait)
	if now.Before(eligibleAt) {
		return nil, fmt.Errorf("%w: eligible at %s", ErrWaitNotReached, eligibleAt.Format(time.RFC3339))
	}

	// Token side of the seed: enough supply that the pair opens at the
	// curve's final spot price.
	price, err := curve.SpotPrice(p.VirtualSettlementReserve, p.VirtualTokenReserve)
	if err != nil {
		return nil, err
	}
	requiredToken, err := mulDiv(entry.realBalance, curve.PriceScale, price)
	if err != nil {
		return nil, err
	}
	if requiredToken == 0 || requiredToken >= p.VirtualTokenReserve {
		return nil, fmt.Errorf("%w: unseedable token amount %d", ErrInsufficientLiquidity, requiredToken)
	}
	burned := p.VirtualTokenReserve - requiredToken
	reward := burned / lastBuyerRewardDivisor

	gas := cfg.MigrationGasReserve
	if entry.realBalance <= gas {
		return nil, fmt.Errorf("%w: balance %d cannot cover gas reserve %d", ErrInsufficientLiquidity, entry.realBalance, gas)
	}
	available := entry.realBalance - gas

	// Stage funds: gas to the fee recipient, the rest plus the token seed
	// onto the escrow account the DEX draws from.
	vault := VaultAccount(asset)
	if err := e.ledger.Transfer(ctx, cfg.SettlementAsset, vault, cfg.FeeRecipient, gas); err != nil {
		return nil, fmt.Errorf("reserve migration gas: %w", err)
	}
	if err := e.ledger.Transfer(ctx, cfg.SettlementAsset, vault, EscrowAccount, available); err != nil {
		e.refund(ctx, cfg.SettlementAsset, cfg.FeeRecipient, vault, gas)
		return nil, fmt.Errorf("stage settlement: %w", err)
	}
	if err := e.ledger.Mint(ctx, asset, EscrowAccount, requiredToken); err != nil {
		e.refund(ctx, cfg.SettlementAsset, EscrowAccount, vault, available)
		e.refund(ctx, cfg.SettlementAsset, cfg.FeeRecipient, vault, gas)
		return nil, fmt.Errorf("mint seed tokens: %w", err)
	}

	swapped, err := e.seedPair(ctx, &cfg, asset, requiredToken, available, now)
	if err != nil {
		_ = e.ledger.Burn(ctx, asset, EscrowAccount, requiredToken)
		e.refund(ctx, cfg.SettlementAsset, EscrowAccount, vault, available)
		e.refund(ctx, cfg.SettlementAsset, cfg.FeeRecipient, vault, gas)
		return nil, fmt.Errorf("seed pair: %w", err)
	}

	if reward > 0 {
		if err := e.ledger.Mint(ctx, asset, p.LastBuyer.Buyer, reward); err != nil {
			// The pair is already live; the reward failing cannot unwind
			// the migration.
			e.logger.Error("Last buyer reward mint failed",
				zap.String("asset", asset),
				zap.String("buyer", p.LastBuyer.Buyer),
				zap.Uint64("reward", reward),
				zap.Error(err))
			reward = 0
		}
	}

	// Commit.
	oldStage := e.stageLocked(entry, &cfg, now)
	p.IsCompleted = true
	moved := available
	entry.realBalance = 0

	e.metrics.RecordMigration(asset)

	e.logger.Info("Migration completed",
		zap.String("asset", asset),
		zap.String("claimant", caller),
		zap.Uint64("settlement_moved", moved),
		zap.Uint64("token_seeded", requiredToken),
		zap.Uint64("burned", burned),
		zap.Uint64("reward", reward),
		zap.Uint64("spot_price", price))

	e.publish(events.MigrationCompletedEvent{
		BaseEvent:                events.BaseEvent{EventType: events.MigrationCompleted, EventTime: now},
		Asset:                    asset,
		SettlementMoved:          moved,
		TokenSeeded:              requiredToken,
		Burned:                   burned,
		LastBuyer:                p.LastBuyer.Buyer,
		Reward:                   reward,
		VirtualTokenReserve:      p.VirtualTokenReserve,
		VirtualSettlementReserve: p.VirtualSettlementReserve,
	})
	e.publish(events.StageChangedEvent{
		BaseEvent: events.BaseEvent{EventType: events.StageChanged, EventTime: now},
		Asset:     asset,
		From:      oldStage.String(),
		To:        StageCompleted.String(),
	})

	return &MigrationReceipt{
		Asset:           asset,
		Claimant:        caller,
		SettlementMoved: moved,
		GasReserve:      gas,
		TokenSeeded:     requiredToken,
		Burned:          burned,
		Reward:          reward,
		SwappedLeftover: swapped,
		SpotPrice:       price,
		CompletedAt:     now,
	}, nil
}

// seedPair places the staged liquidity on the external DEX. When a pair
// already exists its current ratio decides how much of each side fits; the
// remainder is swapped through the pair (settlement side) or handed to the
// fee recipient (token side).
func (e *Engine) seedPair(ctx context.Context, cfg *GlobalConfig, asset string, tokenAmount, settlementAmount uint64, now time.Time) (uint64, error) {
	deadline := now.Add(cfg.MigrationDeadlineOffset)

	exists, err := e.dex.PairExists(ctx, asset, cfg.SettlementAsset)
	if err != nil {
		return 0, fmt.Errorf("check pair: %w", err)
	}
	if !exists {
		return 0, e.dex.AddLiquidity(ctx, asset, cfg.SettlementAsset,
			tokenAmount, tokenAmount, settlementAmount, settlementAmount,
			cfg.FeeRecipient, deadline)
	}

	ra, rc, err := e.dex.Reserves(ctx, asset, cfg.SettlementAsset)
	if err != nil {
		return 0, fmt.Errorf("read pair reserves: %w", err)
	}
	if ra == 0 || rc == 0 {
		return 0, e.dex.AddLiquidity(ctx, asset, cfg.SettlementAsset,
			tokenAmount, tokenAmount, settlementAmount, settlementAmount,
			cfg.FeeRecipient, deadline)
	}

	// Match the live ratio; whichever side we have too much of gets
	// handled after the add.
	needSettlement, err := mulDiv(tokenAmount, rc, ra)
	if err != nil {
		return 0, err
	}
	if needSettlement <= settlementAmount {
		if err := e.dex.AddLiquidity(ctx, asset, cfg.SettlementAsset,
			tokenAmount, tokenAmount, needSettlement, needSettlement,
			cfg.FeeRecipient, deadline); err != nil {
			return 0, err
		}
		leftover := settlementAmount - needSettlement
		if leftover == 0 {
			return 0, nil
		}
		if _, err := e.dex.SwapExactIn(ctx, leftover, 0,
			[]string{cfg.SettlementAsset, asset}, cfg.FeeRecipient, deadline); err != nil {
			return 0, fmt.Errorf("swap leftover settlement: %w", err)
		}
		return leftover, nil
	}

	useToken, err := mulDiv(settlementAmount, ra, rc)
	if err != nil {
		return 0, err
	}
	if useToken == 0 {
		return 0, fmt.Errorf("%w: seed too small for pair ratio", ErrInsufficientLiquidity)
	}
	if err := e.dex.AddLiquidity(ctx, asset, cfg.SettlementAsset,
		useToken, useToken, settlementAmount, settlementAmount,
		cfg.FeeRecipient, deadline); err != nil {
		return 0, err
	}
	if leftover := tokenAmount - useToken; leftover > 0 {
		if err := e.ledger.Transfer(ctx, asset, EscrowAccount, cfg.FeeRecipient, leftover); err != nil {
			e.logger.Warn("Leftover seed tokens stuck on escrow",
				zap.String("asset", asset),
				zap.Uint64("amount", leftover),
				zap.Error(err))
		}
	}
	return 0, nil
}
