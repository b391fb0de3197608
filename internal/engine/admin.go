// =============================
// File: internal/engine/admin.go
// =============================
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/curve"
)

// updateConfig applies one authority-gated mutation. The candidate config
// is validated as a whole before it replaces the live one, so a bad setter
// call can never leave the platform half-configured.
func (e *Engine) updateConfig(caller, what string, apply func(*GlobalConfig)) error {
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()

	if caller != e.cfg.Authority {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller)
	}
	next := e.cfg
	apply(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	e.cfg = next
	e.logger.Info("Config updated", zap.String("field", what))
	return nil
}

// SetPlatformFee changes the normal-regime fee, in basis points.
func (e *Engine) SetPlatformFee(caller string, bps uint64) error {
	if bps > curve.BpsDenominator {
		return fmt.Errorf("%w: fee %d bps above %d", ErrInvalidInput, bps, curve.BpsDenominator)
	}
	return e.updateConfig(caller, "platform_fee_bps", func(c *GlobalConfig) { c.PlatformFeeBps = bps })
}

// SetHighFee changes the post-threshold fee, in basis points.
func (e *Engine) SetHighFee(caller string, bps uint64) error {
	if bps > curve.BpsDenominator {
		return fmt.Errorf("%w: fee %d bps above %d", ErrInvalidInput, bps, curve.BpsDenominator)
	}
	return e.updateConfig(caller, "high_fee_bps", func(c *GlobalConfig) { c.HighFeeBps = bps })
}

// SetFeeRecipient redirects platform fees. The account is readied before
// the switch so the first fee transfer after the change cannot fail on a
// missing account.
func (e *Engine) SetFeeRecipient(ctx context.Context, caller, recipient string) error {
	if recipient == "" {
		return fmt.Errorf("%w: empty fee recipient", ErrInvalidInput)
	}
	cfg := e.snapshotConfig()
	if err := e.ledger.EnsureAccountReady(ctx, cfg.SettlementAsset, recipient); err != nil {
		return fmt.Errorf("prepare fee recipient account: %w", err)
	}
	return e.updateConfig(caller, "fee_recipient", func(c *GlobalConfig) { c.FeeRecipient = recipient })
}

// SetMigrationThreshold changes the real-balance level that flips pools
// into the high-fee regime. Pools already past the old threshold are
// re-evaluated against the new one on their next operation.
func (e *Engine) SetMigrationThreshold(caller string, threshold uint64) error {
	return e.updateConfig(caller, "migration_threshold", func(c *GlobalConfig) { c.MigrationThreshold = threshold })
}

func (e *Engine) SetMinTradeSize(caller string, size uint64) error {
	return e.updateConfig(caller, "min_trade_size", func(c *GlobalConfig) { c.MinTradeSize = size })
}

func (e *Engine) SetMigrationGasReserve(caller string, reserve uint64) error {
	return e.updateConfig(caller, "migration_gas_reserve", func(c *GlobalConfig) { c.MigrationGasReserve = reserve })
}

func (e *Engine) SetLastBuyerWait(caller string, wait time.Duration) error {
	return e.updateConfig(caller, "last_buyer_wait", func(c *GlobalConfig) { c.LastBuyerWait = wait })
}

func (e *Engine) SetMigrationDeadlineOffset(caller string, offset time.Duration) error {
	return e.updateConfig(caller, "migration_deadline_offset", func(c *GlobalConfig) { c.MigrationDeadlineOffset = offset })
}

// SetInitialReserves changes the virtual reserves future launches start
// with; existing pools keep the reserves they launched with.
func (e *Engine) SetInitialReserves(caller string, tokenReserve, settlementReserve uint64) error {
	return e.updateConfig(caller, "initial_virtual_reserves", func(c *GlobalConfig) {
		c.InitialVirtualTokenReserve = tokenReserve
		c.InitialVirtualSettlementReserve = settlementReserve
	})
}
