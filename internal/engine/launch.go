// =============================
// File: internal/engine/launch.go
// =============================
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/events"
)

// Launch deploys a new asset on the curve with the configured initial
// virtual reserves. Deployment is authority-gated; the creator is recorded
// on the pool so the authority can launch on a creator's behalf.
func (e *Engine) Launch(ctx context.Context, caller, asset, name, symbol, creator string) (*Pool, error) {
	cfg := e.snapshotConfig()
	if caller != cfg.Authority {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, caller)
	}
	if asset == "" || len(asset) > maxAssetIDLen {
		return nil, fmt.Errorf("%w: asset id length %d", ErrInvalidInput, len(asset))
	}
	if asset == cfg.SettlementAsset {
		return nil, fmt.Errorf("%w: asset id collides with settlement asset", ErrInvalidInput)
	}
	if name == "" || len(name) > maxNameLen {
		return nil, fmt.Errorf("%w: name length %d", ErrInvalidInput, len(name))
	}
	if symbol == "" || len(symbol) > maxSymbolLen {
		return nil, fmt.Errorf("%w: symbol length %d", ErrInvalidInput, len(symbol))
	}
	if creator == "" {
		creator = caller
	}

	vault := VaultAccount(asset)
	if err := e.ledger.EnsureAccountReady(ctx, cfg.SettlementAsset, vault); err != nil {
		return nil, fmt.Errorf("prepare vault account: %w", err)
	}
	if err := e.ledger.EnsureAccountReady(ctx, asset, vault); err != nil {
		return nil, fmt.Errorf("prepare asset ledger: %w", err)
	}

	now := e.now()
	pool := Pool{
		Asset:                    asset,
		Name:                     name,
		Symbol:                   symbol,
		Creator:                  creator,
		VirtualTokenReserve:      cfg.InitialVirtualTokenReserve,
		VirtualSettlementReserve: cfg.InitialVirtualSettlementReserve,
		CreatedAt:                now,
	}

	e.mu.Lock()
	if _, exists := e.entries[asset]; exists {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAssetExists, asset)
	}
	e.entries[asset] = &poolEntry{pool: pool}
	e.mu.Unlock()

	e.metrics.PoolLaunched()
	e.metrics.SetRealBalance(asset, 0)

	e.logger.Info("Asset launched",
		zap.String("asset", asset),
		zap.String("symbol", symbol),
		zap.String("creator", creator),
		zap.Uint64("virtual_token_reserve", pool.VirtualTokenReserve),
		zap.Uint64("virtual_settlement_reserve", pool.VirtualSettlementReserve))

	e.publish(events.PoolCreatedEvent{
		BaseEvent:                events.BaseEvent{EventType: events.PoolCreated, EventTime: now},
		Asset:                    asset,
		Name:                     name,
		Symbol:                   symbol,
		Creator:                  creator,
		VirtualTokenReserve:      pool.VirtualTokenReserve,
		VirtualSettlementReserve: pool.VirtualSettlementReserve,
	})

	view := pool
	return &view, nil
}
