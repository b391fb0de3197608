// =============================
// File: internal/ledger/memory.go
// =============================
package ledger

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"
)

// Memory is an in-process ledger used by tests and the standalone binary.
// A single mutex makes every call atomic.
type Memory struct {
	mu       sync.RWMutex
	balances map[string]map[string]uint64 // asset -> holder -> amount
	logger   *zap.Logger
}

func NewMemory(logger *zap.Logger) *Memory {
	return &Memory{
		balances: make(map[string]map[string]uint64),
		logger:   logger.Named("memory_ledger"),
	}
}

func (m *Memory) Mint(_ context.Context, asset, to string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	holders := m.holders(asset)
	if holders[to] > math.MaxUint64-amount {
		return ErrAmountOverflow
	}
	holders[to] += amount

	m.logger.Debug("Minted",
		zap.String("asset", asset),
		zap.String("to", to),
		zap.Uint64("amount", amount))
	return nil
}

func (m *Memory) Burn(_ context.Context, asset, from string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	holders, ok := m.balances[asset]
	if !ok {
		return fmt.Errorf("%w: %s has no %s account", ErrUnknownAccount, from, asset)
	}
	if holders[from] < amount {
		return fmt.Errorf("%w: burn %d of %s from %s holding %d",
			ErrInsufficientFunds, amount, asset, from, holders[from])
	}
	holders[from] -= amount

	m.logger.Debug("Burned",
		zap.String("asset", asset),
		zap.String("from", from),
		zap.Uint64("amount", amount))
	return nil
}

func (m *Memory) Transfer(_ context.Context, asset, from, to string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	holders, ok := m.balances[asset]
	if !ok {
		return fmt.Errorf("%w: %s has no %s account", ErrUnknownAccount, from, asset)
	}
	if holders[from] < amount {
		return fmt.Errorf("%w: transfer %d of %s from %s holding %d",
			ErrInsufficientFunds, amount, asset, from, holders[from])
	}
	if holders[to] > math.MaxUint64-amount {
		return ErrAmountOverflow
	}
	holders[from] -= amount
	holders[to] += amount
	return nil
}

func (m *Memory) Balance(_ context.Context, asset, who string) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	holders, ok := m.balances[asset]
	if !ok {
		return 0, nil
	}
	return holders[who], nil
}

// EnsureAccountReady is a no-op beyond registering the asset bucket; the
// in-memory ledger has no rent or account-creation concept.
func (m *Memory) EnsureAccountReady(_ context.Context, asset, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holders(asset)
	return nil
}

func (m *Memory) holders(asset string) map[string]uint64 {
	holders, ok := m.balances[asset]
	if !ok {
		holders = make(map[string]uint64)
		m.balances[asset] = holders
	}
	return holders
}
