// =============================
// File: internal/amm/memory.go
// =============================
package amm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/ledger"
)

// Memory is an in-process constant-product DEX. Liquidity and swap inputs
// are debited from the configured payer account on the shared ledger, and
// pair custody lives on a per-pair vault account, so migrations exercise the
// same balance bookkeeping a real DEX settlement would.
type Memory struct {
	mu     sync.RWMutex
	pairs  map[string]*pair
	ledger ledger.Ledger
	payer  string
	now    func() time.Time
	logger *zap.Logger
}

type pair struct {
	asset, currency               string
	reserveAsset, reserveCurrency uint64
}

func NewMemory(l ledger.Ledger, payer string, logger *zap.Logger) *Memory {
	return &Memory{
		pairs:  make(map[string]*pair),
		ledger: l,
		payer:  payer,
		now:    time.Now,
		logger: logger.Named("memory_amm"),
	}
}

// WithClock overrides the wall clock used for deadline checks.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func pairKey(asset, currency string) string { return asset + "/" + currency }

func vaultAccount(asset, currency string) string {
	return "amm-pool:" + pairKey(asset, currency)
}

func (m *Memory) PairExists(_ context.Context, asset, currency string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.pairs[pairKey(asset, currency)]
	return ok, nil
}

func (m *Memory) Reserves(_ context.Context, asset, currency string) (uint64, uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pairs[pairKey(asset, currency)]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrPairNotFound, pairKey(asset, currency))
	}
	return p.reserveAsset, p.reserveCurrency, nil
}

func (m *Memory) AddLiquidity(ctx context.Context, asset, currency string,
	amountAsset, minAsset, amountCurrency, minCurrency uint64,
	recipient string, deadline time.Time) error {

	if m.now().After(deadline) {
		return ErrDeadlineExceeded
	}
	if amountAsset < minAsset || amountCurrency < minCurrency {
		return ErrSlippage
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	vault := vaultAccount(asset, currency)
	if err := m.ledger.Transfer(ctx, asset, m.payer, vault, amountAsset); err != nil {
		return fmt.Errorf("fund asset side: %w", err)
	}
	if err := m.ledger.Transfer(ctx, currency, m.payer, vault, amountCurrency); err != nil {
		// Unwind the first leg so a failed add leaves no partial custody.
		_ = m.ledger.Transfer(ctx, asset, vault, m.payer, amountAsset)
		return fmt.Errorf("fund currency side: %w", err)
	}

	key := pairKey(asset, currency)
	p, ok := m.pairs[key]
	if !ok {
		p = &pair{asset: asset, currency: currency}
		m.pairs[key] = p
	}
	p.reserveAsset += amountAsset
	p.reserveCurrency += amountCurrency

	m.logger.Info("Liquidity added",
		zap.String("pair", key),
		zap.Uint64("amount_asset", amountAsset),
		zap.Uint64("amount_currency", amountCurrency),
		zap.String("lp_recipient", recipient))
	return nil
}

func (m *Memory) SwapExactIn(ctx context.Context, amountIn, minOut uint64,
	path []string, recipient string, deadline time.Time) (uint64, error) {

	if m.now().After(deadline) {
		return 0, ErrDeadlineExceeded
	}
	if len(path) != 2 {
		return 0, fmt.Errorf("%w: length %d", ErrBadPath, len(path))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	in, out := path[0], path[1]
	p, reversed, err := m.lookup(in, out)
	if err != nil {
		return 0, err
	}

	reserveIn, reserveOut := p.reserveAsset, p.reserveCurrency
	if reversed {
		reserveIn, reserveOut = p.reserveCurrency, p.reserveAsset
	}

	// Constant-product output with pool-favoring rounding.
	amountOut, err := curve.SettlementForTokens(reserveIn, reserveOut, amountIn)
	if err != nil {
		return 0, err
	}
	if amountOut < minOut {
		return 0, fmt.Errorf("%w: %d < %d", ErrSlippage, amountOut, minOut)
	}

	vault := vaultAccount(p.asset, p.currency)
	if err := m.ledger.Transfer(ctx, in, m.payer, vault, amountIn); err != nil {
		return 0, fmt.Errorf("fund swap input: %w", err)
	}
	if err := m.ledger.Transfer(ctx, out, vault, recipient, amountOut); err != nil {
		_ = m.ledger.Transfer(ctx, in, vault, m.payer, amountIn)
		return 0, fmt.Errorf("pay swap output: %w", err)
	}

	if reversed {
		p.reserveCurrency += amountIn
		p.reserveAsset -= amountOut
	} else {
		p.reserveAsset += amountIn
		p.reserveCurrency -= amountOut
	}

	m.logger.Debug("Swap executed",
		zap.String("in", in),
		zap.String("out", out),
		zap.Uint64("amount_in", amountIn),
		zap.Uint64("amount_out", amountOut))
	return amountOut, nil
}

func (m *Memory) lookup(in, out string) (*pair, bool, error) {
	if p, ok := m.pairs[pairKey(in, out)]; ok {
		return p, false, nil
	}
	if p, ok := m.pairs[pairKey(out, in)]; ok {
		return p, true, nil
	}
	return nil, false, fmt.Errorf("%w: %s/%s", ErrPairNotFound, in, out)
}
