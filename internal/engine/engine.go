// =============================
// File: internal/engine/engine.go
// =============================
package engine

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/amm"
	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/events"
	"github.com/rovshanmuradov/launchpad/internal/ledger"
	"github.com/rovshanmuradov/launchpad/internal/metrics"
)

const (
	maxAssetIDLen = 64
	maxNameLen    = 64
	maxSymbolLen  = 16

	// EscrowAccount is the ledger account migrations stage funds on before
	// the external DEX pulls them.
	EscrowAccount = "launchpad:migration-escrow"
)

// VaultAccount is the ledger account holding an asset's accumulated real
// settlement balance.
func VaultAccount(asset string) string {
	return "launchpad:vault:" + asset
}

// Publisher is the event sink consumed by the engine; events.Bus satisfies
// it. Publishing must never block or fail a trade.
type Publisher interface {
	Publish(event events.Event)
}

// Engine owns the registry: all Pool mutation flows through it, one
// in-flight mutation per asset at a time. Distinct assets proceed
// concurrently.
type Engine struct {
	cfgMu sync.RWMutex
	cfg   GlobalConfig

	mu      sync.RWMutex
	entries map[string]*poolEntry

	ledger  ledger.Ledger
	dex     amm.AMM
	pub     Publisher
	metrics *metrics.Collector
	logger  *zap.Logger
	now     func() time.Time
}

// poolEntry pairs a Pool with its real settlement balance; the mutex
// serializes every mutation and consistent read of this asset.
type poolEntry struct {
	mu          sync.Mutex
	pool        Pool
	realBalance uint64
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithClock injects the time source shared by all stage and wait-window
// decisions; tests use a fixed clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.pub = p }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = c }
}

// New validates the configuration and readies the fee and escrow accounts.
func New(cfg GlobalConfig, l ledger.Ledger, dex amm.AMM, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:     cfg,
		entries: make(map[string]*poolEntry),
		ledger:  l,
		dex:     dex,
		logger:  logger.Named("engine"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	ctx := context.Background()
	if err := l.EnsureAccountReady(ctx, cfg.SettlementAsset, cfg.FeeRecipient); err != nil {
		return nil, fmt.Errorf("prepare fee recipient account: %w", err)
	}
	if err := l.EnsureAccountReady(ctx, cfg.SettlementAsset, EscrowAccount); err != nil {
		return nil, fmt.Errorf("prepare escrow account: %w", err)
	}
	return e, nil
}

// snapshotConfig returns the config copy every operation works against.
func (e *Engine) snapshotConfig() GlobalConfig {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	return e.cfg
}

func (e *Engine) entry(asset string) (*poolEntry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	entry, ok := e.entries[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, asset)
	}
	return entry, nil
}

// stageLocked derives the lifecycle stage; the caller holds entry.mu.
func (e *Engine) stageLocked(entry *poolEntry, cfg *GlobalConfig, now time.Time) Stage {
	p := &entry.pool
	if p.IsCompleted {
		return StageCompleted
	}
	if entry.realBalance < cfg.MigrationThreshold {
		return StageOpen
	}
	if p.LastBuyer == nil || now.Before(p.LastBuyer.Timestamp.Add(cfg.LastBuyerWait)) {
		return StageHighFeeWindow
	}
	return StageMigrationEligible
}

func (e *Engine) publish(event events.Event) {
	if e.pub != nil {
		e.pub.Publish(event)
	}
}

// feeAmount truncates amount*bps/10000. bps is capped at the denominator by
// config validation, so the result always fits.
func feeAmount(amount, bps uint64) uint64 {
	v := new(big.Int).Mul(new(big.Int).SetUint64(amount), new(big.Int).SetUint64(bps))
	v.Quo(v, big.NewInt(curve.BpsDenominator))
	return v.Uint64()
}

// mulDiv floors a*b/den with wide intermediates.
func mulDiv(a, b, den uint64) (uint64, error) {
	if den == 0 {
		return 0, fmt.Errorf("%w: zero denominator", ErrInsufficientLiquidity)
	}
	v := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	v.Quo(v, new(big.Int).SetUint64(den))
	if !v.IsUint64() {
		return 0, curve.ErrOverflow
	}
	return v.Uint64(), nil
}

func addChecked(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, curve.ErrOverflow
	}
	return a + b, nil
}
