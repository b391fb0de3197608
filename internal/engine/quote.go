// =============================
// File: internal/engine/quote.go
// =============================
package engine

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/launchpad/internal/curve"
)

// BuyQuote is a non-binding preview of a buy.
type BuyQuote struct {
	Asset          string
	TokenAmount    uint64
	Cost           uint64
	Fee            uint64
	FeeBps         uint64
	TotalCost      uint64
	PriceImpactBps uint64
}

// SellQuote is a non-binding preview of a sell.
type SellQuote struct {
	Asset          string
	TokenAmount    uint64
	Payout         uint64
	Fee            uint64
	FeeBps         uint64
	NetPayout      uint64
	PriceImpactBps uint64
}

// PoolView is a consistent read of one pool.
type PoolView struct {
	Asset                    string
	Name                     string
	Symbol                   string
	Creator                  string
	VirtualTokenReserve      uint64
	VirtualSettlementReserve uint64
	RealBalance              uint64
	Stage                    Stage
	SpotPrice                uint64
	Price                    decimal.Decimal
	CreatedAt                time.Time
}

// LastBuyerView exposes the current migration-right holder.
type LastBuyerView struct {
	Buyer           string
	Timestamp       time.Time
	TokenAmount     uint64
	ClaimEligibleAt time.Time
}

// QuoteBuy prices a buy without touching state. The fee tier reflects the
// pool's current regime.
func (e *Engine) QuoteBuy(asset string, tokenAmount uint64) (*BuyQuote, error) {
	if tokenAmount == 0 {
		return nil, fmt.Errorf("%w: zero token amount", ErrInvalidInput)
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
	feeBps := cfg.PlatformFeeBps
	if entry.realBalance >= cfg.MigrationThreshold {
		feeBps = cfg.HighFeeBps
	}
	cost, err := curve.CostToBuy(p.VirtualSettlementReserve, p.VirtualTokenReserve, tokenAmount)
	if err != nil {
		return nil, err
	}
	fee := feeAmount(cost, feeBps)
	total, err := addChecked(cost, fee)
	if err != nil {
		return nil, err
	}
	newSettlement, err := addChecked(p.VirtualSettlementReserve, cost)
	if err != nil {
		return nil, err
	}
	impact := curve.PriceImpactBps(p.VirtualSettlementReserve, p.VirtualTokenReserve,
		newSettlement, p.VirtualTokenReserve-tokenAmount)

	return &BuyQuote{
		Asset:          asset,
		TokenAmount:    tokenAmount,
		Cost:           cost,
		Fee:            fee,
		FeeBps:         feeBps,
		TotalCost:      total,
		PriceImpactBps: impact,
	}, nil
}

// QuoteSell prices a sell without touching state.
func (e *Engine) QuoteSell(asset string, tokenAmount uint64) (*SellQuote, error) {
	if tokenAmount == 0 {
		return nil, fmt.Errorf("%w: zero token amount", ErrInvalidInput)
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
	if entry.realBalance >= cfg.MigrationThreshold {
		return nil, fmt.Errorf("%w: real balance %d at threshold", ErrNoSellInHighFee, entry.realBalance)
	}
	payout, err := curve.SettlementForTokens(p.VirtualTokenReserve, p.VirtualSettlementReserve, tokenAmount)
	if err != nil {
		return nil, err
	}
	fee := feeAmount(payout, cfg.PlatformFeeBps)
	newToken, err := addChecked(p.VirtualTokenReserve, tokenAmount)
	if err != nil {
		return nil, err
	}
	impact := curve.PriceImpactBps(p.VirtualSettlementReserve, p.VirtualTokenReserve,
		p.VirtualSettlementReserve-payout, newToken)

	return &SellQuote{
		Asset:          asset,
		TokenAmount:    tokenAmount,
		Payout:         payout,
		Fee:            fee,
		FeeBps:         cfg.PlatformFeeBps,
		NetPayout:      payout - fee,
		PriceImpactBps: impact,
	}, nil
}

// Price returns the current spot price in base settlement units per whole
// token unit.
func (e *Engine) Price(asset string) (uint64, error) {
	entry, err := e.entry(asset)
	if err != nil {
		return 0, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return curve.SpotPrice(entry.pool.VirtualSettlementReserve, entry.pool.VirtualTokenReserve)
}

// PoolInfo returns a consistent snapshot of one pool.
func (e *Engine) PoolInfo(asset string) (*PoolView, error) {
	cfg := e.snapshotConfig()
	entry, err := e.entry(asset)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	p := &entry.pool
	spot, err := curve.SpotPrice(p.VirtualSettlementReserve, p.VirtualTokenReserve)
	if err != nil {
		return nil, err
	}
	return &PoolView{
		Asset:                    p.Asset,
		Name:                     p.Name,
		Symbol:                   p.Symbol,
		Creator:                  p.Creator,
		VirtualTokenReserve:      p.VirtualTokenReserve,
		VirtualSettlementReserve: p.VirtualSettlementReserve,
		RealBalance:              entry.realBalance,
		Stage:                    e.stageLocked(entry, &cfg, e.now()),
		SpotPrice:                spot,
		Price:                    decimal.NewFromBigInt(new(big.Int).SetUint64(spot), -8),
		CreatedAt:                p.CreatedAt,
	}, nil
}

// LastBuyerInfo reports the current migration-right holder, or nil when no
// buy has crossed the threshold yet.
func (e *Engine) LastBuyerInfo(asset string) (*LastBuyerView, error) {
	cfg := e.snapshotConfig()
	entry, err := e.entry(asset)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	lb := entry.pool.LastBuyer
	if lb == nil {
		return nil, nil
	}
	return &LastBuyerView{
		Buyer:           lb.Buyer,
		Timestamp:       lb.Timestamp,
		TokenAmount:     lb.TokenAmount,
		ClaimEligibleAt: lb.Timestamp.Add(cfg.LastBuyerWait),
	}, nil
}

// Stage derives the lifecycle stage of an asset at the current time.
func (e *Engine) Stage(asset string) (Stage, error) {
	cfg := e.snapshotConfig()
	entry, err := e.entry(asset)
	if err != nil {
		return StageOpen, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return e.stageLocked(entry, &cfg, e.now()), nil
}

// Assets lists every launched asset id.
func (e *Engine) Assets() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.entries))
	for asset := range e.entries {
		out = append(out, asset)
	}
	return out
}

// ConfigSnapshot returns the configuration trades currently run under.
func (e *Engine) ConfigSnapshot() GlobalConfig {
	return e.snapshotConfig()
}
