// =============================
// File: internal/engine/trade.go
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

// noSlippageBound disables the price-impact pre-check on the plain
// Buy/Sell entry points.
const noSlippageBound = ^uint64(0)

// TradeReceipt reports a committed trade back to the caller.
type TradeReceipt struct {
	Asset                    string
	Trader                   string
	Direction                events.TradeDirection
	TokenAmount              uint64
	SettlementAmount         uint64 // gross cost (buy) or gross payout (sell)
	Fee                      uint64
	FeeBps                   uint64
	PriceImpactBps           uint64
	VirtualTokenReserve      uint64
	VirtualSettlementReserve uint64
	RealBalance              uint64
	Stage                    Stage
	ExecutedAt               time.Time
}

// Buy purchases exactly tokenAmount from the curve.
func (e *Engine) Buy(ctx context.Context, trader, asset string, tokenAmount uint64) (*TradeReceipt, error) {
	return e.buy(ctx, trader, asset, tokenAmount, noSlippageBound)
}

// BuyWithSlippage rejects the trade before any mutation when the expected
// price impact exceeds maxImpactBps.
func (e *Engine) BuyWithSlippage(ctx context.Context, trader, asset string, tokenAmount, maxImpactBps uint64) (*TradeReceipt, error) {
	return e.buy(ctx, trader, asset, tokenAmount, maxImpactBps)
}

func (e *Engine) buy(ctx context.Context, trader, asset string, tokenAmount, maxImpactBps uint64) (*TradeReceipt, error) {
	start := time.Now()
	receipt, err := e.buyLocked(ctx, trader, asset, tokenAmount, maxImpactBps)
	e.metrics.RecordTrade(string(events.DirectionBuy), err == nil, time.Since(start))
	return receipt, err
}

func (e *Engine) buyLocked(ctx context.Context, trader, asset string, tokenAmount, maxImpactBps uint64) (*TradeReceipt, error) {
	if trader == "" || asset == "" {
		return nil, fmt.Errorf("%w: empty trader or asset", ErrInvalidInput)
	}
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

	now := e.now()
	oldStage := e.stageLocked(entry, &cfg, now)

	// Fee tier comes from the real balance before this trade.
	highFee := entry.realBalance >= cfg.MigrationThreshold
	feeBps := cfg.PlatformFeeBps
	if highFee {
		feeBps = cfg.HighFeeBps
		// Discretionary trading stops once the wait window has run out;
		// from that point the pool only accepts a migration claim.
		if p.LastBuyer != nil && now.After(p.LastBuyer.Timestamp.Add(cfg.LastBuyerWait)) {
			return nil, fmt.Errorf("%w: asset %s is migration eligible", ErrWaitWindowClosed, asset)
		}
	}

	cost, err := curve.CostToBuy(p.VirtualSettlementReserve, p.VirtualTokenReserve, tokenAmount)
	if err != nil {
		return nil, err
	}
	if cost < cfg.MinTradeSize {
		return nil, fmt.Errorf("%w: cost %d < %d", ErrAmountTooLow, cost, cfg.MinTradeSize)
	}
	fee := feeAmount(cost, feeBps)

	newSettlement, err := addChecked(p.VirtualSettlementReserve, cost)
	if err != nil {
		return nil, err
	}
	newToken := p.VirtualTokenReserve - tokenAmount
	if err := curve.VerifyK(p.VirtualTokenReserve, p.VirtualSettlementReserve, newToken, newSettlement); err != nil {
		return nil, err
	}

	impact := curve.PriceImpactBps(p.VirtualSettlementReserve, p.VirtualTokenReserve, newSettlement, newToken)
	if impact > maxImpactBps {
		return nil, fmt.Errorf("%w: impact %d bps > %d bps", ErrSlippageExceeded, impact, maxImpactBps)
	}

	total, err := addChecked(cost, fee)
	if err != nil {
		return nil, err
	}
	balance, err := e.ledger.Balance(ctx, cfg.SettlementAsset, trader)
	if err != nil {
		return nil, fmt.Errorf("read trader balance: %w", err)
	}
	if balance < total {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientBalance, total, balance)
	}

	// Ledger unit of work: cost and fee land together or not at all, and
	// the mint only happens after both.
	vault := VaultAccount(asset)
	if err := e.ledger.Transfer(ctx, cfg.SettlementAsset, trader, vault, cost); err != nil {
		return nil, fmt.Errorf("collect cost: %w", err)
	}
	if err := e.ledger.Transfer(ctx, cfg.SettlementAsset, trader, cfg.FeeRecipient, fee); err != nil {
		e.refund(ctx, cfg.SettlementAsset, vault, trader, cost)
		return nil, fmt.Errorf("collect fee: %w", err)
	}
	if err := e.ledger.Mint(ctx, asset, trader, tokenAmount); err != nil {
		e.refund(ctx, cfg.SettlementAsset, cfg.FeeRecipient, trader, fee)
		e.refund(ctx, cfg.SettlementAsset, vault, trader, cost)
		return nil, fmt.Errorf("mint tokens: %w", err)
	}

	// Commit.
	p.VirtualSettlementReserve = newSettlement
	p.VirtualTokenReserve = newToken
	oldBalance := entry.realBalance
	entry.realBalance += cost

	crossed := oldBalance < cfg.MigrationThreshold && entry.realBalance >= cfg.MigrationThreshold
	if crossed || highFee {
		p.LastBuyer = &LastBuyer{Buyer: trader, Timestamp: now, TokenAmount: tokenAmount}
	}

	newStage := e.stageLocked(entry, &cfg, now)
	e.metrics.SetRealBalance(asset, entry.realBalance)

	e.logger.Info("Buy executed",
		zap.String("asset", asset),
		zap.String("trader", trader),
		zap.Uint64("token_amount", tokenAmount),
		zap.Uint64("cost", cost),
		zap.Uint64("fee", fee),
		zap.Uint64("fee_bps", feeBps),
		zap.Uint64("real_balance", entry.realBalance),
		zap.String("stage", newStage.String()))

	e.publish(events.TradeExecutedEvent{
		BaseEvent:                events.BaseEvent{EventType: events.TradeExecuted, EventTime: now},
		Asset:                    asset,
		Trader:                   trader,
		Direction:                events.DirectionBuy,
		TokenAmount:              tokenAmount,
		SettlementAmount:         cost,
		Fee:                      fee,
		FeeBps:                   feeBps,
		VirtualTokenReserve:      newToken,
		VirtualSettlementReserve: newSettlement,
		RealBalance:              entry.realBalance,
	})
	if newStage != oldStage {
		e.publish(events.StageChangedEvent{
			BaseEvent: events.BaseEvent{EventType: events.StageChanged, EventTime: now},
			Asset:     asset,
			From:      oldStage.String(),
			To:        newStage.String(),
		})
	}

	return &TradeReceipt{
		Asset:                    asset,
		Trader:                   trader,
		Direction:                events.DirectionBuy,
		TokenAmount:              tokenAmount,
		SettlementAmount:         cost,
		Fee:                      fee,
		FeeBps:                   feeBps,
		PriceImpactBps:           impact,
		VirtualTokenReserve:      newToken,
		VirtualSettlementReserve: newSettlement,
		RealBalance:              entry.realBalance,
		Stage:                    newStage,
		ExecutedAt:               now,
	}, nil
}

// Sell returns tokenAmount to the curve for a settlement payout. Selling is
// disallowed once the pool has reached the high-fee regime.
func (e *Engine) Sell(ctx context.Context, trader, asset string, tokenAmount uint64) (*TradeReceipt, error) {
	return e.sell(ctx, trader, asset, tokenAmount, noSlippageBound)
}

func (e *Engine) SellWithSlippage(ctx context.Context, trader, asset string, tokenAmount, maxImpactBps uint64) (*TradeReceipt, error) {
	return e.sell(ctx, trader, asset, tokenAmount, maxImpactBps)
}

func (e *Engine) sell(ctx context.Context, trader, asset string, tokenAmount, maxImpactBps uint64) (*TradeReceipt, error) {
	start := time.Now()
	receipt, err := e.sellLocked(ctx, trader, asset, tokenAmount, maxImpactBps)
	e.metrics.RecordTrade(string(events.DirectionSell), err == nil, time.Since(start))
	return receipt, err
}

func (e *Engine) sellLocked(ctx context.Context, trader, asset string, tokenAmount, maxImpactBps uint64) (*TradeReceipt, error) {
	if trader == "" || asset == "" {
		return nil, fmt.Errorf("%w: empty trader or asset", ErrInvalidInput)
	}
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
	if payout < cfg.MinTradeSize {
		return nil, fmt.Errorf("%w: payout %d < %d", ErrAmountTooLow, payout, cfg.MinTradeSize)
	}

	newToken, err := addChecked(p.VirtualTokenReserve, tokenAmount)
	if err != nil {
		return nil, err
	}
	newSettlement := p.VirtualSettlementReserve - payout
	if err := curve.VerifyK(p.VirtualTokenReserve, p.VirtualSettlementReserve, newToken, newSettlement); err != nil {
		return nil, err
	}

	impact := curve.PriceImpactBps(p.VirtualSettlementReserve, p.VirtualTokenReserve, newSettlement, newToken)
	if impact > maxImpactBps {
		return nil, fmt.Errorf("%w: impact %d bps > %d bps", ErrSlippageExceeded, impact, maxImpactBps)
	}

	held, err := e.ledger.Balance(ctx, asset, trader)
	if err != nil {
		return nil, fmt.Errorf("read trader tokens: %w", err)
	}
	if held < tokenAmount {
		return nil, fmt.Errorf("%w: selling %d, holding %d", ErrInsufficientBalance, tokenAmount, held)
	}

	// The vault pays out of real custody; virtual reserves can promise more
	// than the vault actually holds when rounding has favored the pool.
	vault := VaultAccount(asset)
	vaultBalance, err := e.ledger.Balance(ctx, cfg.SettlementAsset, vault)
	if err != nil {
		return nil, fmt.Errorf("read vault balance: %w", err)
	}
	if vaultBalance < payout {
		return nil, fmt.Errorf("%w: vault holds %d, payout %d", ErrInsufficientLiquidity, vaultBalance, payout)
	}

	fee := feeAmount(payout, cfg.PlatformFeeBps)
	net := payout - fee

	// Burn first, then disburse; every failure path unwinds.
	if err := e.ledger.Burn(ctx, asset, trader, tokenAmount); err != nil {
		return nil, fmt.Errorf("burn tokens: %w", err)
	}
	if err := e.ledger.Transfer(ctx, cfg.SettlementAsset, vault, cfg.FeeRecipient, fee); err != nil {
		_ = e.ledger.Mint(ctx, asset, trader, tokenAmount)
		return nil, fmt.Errorf("pay fee: %w", err)
	}
	if err := e.ledger.Transfer(ctx, cfg.SettlementAsset, vault, trader, net); err != nil {
		e.refund(ctx, cfg.SettlementAsset, cfg.FeeRecipient, vault, fee)
		_ = e.ledger.Mint(ctx, asset, trader, tokenAmount)
		return nil, fmt.Errorf("pay trader: %w", err)
	}

	// Commit.
	now := e.now()
	p.VirtualTokenReserve = newToken
	p.VirtualSettlementReserve = newSettlement
	if entry.realBalance > payout {
		entry.realBalance -= payout
	} else {
		entry.realBalance = 0
	}

	e.metrics.SetRealBalance(asset, entry.realBalance)

	e.logger.Info("Sell executed",
		zap.String("asset", asset),
		zap.String("trader", trader),
		zap.Uint64("token_amount", tokenAmount),
		zap.Uint64("payout", payout),
		zap.Uint64("fee", fee),
		zap.Uint64("real_balance", entry.realBalance))

	e.publish(events.TradeExecutedEvent{
		BaseEvent:                events.BaseEvent{EventType: events.TradeExecuted, EventTime: now},
		Asset:                    asset,
		Trader:                   trader,
		Direction:                events.DirectionSell,
		TokenAmount:              tokenAmount,
		SettlementAmount:         payout,
		Fee:                      fee,
		FeeBps:                   cfg.PlatformFeeBps,
		VirtualTokenReserve:      newToken,
		VirtualSettlementReserve: newSettlement,
		RealBalance:              entry.realBalance,
	})

	return &TradeReceipt{
		Asset:                    asset,
		Trader:                   trader,
		Direction:                events.DirectionSell,
		TokenAmount:              tokenAmount,
		SettlementAmount:         payout,
		Fee:                      fee,
		FeeBps:                   cfg.PlatformFeeBps,
		PriceImpactBps:           impact,
		VirtualTokenReserve:      newToken,
		VirtualSettlementReserve: newSettlement,
		RealBalance:              entry.realBalance,
		Stage:                    e.stageLocked(entry, &cfg, now),
		ExecutedAt:               now,
	}, nil
}

// refund is compensation for a half-applied ledger unit of work; failures
// here can only be logged.
func (e *Engine) refund(ctx context.Context, asset, from, to string, amount uint64) {
	if err := e.ledger.Transfer(ctx, asset, from, to, amount); err != nil {
		e.logger.Error("Refund failed",
			zap.String("asset", asset),
			zap.String("from", from),
			zap.String("to", to),
			zap.Uint64("amount", amount),
			zap.Error(err))
	}
}
