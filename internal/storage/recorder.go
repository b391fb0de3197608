// internal/storage/recorder.go
package storage

import (
	"context"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/events"
	"github.com/rovshanmuradov/launchpad/internal/storage/models"
)

// Recorder subscribes to the event bus and mirrors trades and migrations
// into storage. Persistence failures are logged, never propagated, so a
// slow database cannot back up into the trading path.
type Recorder struct {
	store  Storage
	logger *zap.Logger
}

func NewRecorder(store Storage, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger.Named("recorder"),
	}
}

// Attach registers the recorder on the bus for the event types it persists.
func (r *Recorder) Attach(bus *events.Bus) []events.Subscription {
	return []events.Subscription{
		bus.Subscribe(events.TradeExecuted, events.HandlerFunc(r.handleTrade)),
		bus.Subscribe(events.MigrationCompleted, events.HandlerFunc(r.handleMigration)),
		bus.Subscribe(events.PoolCreated, events.HandlerFunc(r.handlePoolCreated)),
	}
}

func (r *Recorder) handleTrade(ctx context.Context, event events.Event) error {
	ev, ok := event.(events.TradeExecutedEvent)
	if !ok {
		return nil
	}
	trade := &models.Trade{
		Asset:                    ev.Asset,
		Trader:                   ev.Trader,
		Direction:                string(ev.Direction),
		TokenAmount:              ev.TokenAmount,
		SettlementAmount:         ev.SettlementAmount,
		Fee:                      ev.Fee,
		FeeBps:                   ev.FeeBps,
		VirtualTokenReserve:      ev.VirtualTokenReserve,
		VirtualSettlementReserve: ev.VirtualSettlementReserve,
		RealBalance:              ev.RealBalance,
		ExecutedAt:               ev.Timestamp(),
	}
	if err := r.store.SaveTrade(ctx, trade); err != nil {
		r.logger.Error("Failed to persist trade",
			zap.String("asset", ev.Asset),
			zap.String("trader", ev.Trader),
			zap.Error(err))
	}
	return nil
}

func (r *Recorder) handleMigration(ctx context.Context, event events.Event) error {
	ev, ok := event.(events.MigrationCompletedEvent)
	if !ok {
		return nil
	}
	m := &models.Migration{
		Asset:           ev.Asset,
		Claimant:        ev.LastBuyer,
		SettlementMoved: ev.SettlementMoved,
		TokenSeeded:     ev.TokenSeeded,
		Burned:          ev.Burned,
		Reward:          ev.Reward,
		CompletedAt:     ev.Timestamp(),
	}
	if err := r.store.SaveMigration(ctx, m); err != nil {
		r.logger.Error("Failed to persist migration",
			zap.String("asset", ev.Asset),
			zap.Error(err))
	}
	return nil
}

func (r *Recorder) handlePoolCreated(ctx context.Context, event events.Event) error {
	ev, ok := event.(events.PoolCreatedEvent)
	if !ok {
		return nil
	}
	snap := &models.PoolSnapshot{
		Asset:                    ev.Asset,
		Name:                     ev.Name,
		Symbol:                   ev.Symbol,
		Creator:                  ev.Creator,
		VirtualTokenReserve:      ev.VirtualTokenReserve,
		VirtualSettlementReserve: ev.VirtualSettlementReserve,
		Stage:                    "open",
		LastUpdate:               ev.Timestamp(),
	}
	if err := r.store.SavePoolSnapshot(ctx, snap); err != nil {
		r.logger.Error("Failed to persist pool snapshot",
			zap.String("asset", ev.Asset),
			zap.Error(err))
	}
	return nil
}
