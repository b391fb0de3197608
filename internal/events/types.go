// =============================
// File: internal/events/types.go
// =============================
package events

import (
	"time"
)

// EventType identifies a structured engine event.
type EventType string

const (
	PoolCreated        EventType = "pool.created"
	TradeExecuted      EventType = "trade.executed"
	MigrationCompleted EventType = "migration.completed"
	StageChanged       EventType = "stage.changed"
)

// Event is the base interface for all engine events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides the common fields.
type BaseEvent struct {
	EventType EventType `json:"type"`
	EventTime time.Time `json:"timestamp"`
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.EventTime }

// PoolCreatedEvent is emitted when an asset is launched on the curve.
type PoolCreatedEvent struct {
	BaseEvent
	Asset                    string `json:"asset"`
	Name                     string `json:"name"`
	Symbol                   string `json:"symbol"`
	Creator                  string `json:"creator"`
	VirtualTokenReserve      uint64 `json:"virtual_token_reserve"`
	VirtualSettlementReserve uint64 `json:"virtual_settlement_reserve"`
}

// TradeDirection distinguishes buys from sells.
type TradeDirection string

const (
	DirectionBuy  TradeDirection = "buy"
	DirectionSell TradeDirection = "sell"
)

// TradeExecutedEvent is emitted after every committed buy or sell.
type TradeExecutedEvent struct {
	BaseEvent
	Asset                    string         `json:"asset"`
	Trader                   string         `json:"trader"`
	Direction                TradeDirection `json:"direction"`
	TokenAmount              uint64         `json:"token_amount"`
	SettlementAmount         uint64         `json:"settlement_amount"`
	Fee                      uint64         `json:"fee"`
	FeeBps                   uint64         `json:"fee_bps"`
	VirtualTokenReserve      uint64         `json:"virtual_token_reserve"`
	VirtualSettlementReserve uint64         `json:"virtual_settlement_reserve"`
	RealBalance              uint64         `json:"real_balance"`
}

// MigrationCompletedEvent is emitted exactly once per pool, when the
// accumulated reserve moves to the external DEX.
type MigrationCompletedEvent struct {
	BaseEvent
	Asset                    string `json:"asset"`
	SettlementMoved          uint64 `json:"settlement_moved"`
	TokenSeeded              uint64 `json:"token_seeded"`
	Burned                   uint64 `json:"burned"`
	LastBuyer                string `json:"last_buyer"`
	Reward                   uint64 `json:"reward"`
	VirtualTokenReserve      uint64 `json:"virtual_token_reserve"`
	VirtualSettlementReserve uint64 `json:"virtual_settlement_reserve"`
}

// StageChangedEvent is emitted on lifecycle transitions the engine itself
// performs (threshold crossing, completion).
type StageChangedEvent struct {
	BaseEvent
	Asset string `json:"asset"`
	From  string `json:"from"`
	To    string `json:"to"`
}
