// =============================
// File: internal/engine/pool.go
// =============================
package engine

import (
	"time"
)

// LastBuyer records the trade that is currently entitled to claim migration
// rights: the buy that crossed the threshold, or the latest buy made inside
// the high-fee window.
type LastBuyer struct {
	Buyer       string
	Timestamp   time.Time
	TokenAmount uint64
}

// Pool is the per-asset curve state. Virtual reserves drive pricing only;
// the real settlement balance lives on the registry entry. Once IsCompleted
// is set the record is frozen and served for historical queries.
type Pool struct {
	Asset                    string
	Name                     string
	Symbol                   string
	Creator                  string
	VirtualTokenReserve      uint64
	VirtualSettlementReserve uint64
	IsCompleted              bool
	LastBuyer                *LastBuyer
	CreatedAt                time.Time
}

// Stage is the derived lifecycle position of a pool; it is never stored.
type Stage int

const (
	StageOpen Stage = iota
	StageHighFeeWindow
	StageMigrationEligible
	StageCompleted
)

func (s Stage) String() string {
	switch s {
	case StageOpen:
		return "open"
	case StageHighFeeWindow:
		return "high_fee_window"
	case StageMigrationEligible:
		return "migration_eligible"
	case StageCompleted:
		return "completed"
	default:
		return "unknown"
	}
}
