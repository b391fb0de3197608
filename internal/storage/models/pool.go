// internal/storage/models/pool.go
package models

import (
	"time"
)

// PoolSnapshot is the periodically refreshed mirror of one pool's state,
// used for dashboards and historical queries after completion.
type PoolSnapshot struct {
	BaseModel
	Asset                    string    `gorm:"unique;not null;type:varchar(64)"`
	Name                     string    `gorm:"not null;type:varchar(64)"`
	Symbol                   string    `gorm:"not null;type:varchar(16)"`
	Creator                  string    `gorm:"index;not null;type:varchar(64)"`
	VirtualTokenReserve      uint64    `gorm:"not null;type:numeric(20,0)"`
	VirtualSettlementReserve uint64    `gorm:"not null;type:numeric(20,0)"`
	RealBalance              uint64    `gorm:"not null;type:numeric(20,0)"`
	Stage                    string    `gorm:"index;not null;type:varchar(20)"`
	LastUpdate               time.Time `gorm:"index;not null"`
}
