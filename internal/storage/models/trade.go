// internal/storage/models/trade.go
package models

import "time"

// Trade is one committed buy or sell, amounts in base units.
type Trade struct {
	BaseModel
	Asset                    string    `gorm:"index;not null;type:varchar(64)"`
	Trader                   string    `gorm:"index;not null;type:varchar(64)"`
	Direction                string    `gorm:"not null;type:varchar(4)"`
	TokenAmount              uint64    `gorm:"not null;type:numeric(20,0)"`
	SettlementAmount         uint64    `gorm:"not null;type:numeric(20,0)"`
	Fee                      uint64    `gorm:"not null;type:numeric(20,0)"`
	FeeBps                   uint64    `gorm:"not null"`
	VirtualTokenReserve      uint64    `gorm:"not null;type:numeric(20,0)"`
	VirtualSettlementReserve uint64    `gorm:"not null;type:numeric(20,0)"`
	RealBalance              uint64    `gorm:"not null;type:numeric(20,0)"`
	ExecutedAt               time.Time `gorm:"index;not null"`
}
