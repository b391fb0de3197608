// internal/storage/models/migration.go
package models

import "time"

// Migration records the one-shot move of a pool's liquidity to the DEX.
type Migration struct {
	BaseModel
	Asset           string    `gorm:"unique;not null;type:varchar(64)"`
	Claimant        string    `gorm:"index;not null;type:varchar(64)"`
	SettlementMoved uint64    `gorm:"not null;type:numeric(20,0)"`
	TokenSeeded     uint64    `gorm:"not null;type:numeric(20,0)"`
	Burned          uint64    `gorm:"not null;type:numeric(20,0)"`
	Reward          uint64    `gorm:"not null;type:numeric(20,0)"`
	CompletedAt     time.Time `gorm:"index;not null"`
}
