// =============================
// File: internal/engine/config.go
// =============================
package engine

import (
	"fmt"
	"time"

	"github.com/rovshanmuradov/launchpad/internal/curve"
)

// Defaults for a fresh deployment; amounts are base units at 8 decimals.
const (
	DefaultPlatformFeeBps                  = 100   // 1%
	DefaultHighFeeBps                      = 1_000 // 10%
	DefaultDecimals                        = 8
	DefaultInitialVirtualTokenReserve      = 100_000_000 * uint64(100_000_000)
	DefaultInitialVirtualSettlementReserve = 100_000 * uint64(100_000_000)
	DefaultMigrationThreshold              = 21_000 * uint64(100_000_000)
	DefaultMinTradeSize                    = 10_000
	DefaultMigrationGasReserve             = 100_000_000 // 1 settlement unit
	DefaultLastBuyerWait                   = 5 * time.Minute
	DefaultMigrationDeadlineOffset         = 5 * time.Minute
)

// GlobalConfig is the singleton platform configuration. It is created once,
// mutated only through the authority-gated setters, and read as a snapshot
// at the start of every operation.
type GlobalConfig struct {
	Authority                       string
	FeeRecipient                    string
	SettlementAsset                 string
	PlatformFeeBps                  uint64
	HighFeeBps                      uint64
	Decimals                        uint8
	InitialVirtualTokenReserve      uint64
	InitialVirtualSettlementReserve uint64
	MigrationThreshold              uint64
	MinTradeSize                    uint64
	MigrationGasReserve             uint64
	LastBuyerWait                   time.Duration
	MigrationDeadlineOffset         time.Duration
}

// DefaultGlobalConfig fills everything except the addresses.
func DefaultGlobalConfig(authority, feeRecipient, settlementAsset string) GlobalConfig {
	return GlobalConfig{
		Authority:                       authority,
		FeeRecipient:                    feeRecipient,
		SettlementAsset:                 settlementAsset,
		PlatformFeeBps:                  DefaultPlatformFeeBps,
		HighFeeBps:                      DefaultHighFeeBps,
		Decimals:                        DefaultDecimals,
		InitialVirtualTokenReserve:      DefaultInitialVirtualTokenReserve,
		InitialVirtualSettlementReserve: DefaultInitialVirtualSettlementReserve,
		MigrationThreshold:              DefaultMigrationThreshold,
		MinTradeSize:                    DefaultMinTradeSize,
		MigrationGasReserve:             DefaultMigrationGasReserve,
		LastBuyerWait:                   DefaultLastBuyerWait,
		MigrationDeadlineOffset:         DefaultMigrationDeadlineOffset,
	}
}

func (c *GlobalConfig) Validate() error {
	if c.Authority == "" {
		return fmt.Errorf("%w: empty authority", ErrInvalidInput)
	}
	if c.FeeRecipient == "" {
		return fmt.Errorf("%w: empty fee recipient", ErrInvalidInput)
	}
	if c.SettlementAsset == "" {
		return fmt.Errorf("%w: empty settlement asset", ErrInvalidInput)
	}
	if c.PlatformFeeBps > curve.BpsDenominator || c.HighFeeBps > curve.BpsDenominator {
		return fmt.Errorf("%w: fee above %d bps", ErrInvalidInput, curve.BpsDenominator)
	}
	if c.InitialVirtualTokenReserve == 0 || c.InitialVirtualSettlementReserve == 0 {
		return fmt.Errorf("%w: zero initial virtual reserve", ErrInvalidInput)
	}
	if c.MigrationThreshold == 0 {
		return fmt.Errorf("%w: zero migration threshold", ErrInvalidInput)
	}
	if c.MigrationThreshold <= c.MigrationGasReserve {
		return fmt.Errorf("%w: migration threshold must exceed the gas reserve", ErrInvalidInput)
	}
	if c.LastBuyerWait <= 0 {
		return fmt.Errorf("%w: non-positive last buyer wait", ErrInvalidInput)
	}
	if c.MigrationDeadlineOffset <= 0 {
		return fmt.Errorf("%w: non-positive migration deadline offset", ErrInvalidInput)
	}
	return nil
}
