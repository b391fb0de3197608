// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/rovshanmuradov/launchpad/internal/storage/models"
)

// Storage persists trade history, migrations and pool snapshots.
type Storage interface {
	// Trades
	SaveTrade(ctx context.Context, trade *models.Trade) error
	ListTrades(ctx context.Context, asset string, limit, offset int) ([]*models.Trade, error)
	ListTradesByTrader(ctx context.Context, trader string, limit, offset int) ([]*models.Trade, error)

	// Migrations
	SaveMigration(ctx context.Context, migration *models.Migration) error
	GetMigration(ctx context.Context, asset string) (*models.Migration, error)

	// Pool snapshots
	SavePoolSnapshot(ctx context.Context, snapshot *models.PoolSnapshot) error
	GetPoolSnapshot(ctx context.Context, asset string) (*models.PoolSnapshot, error)

	RunMigrations() error
	Close() error
}
