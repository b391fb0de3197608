// internal/storage/sqlite/sqlite.go
package sqlite

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rovshanmuradov/launchpad/internal/storage"
	"github.com/rovshanmuradov/launchpad/internal/storage/gormzap"
	"github.com/rovshanmuradov/launchpad/internal/storage/models"
)

// sqliteStorage is the single-node backend used by local deployments and
// integration setups that do not want a postgres instance.
type sqliteStorage struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewStorage(path string, zapLogger *zap.Logger) (storage.Storage, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormzap.New(zapLogger.Named("gorm")),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	// SQLite serializes writers anyway.
	sqlDB.SetMaxOpenConns(1)

	return &sqliteStorage{
		db:     db,
		logger: zapLogger,
	}, nil
}

func (s *sqliteStorage) RunMigrations() error {
	err := s.db.AutoMigrate(
		&models.Trade{},
		&models.Migration{},
		&models.PoolSnapshot{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *sqliteStorage) SaveTrade(ctx context.Context, trade *models.Trade) error {
	return s.db.WithContext(ctx).Create(trade).Error
}

func (s *sqliteStorage) ListTrades(ctx context.Context, asset string, limit, offset int) ([]*models.Trade, error) {
	var trades []*models.Trade
	err := s.db.WithContext(ctx).
		Where("asset = ?", asset).
		Order("executed_at desc").
		Limit(limit).
		Offset(offset).
		Find(&trades).Error
	return trades, err
}

func (s *sqliteStorage) ListTradesByTrader(ctx context.Context, trader string, limit, offset int) ([]*models.Trade, error) {
	var trades []*models.Trade
	err := s.db.WithContext(ctx).
		Where("trader = ?", trader).
		Order("executed_at desc").
		Limit(limit).
		Offset(offset).
		Find(&trades).Error
	return trades, err
}

func (s *sqliteStorage) SaveMigration(ctx context.Context, migration *models.Migration) error {
	return s.db.WithContext(ctx).Create(migration).Error
}

func (s *sqliteStorage) GetMigration(ctx context.Context, asset string) (*models.Migration, error) {
	var m models.Migration
	err := s.db.WithContext(ctx).Where("asset = ?", asset).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *sqliteStorage) SavePoolSnapshot(ctx context.Context, snapshot *models.PoolSnapshot) error {
	return s.db.WithContext(ctx).
		Where("asset = ?", snapshot.Asset).
		Assign(map[string]interface{}{
			"name":                       snapshot.Name,
			"symbol":                     snapshot.Symbol,
			"creator":                    snapshot.Creator,
			"virtual_token_reserve":      snapshot.VirtualTokenReserve,
			"virtual_settlement_reserve": snapshot.VirtualSettlementReserve,
			"real_balance":               snapshot.RealBalance,
			"stage":                      snapshot.Stage,
			"last_update":                snapshot.LastUpdate,
		}).
		FirstOrCreate(&models.PoolSnapshot{}).Error
}

func (s *sqliteStorage) GetPoolSnapshot(ctx context.Context, asset string) (*models.PoolSnapshot, error) {
	var snap models.PoolSnapshot
	err := s.db.WithContext(ctx).Where("asset = ?", asset).First(&snap).Error
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *sqliteStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
