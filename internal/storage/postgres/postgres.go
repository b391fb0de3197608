// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rovshanmuradov/launchpad/internal/storage"
	"github.com/rovshanmuradov/launchpad/internal/storage/gormzap"
	"github.com/rovshanmuradov/launchpad/internal/storage/models"
)

type postgresStorage struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewStorage(dsn string, zapLogger *zap.Logger) (storage.Storage, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormzap.New(zapLogger.Named("gorm")),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &postgresStorage{
		db:     db,
		logger: zapLogger,
	}, nil
}

// RunMigrations holds a pg advisory lock so concurrent instances do not
// race the schema.
func (p *postgresStorage) RunMigrations() error {
	var lockObtained bool
	err := p.db.Raw("SELECT pg_try_advisory_lock(101)").Scan(&lockObtained).Error
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !lockObtained {
		return fmt.Errorf("another migration is in progress")
	}
	defer p.db.Exec("SELECT pg_advisory_unlock(101)")

	err = p.db.AutoMigrate(
		&models.Trade{},
		&models.Migration{},
		&models.PoolSnapshot{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (p *postgresStorage) SaveTrade(ctx context.Context, trade *models.Trade) error {
	return p.db.WithContext(ctx).Create(trade).Error
}

func (p *postgresStorage) ListTrades(ctx context.Context, asset string, limit, offset int) ([]*models.Trade, error) {
	var trades []*models.Trade
	err := p.db.WithContext(ctx).
		Where("asset = ?", asset).
		Order("executed_at desc").
		Limit(limit).
		Offset(offset).
		Find(&trades).Error
	return trades, err
}

func (p *postgresStorage) ListTradesByTrader(ctx context.Context, trader string, limit, offset int) ([]*models.Trade, error) {
	var trades []*models.Trade
	err := p.db.WithContext(ctx).
		Where("trader = ?", trader).
		Order("executed_at desc").
		Limit(limit).
		Offset(offset).
		Find(&trades).Error
	return trades, err
}

func (p *postgresStorage) SaveMigration(ctx context.Context, migration *models.Migration) error {
	return p.db.WithContext(ctx).Create(migration).Error
}

func (p *postgresStorage) GetMigration(ctx context.Context, asset string) (*models.Migration, error) {
	var m models.Migration
	err := p.db.WithContext(ctx).Where("asset = ?", asset).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SavePoolSnapshot upserts on the asset key so each pool keeps exactly one
// current row.
func (p *postgresStorage) SavePoolSnapshot(ctx context.Context, snapshot *models.PoolSnapshot) error {
	return p.db.WithContext(ctx).
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

func (p *postgresStorage) GetPoolSnapshot(ctx context.Context, asset string) (*models.PoolSnapshot, error) {
	var s models.PoolSnapshot
	err := p.db.WithContext(ctx).Where("asset = ?", asset).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (p *postgresStorage) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
