package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sangkips/backoffice-api/internal/config"
	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/internal/infrastructure/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// Open connects to the database selected by cfg.Driver
func Open(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	if cfg.Driver == "sqlite" {
		return NewSQLiteDB(cfg.SQLitePath, log)
	}
	return NewPostgresDB(cfg, log)
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger: logger.NewGormLogger(log, logger.GormLevel(cfg.LogLevel), slowQueryThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Info("connected to PostgreSQL database", zap.String("host", cfg.Host), zap.String("database", cfg.Name))
	return db, nil
}

// NewSQLiteDB opens a SQLite database. A single connection serialises writers,
// which keeps shared-cache memory databases consistent in tests.
func NewSQLiteDB(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.NewGormLogger(log, logger.GormLevel("silent"), slowQueryThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")

	err := db.AutoMigrate(
		// Orders
		&entity.Order{},

		// Inventory ledger
		&entity.InventoryItem{},
		&entity.InventoryMovement{},

		// Account ledger
		&entity.Account{},
		&entity.AccountMovement{},

		// Rewards ledger
		&entity.Customer{},
		&entity.RewardsConfig{},
		&entity.RewardMovement{},
		&entity.ReferralGrant{},
		&entity.Prize{},
		&entity.RewardRedemption{},
		&entity.SuperPrizeControl{},

		// Settlement saga
		&entity.Settlement{},
		&entity.SettlementStep{},

		// System entities
		&entity.LedgerAuditEvent{},
		&entity.SeedVersion{},
		&entity.IdempotencyKey{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("database migrations completed")
	return nil
}
