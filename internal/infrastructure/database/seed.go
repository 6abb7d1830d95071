package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
)

type seedStep struct {
	key     string
	version int
	apply   func(tx *gorm.DB) error
}

var seedSteps = []seedStep{
	{key: "accounts", version: 1, apply: seedAccounts},
	{key: "rewards_config", version: 1, apply: seedRewardsConfig},
}

// SeedDefaultData applies every seed step whose recorded version is older than
// the current one. Each step and its version row commit together.
func SeedDefaultData(db *gorm.DB, log *zap.Logger) error {
	log.Info("seeding default data")

	for _, step := range seedSteps {
		applied := false
		err := db.Transaction(func(tx *gorm.DB) error {
			var current entity.SeedVersion
			err := tx.Where("key = ?", step.key).First(&current).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err == nil && current.Version >= step.version {
				return nil
			}

			if err := step.apply(tx); err != nil {
				return err
			}

			record := entity.SeedVersion{Key: step.key, Version: step.version, AppliedAt: time.Now()}
			applied = true
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"version", "applied_at"}),
			}).Create(&record).Error
		})
		if err != nil {
			return fmt.Errorf("seed step %s: %w", step.key, err)
		}
		if applied {
			log.Info("seed step applied", zap.String("step", step.key), zap.Int("version", step.version))
		}
	}

	log.Info("default data seeding completed")
	return nil
}

func seedAccounts(tx *gorm.DB) error {
	accounts := []entity.Account{
		{Name: "Efectivo", Type: enum.AccountTypeCash},
		{Name: "Yape", Type: enum.AccountTypeYape},
		{Name: "Plin", Type: enum.AccountTypePlin},
		{Name: "Cuenta BBVA", Type: enum.AccountTypeBank},
	}
	for i := range accounts {
		accounts[i].Balance = decimal.Zero
		accounts[i].InitialBalance = decimal.Zero
		accounts[i].Version = 1
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "type"}},
			DoNothing: true,
		}).Create(&accounts[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedRewardsConfig(tx *gorm.DB) error {
	cfg := entity.DefaultRewardsConfig()
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&cfg).Error
}
