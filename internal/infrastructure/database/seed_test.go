package database

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sangkips/backoffice-api/internal/domain/entity"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewSQLiteDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db, zap.NewNop()))
	return db
}

func TestSeedDefaultData(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, SeedDefaultData(db, zap.NewNop()))

	var accounts []entity.Account
	require.NoError(t, db.Order("name").Find(&accounts).Error)
	require.Len(t, accounts, 4)
	assert.Equal(t, "Cuenta BBVA", accounts[0].Name)
	for _, a := range accounts {
		assert.True(t, a.Balance.IsZero())
		assert.Equal(t, 1, a.Version)
	}

	var cfg entity.RewardsConfig
	require.NoError(t, db.First(&cfg, "key = ?", entity.DefaultRewardsConfigKey).Error)
	assert.Equal(t, 6, cfg.PointsForPrize)
	assert.Equal(t, "Hamburguesa + Milkshake Oreo", cfg.SuperPrizeProductName)
}

func TestSeedDefaultDataTwiceIsNoop(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, SeedDefaultData(db, zap.NewNop()))

	// operator edits survive a restart
	require.NoError(t, db.Model(&entity.RewardsConfig{}).
		Where("key = ?", entity.DefaultRewardsConfigKey).
		Update("points_for_prize", 8).Error)

	require.NoError(t, SeedDefaultData(db, zap.NewNop()))

	var count int64
	require.NoError(t, db.Model(&entity.Account{}).Count(&count).Error)
	assert.Equal(t, int64(4), count)

	var versions []entity.SeedVersion
	require.NoError(t, db.Find(&versions).Error)
	assert.Len(t, versions, 2)

	var cfg entity.RewardsConfig
	require.NoError(t, db.First(&cfg, "key = ?", entity.DefaultRewardsConfigKey).Error)
	assert.Equal(t, 8, cfg.PointsForPrize)
}
