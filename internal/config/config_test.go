package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/backoffice-api/internal/domain/enum"
)

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, enum.InventoryBestEffort, cfg.Settlement.InventoryPolicy)
	assert.True(t, decimal.RequireFromString("0.05").Equal(cfg.Settlement.CardSurchargeRate))
	assert.Equal(t, 5, cfg.Settlement.MaxCommitRetries)
	assert.Equal(t, 10, cfg.Inventory.DefaultMinStock)
	assert.Equal(t, 100, cfg.Inventory.DefaultMaxStock)
	assert.Equal(t, []string{"Caja Pack 10"}, cfg.Inventory.ExcludedSKUs)
	assert.False(t, cfg.Redis.Enabled)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	v.Set("SETTLEMENT_INVENTORY_POLICY", "STRICT")
	v.Set("INVENTORY_EXCLUDED_SKUS", "Caja Pack 10, Bolsa ")
	v.Set("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, enum.InventoryStrict, cfg.Settlement.InventoryPolicy)
	assert.Equal(t, []string{"Caja Pack 10", "Bolsa"}, cfg.Inventory.ExcludedSKUs)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestFromViperRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"unknown policy", "SETTLEMENT_INVENTORY_POLICY", "eventually"},
		{"rate of one", "SETTLEMENT_CARD_SURCHARGE_RATE", "1"},
		{"negative rate", "SETTLEMENT_CARD_SURCHARGE_RATE", "-0.01"},
		{"unparsable rate", "SETTLEMENT_CARD_SURCHARGE_RATE", "five"},
		{"zero retries", "SETTLEMENT_MAX_COMMIT_RETRIES", 0},
		{"max below min", "INVENTORY_DEFAULT_MAX_STOCK", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)
			_, err := FromViper(v)
			assert.Error(t, err)
		})
	}
}
