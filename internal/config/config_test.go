package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("POSTGRES_PASSWORD", "postgres")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, int64(2), cfg.TaxPercent)
	assert.Equal(t, 30*time.Second, cfg.PaymentLockTTL)
	assert.Equal(t, "shopcart.order-confirmed", cfg.KafkaTopic)
	assert.False(t, cfg.IsProd())
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=app sslmode=disable", cfg.DSN())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", ":9090")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/shop")
	t.Setenv("TAX_PERCENT", "10")
	t.Setenv("PAYMENT_LOCK_TTL", "5s")
	t.Setenv("GO_ENV", "prod")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres://u:p@db:5432/shop", cfg.DSN())
	assert.Equal(t, int64(10), cfg.TaxPercent)
	assert.Equal(t, 5*time.Second, cfg.PaymentLockTTL)
	assert.True(t, cfg.IsProd())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "JWT_SECRETなし", env: map[string]string{"JWT_SECRET": ""}, want: "JWT_SECRET"},
		{name: "DB設定なし", env: map[string]string{"POSTGRES_PASSWORD": "", "DATABASE_URL": ""}, want: "DATABASE_URL"},
		{name: "税率が範囲外", env: map[string]string{"TAX_PERCENT": "150"}, want: "TAX_PERCENT"},
		{name: "ロック時間が0", env: map[string]string{"PAYMENT_LOCK_TTL": "0s"}, want: "PAYMENT_LOCK_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
