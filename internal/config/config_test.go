package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/app?sslmode=disable")
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("SITE_URL", "https://shop.example.com/")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_x")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_x")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://shop.example.com", cfg.SiteURL)
	assert.Equal(t, "sb-access-token", cfg.AuthCookieName)
	assert.Equal(t, 10, cfg.CheckoutRatePerMin)
	assert.Equal(t, 5, cfg.CheckoutRateBurst)
	assert.Equal(t, 5*time.Second, cfg.OutboxPollInterval)
	assert.Equal(t, 20, cfg.OutboxBatchSize)
	assert.Equal(t, 5, cfg.OutboxMaxAttempts)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.MigrateOnStart)
	assert.False(t, cfg.TrustProxy)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "postgres://u:p@localhost:5432/app?sslmode=disable", cfg.DSN())
}

func TestLoad_Lists(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_EMAILS", " dani@example.com, ,ops@example.com ")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"dani@example.com", "ops@example.com"}, cfg.AdminEmails)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_PostgresFallbackDSN(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_USER", "candle")
	t.Setenv("POSTGRES_PASSWORD", "wax")
	t.Setenv("POSTGRES_DB", "shop")
	t.Setenv("POSTGRES_PORT", "5433")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "host=localhost port=5433 user=candle password=wax dbname=shop sslmode=disable", cfg.DSN())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{name: "missing jwt secret", key: "AUTH_JWT_SECRET", val: "", want: "AUTH_JWT_SECRET is required"},
		{name: "missing site url", key: "SITE_URL", val: "", want: "SITE_URL is required"},
		{name: "bad port", key: "POSTGRES_PORT", val: "abc", want: "POSTGRES_PORT must be number"},
		{name: "bad interval", key: "OUTBOX_POLL_INTERVAL", val: "5", want: "OUTBOX_POLL_INTERVAL must be duration"},
		{name: "bad bool", key: "MIGRATE_ON_START", val: "maybe", want: "MIGRATE_ON_START must be bool"},
		{name: "zero burst", key: "CHECKOUT_RATE_BURST", val: "0", want: "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadDatabase_OnlyNeedsDB(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/app")
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("STRIPE_SECRET_KEY", "")

	cfg, err := LoadDatabase()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/app", cfg.DSN())

	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_USER", "")
	_, err = LoadDatabase()
	assert.ErrorContains(t, err, "POSTGRES_USER is required")
}
