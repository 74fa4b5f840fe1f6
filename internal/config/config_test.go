package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("SCRYFALL_URL", "https://api.example.test/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.test", cfg.Scryfall.BaseURL)
	assert.Equal(t, 100*time.Millisecond, cfg.Scryfall.RequestInterval)
	assert.Equal(t, 15*time.Minute, cfg.Auth.MagicLinkTTL)
	assert.True(t, cfg.DB.AutoMigrate)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("CARD_CACHE_TTL", "6h")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("JWT_SECRET", `  "s3cret" `)
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("JWT_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6*time.Hour, cfg.Scryfall.CacheTTL)
	assert.Equal(t, 2525, cfg.Mail.Port)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.False(t, cfg.DB.AutoMigrate)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.JWTTTL)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "x")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://localhost/glimpse")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsInvalidDurations(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"WORKER_REFRESH_INTERVAL", "0s"},
		{"WORKER_REFRESH_INTERVAL", "-1m"},
		{"WORKER_STALE_AFTER", "-1h"},
		{"JWT_TTL", "0s"},
		{"JWT_TTL", "-5m"},
		{"MAGIC_LINK_TTL", "0s"},
		{"SCRYFALL_REQUEST_INTERVAL", "-10ms"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("GO_ENV", "test")
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_RefreshIntervalIsUsableByTicker(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("WORKER_STALE_AFTER", "0s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.Worker.StaleAfter)

	assert.NotPanics(t, func() {
		ticker := time.NewTicker(cfg.Worker.RefreshInterval)
		ticker.Stop()
	})
}
