package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 10, cfg.Redis.RedeemLimit)
	assert.Equal(t, time.Minute, cfg.Redis.RedeemWindow)
	assert.Equal(t, 5*time.Minute, cfg.StripeWebhookTolerance)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ENV", "production")
	t.Setenv("REDEEM_RATE_LIMIT", "3")
	t.Setenv("REDEEM_RATE_WINDOW", "30s")
	t.Setenv("JOIN_BASE_URL", "https://host.mantty.app")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 3, cfg.Redis.RedeemLimit)
	assert.Equal(t, 30*time.Second, cfg.Redis.RedeemWindow)
	assert.Equal(t, "https://host.mantty.app", cfg.JoinBaseURL)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REDEEM_RATE_LIMIT", "many")
	t.Setenv("REDEEM_RATE_WINDOW", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Redis.RedeemLimit)
	assert.Equal(t, time.Minute, cfg.Redis.RedeemWindow)
}

func TestLoad_MissingSecretPanics(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	assert.Panics(t, func() { _, _ = Load() })
}
