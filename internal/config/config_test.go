package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("PORT", "")
		t.Setenv("JWT_EXPIRES_IN", "")
		t.Setenv("AMQP_URL", "")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, 24*time.Hour, cfg.JWTExpirationDur)
		assert.Empty(t, cfg.AMQPURL)
		assert.Equal(t, "fintrack.ledger", cfg.AMQPExchange)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("JWT_EXPIRES_IN", "2h")
		t.Setenv("BUDGET_ROLLOVER_SCHEDULE", "")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.Port)
		assert.Equal(t, 2*time.Hour, cfg.JWTExpirationDur)
		assert.Empty(t, cfg.BudgetRolloverSchedule, "explicitly empty schedule disables rollover")
	})

	t.Run("invalid_jwt_duration_falls_back", func(t *testing.T) {
		t.Setenv("JWT_EXPIRES_IN", "soon")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, cfg.JWTExpirationDur)
	})
}
