package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, DefaultInviteTTL, cfg.InviteTTL)
	assert.Equal(t, "fellowship.audit", cfg.AuditTopic)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("INVITE_TTL", "48h")
	t.Setenv("INVITE_BASE_URL", "https://example.test/join/")
	t.Setenv("AUTO_MIGRATE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 48*time.Hour, cfg.InviteTTL)
	assert.Equal(t, "https://example.test/join", cfg.InviteBaseURL)
	assert.False(t, cfg.AutoMigrate)
}

func TestProductionSafeguards(t *testing.T) {
	t.Run("rejects development signing key", func(t *testing.T) {
		t.Setenv("ENV", EnvProduction)
		t.Setenv("JWT_SIGNING_KEY", "")
		t.Setenv("DATABASE_URL", "postgres://db")

		_, err := Load()
		assert.ErrorContains(t, err, "JWT_SIGNING_KEY")
	})

	t.Run("requires database", func(t *testing.T) {
		t.Setenv("ENV", EnvProduction)
		t.Setenv("JWT_SIGNING_KEY", "real-key")
		t.Setenv("DATABASE_URL", "")

		_, err := Load()
		assert.ErrorContains(t, err, "DATABASE_URL")
	})
}

func TestRejectsNonPositiveInviteTTL(t *testing.T) {
	t.Setenv("INVITE_TTL", "0s")
	_, err := Load()
	assert.ErrorContains(t, err, "INVITE_TTL")
}
