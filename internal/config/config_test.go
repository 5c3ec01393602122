package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammadpnp/member-import/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, "10M", cfg.HTTP.BodyLimit)
	assert.Equal(t, 24*time.Hour, cfg.Redis.IdempotencyTTL)
	assert.Equal(t, "club.member.welcome", cfg.Kafka.WelcomeTopic)
	assert.Equal(t, 30*time.Second, cfg.Import.CallTimeout)
	assert.Equal(t, 4, cfg.Worker.Workers())
	assert.False(t, cfg.Redis.Enabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadEnvFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("NOTIFY_WORKERS=25\nKAFKA_BROKERS=k1:9092,k2:9092\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("NOTIFY_WORKERS")
		_ = os.Unsetenv("KAFKA_BROKERS")
	})

	t.Setenv("DATABASE_URL", "postgres://localhost/members")
	t.Setenv("PORT", "9090")

	cfg, err := config.Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 10, cfg.Worker.Workers(), "worker count is capped")
	require.NoError(t, cfg.ValidateServer())
}

func TestValidateServerRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Error(t, cfg.ValidateServer())
}

func TestValidateRejectsRelativeAPIURL(t *testing.T) {
	t.Setenv("MEMBER_IMPORT_API_URL", "localhost")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Error(t, cfg.Validate())
}
