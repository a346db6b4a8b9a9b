package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, "America/New_York", cfg.App.Timezone)
	require.NotNil(t, cfg.App.Location)
	assert.Equal(t, 8080, cfg.App.HTTPPort)
	assert.Equal(t, 256, cfg.Evaluation.QueueSize)
	assert.Equal(t, 0.5, cfg.Flags.YellowDeclineRatio)
	assert.Equal(t, 3, cfg.Flags.YellowDeclineMinPrior)
	assert.Equal(t, 5*time.Minute, cfg.Content.ContextCacheTTL)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("EVAL_WORKERS", "8")
	t.Setenv("FLAGS_RED_INACTIVE_DAYS", "10")
	t.Setenv("REPORT_EMAIL_TO", "a@example.com, b@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.UTC, cfg.App.Location)
	assert.Equal(t, 9090, cfg.App.HTTPPort)
	assert.Equal(t, 8, cfg.Evaluation.Workers)
	assert.Equal(t, 10, cfg.Flags.RedInactiveDays)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Content.ReportEmailTo)
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateProductionRequirements(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required in production")
	assert.Contains(t, err.Error(), "GENERATOR_URL is required in production")
	assert.Contains(t, err.Error(), "ADMIN_API_KEYS is required in production")

	t.Setenv("DATABASE_URL", "postgres://localhost:5432/engagement")
	t.Setenv("GENERATOR_URL", "https://generator.internal")
	t.Setenv("ADMIN_API_KEYS", "key-1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	t.Setenv("EVAL_QUEUE_SIZE", "0")
	t.Setenv("FLAGS_YELLOW_DECLINE_RATIO", "1.5")
	t.Setenv("FLAGS_YELLOW_DECLINE_MIN_PRIOR", "0")
	t.Setenv("FLAGS_GREEN_BURST_FACTOR", "1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EVAL_QUEUE_SIZE must be positive")
	assert.Contains(t, err.Error(), "FLAGS_YELLOW_DECLINE_RATIO must be in (0, 1)")
	assert.Contains(t, err.Error(), "FLAGS_YELLOW_DECLINE_MIN_PRIOR must be positive")
	assert.Contains(t, err.Error(), "FLAGS_GREEN_BURST_FACTOR must be greater than 1")
}

func TestEnvHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-number")
	t.Setenv("APP_SHUTDOWN_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.App.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.App.ShutdownTimeout)
}

func TestRedisAddr(t *testing.T) {
	r := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", r.Addr())
}
