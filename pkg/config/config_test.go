package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GOOGLE_CLIENT_ID", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 3, cfg.Meeting.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Meeting.RetryDelay)
	assert.Equal(t, "UTC", cfg.Meeting.TimeZone)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 96*time.Hour, cfg.JWT.RefreshExpiration)
	assert.Equal(t, "tutor-connect-api", cfg.JWT.Issuer)
	assert.Equal(t, "primary", cfg.Google.CalendarID)
	assert.False(t, cfg.Google.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("MEETING_MAX_ATTEMPTS", "5")
	t.Setenv("MEETING_RETRY_DELAY", "500ms")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
	t.Setenv("GOOGLE_REFRESH_TOKEN", "refresh")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Meeting.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Meeting.RetryDelay)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Google.Enabled())
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 90*time.Second, parseDuration("90s", time.Minute))
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
