package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, https://app.example.com")

	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
	assert.Equal(t, []string{"http://localhost:5173", "https://app.example.com"}, cfg.GetCORSOrigins())
	assert.Equal(t, 720*time.Hour, cfg.GetRefreshTokenTTL())
	assert.False(t, cfg.IsDataForSEOEnabled())
	assert.False(t, cfg.IsMinIOEnabled())
	assert.False(t, cfg.IsPitchEnabled())
}

func TestFromEnvWildcardOrigin(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "*")
	assert.True(t, FromEnv().GetCORSAllowAll())
}

func TestLoadRequiresDatabaseAndSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/leadscout")
	t.Setenv("JWT_ACCESS_SECRET", "")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_ACCESS_SECRET")
}

func TestLoadRejectsHalfDataForSEOCredentials(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/leadscout")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "false")
	t.Setenv("DATAFORSEO_LOGIN", "user@example.com")
	t.Setenv("DATAFORSEO_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DATAFORSEO_PASSWORD", "pw")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsDataForSEOEnabled())
}

func TestLoadRejectsCredentialedWildcardCORS(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/leadscout")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ALLOW_ALL", "true")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")

	_, err := Load()
	assert.Error(t, err)
}

func TestNumericParsingFallsBackToZero(t *testing.T) {
	t.Setenv("ASYNQ_CONCURRENCY", "many")
	t.Setenv("DATAFORSEO_TIMEOUT", "soon")

	cfg := FromEnv()
	assert.Equal(t, 0, cfg.GetAsynqConcurrency())
	assert.Equal(t, time.Duration(0), cfg.GetDataForSEOTimeout())
}
