package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv sets the settings that have no defaults.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MNEMO_DATABASE_URL", "postgres://localhost:5432/mnemo_test")
	t.Setenv("MNEMO_AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")
}

func TestLoadFromEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MNEMO_SERVER_PORT", "9090")
	t.Setenv("MNEMO_SERVER_LOG_LEVEL", "debug")
	t.Setenv("MNEMO_STUDY_AUTOSAVE_SECONDS", "15")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 15, cfg.Study.AutosaveSeconds)
	assert.Equal(t, 20, cfg.Study.DefaultCardCount)
}

func TestLoadAppliesDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 30, cfg.Study.AutosaveSeconds)
	assert.Equal(t, 60, cfg.Auth.TokenLifetimeMinutes)
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("MNEMO_DATABASE_URL", "postgres://localhost:5432/mnemo_test")
	t.Setenv("MNEMO_AUTH_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("MNEMO_DATABASE_URL", "postgres://localhost:5432/mnemo_test")
	t.Setenv("MNEMO_AUTH_JWT_SECRET", "too-short")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MNEMO_SERVER_LOG_LEVEL", "verbose")

	_, err := Load()
	assert.Error(t, err)
}
