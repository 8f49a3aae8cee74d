package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("EMS_SECURITY_TOKEN_SECRET", "test-secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, 720*time.Hour, cfg.Security.TokenTTL)
	assert.Equal(t, "test-secret", cfg.Security.TokenSecret)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "", cfg.QR.FrontendURL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EMS_SECURITY_TOKEN_SECRET", "test-secret")
	t.Setenv("EMS_SERVER_PORT", "9090")
	t.Setenv("EMS_DATABASE_DRIVER", "memory")
	t.Setenv("EMS_QR_FRONTEND_URL", "https://clearance.school.edu")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "https://clearance.school.edu", cfg.QR.FrontendURL)
}

func TestLoad_MissingSecret(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token_secret")
}
