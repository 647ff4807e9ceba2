package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_TYPE", "")
	t.Setenv("PORT", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, "/login", cfg.Session.LoginPath)
	assert.Equal(t, 24*time.Hour, cfg.Session.TokenTTL)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("REQUEST_TIMEOUT", "2s")
	t.Setenv("LOGIN_PATH", "/auth/login")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("DEV_GATEWAY", "true")
	t.Setenv("DEBUG", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Address())
	assert.Equal(t, 2*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "/auth/login", cfg.Session.LoginPath)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.True(t, cfg.Gateway.Dev)
	assert.True(t, cfg.Debug)
}

func TestLoadConfigRejectsMongoWithoutURI(t *testing.T) {
	t.Setenv("STORE_TYPE", "mongo")
	t.Setenv("MONGODB_URI", "")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "MONGODB_URI")
}

func TestLoadConfigRejectsUnknownStore(t *testing.T) {
	t.Setenv("STORE_TYPE", "postgres")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "unsupported STORE_TYPE")
}
