package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "auto", cfg.AIProvider)
	assert.Equal(t, 20*time.Second, cfg.DigestInterval)
	assert.Equal(t, "INBOX", cfg.DigestLabel)
	assert.Equal(t, 3, cfg.DigestMaxResults)
	assert.Equal(t, 5, cfg.DigestMaxWorkers)
	assert.False(t, cfg.AllowDestructiveActions)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DIGEST_INTERVAL", "45s")
	t.Setenv("DIGEST_MAX_RESULTS", "7")
	t.Setenv("ALLOW_DESTRUCTIVE_ACTIONS", "true")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 45*time.Second, cfg.DigestInterval)
	assert.Equal(t, 7, cfg.DigestMaxResults)
	assert.True(t, cfg.AllowDestructiveActions)
}

func TestInvalidEnvValuesFallBack(t *testing.T) {
	t.Setenv("DIGEST_INTERVAL", "soon")
	t.Setenv("DIGEST_MAX_RESULTS", "many")
	t.Setenv("ALLOW_DESTRUCTIVE_ACTIONS", "maybe")

	cfg := Load()

	assert.Equal(t, 20*time.Second, cfg.DigestInterval)
	assert.Equal(t, 3, cfg.DigestMaxResults)
	assert.False(t, cfg.AllowDestructiveActions)
}
