package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	// Save current env and restore later
	origHost := os.Getenv("DB_HOST")
	defer os.Setenv("DB_HOST", origHost)

	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_MAX_OPEN_CONNS", "20")
	os.Setenv("MINIO_USE_SSL", "true")
	os.Setenv("HANDLE_TTL_SEC", "300")
	os.Setenv("UPSTREAM_BACKOFF_INITIAL_MS", "50")
	defer func() {
		os.Unsetenv("DB_MAX_OPEN_CONNS")
		os.Unsetenv("MINIO_USE_SSL")
		os.Unsetenv("HANDLE_TTL_SEC")
		os.Unsetenv("UPSTREAM_BACKOFF_INITIAL_MS")
	}()

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, 5*time.Minute, cfg.Handle.TTL)
	assert.Equal(t, 50*time.Millisecond, cfg.Handle.BackoffInitial)
	assert.Equal(t, 3, cfg.Handle.MaxAttempts)
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

func TestGetEnvDuration(t *testing.T) {
	os.Setenv("TEST_WAIT_SEC", "7")
	defer os.Unsetenv("TEST_WAIT_SEC")
	assert.Equal(t, 7*time.Second, getEnvDuration("TEST_WAIT_SEC", time.Second, time.Second))

	os.Setenv("TEST_WAIT_MS", "250")
	defer os.Unsetenv("TEST_WAIT_MS")
	assert.Equal(t, 250*time.Millisecond, getEnvDuration("TEST_WAIT_MS", time.Millisecond, time.Second))

	os.Setenv("TEST_WAIT_SEC", "-1")
	assert.Equal(t, time.Second, getEnvDuration("TEST_WAIT_SEC", time.Second, time.Second))

	assert.Equal(t, time.Minute, getEnvDuration("TEST_WAIT_UNSET_SEC", time.Second, time.Minute))
}
