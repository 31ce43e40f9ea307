package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret-key-0123456789")
	t.Setenv("DB_PASSWORD", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, "schooldesk", cfg.Database.Name)
	assert.Equal(t, 12*time.Hour, cfg.Auth.SessionTokenExpiry)
	assert.Equal(t, 15*time.Minute, cfg.Auth.PasswordChangeTokenExpiry)
	assert.Equal(t, 10*time.Minute, cfg.Auth.TempPasswordExpiry)
	assert.True(t, cfg.Email.OutboxEnabled)
	assert.Equal(t, 5, cfg.Email.MaxAttempts)
}

func TestLoad_TempPasswordExpiryOverride(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret-key-0123456789")
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("TEMP_PASSWORD_EXPIRY_MINUTES", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25*time.Minute, cfg.Auth.TempPasswordExpiry)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "postgres")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsShortJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "tooshort")
	t.Setenv("DB_PASSWORD", "postgres")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RequiresDBPassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret-key-0123456789")
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "secretpw",
		Name:     "schooldesk",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=secretpw dbname=schooldesk sslmode=disable",
		cfg.DSN())
}
