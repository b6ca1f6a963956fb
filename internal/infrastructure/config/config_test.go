package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"DEVMATCH_APP_NAME":                     os.Getenv("DEVMATCH_APP_NAME"),
		"DEVMATCH_APP_ENV":                      os.Getenv("DEVMATCH_APP_ENV"),
		"DEVMATCH_APP_PORT":                     os.Getenv("DEVMATCH_APP_PORT"),
		"DEVMATCH_DATABASE_HOST":                os.Getenv("DEVMATCH_DATABASE_HOST"),
		"DEVMATCH_DATABASE_PORT":                os.Getenv("DEVMATCH_DATABASE_PORT"),
		"DEVMATCH_DATABASE_PASSWORD":            os.Getenv("DEVMATCH_DATABASE_PASSWORD"),
		"DEVMATCH_DATABASE_SSLMODE":             os.Getenv("DEVMATCH_DATABASE_SSLMODE"),
		"DEVMATCH_DATABASE_MAX_OPEN_CONNS":      os.Getenv("DEVMATCH_DATABASE_MAX_OPEN_CONNS"),
		"DEVMATCH_DATABASE_MAX_IDLE_CONNS":      os.Getenv("DEVMATCH_DATABASE_MAX_IDLE_CONNS"),
		"DEVMATCH_REDIS_ENABLED":                os.Getenv("DEVMATCH_REDIS_ENABLED"),
		"DEVMATCH_CRM_CLIENT_ID":                os.Getenv("DEVMATCH_CRM_CLIENT_ID"),
		"DEVMATCH_CRM_CLIENT_SECRET":            os.Getenv("DEVMATCH_CRM_CLIENT_SECRET"),
		"DEVMATCH_CRM_LOCATION_ID":              os.Getenv("DEVMATCH_CRM_LOCATION_ID"),
		"DEVMATCH_CRM_TRUST_WEBHOOK_EVENT_TYPE": os.Getenv("DEVMATCH_CRM_TRUST_WEBHOOK_EVENT_TYPE"),
		"DEVMATCH_WEBHOOK_DEDUPE_TTL":           os.Getenv("DEVMATCH_WEBHOOK_DEDUPE_TTL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "devmatch-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "devmatch", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, "https://services.leadconnectorhq.com", cfg.CRM.BaseURL)
		assert.Equal(t, "2021-07-28", cfg.CRM.APIVersion)
		assert.Equal(t, 30*time.Second, cfg.CRM.Timeout)
		assert.Equal(t, 24*time.Hour, cfg.Webhook.DedupeTTL)
	})

	t.Run("loads values from environment variables with DEVMATCH prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("DEVMATCH_APP_NAME", "test-app")
		os.Setenv("DEVMATCH_APP_PORT", "9000")
		os.Setenv("DEVMATCH_DATABASE_HOST", "testdb.local")
		os.Setenv("DEVMATCH_DATABASE_PORT", "5433")
		os.Setenv("DEVMATCH_CRM_CLIENT_ID", "client-123")
		os.Setenv("DEVMATCH_CRM_CLIENT_SECRET", "secret-456")
		os.Setenv("DEVMATCH_CRM_LOCATION_ID", "loc-789")
		os.Setenv("DEVMATCH_WEBHOOK_DEDUPE_TTL", "1h")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "client-123", cfg.CRM.ClientID)
		assert.Equal(t, "secret-456", cfg.CRM.ClientSecret)
		assert.Equal(t, "loc-789", cfg.CRM.LocationID)
		assert.Equal(t, time.Hour, cfg.Webhook.DedupeTTL)
	})

	t.Run("trust webhook event type defaults to true", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.CRM.TrustWebhookEventType)
	})

	t.Run("trust webhook event type can be disabled", func(t *testing.T) {
		clearEnv()
		os.Setenv("DEVMATCH_CRM_TRUST_WEBHOOK_EVENT_TYPE", "false")

		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.CRM.TrustWebhookEventType)
	})

	t.Run("production requires database password and CRM credentials", func(t *testing.T) {
		clearEnv()
		os.Setenv("DEVMATCH_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password")
	})

	t.Run("production rejects disabled ssl", func(t *testing.T) {
		clearEnv()
		os.Setenv("DEVMATCH_APP_ENV", "production")
		os.Setenv("DEVMATCH_DATABASE_PASSWORD", "pw")
		os.Setenv("DEVMATCH_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sslmode")
	})

	t.Run("idle conns cannot exceed open conns", func(t *testing.T) {
		clearEnv()
		os.Setenv("DEVMATCH_DATABASE_MAX_OPEN_CONNS", "5")
		os.Setenv("DEVMATCH_DATABASE_MAX_IDLE_CONNS", "10")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("builds a postgres URL", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "db.internal",
			Port:     5432,
			User:     "devmatch",
			Password: "pw",
			DBName:   "devmatch",
			SSLMode:  "require",
		}
		assert.Equal(t, "postgres://devmatch:pw@db.internal:5432/devmatch?sslmode=require", cfg.DSN())
	})

	t.Run("escapes special characters in the password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "devmatch",
			Password: "p@ss/word",
			DBName:   "devmatch",
			SSLMode:  "disable",
		}
		dsn := cfg.DSN()
		assert.NotContains(t, dsn, "p@ss/word")
		assert.Contains(t, dsn, "p%40ss%2Fword")
	})
}
