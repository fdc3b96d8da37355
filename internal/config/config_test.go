package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "5174", cfg.App.Port)
	assert.Equal(t, "http://localhost:5173", cfg.App.ClientURL)
	assert.Equal(t, int64(1<<20), cfg.App.BodyLimit)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "bookshelf.sid", cfg.Session.CookieName)
	assert.Equal(t, 14*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "https://openlibrary.org", cfg.Catalog.BaseURL)
	assert.Equal(t, "http://localhost:5174/auth/google/callback", cfg.Google.CallbackURL(cfg.App.ServerURL))
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("SERVER_URL", "https://api.example.com/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 5432, cfg.Database.Port, "invalid int falls back to default")
	assert.Equal(t, "https://api.example.com/auth/google/callback", cfg.Google.CallbackURL(cfg.App.ServerURL))
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing session secret", env: map[string]string{"SESSION_SECRET": ""}},
		{name: "missing google client id", env: map[string]string{"GOOGLE_CLIENT_ID": ""}},
		{name: "unknown driver", env: map[string]string{"STORE_DRIVER": "sqlite"}},
		{name: "insecure cookie in production", env: map[string]string{"APP_ENV": "production"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadDatabaseConfig(t *testing.T) {
	t.Setenv("DB_RETRY_DELAY", "250ms")

	dbCfg, err := LoadDatabaseConfig(DatabaseConfig{
		Host: "db", Port: 6543, User: "u", Password: "p", Database: "shelf",
		SSLMode: "require", MaxConns: 10, MinConns: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, "db", dbCfg.Host)
	assert.Equal(t, 6543, dbCfg.Port)
	assert.Equal(t, int32(10), dbCfg.MaxConns)
	assert.Equal(t, 250*time.Millisecond, dbCfg.RetryDelay)
	assert.Equal(t, 5, dbCfg.MaxRetries)

	t.Setenv("DB_CONNECT_TIMEOUT", "soon")
	_, err = LoadDatabaseConfig(DatabaseConfig{})
	assert.Error(t, err)
}
