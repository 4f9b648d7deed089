package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", StorageDriverSQLite)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DevJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 120*time.Minute, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", StorageDriverPostgres)
	t.Setenv("POSTGRES_DSN", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("POSTGRES_DSN", "postgres://localhost/complaints")
	t.Setenv("APP_ENV", "development")
	_, err = Load()
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			App:     AppConfig{Env: "production"},
			Storage: StorageConfig{Driver: StorageDriverSQLite, SQLitePath: "x.db"},
			Auth:    AuthConfig{JWTSecret: "s3cr3t"},
		}
	}

	t.Run("valid", func(t *testing.T) {
		cfg := base()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("dev secret outside development", func(t *testing.T) {
		cfg := base()
		cfg.Auth.JWTSecret = DevJWTSecret
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := base()
		cfg.Storage.Driver = "mysql"
		assert.Error(t, cfg.Validate())
	})

	t.Run("half configured bootstrap admin", func(t *testing.T) {
		cfg := base()
		cfg.Auth.BootstrapAdminEmail = "root@example.com"
		assert.Error(t, cfg.Validate())
	})
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", StorageDriverSQLite)
	t.Setenv("APP_ENV", "development")
	t.Setenv("HTTP_PROXY_HEADER", "X-Forwarded-For")
	t.Setenv("HTTP_TRUSTED_PROXIES", " 10.0.0.1, 192.168.0.0/16 ,,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "X-Forwarded-For", cfg.App.ProxyHeader)
	assert.Equal(t, []string{"10.0.0.1", "192.168.0.0/16"}, cfg.App.TrustedProxies)

	t.Setenv("HTTP_PROXY_HEADER", "")
	_, err = Load()
	assert.Error(t, err)
}

func TestRequestTimeout_Disabled(t *testing.T) {
	assert.Equal(t, time.Duration(0), AppConfig{RequestTimeoutSeconds: 0}.RequestTimeout())
}
