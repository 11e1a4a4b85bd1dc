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
		"STORE_APP_NAME":                os.Getenv("STORE_APP_NAME"),
		"STORE_APP_ENV":                 os.Getenv("STORE_APP_ENV"),
		"STORE_APP_PORT":                os.Getenv("STORE_APP_PORT"),
		"STORE_DATABASE_HOST":           os.Getenv("STORE_DATABASE_HOST"),
		"STORE_DATABASE_PORT":           os.Getenv("STORE_DATABASE_PORT"),
		"STORE_DATABASE_USER":           os.Getenv("STORE_DATABASE_USER"),
		"STORE_DATABASE_PASSWORD":       os.Getenv("STORE_DATABASE_PASSWORD"),
		"STORE_DATABASE_DBNAME":         os.Getenv("STORE_DATABASE_DBNAME"),
		"STORE_DATABASE_SSLMODE":        os.Getenv("STORE_DATABASE_SSLMODE"),
		"STORE_DATABASE_MAX_OPEN_CONNS": os.Getenv("STORE_DATABASE_MAX_OPEN_CONNS"),
		"STORE_DATABASE_MAX_IDLE_CONNS": os.Getenv("STORE_DATABASE_MAX_IDLE_CONNS"),
		"STORE_JWT_SECRET":              os.Getenv("STORE_JWT_SECRET"),
		"STORE_DATABASE_DRIVER":         os.Getenv("STORE_DATABASE_DRIVER"),
		"STORE_STORE_MINIMUM_SUBTOTAL":  os.Getenv("STORE_STORE_MINIMUM_SUBTOTAL"),
		"STORE_STORE_CHECKOUT_ENABLED":  os.Getenv("STORE_STORE_CHECKOUT_ENABLED"),
		"STORE_PAYPAL_ENV":              os.Getenv("STORE_PAYPAL_ENV"),
		"STORE_SCHEDULER_DAILY_TIME":    os.Getenv("STORE_SCHEDULER_DAILY_TIME"),
		"STORE_STORAGE_ENABLED":         os.Getenv("STORE_STORAGE_ENABLED"),
		"STORE_STORAGE_DRIVER":          os.Getenv("STORE_STORAGE_DRIVER"),
		"STORE_CART_ANONYMOUS_DURATION": os.Getenv("STORE_CART_ANONYMOUS_DURATION"),
		"STORE_STORE_COUNTRIES":         os.Getenv("STORE_STORE_COUNTRIES"),
		"STORE_TELEMETRY_LOGS_ENABLED":  os.Getenv("STORE_TELEMETRY_LOGS_ENABLED"),
		"APP_ENV":                       os.Getenv("APP_ENV"),
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

		assert.Equal(t, "storefront", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, "storefront", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "USD", cfg.Store.Currency)
		assert.True(t, cfg.Store.CheckoutEnabled)
		assert.True(t, cfg.Store.AnonymousCheckout)
		assert.Empty(t, cfg.Store.Countries)
		assert.False(t, cfg.Telemetry.LogsEnabled)
		assert.False(t, cfg.Telemetry.ProfilingEnabled)
		assert.Equal(t, "http://localhost:4040", cfg.Telemetry.ProfilingServer)
		assert.Equal(t, []string{"completed"}, cfg.Store.ReportStatuses)
		assert.Equal(t, 4*time.Hour, cfg.Cart.AnonymousDuration)
		assert.Equal(t, 365*24*time.Hour, cfg.Cart.AuthenticatedDuration)
		assert.Equal(t, "sandbox", cfg.PayPal.Env)
		assert.Equal(t, 30*time.Second, cfg.PayPal.Timeout)
		assert.Equal(t, "test_gateway", cfg.Credit.GatewayID)
		assert.Equal(t, "02:00", cfg.Scheduler.DailyTime)
		assert.Equal(t, "storefront.events", cfg.AMQP.Exchange)
	})

	t.Run("loads values from environment variables with STORE prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("STORE_APP_NAME", "test-app")
		os.Setenv("STORE_APP_ENV", "testing")
		os.Setenv("STORE_APP_PORT", "9000")
		os.Setenv("STORE_DATABASE_HOST", "testdb.local")
		os.Setenv("STORE_DATABASE_PORT", "5433")
		os.Setenv("STORE_DATABASE_USER", "testuser")
		os.Setenv("STORE_DATABASE_PASSWORD", "testpass")
		os.Setenv("STORE_DATABASE_DBNAME", "testdb")
		os.Setenv("STORE_DATABASE_SSLMODE", "require")
		os.Setenv("STORE_DATABASE_MAX_OPEN_CONNS", "50")
		os.Setenv("STORE_DATABASE_MAX_IDLE_CONNS", "10")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
	})

	t.Run("enabled countries from environment", func(t *testing.T) {
		clearEnv()
		os.Setenv("STORE_STORE_COUNTRIES", "US CA")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"US", "CA"}, cfg.Store.Countries)
	})

	t.Run("log export toggle from environment", func(t *testing.T) {
		clearEnv()
		os.Setenv("STORE_TELEMETRY_LOGS_ENABLED", "true")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Telemetry.LogsEnabled)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("STORE_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("STORE_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv()
		os.Setenv("STORE_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		// 0 is treated as "not set", so default (25) is used
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv()
		os.Setenv("STORE_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("loads store settings from environment", func(t *testing.T) {
		clearEnv()
		os.Setenv("STORE_STORE_MINIMUM_SUBTOTAL", "25.5")
		os.Setenv("STORE_STORE_CHECKOUT_ENABLED", "false")
		os.Setenv("STORE_CART_ANONYMOUS_DURATION", "30m")
		os.Setenv("STORE_DATABASE_DRIVER", "sqlite")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 25.5, cfg.Store.MinimumSubtotal)
		assert.False(t, cfg.Store.CheckoutEnabled)
		assert.Equal(t, 30*time.Minute, cfg.Cart.AnonymousDuration)
		assert.Equal(t, "storefront.db", cfg.Database.DSN())
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		clearEnv()
		os.Setenv("STORE_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("rejects unknown paypal env", func(t *testing.T) {
		clearEnv()
		os.Setenv("STORE_PAYPAL_ENV", "live")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "paypal.env")
	})

	t.Run("rejects malformed scheduler daily time", func(t *testing.T) {
		clearEnv()
		os.Setenv("STORE_SCHEDULER_DAILY_TIME", "2am")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scheduler.daily_time")
	})

	t.Run("requires bucket when storage is enabled", func(t *testing.T) {
		clearEnv()
		os.Setenv("STORE_STORAGE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket")
	})

	t.Run("memory storage needs no bucket", func(t *testing.T) {
		clearEnv()
		os.Setenv("STORE_STORAGE_ENABLED", "true")
		os.Setenv("STORE_STORAGE_DRIVER", "memory")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "memory", cfg.Storage.Driver)
	})

	t.Run("rejects unknown storage driver", func(t *testing.T) {
		clearEnv()
		os.Setenv("STORE_STORAGE_DRIVER", "gcs")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.driver")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"STORE_APP_ENV":              os.Getenv("STORE_APP_ENV"),
		"STORE_JWT_SECRET":           os.Getenv("STORE_JWT_SECRET"),
		"STORE_DATABASE_PASSWORD":    os.Getenv("STORE_DATABASE_PASSWORD"),
		"STORE_DATABASE_SSLMODE":     os.Getenv("STORE_DATABASE_SSLMODE"),
		"STORE_SWAGGER_ENABLED":      os.Getenv("STORE_SWAGGER_ENABLED"),
		"STORE_SWAGGER_REQUIRE_AUTH": os.Getenv("STORE_SWAGGER_REQUIRE_AUTH"),
		"STORE_SWAGGER_ALLOWED_IPS":  os.Getenv("STORE_SWAGGER_ALLOWED_IPS"),
		"APP_ENV":                    os.Getenv("APP_ENV"),
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

	// Helper to set valid production base config
	setValidProductionBase := func() {
		os.Setenv("STORE_APP_ENV", "production")
		os.Setenv("STORE_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		os.Setenv("STORE_DATABASE_PASSWORD", "secure-password")
		os.Setenv("STORE_DATABASE_SSLMODE", "require")
		os.Setenv("STORE_SWAGGER_ENABLED", "false")
	}

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("STORE_APP_ENV", "production")
		os.Setenv("STORE_DATABASE_PASSWORD", "secure-password")
		os.Setenv("STORE_DATABASE_SSLMODE", "require")
		os.Setenv("STORE_SWAGGER_ENABLED", "false")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("STORE_APP_ENV", "production")
		os.Setenv("STORE_JWT_SECRET", "short-secret")
		os.Setenv("STORE_DATABASE_PASSWORD", "secure-password")
		os.Setenv("STORE_DATABASE_SSLMODE", "require")
		os.Setenv("STORE_SWAGGER_ENABLED", "false")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("STORE_APP_ENV", "production")
		os.Setenv("STORE_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		os.Setenv("STORE_DATABASE_SSLMODE", "require")
		os.Setenv("STORE_SWAGGER_ENABLED", "false")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("STORE_APP_ENV", "production")
		os.Setenv("STORE_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		os.Setenv("STORE_DATABASE_PASSWORD", "secure-password")
		os.Setenv("STORE_DATABASE_SSLMODE", "disable")
		os.Setenv("STORE_SWAGGER_ENABLED", "false")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("fails if swagger enabled without protection in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("STORE_SWAGGER_ENABLED", "true")
		os.Setenv("STORE_SWAGGER_REQUIRE_AUTH", "false")
		// No IP whitelist set

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "swagger endpoint must be disabled, require authentication, or have IP restriction")
	})

	t.Run("passes with swagger enabled and require_auth in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("STORE_SWAGGER_ENABLED", "true")
		os.Setenv("STORE_SWAGGER_REQUIRE_AUTH", "true")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Swagger.Enabled)
		assert.True(t, cfg.Swagger.RequireAuth)
	})

	t.Run("passes with swagger disabled in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("STORE_SWAGGER_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.Swagger.Enabled)
	})
}

func TestRedisConfig_RedisAddr(t *testing.T) {
	assert.Equal(t, "", (&RedisConfig{Port: 6379}).RedisAddr())
	assert.Equal(t, "cache:6380", (&RedisConfig{Host: "cache", Port: 6380}).RedisAddr())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		// URL-encoded password should be in the DSN
		assert.Contains(t, dsn, "pass%40word%23123")
	})

	t.Run("handles empty password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.NotEmpty(t, dsn)
	})
}
