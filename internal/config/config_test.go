package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "GIN_MODE", "SESSION_SECRET", "SESSION_COOKIE_NAME", "SESSION_STORE",
	"SESSION_REDIS_URL", "SESSION_MAX_AGE", "DB_DRIVER", "DB_DSN", "DB_RESET_SCHEMA",
	"BCRYPT_COST", "CORS_ALLOWED_ORIGINS", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv はテスト中だけ設定キーを未設定にします。
// godotenv は既存のキーを上書きしないため、空文字ではなく Unsetenv しておく。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	// .env.local を拾わないよう空のディレクトリで実行する
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "debug", cfg.GinMode)
	assert.Equal(t, SessionStoreCookie, cfg.SessionStore)
	assert.Equal(t, 86400, cfg.SessionMaxAge)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "file:database.db", cfg.DatabaseDSN)
	assert.False(t, cfg.ResetSchema)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Empty(t, cfg.AllowedOrigins())

	// 開発モードでは秘密鍵を自動生成する
	assert.Len(t, cfg.SessionSecret, 64)
	assert.True(t, cfg.SecretGenerated())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://app@localhost/app")
	t.Setenv("DB_RESET_SCHEMA", "true")
	t.Setenv("BCRYPT_COST", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "s3cret", cfg.SessionSecret)
	assert.False(t, cfg.SecretGenerated())
	assert.Equal(t, SessionStoreRedis, cfg.SessionStore)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.True(t, cfg.ResetSchema)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins())
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "app.env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9090\nLOG_FORMAT=console\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoadMissingEnvFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestReleaseModeRequiresSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("GIN_MODE", "release")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			GinMode:        "debug",
			SessionSecret:  "x",
			SessionCookie:  "session",
			SessionStore:   SessionStoreCookie,
			DatabaseDriver: "sqlite",
			DatabaseDSN:    "file:database.db",
		}
	}

	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"unknown store":      func(c *Config) { c.SessionStore = "memcached" },
		"redis without url":  func(c *Config) { c.SessionStore = SessionStoreRedis; c.SessionRedisURL = "" },
		"unknown driver":     func(c *Config) { c.DatabaseDriver = "mysql" },
		"empty dsn":          func(c *Config) { c.DatabaseDSN = "" },
		"empty cookie name":  func(c *Config) { c.SessionCookie = "" },
		"negative max age":   func(c *Config) { c.SessionMaxAge = -1 },
		"reset in release":   func(c *Config) { c.GinMode = "release"; c.ResetSchema = true },
		"release w/o secret": func(c *Config) { c.GinMode = "release"; c.SessionSecret = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
