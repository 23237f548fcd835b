package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/neekunjshah/petty-cash/internal/config"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestConfig_Defaults(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "instance/pettycash.db", cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.Session.Lifetime)
	assert.Equal(t, "pettycash_session", cfg.Session.CookieName)
	assert.Equal(t, "static/signatures", cfg.Signature.Root)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_LoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  https_redirect: true
database:
  url: "postgres://app:secret@db:5432/pettycash?sslmode=disable"
session:
  lifetime: 2h
signature:
  root: "gs://receipts/signatures"
export:
  currency_symbol: "€"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.HTTPSRedirect)
	assert.Equal(t, "postgres://app:secret@db:5432/pettycash?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, 2*time.Hour, cfg.Session.Lifetime)
	assert.Equal(t, "gs://receipts/signatures", cfg.Signature.Root)
	assert.Equal(t, "€", cfg.Export.CurrencySymbol)
	// 未出现在文件中的项保留默认值
	assert.Equal(t, "pettycash_session", cfg.Session.CookieName)
}

func TestConfig_LoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_EnvironmentVariables(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env@db/pettycash")
	t.Setenv("SECRET_KEY", "from-env")
	t.Setenv("SIGNATURE_ROOT", "/var/lib/signatures")
	t.Setenv("PORT", "7070")
	t.Setenv("PETTYCASH_LOG_LEVEL", "error")

	cfg, err := config.Load(writeConfig(t, "server:\n  port: 8000\n"))
	require.NoError(t, err)

	assert.Equal(t, "postgres://env@db/pettycash", cfg.Database.URL)
	assert.Equal(t, "from-env", cfg.Session.Secret)
	assert.Equal(t, "/var/lib/signatures", cfg.Signature.Root)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestConfig_PrefixedEnvWins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://plain@db/pettycash")
	t.Setenv("PETTYCASH_DATABASE_URL", "postgres://prefixed@db/pettycash")

	cfg, err := config.Load(writeConfig(t, "env: development\n"))
	require.NoError(t, err)
	assert.Equal(t, "postgres://prefixed@db/pettycash", cfg.Database.URL)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{"defaults", func(c *config.Config) {}, false},
		{"bad port", func(c *config.Config) { c.Server.Port = 70000 }, true},
		{"zero lifetime", func(c *config.Config) { c.Session.Lifetime = 0 }, true},
		{"empty signature root", func(c *config.Config) { c.Signature.Root = "" }, true},
		{"production default secret", func(c *config.Config) {
			c.Env = "production"
			c.Session.Secret = config.DefaultSecretKey
		}, true},
		{"production custom secret", func(c *config.Config) {
			c.Env = "production"
			c.Session.Secret = "a-real-secret"
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsProduction(t *testing.T) {
	assert.False(t, config.IsProduction(nil))
	assert.False(t, config.IsProduction(&config.Config{Env: "development"}))
	assert.True(t, config.IsProduction(&config.Config{Env: "production"}))
}

func TestConfigWatcher_ReloadsOnChange(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)

	watcher := config.NewConfigWatcher(cfg, path)
	var mu sync.Mutex
	var level string
	watcher.OnConfigChange(func(newCfg *config.Config) {
		mu.Lock()
		defer mu.Unlock()
		level = newCfg.Log.Level
	})
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return level == "warn"
	}, 3*time.Second, 50*time.Millisecond)
	assert.Eventually(t, func() bool {
		return watcher.GetConfig().Log.Level == "warn"
	}, time.Second, 20*time.Millisecond)
}

func TestConfigWatcher_InvalidReloadIsLogged(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)

	logger, hook := logtest.NewNullLogger()
	watcher := config.NewConfigWatcher(cfg, path)
	watcher.SetLogger(logger)
	var mu sync.Mutex
	var lifetimes []time.Duration
	watcher.OnConfigChange(func(newCfg *config.Config) {
		mu.Lock()
		defer mu.Unlock()
		lifetimes = append(lifetimes, newCfg.Session.Lifetime)
	})
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\nsession:\n  lifetime: 0s\n"), 0644))

	assert.Eventually(t, func() bool {
		for _, entry := range hook.AllEntries() {
			if entry.Level == logrus.WarnLevel {
				return true
			}
		}
		return false
	}, 3*time.Second, 50*time.Millisecond)

	// 非法配置既不触发回调也不替换当前配置
	mu.Lock()
	for _, lifetime := range lifetimes {
		assert.Positive(t, lifetime)
	}
	mu.Unlock()
	assert.Positive(t, watcher.GetConfig().Session.Lifetime)
}

func TestConfigWatcher_StartMissingFile(t *testing.T) {
	watcher := config.NewConfigWatcher(config.Default(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, watcher.Start())
}
