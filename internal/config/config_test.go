package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/intakebot/core/config"
	coredatabase "github.com/m3rciful/intakebot/core/database"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: yaml-token
  admin_chat_id: -1001
database:
  driver: sqlite
  sqlite_path: ":memory:"
bot:
  admin_ids: [1, 2]
  broadcast_workers: 4
  session_backend: SQL
  site_url: https://example.org
sender:
  retry_backoff_ms: 1500
ops:
  listen: ":8081"
`)
	t.Setenv("BOT_LOGO_PATH", "assets/logo.jpg")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "yaml-token", cfg.Telegram.Token)
	assert.Equal(t, coreconfig.RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, coredatabase.DriverSQLite, cfg.Database.DriverName())
	assert.Equal(t, []int64{1, 2}, cfg.Bot.AdminIDs)
	assert.Equal(t, SessionsSQL, cfg.Bot.SessionBackend)
	assert.Equal(t, "assets/logo.jpg", cfg.Bot.LogoPath)
	assert.Equal(t, defaultContacts, cfg.Bot.Contacts)
	assert.Equal(t, ":8081", cfg.Ops.Listen)
	assert.Equal(t, 1500*time.Millisecond, cfg.DispatcherOptions().RetryBackoff)
	assert.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestNormalizeRejects(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Config: coreconfig.Config{
				Telegram: coreconfig.TelegramConfig{Token: "t", AdminChatID: 5},
			},
			Database: coredatabase.Config{Driver: "sqlite"},
		}
	}
	require.NoError(t, Normalize(valid()))

	cases := map[string]func(*Config){
		"no admin chat":    func(c *Config) { c.Telegram.AdminChatID = 0 },
		"no token":         func(c *Config) { c.Telegram.Token = "" },
		"bad driver":       func(c *Config) { c.Database.Driver = "oracle" },
		"bad backend":      func(c *Config) { c.Bot.SessionBackend = "redis" },
		"negative pool":    func(c *Config) { c.Bot.BroadcastWorkers = -1 },
		"negative retry":   func(c *Config) { c.Sender.MaxRetries = -1 },
		"postgres no host": func(c *Config) { c.Database = coredatabase.Config{Driver: "postgres"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, Normalize(cfg))
		})
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{
		Config:   coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t", AdminChatID: 5}},
		Database: coredatabase.Config{Driver: "sqlite"},
	}
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, SessionsMemory, cfg.Bot.SessionBackend)
	assert.Equal(t, defaultAbout, cfg.Bot.About)
	assert.Zero(t, cfg.DispatcherOptions().RetryBackoff)
}
