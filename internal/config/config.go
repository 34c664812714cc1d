// Package config loads the application configuration: the core sections plus
// database, bot behaviour, outbound sender and the ops listener.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/intakebot/core/config"
	coredatabase "github.com/m3rciful/intakebot/core/database"
	tgsender "github.com/m3rciful/intakebot/core/telegram/sender"
)

const (
	// SessionsMemory keeps dialogue sessions in process memory.
	SessionsMemory = "memory"
	// SessionsSQL keeps dialogue sessions in the database.
	SessionsSQL = "sql"
)

const (
	defaultContacts = "📞 *Наши контакты*"
	defaultAbout    = "🌟 *О нас* 🌟"
)

// BotConfig holds the dialogue behaviour and informational content.
type BotConfig struct {
	AdminIDs                []int64 `yaml:"admin_ids" envconfig:"BOT_ADMIN_IDS"`
	AllowRegistrationCancel bool    `yaml:"allow_registration_cancel" envconfig:"BOT_ALLOW_REGISTRATION_CANCEL"`
	// BroadcastWorkers > 1 sends broadcasts concurrently.
	BroadcastWorkers int    `yaml:"broadcast_workers" envconfig:"BOT_BROADCAST_WORKERS"`
	SessionBackend   string `yaml:"session_backend" envconfig:"BOT_SESSION_BACKEND"`
	Contacts         string `yaml:"contacts"`
	About            string `yaml:"about"`
	SiteURL          string `yaml:"site_url" envconfig:"BOT_SITE_URL"`
	LogoPath         string `yaml:"logo_path" envconfig:"BOT_LOGO_PATH"`
}

// SenderConfig tunes the outbound dispatcher; zero values keep its defaults.
type SenderConfig struct {
	Workers        int `yaml:"workers" envconfig:"SENDER_WORKERS"`
	QueueSize      int `yaml:"queue_size" envconfig:"SENDER_QUEUE_SIZE"`
	MaxRetries     int `yaml:"max_retries" envconfig:"SENDER_MAX_RETRIES"`
	RetryBackoffMS int `yaml:"retry_backoff_ms" envconfig:"SENDER_RETRY_BACKOFF_MS"`
}

// OpsConfig configures the health listener. An empty Listen disables it.
type OpsConfig struct {
	Listen string `yaml:"listen" envconfig:"OPS_LISTEN"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Bot      BotConfig           `yaml:"bot"`
	Sender   SenderConfig        `yaml:"sender"`
	Ops      OpsConfig           `yaml:"ops"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads path, overlays the environment and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadFile(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates cfg and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}
	if cfg.Telegram.AdminChatID == 0 {
		return fmt.Errorf("telegram.admin_chat_id is required")
	}
	if err := cfg.Database.Validate(); err != nil {
		return err
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Bot.SessionBackend))
	switch backend {
	case "":
		backend = SessionsMemory
	case SessionsMemory, SessionsSQL:
	default:
		return fmt.Errorf("invalid bot.session_backend %q; allowed: memory, sql", cfg.Bot.SessionBackend)
	}
	cfg.Bot.SessionBackend = backend

	if cfg.Bot.BroadcastWorkers < 0 {
		return fmt.Errorf("bot.broadcast_workers must be >= 0")
	}
	if cfg.Sender.MaxRetries < 0 {
		return fmt.Errorf("sender.max_retries must be >= 0")
	}
	if strings.TrimSpace(cfg.Bot.Contacts) == "" {
		cfg.Bot.Contacts = defaultContacts
	}
	if strings.TrimSpace(cfg.Bot.About) == "" {
		cfg.Bot.About = defaultAbout
	}
	return nil
}

// DispatcherOptions maps the sender section onto the dispatcher.
func (c *Config) DispatcherOptions() tgsender.Options {
	return tgsender.Options{
		Workers:      c.Sender.Workers,
		QueueSize:    c.Sender.QueueSize,
		MaxRetries:   c.Sender.MaxRetries,
		RetryBackoff: msDuration(c.Sender.RetryBackoffMS),
	}
}

func msDuration(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
