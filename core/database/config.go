package database

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// DriverPostgres selects lib/pq.
	DriverPostgres = "postgres"
	// DriverSQLite selects the pure Go modernc driver.
	DriverSQLite = "sqlite"
)

// Config holds database connection settings.
type Config struct {
	Driver         string `yaml:"driver" envconfig:"DB_DRIVER"`
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	SQLitePath     string `yaml:"sqlite_path" envconfig:"DB_SQLITE_PATH"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	// ConnectTimeoutSeconds bounds how long Connect waits for the server; 0 -> 30s
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds" envconfig:"DB_CONNECT_TIMEOUT_SECONDS"`
}

// DriverName returns the normalized driver, defaulting to postgres.
func (c Config) DriverName() string {
	d := strings.ToLower(strings.TrimSpace(c.Driver))
	switch d {
	case "", "pg", "postgresql":
		return DriverPostgres
	case "sqlite3":
		return DriverSQLite
	}
	return d
}

// DSN builds the driver specific data source name.
func (c Config) DSN() string {
	if c.DriverName() == DriverSQLite {
		path := strings.TrimSpace(c.SQLitePath)
		if path == "" {
			path = ":memory:"
		}
		return path
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(sslmode),
	}
	return u.String()
}

// InMemory reports whether the DSN points at a private in-memory sqlite database.
func (c Config) InMemory() bool {
	return c.DriverName() == DriverSQLite && strings.Contains(c.DSN(), ":memory:")
}

// Validate checks that the selected driver has what it needs.
func (c Config) Validate() error {
	switch c.DriverName() {
	case DriverPostgres:
		if strings.TrimSpace(c.Host) == "" || strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("database.host and database.name are required for postgres")
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("invalid database.driver %q; allowed: postgres, sqlite", c.Driver)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("database.max_connections must be >= 0")
	}
	return nil
}

func (c Config) connectTimeout() time.Duration {
	if c.ConnectTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}
