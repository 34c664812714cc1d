package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/m3rciful/intakebot/core/logger"
)

const pingInterval = 2 * time.Second

// Connect opens the database, waits until it answers pings, and configures the pool.
func Connect(cfg Config) (*sqlx.DB, error) {
	driver := cfg.DriverName()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.connectTimeout())
	defer cancel()

	start := time.Now()
	db, err := sqlx.Open(driver, cfg.DSN())
	if err == nil {
		err = waitReady(ctx, db)
		if err != nil {
			_ = db.Close()
		}
	}
	took := time.Since(start)
	if err != nil {
		logger.DB.Error("db connect failed",
			slog.String("event", "db.connect"),
			slog.String("driver", driver),
			slog.String("host", cfg.Host),
			slog.String("db", cfg.Name),
			slog.Duration("duration", logger.RoundMS(took)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	pool := cfg.MaxConnections
	if cfg.InMemory() {
		// every connection to :memory: is a separate database
		pool = 1
	}
	if pool > 0 {
		db.SetMaxOpenConns(pool)
		db.SetMaxIdleConns(pool)
	}
	logger.DB.Debug("db pool configured",
		slog.String("event", "db.pool"),
		slog.Int("pool_open", pool),
	)

	logger.DB.Info("db connected",
		slog.String("event", "db.connect"),
		slog.String("driver", driver),
		slog.String("host", cfg.Host),
		slog.String("db", cfg.Name),
		slog.Int("pool_open", pool),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	return db, nil
}

// waitReady pings until the server answers or ctx expires.
func waitReady(ctx context.Context, db *sqlx.DB) error {
	var lastErr error
	for {
		if lastErr = db.PingContext(ctx); lastErr == nil {
			return nil
		}
		timer := time.NewTimer(pingInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("database not ready: %w", lastErr)
		case <-timer.C:
		}
	}
}
