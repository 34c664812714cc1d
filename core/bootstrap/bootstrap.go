package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/intakebot/core/config"
	coredatabase "github.com/m3rciful/intakebot/core/database"
	"github.com/m3rciful/intakebot/core/logger"
)

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config

	// Migrations holds one directory per driver; nil skips migrations.
	Migrations fs.FS
	Seeders    []Seeder

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(db *sqlx.DB, driver string, source fs.FS) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB *sqlx.DB
}

// Run initializes the logger, connects to the database, applies migrations and runs seeders.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	if err := opts.Database.Validate(); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	if opts.Migrations != nil {
		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(db, opts.Database.DriverName(), opts.Migrations); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
	}

	for i, seeder := range opts.Seeders {
		if seeder == nil {
			continue
		}
		start := time.Now()
		if err := seeder.Seed(ctx, db); err != nil {
			_ = db.Close()
			logger.SEED.Error("seeder failed",
				slog.String("event", "seed.run"),
				slog.Int("index", i),
				slog.Duration("duration", logger.Took(start)),
				logger.Err(err),
			)
			return nil, fmt.Errorf("bootstrap: seeder %d failed: %w", i, err)
		}
	}

	return &Result{DB: db}, nil
}
