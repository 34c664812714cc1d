package database

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/intakebot/core/logger"
)

// RunMigrations applies every up migration found under the driver's directory of source.
// source is expected to contain one directory per driver (postgres/, sqlite/).
func RunMigrations(db *sqlx.DB, driver string, source fs.FS) error {
	if db == nil {
		return fmt.Errorf("migrations: nil database")
	}
	if source == nil {
		return fmt.Errorf("migrations: nil source")
	}

	files := listMigrationFiles(source, driver)
	preview, truncated := logger.SummarizeStrings(files, 6)
	args := []any{
		slog.String("event", "resolve"),
		slog.String("driver", driver),
		slog.Int("files_total", len(files)),
	}
	if preview != "" {
		args = append(args, slog.String("files_preview", preview))
	}
	if truncated {
		args = append(args, slog.Bool("files_truncated", true))
	}
	logger.MIG.Debug("migrations resolved", args...)

	src, err := iofs.New(source, driver)
	if err != nil {
		return migrationInitFailed(fmt.Errorf("open migration source: %w", err))
	}
	target, err := instance(db, driver)
	if err != nil {
		return migrationInitFailed(err)
	}
	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return migrationInitFailed(err)
	}

	fromVer, _, _ := m.Version()

	start := time.Now()
	upErr := m.Up()
	took := time.Since(start)

	switch {
	case upErr == nil:
	case errors.Is(upErr, migrate.ErrNoChange):
		logger.MIG.Info("migrations summary",
			slog.String("event", "summary"),
			slog.Uint64("from_ver", uint64(fromVer)),
			slog.Uint64("to_ver", uint64(fromVer)),
			slog.Int("files", 0),
			slog.Duration("duration", logger.RoundMS(took)),
		)
		return nil
	default:
		logger.MIG.Error("migration failed",
			slog.String("event", "apply"),
			slog.String("err", upErr.Error()),
			slog.Duration("duration", logger.RoundMS(took)),
		)
		return fmt.Errorf("migration execution failed: %w", upErr)
	}

	toVer, _, _ := m.Version()
	applied := selectApplied(files, uint64(fromVer), uint64(toVer))
	if len(applied) > 0 {
		previewApplied, truncatedApplied := logger.SummarizeStrings(applied, 6)
		logger.MIG.Debug("applied files",
			slog.String("event", "apply"),
			slog.Int("files_total", len(applied)),
			slog.String("files_preview", previewApplied),
			slog.Bool("files_truncated", truncatedApplied),
		)
	}

	logger.MIG.Info("migrations summary",
		slog.String("event", "summary"),
		slog.Uint64("from_ver", uint64(fromVer)),
		slog.Uint64("to_ver", uint64(toVer)),
		slog.Int("files", len(applied)),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	return nil
}

// instance wraps an open pool for golang-migrate. The returned driver must not
// be closed: closing it closes db.
func instance(db *sqlx.DB, driver string) (migratedb.Driver, error) {
	switch driver {
	case DriverPostgres:
		return postgres.WithInstance(db.DB, &postgres.Config{})
	case DriverSQLite:
		return sqlite.WithInstance(db.DB, &sqlite.Config{})
	}
	return nil, fmt.Errorf("unsupported migration driver %q", driver)
}

func migrationInitFailed(err error) error {
	logger.MIG.Error("init failed",
		slog.String("event", "db.migrate"),
		slog.String("err", err.Error()),
	)
	return fmt.Errorf("failed to initialize migrations: %w", err)
}

func listMigrationFiles(source fs.FS, dir string) []string {
	entries, err := fs.ReadDir(source, dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func parseVersion(name string) uint64 {
	prefix, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(prefix, 10, 64)
	return v
}

func selectApplied(files []string, from, to uint64) []string {
	if to <= from {
		return nil
	}
	var out []string
	for _, f := range files {
		if v := parseVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
