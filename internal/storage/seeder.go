package storage

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/intakebot/core/bootstrap"
	"github.com/m3rciful/intakebot/core/logger"
)

// AdminSeeder grants administrator rights to the configured ids at startup.
func AdminSeeder(ids []int64) bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context, db *sqlx.DB) error {
		g := NewSQLGateway(db, nil)
		for _, id := range ids {
			if err := g.AddAdmin(ctx, id); err != nil {
				return err
			}
		}
		logger.SEED.Info("admins seeded",
			slog.String("event", "seed.admins"),
			slog.Int("count", len(ids)),
		)
		return nil
	})
}
