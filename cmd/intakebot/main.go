package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/intakebot/core/bootstrap"
	corecmd "github.com/m3rciful/intakebot/core/cmd"
	"github.com/m3rciful/intakebot/internal/bot"
	"github.com/m3rciful/intakebot/internal/config"
	"github.com/m3rciful/intakebot/internal/storage"
	"github.com/m3rciful/intakebot/migrations"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		Name:              "intakebot",
		DefaultConfigPath: "configs/config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: func(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			cfg, ok := carrier.(*config.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			res, err := bootstrap.Run(context.Background(), bootstrap.Options{
				Config:     cfg.CoreConfig(),
				Database:   cfg.Database,
				Migrations: migrations.FS,
				Seeders:    []bootstrap.Seeder{storage.AdminSeeder(cfg.Bot.AdminIDs)},
			})
			if err != nil {
				return nil, err
			}
			return assemble(cfg, res.DB, bot.New)
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}

// assemble builds the app on a migrated database. The database is closed
// when assembly fails since nothing else owns it yet.
func assemble(cfg *config.Config, db *sqlx.DB, build func(*config.Config, *sqlx.DB) (*bot.App, error)) (*bot.App, error) {
	app, err := build(cfg, db)
	if err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, errors.Join(err, cerr)
		}
		return nil, err
	}
	return app, nil
}
