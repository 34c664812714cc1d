// Package bot connects the dialogue engine to Telegram: it decodes updates,
// renders keyboards, delivers messages and assembles the runtime options.
package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/intakebot/core/logger"
	tg "github.com/m3rciful/intakebot/core/telegram"
	"github.com/m3rciful/intakebot/core/telegram/commands"
	tghelpers "github.com/m3rciful/intakebot/core/telegram/helpers"
	"github.com/m3rciful/intakebot/core/telegram/router"
	tgsender "github.com/m3rciful/intakebot/core/telegram/sender"
	"github.com/m3rciful/intakebot/internal/config"
	"github.com/m3rciful/intakebot/internal/flow"
	"github.com/m3rciful/intakebot/internal/ops"
	"github.com/m3rciful/intakebot/internal/session"
	"github.com/m3rciful/intakebot/internal/storage"

	tele "gopkg.in/telebot.v4"
)

// App is the assembled bot.
type App struct {
	cfg        *config.Config
	db         *sqlx.DB
	engine     *flow.Engine
	transport  *Transport
	dispatcher *tgsender.Dispatcher
	registry   *tg.Registry
	ops        *ops.Server
}

// New wires storage, sessions, the engine and the transport around db.
func New(cfg *config.Config, db *sqlx.DB) (*App, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("bot: nil config or database")
	}
	gw := storage.NewSQLGateway(db, cfg.Bot.AdminIDs)

	sessions := session.NewMemoryStore()
	if cfg.Bot.SessionBackend == config.SessionsSQL {
		sessions = storage.NewSessionStore(db)
	}

	dispatcher := tgsender.NewDispatcher(cfg.DispatcherOptions())
	transport := NewTransport(dispatcher)

	engine, err := flow.New(flow.Config{
		Sessions:    sessions,
		Gateway:     gw,
		Transport:   transport,
		Notifier:    transport,
		AdminChatID: cfg.Telegram.AdminChatID,
		Policy: flow.Policy{
			AllowRegistrationCancel: cfg.Bot.AllowRegistrationCancel,
			BroadcastWorkers:        cfg.Bot.BroadcastWorkers,
		},
		Content: flow.Content{
			Contacts: cfg.Bot.Contacts,
			About:    cfg.Bot.About,
			SiteURL:  cfg.Bot.SiteURL,
			LogoPath: cfg.Bot.LogoPath,
		},
	})
	if err != nil {
		dispatcher.Close()
		return nil, err
	}

	a := &App{
		cfg:        cfg,
		db:         db,
		engine:     engine,
		transport:  transport,
		dispatcher: dispatcher,
	}
	a.registry = a.buildRegistry()
	if cfg.Ops.Listen != "" {
		a.ops = ops.New(cfg.Ops.Listen, gw, dispatcher)
	}

	logger.L.Info("bot assembled",
		slog.String("event", "app.wire"),
		slog.String("sessions", cfg.Bot.SessionBackend),
		slog.Int("admins", len(cfg.Bot.AdminIDs)),
		slog.Bool("ops", a.ops != nil),
	)
	return a, nil
}

// HandleUpdate feeds one Telegram update to the engine.
func (a *App) HandleUpdate(c tele.Context) error {
	return a.engine.Handle(tghelpers.BuildContext(c), decode(c))
}

func (a *App) buildRegistry() *tg.Registry {
	reg := tg.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.HandleUpdate,
		Description: "Регистрация",
	})
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     a.HandleUpdate,
		Description: "Админ-панель",
		AdminOnly:   true,
	})
	for _, act := range flow.Actions() {
		_ = reg.RegisterCallback(string(act), a.HandleUpdate)
	}
	// unknown buttons still reach the engine, which answers them as outdated
	reg.SetCallbackNotFound(a.HandleUpdate)
	return reg
}

// TelegramRunOptions implements the runner's app contract.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()

	routes := router.CommandRoutes(a.registry)
	routes = append(routes, router.MessageRoutes(a, a.registry)...)
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))

	return tg.RunOptions{
		Config:      core,
		Registry:    a.registry,
		AdminIDs:    a.cfg.Bot.AdminIDs,
		Dispatcher:  a.dispatcher,
		Middlewares: tg.DefaultMiddlewares(core, nil),
		Routes:      routes,
		OnStart: func(_ context.Context, rt tg.Runtime) error {
			a.transport.Bind(rt.Bot)
			if a.ops != nil {
				a.ops.Start()
			}
			return nil
		},
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			var errs []error
			if a.ops != nil {
				errs = append(errs, a.ops.Shutdown(ctx))
			}
			errs = append(errs, a.db.Close())
			return errors.Join(errs...)
		},
	}, nil
}
