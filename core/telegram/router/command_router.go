package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/intakebot/core/logger"
	tg "github.com/m3rciful/intakebot/core/telegram"
	"github.com/m3rciful/intakebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRoutes prepares command handlers wrapped with shared middleware.
// Access control belongs to the handlers.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for cmd, def := range reg.Commands() {
		name := normalizeHandlerName(cmd)
		run := def.Handler
		h := func(c tele.Context) error {
			return handleWithSummary(c, name, time.Now(), "", "", func() error {
				return run(c)
			})
		}
		routes = append(routes, tg.Route{
			Endpoint: cmd,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(h)),
		})
	}

	logger.TWire.LogAttrs(context.Background(), slog.LevelInfo, "tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)

	return routes
}
