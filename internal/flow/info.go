package flow

import (
	"context"
	"log/slog"

	"github.com/m3rciful/intakebot/core/logger"
)

func (e *Engine) contacts(ctx context.Context, t *turn) error {
	var kb *Keyboard
	if e.content.SiteURL != "" {
		kb = &Keyboard{Kind: KeyboardContacts, URL: e.content.SiteURL}
	}
	return e.reply(ctx, t, markdown(e.content.Contacts, kb))
}

// about sends the company text as a logo caption and falls back to plain
// text when the photo cannot be sent.
func (e *Engine) about(ctx context.Context, t *turn) error {
	if e.content.LogoPath != "" {
		msg := markdown(e.content.About, nil)
		msg.PhotoPath = e.content.LogoPath
		err := e.reply(ctx, t, msg)
		if err == nil {
			return nil
		}
		logger.LogEvent(ctx, logger.Flow, slog.LevelWarn, "about.photo",
			slog.String("status", "fail"),
			slog.String("path", e.content.LogoPath),
			logger.Err(err),
		)
	}
	return e.reply(ctx, t, markdown(e.content.About, nil))
}
