package router

import (
	"strings"
	"time"

	tg "github.com/m3rciful/intakebot/core/telegram"
	"github.com/m3rciful/intakebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Conversation consumes every message that is not a registered command.
type Conversation interface {
	HandleUpdate(c tele.Context) error
}

// mediaEndpoints are the non-text message kinds handed to the conversation.
// Kinds it cannot use are still delivered so the active stage can re-prompt.
var mediaEndpoints = []struct {
	endpoint string
	name     string
}{
	{tele.OnContact, "contact"},
	{tele.OnPhoto, "photo"},
	{tele.OnDocument, "document"},
	{tele.OnAudio, "audio"},
	{tele.OnVoice, "voice"},
	{tele.OnVideo, "video"},
	{tele.OnVideoNote, "video_note"},
	{tele.OnAnimation, "animation"},
	{tele.OnSticker, "sticker"},
	{tele.OnLocation, "location"},
	{tele.OnVenue, "venue"},
	{tele.OnPoll, "poll"},
	{tele.OnDice, "dice"},
}

// MessageRoutes builds handlers for text and media updates. Slash commands
// found in the registry run their own handler; all other messages go to the
// conversation.
func MessageRoutes(conv Conversation, reg *tg.Registry) []tg.Route {
	textHandler := func(c tele.Context) error {
		start := time.Now()
		text := strings.TrimSpace(c.Text())

		if reg != nil && strings.HasPrefix(text, "/") {
			if key, cmd, ok := reg.LookupCommand(strings.Fields(text)[0]); ok && cmd.Handler != nil {
				return handleWithSummary(c, normalizeHandlerName(key), start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		if conv == nil {
			logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
			return nil
		}
		return handleWithSummary(c, "conversation", start, "", "", func() error {
			return conv.HandleUpdate(c)
		})
	}

	mediaHandler := func(name string) tele.HandlerFunc {
		return func(c tele.Context) error {
			start := time.Now()
			if conv == nil {
				logHandlerSummary(c, name, start, "skip", "ok", nil)
				return nil
			}
			return handleWithSummary(c, name, start, "", "", func() error {
				return conv.HandleUpdate(c)
			})
		}
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}

	routes := []tg.Route{{Endpoint: tele.OnText, Handler: wrap(textHandler)}}
	for _, m := range mediaEndpoints {
		routes = append(routes, tg.Route{Endpoint: m.endpoint, Handler: wrap(mediaHandler(m.name))})
	}
	return routes
}
