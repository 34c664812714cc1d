package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/intakebot/core/logger"
	tghelpers "github.com/m3rciful/intakebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
// Exclude is keyed by "callback" or "message"; contacts and photos count as messages.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// Now defaults to time.Now.
	Now func() time.Time
}

// RateLimitMiddleware returns a middleware that enforces a minimum interval
// between updates from the same user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	var (
		lastSeen   = make(map[int64]time.Time)
		lastSeenMu sync.Mutex
		sweptAt    time.Time
	)
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}

			kind := UpdateKind(c.Update())
			if kind == "contact" || kind == "photo" {
				kind = "message"
			}
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}

			ts := now()
			lastSeenMu.Lock()
			if ts.Sub(sweptAt) > time.Minute {
				for id, seen := range lastSeen {
					if ts.Sub(seen) >= opts.Interval {
						delete(lastSeen, id)
					}
				}
				sweptAt = ts
			}
			if last, ok := lastSeen[user.ID]; ok && ts.Sub(last) < opts.Interval {
				lastSeenMu.Unlock()
				logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelWarn, "tg.rate_limit",
					slog.String("outcome", "rejected"),
					slog.String("kind", kind),
				)
				if opts.OnLimited != nil {
					_ = opts.OnLimited(c)
				}
				return nil
			}
			lastSeen[user.ID] = ts
			lastSeenMu.Unlock()
			return next(c)
		}
	}
}
