package middleware

import (
	"context"
	"sync/atomic"

	tghelpers "github.com/m3rciful/intakebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const countersKey = "counters"

type countersCtxKey struct{}

// Counters tallies what a handler sent in reply to one update. Deliveries
// happen outside tele.Context, so the counters travel in context.Context.
type Counters struct {
	messages atomic.Int64
	keyboard atomic.Bool
}

// CountMessage records one delivered message on the counters carried by ctx.
func CountMessage(ctx context.Context, withKeyboard bool) {
	c, ok := ctx.Value(countersCtxKey{}).(*Counters)
	if !ok {
		return
	}
	c.messages.Add(1)
	if withKeyboard {
		c.keyboard.Store(true)
	}
}

// MessageMetricsMiddleware attaches fresh counters to the update context.
// It must run after LoggerMiddleware so the stored context already exists.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		counters := &Counters{}
		c.Set(countersKey, counters)
		ctx := tghelpers.BuildContext(c)
		tghelpers.StoreContext(c, context.WithValue(ctx, countersCtxKey{}, counters))
		return next(c)
	}
}

// GetCounters reads message count and keyboard presence for the update.
func GetCounters(c tele.Context) (int, bool) {
	counters, ok := c.Get(countersKey).(*Counters)
	if !ok {
		return 0, false
	}
	return int(counters.messages.Load()), counters.keyboard.Load()
}
