package bot

import (
	"log/slog"

	"github.com/m3rciful/intakebot/core/logger"
	"github.com/m3rciful/intakebot/core/telegram/callbacks"
	"github.com/m3rciful/intakebot/internal/flow"
	"github.com/m3rciful/intakebot/internal/richtext"

	tele "gopkg.in/telebot.v4"
)

// decode turns a telebot update into the engine's inbound model.
func decode(c tele.Context) flow.Update {
	u := flow.Update{ID: c.Update().ID}
	if s := c.Sender(); s != nil {
		u.UserID = s.ID
	}
	if ch := c.Chat(); ch != nil {
		u.ChatID = ch.ID
	}

	if cb := c.Callback(); cb != nil {
		u.Kind = flow.KindCallback
		act, known := flow.ParseAction(callbacks.CallbackKey(c))
		if !known {
			logger.TG.Debug("unknown button",
				slog.String("event", "tg.callback.unknown"),
				slog.String("action", string(act)),
				slog.Int64("user_id", u.UserID),
			)
		}
		u.Callback = &flow.Callback{
			ID:      cb.ID,
			Action:  act,
			Payload: callbacks.CallbackPayload(c),
		}
		if arg, err := callbacks.PayloadInt64(c); err == nil {
			u.Callback.Arg = arg
		}
		if m := cb.Message; m != nil && m.Chat != nil {
			u.Callback.Message = flow.MessageRef{ChatID: m.Chat.ID, MessageID: m.ID}
			if u.ChatID == 0 {
				u.ChatID = m.Chat.ID
			}
		}
		return u
	}

	m := c.Message()
	if m == nil {
		return u
	}
	switch {
	case m.Contact != nil:
		u.Kind = flow.KindContact
		u.Contact = &flow.Contact{Phone: m.Contact.PhoneNumber, UserID: m.Contact.UserID}
	case m.Photo != nil:
		u.Kind = flow.KindPhoto
		u.PhotoID = m.Photo.FileID
		u.Text = m.Caption
		u.Spans = spans(m.CaptionEntities)
	case m.Media() != nil || m.Location != nil || m.Venue != nil || m.Poll != nil || m.Dice != nil:
		u.Kind = flow.KindOther
		u.Text = m.Caption
	default:
		u.Kind = flow.KindText
		u.Text = m.Text
		u.Spans = spans(m.Entities)
		u.Command = commandOf(m.Text)
	}
	return u
}

func spans(entities tele.Entities) []richtext.Span {
	if len(entities) == 0 {
		return nil
	}
	out := make([]richtext.Span, 0, len(entities))
	for _, e := range entities {
		out = append(out, richtext.Span{
			Type:   string(e.Type),
			Offset: e.Offset,
			Length: e.Length,
			URL:    e.URL,
		})
	}
	return out
}
