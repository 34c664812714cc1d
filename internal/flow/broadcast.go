package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/intakebot/core/logger"
	"github.com/m3rciful/intakebot/core/telegram/format"
	"github.com/m3rciful/intakebot/internal/richtext"
	"github.com/m3rciful/intakebot/internal/session"
)

const (
	fieldDraftText  = "bc_text"
	fieldDraftPhoto = "bc_photo"
	fieldDraftMode  = "bc_mode"

	draftModeHTML  = "html"
	draftModePlain = "plain"
)

// draft is the broadcast message kept in the admin's session.
type draft struct {
	Text    string
	PhotoID string
	HTML    bool
}

func draftFrom(s session.Session) draft {
	return draft{
		Text:    s.Get(fieldDraftText),
		PhotoID: s.Get(fieldDraftPhoto),
		HTML:    s.Get(fieldDraftMode) == draftModeHTML,
	}
}

func (d draft) fields() session.Fields {
	mode := draftModePlain
	if d.HTML {
		mode = draftModeHTML
	}
	return session.Fields{fieldDraftText: d.Text, fieldDraftPhoto: d.PhotoID, fieldDraftMode: mode}
}

func (d draft) message() Outgoing {
	msg := Outgoing{Text: d.Text, PhotoID: d.PhotoID}
	if d.HTML {
		msg.Mode = ModeHTML
	}
	return msg
}

// preview renders the Markdown summary shown before sending.
func (d draft) preview() string {
	var b strings.Builder
	b.WriteString(txtBroadcastPreview)
	if d.PhotoID != "" {
		b.WriteString(txtBroadcastHasPhoto)
	}
	b.WriteString(txtBroadcastText)
	b.WriteString(format.EscapeV1(truncate(d.Text, previewLimit)))
	return b.String()
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func (e *Engine) composeBroadcast(ctx context.Context, t *turn) error {
	if err := e.enter(ctx, t, e.broadcast, EvCompose); err != nil {
		return err
	}
	return e.tr.Edit(ctx, t.callback().Message, markdown(txtBroadcastAsk, menu(KeyboardBroadcastInput)))
}

// onBroadcastMessage turns the admin's text or photo into a draft. Entities are
// resolved to HTML so formatting survives the resend.
func (e *Engine) onBroadcastMessage(ctx context.Context, t *turn) error {
	ok, err := e.isAdmin(ctx, t.u.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return e.reset(ctx, t)
	}
	if t.u.Command == CmdCancel {
		return e.cancelBroadcast(ctx, t)
	}

	d := draft{Text: t.u.Text}
	switch t.u.Kind {
	case KindPhoto:
		d.PhotoID = t.u.PhotoID
	case KindText:
	default:
		return e.reply(ctx, t, plain(txtBroadcastEmpty, menu(KeyboardBroadcastInput)))
	}
	if d.PhotoID == "" && strings.TrimSpace(d.Text) == "" {
		return e.reply(ctx, t, plain(txtBroadcastEmpty, menu(KeyboardBroadcastInput)))
	}
	if len(t.u.Spans) > 0 {
		d.Text = richtext.ToHTML(d.Text, t.u.Spans)
		d.HTML = true
	}

	if err := e.advance(ctx, t, e.broadcast, EvDraftComposed, d.fields()); err != nil {
		return err
	}
	return e.reply(ctx, t, Outgoing{
		Text:     d.preview(),
		Mode:     ModeMarkdown,
		PhotoID:  d.PhotoID,
		Keyboard: menu(KeyboardBroadcastConfirm),
	})
}

func (e *Engine) onBroadcastConfirmText(ctx context.Context, t *turn) error {
	if t.u.Command == CmdCancel {
		return e.cancelBroadcast(ctx, t)
	}
	return e.reply(ctx, t, plain(txtBroadcastUseButton, nil))
}

// panelReply edits the pressed message, or sends a new one when that message
// is a photo preview whose text cannot be edited.
func (e *Engine) panelReply(ctx context.Context, t *turn, photoPreview bool, msg Outgoing) error {
	if t.u.Callback == nil || photoPreview {
		return e.reply(ctx, t, msg)
	}
	return e.tr.Edit(ctx, t.u.Callback.Message, msg)
}

func (e *Engine) cancelBroadcast(ctx context.Context, t *turn) error {
	photoPreview := t.s.Stage == StageBroadcastConfirm && draftFrom(t.s).PhotoID != ""
	if err := e.advance(ctx, t, e.broadcast, EvCancel, nil); err != nil {
		return err
	}
	return e.panelReply(ctx, t, photoPreview, plain(txtBroadcastCancelled, menu(KeyboardAdminMenu)))
}

func (e *Engine) sendBroadcast(ctx context.Context, t *turn) error {
	d := draftFrom(t.s)
	photoPreview := d.PhotoID != ""

	ids, err := e.gw.ListUserIDs(ctx)
	if err != nil {
		logger.LogEvent(ctx, logger.Broadcast, slog.LevelError, "broadcast.recipients",
			slog.String("status", "fail"),
			logger.Err(err),
		)
		if err := e.reset(ctx, t); err != nil {
			return err
		}
		return e.panelReply(ctx, t, photoPreview, plain(txtBroadcastFailed, menu(KeyboardAdminMenu)))
	}

	// acknowledge before the fan-out
	if err := e.answer(ctx, t, "", false); err != nil {
		return err
	}
	rep := e.deliver(ctx, ids, d.message())

	if err := e.advance(ctx, t, e.broadcast, EvSent, nil); err != nil {
		return err
	}
	return e.panelReply(ctx, t, photoPreview,
		markdown(fmt.Sprintf(txtBroadcastDone, rep.Sent, rep.Total), menu(KeyboardAdminMenu)))
}

// report summarises one broadcast.
type report struct {
	ID    string
	Total int
	Sent  int
}

// deliver sends msg to every id. Failures are logged and skipped; Sent counts
// only successful deliveries.
func (e *Engine) deliver(ctx context.Context, ids []int64, msg Outgoing) report {
	rep := report{ID: uuid.NewString(), Total: len(ids)}
	start := time.Now()

	send := func(id int64) bool {
		if err := e.tr.Send(ctx, id, msg); err != nil {
			logger.LogEvent(ctx, logger.Broadcast, slog.LevelWarn, "broadcast.send",
				slog.String("status", "fail"),
				slog.String("broadcast_id", rep.ID),
				slog.Int64("recipient", id),
				logger.Err(err),
			)
			return false
		}
		return true
	}

	workers := e.policy.BroadcastWorkers
	if workers <= 1 {
		for _, id := range ids {
			if send(id) {
				rep.Sent++
			}
		}
	} else {
		var sent atomic.Int64
		jobs := make(chan int64)
		var wg sync.WaitGroup
		for range min(workers, max(len(ids), 1)) {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for id := range jobs {
					if send(id) {
						sent.Add(1)
					}
				}
			}()
		}
		for _, id := range ids {
			jobs <- id
		}
		close(jobs)
		wg.Wait()
		rep.Sent = int(sent.Load())
	}

	logger.LogEvent(ctx, logger.Broadcast, slog.LevelInfo, "broadcast.done",
		slog.String("status", "ok"),
		slog.String("broadcast_id", rep.ID),
		slog.Int("total", rep.Total),
		slog.Int("sent", rep.Sent),
		slog.Int("failed", rep.Total-rep.Sent),
		slog.Int("workers", max(workers, 1)),
		slog.Duration("duration", logger.Took(start)),
	)
	return rep
}
