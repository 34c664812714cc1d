package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/intakebot/core/logger"
	"github.com/m3rciful/intakebot/internal/domain"
	"github.com/m3rciful/intakebot/internal/session"
)

const (
	fieldType       = "type"
	fieldScreenshot = "screenshot"
	fieldOptions    = "options"
)

func (e *Engine) startRequest(ctx context.Context, t *turn) error {
	_, registered, err := e.gw.GetUser(ctx, t.u.UserID)
	if err != nil {
		return err
	}
	if !registered {
		return e.reply(ctx, t, plain(txtRegisterFirst, nil))
	}
	if err := e.enter(ctx, t, e.request, EvNewRequest); err != nil {
		return err
	}
	return e.reply(ctx, t, plain(txtChooseType, menu(KeyboardRequestTypes)))
}

func (e *Engine) cancelRequest(ctx context.Context, t *turn) error {
	if err := e.advance(ctx, t, e.request, EvCancel, nil); err != nil {
		return err
	}
	return e.reply(ctx, t, plain(txtRequestCancelled, menu(KeyboardMainMenu)))
}

func (e *Engine) onRequestType(ctx context.Context, t *turn) error {
	if t.u.Command == CmdCancel {
		return e.cancelRequest(ctx, t)
	}
	rt, ok := domain.RequestTypeFromLabel(strings.TrimSpace(t.u.Text))
	if t.u.Kind != KindText || !ok {
		return e.reply(ctx, t, plain(txtBadType, menu(KeyboardRequestTypes)))
	}
	if err := e.advance(ctx, t, e.request, EvTypeChosen, session.Fields{fieldType: string(rt)}); err != nil {
		return err
	}
	return e.reply(ctx, t, plain(txtAskScreenshot, menu(KeyboardScreenshot)))
}

// onScreenshot takes a photo, or any text as "skip". Other payloads re-prompt.
func (e *Engine) onScreenshot(ctx context.Context, t *turn) error {
	if t.u.Command == CmdCancel {
		return e.cancelRequest(ctx, t)
	}
	var err error
	switch {
	case t.u.Kind == KindPhoto && t.u.PhotoID != "":
		err = e.advance(ctx, t, e.request, EvScreenshotAttached, session.Fields{fieldScreenshot: t.u.PhotoID})
	case t.u.Kind == KindText:
		err = e.advance(ctx, t, e.request, EvScreenshotSkipped, session.Fields{fieldScreenshot: ""})
	default:
		return e.reply(ctx, t, plain(txtScreenshotOnly, menu(KeyboardScreenshot)))
	}
	if err != nil {
		return err
	}
	return e.reply(ctx, t, plain(txtChooseOptions, &Keyboard{Kind: KeyboardOptions}))
}

func (e *Engine) onOptionsText(ctx context.Context, t *turn) error {
	if t.u.Command == CmdCancel {
		return e.cancelRequest(ctx, t)
	}
	return e.reply(ctx, t, plain(txtUseOptionButtons, nil))
}

func (e *Engine) selected(t *turn) domain.OptionSet {
	set, err := domain.ParseOptionSet(t.s.Get(fieldOptions))
	if err != nil {
		logger.Flow.Warn("stored options dropped",
			slog.String("event", "options.parse"),
			slog.Int64("user_id", t.u.UserID),
			logger.Err(err),
		)
		return domain.OptionSet{}
	}
	return set
}

// toggleOption flips one tag and redraws the inline keyboard.
func (e *Engine) toggleOption(ctx context.Context, t *turn) error {
	cb := t.callback()
	tag, err := domain.ParseOptionTag(cb.Payload)
	if err != nil {
		return e.answer(ctx, t, txtUnknownOption, false)
	}
	set := e.selected(t).Toggle(tag)
	if err := e.sessions.Merge(ctx, t.u.UserID, session.Fields{fieldOptions: set.Join()}); err != nil {
		return err
	}
	t.s = t.s.With(t.s.Stage, session.Fields{fieldOptions: set.Join()})
	t.s.Version++

	if err := e.tr.EditKeyboard(ctx, cb.Message, &Keyboard{Kind: KeyboardOptions, Selected: set}); err != nil {
		return err
	}
	return e.answer(ctx, t, "", false)
}

// confirmRequest freezes the selection into a stored request. The admin
// notification is best effort and never fails the user's flow.
func (e *Engine) confirmRequest(ctx context.Context, t *turn) error {
	cb := t.callback()
	set := e.selected(t)
	if set.Empty() {
		return e.answer(ctx, t, txtEmptySelection, true)
	}

	user, registered, err := e.gw.GetUser(ctx, t.u.UserID)
	if err == nil && !registered {
		if err := e.reset(ctx, t); err != nil {
			return err
		}
		_ = e.answer(ctx, t, "", false)
		return e.reply(ctx, t, plain(txtRegisterFirst, menu(KeyboardMainMenu)))
	}

	req := domain.Request{
		UserID:     t.u.UserID,
		Type:       domain.RequestType(t.s.Get(fieldType)),
		Screenshot: t.s.Get(fieldScreenshot),
		Options:    set,
	}
	if err == nil {
		req.ID, err = e.gw.InsertRequest(ctx, req)
	}
	if err != nil {
		logger.LogEvent(ctx, logger.Flow, slog.LevelError, "request.save",
			slog.String("status", "fail"),
			slog.Int64("user_id", t.u.UserID),
			logger.Err(err),
		)
		if rerr := e.reset(ctx, t); rerr != nil {
			return rerr
		}
		_ = e.answer(ctx, t, "", false)
		return e.reply(ctx, t, plain(txtRequestSaveFailed, menu(KeyboardMainMenu)))
	}

	logger.LogEvent(ctx, logger.Flow, slog.LevelInfo, "request.created",
		slog.String("status", "ok"),
		slog.Int64("request_id", req.ID),
		slog.Int64("user_id", t.u.UserID),
		slog.String("type", string(req.Type)),
		slog.String("options", set.Join()),
	)
	e.notifyAdmin(ctx, user, req)

	if err := e.tr.EditKeyboard(ctx, cb.Message, nil); err != nil {
		logger.LogEvent(ctx, logger.Flow, slog.LevelWarn, "request.keyboard_remove",
			slog.String("status", "fail"),
			logger.Err(err),
		)
	}
	if err := e.advance(ctx, t, e.request, EvConfirmed, nil); err != nil {
		return err
	}
	if err := e.answer(ctx, t, "", false); err != nil {
		return err
	}
	return e.reply(ctx, t, plain(txtRequestSent, menu(KeyboardMainMenu)))
}

func (e *Engine) notifyAdmin(ctx context.Context, user domain.User, req domain.Request) {
	msg := Outgoing{
		Text: fmt.Sprintf(txtAdminNotification,
			req.ID, user.FullName, user.Phone, req.Type.Label(), strings.Join(req.Options.Labels(), ", ")),
		Keyboard: &Keyboard{Kind: KeyboardProfileLink, UserID: user.ID},
	}
	if req.HasScreenshot() {
		msg.PhotoID = req.Screenshot
	}
	if err := e.notifier.Notify(ctx, e.adminChatID, msg); err != nil {
		logger.LogEvent(ctx, logger.Flow, slog.LevelError, "request.notify",
			slog.String("status", "fail"),
			slog.Int64("request_id", req.ID),
			slog.Int64("admin_chat", e.adminChatID),
			logger.Err(err),
		)
	}
}
