package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/intakebot/core/logger"
	"github.com/m3rciful/intakebot/internal/domain"
	"github.com/m3rciful/intakebot/internal/session"
	"github.com/m3rciful/intakebot/internal/storage"
	"github.com/m3rciful/intakebot/internal/validate"
)

const (
	fieldFullName  = "full_name"
	fieldBirthDate = "birth_date"
)

// start handles /start from any stage: registered users land in the main
// menu, everyone else begins registration.
func (e *Engine) start(ctx context.Context, t *turn) error {
	_, registered, err := e.gw.GetUser(ctx, t.u.UserID)
	if err != nil {
		return err
	}
	if registered {
		if err := e.reset(ctx, t); err != nil {
			return err
		}
		return e.reply(ctx, t, plain(txtAlreadyRegistered, menu(KeyboardMainMenu)))
	}
	if err := e.enter(ctx, t, e.registration, EvRegister); err != nil {
		return err
	}
	return e.reply(ctx, t, plain(txtWelcome, menu(KeyboardRemove)))
}

// registrationCancelled handles the cancel command inside registration. It
// reports false when the policy keeps registration non-cancellable.
func (e *Engine) registrationCancelled(ctx context.Context, t *turn) (bool, error) {
	if t.u.Command != CmdCancel || !e.policy.AllowRegistrationCancel {
		return false, nil
	}
	if err := e.advance(ctx, t, e.registration, EvCancel, nil); err != nil {
		return true, err
	}
	return true, e.reply(ctx, t, plain(txtRegistrationCancel, menu(KeyboardRemove)))
}

func (e *Engine) onFullName(ctx context.Context, t *turn) error {
	if done, err := e.registrationCancelled(ctx, t); done {
		return err
	}
	name := strings.Join(strings.Fields(t.u.Text), " ")
	if t.u.Kind != KindText || !validate.FullName(name) {
		return e.reply(ctx, t, plain(txtBadFullName, nil))
	}
	if err := e.advance(ctx, t, e.registration, EvNameAccepted, session.Fields{fieldFullName: name}); err != nil {
		return err
	}
	return e.reply(ctx, t, plain(txtAskBirthDate, nil))
}

func (e *Engine) onBirthDate(ctx context.Context, t *turn) error {
	if done, err := e.registrationCancelled(ctx, t); done {
		return err
	}
	text := strings.TrimSpace(t.u.Text)
	if t.u.Kind != KindText {
		return e.reply(ctx, t, plain(txtBadDateFormat, nil))
	}
	if _, err := validate.ParseBirthDate(text, e.now()); err != nil {
		switch {
		case errors.Is(err, validate.ErrDateFuture):
			return e.reply(ctx, t, plain(txtDateInFuture, nil))
		case errors.Is(err, validate.ErrDateTooOld):
			return e.reply(ctx, t, plain(txtDateTooOld, nil))
		default:
			return e.reply(ctx, t, plain(txtBadDateFormat, nil))
		}
	}
	if err := e.advance(ctx, t, e.registration, EvBirthDateAccepted, session.Fields{fieldBirthDate: text}); err != nil {
		return err
	}
	return e.reply(ctx, t, plain(txtAskPhone, menu(KeyboardPhoneRequest)))
}

// onPhone accepts only a shared contact. A failed save keeps the session so
// the user can share the contact again.
func (e *Engine) onPhone(ctx context.Context, t *turn) error {
	if done, err := e.registrationCancelled(ctx, t); done {
		return err
	}
	c := t.u.Contact
	if t.u.Kind != KindContact || c == nil {
		return e.reply(ctx, t, plain(txtPhoneButtonOnly, menu(KeyboardPhoneRequest)))
	}
	if c.UserID != 0 && c.UserID != t.u.UserID {
		return e.reply(ctx, t, plain(txtForeignContact, menu(KeyboardPhoneRequest)))
	}
	phone := strings.TrimSpace(c.Phone)
	if !validate.Phone(phone) {
		return e.reply(ctx, t, plain(txtBadPhone, menu(KeyboardPhoneRequest)))
	}

	fullName := t.s.Get(fieldFullName)
	birthText := t.s.Get(fieldBirthDate)
	birth, err := time.Parse(domain.DisplayDateLayout, birthText)
	if err != nil {
		return fmt.Errorf("registration: stored birth date %q: %w", birthText, err)
	}

	res, err := e.gw.InsertUserIfAbsent(ctx, domain.User{
		ID:        t.u.UserID,
		FullName:  fullName,
		BirthDate: birth,
		Phone:     phone,
	})
	if err != nil {
		logger.LogEvent(ctx, logger.Flow, slog.LevelError, "registration.save",
			slog.String("status", "fail"),
			slog.Int64("user_id", t.u.UserID),
			logger.Err(err),
		)
		return e.reply(ctx, t, plain(txtRegistrationFailed, menu(KeyboardPhoneRequest)))
	}

	if err := e.advance(ctx, t, e.registration, EvPhoneAccepted, nil); err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.Flow, slog.LevelInfo, "registration.completed",
		slog.String("status", "ok"),
		slog.String("outcome", res.String()),
		slog.Int64("user_id", t.u.UserID),
	)
	if res == storage.AlreadyExists {
		return e.reply(ctx, t, plain(txtDuplicateRegister, menu(KeyboardMainMenu)))
	}
	return e.reply(ctx, t, plain(fmt.Sprintf(txtRegistered, fullName, birthText, phone), menu(KeyboardMainMenu)))
}
