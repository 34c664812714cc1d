// Package flow drives the registration, request and admin dialogues.
//
// An Engine receives decoded updates, resolves the user's current stage from
// the session store and runs the matching handler while holding that user's
// lock, so every event of one user is a serial read-modify-write.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/m3rciful/intakebot/core/logger"
	"github.com/m3rciful/intakebot/internal/session"
	"github.com/m3rciful/intakebot/internal/storage"
)

// Policy holds behaviour switches.
type Policy struct {
	// AllowRegistrationCancel enables the cancel transition inside registration.
	AllowRegistrationCancel bool
	// BroadcastWorkers > 1 fans a broadcast out over that many goroutines.
	BroadcastWorkers int
}

// Content holds the configurable informational texts.
type Content struct {
	Contacts string
	About    string
	SiteURL  string
	LogoPath string
}

// Config wires an Engine.
type Config struct {
	Sessions    session.Store
	Gateway     storage.Gateway
	Transport   Transport
	Notifier    Notifier
	AdminChatID int64
	Policy      Policy
	Content     Content
	// Now defaults to time.Now.
	Now func() time.Time
}

type stageHandler func(ctx context.Context, t *turn) error

// Engine is safe for concurrent use.
type Engine struct {
	sessions    session.Store
	gw          storage.Gateway
	tr          Transport
	notifier    Notifier
	adminChatID int64
	policy      Policy
	content     Content
	now         func() time.Time

	locker       *session.Locker
	registration *Graph
	request      *Graph
	broadcast    *Graph
	stages       map[session.Stage]stageHandler
}

// New validates cfg and builds an Engine.
func New(cfg Config) (*Engine, error) {
	switch {
	case cfg.Sessions == nil:
		return nil, errors.New("flow: nil session store")
	case cfg.Gateway == nil:
		return nil, errors.New("flow: nil gateway")
	case cfg.Transport == nil:
		return nil, errors.New("flow: nil transport")
	case cfg.Notifier == nil:
		return nil, errors.New("flow: nil notifier")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	e := &Engine{
		sessions:     cfg.Sessions,
		gw:           cfg.Gateway,
		tr:           cfg.Transport,
		notifier:     cfg.Notifier,
		adminChatID:  cfg.AdminChatID,
		policy:       cfg.Policy,
		content:      cfg.Content,
		now:          now,
		locker:       session.NewLocker(),
		registration: RegistrationGraph(cfg.Policy.AllowRegistrationCancel),
		request:      RequestGraph(),
		broadcast:    BroadcastGraph(),
	}
	e.stages = map[session.Stage]stageHandler{
		StageFullName:          e.onFullName,
		StageBirthDate:         e.onBirthDate,
		StagePhone:             e.onPhone,
		StageRequestType:       e.onRequestType,
		StageRequestScreenshot: e.onScreenshot,
		StageRequestOptions:    e.onOptionsText,
		StageBroadcastMessage:  e.onBroadcastMessage,
		StageBroadcastConfirm:  e.onBroadcastConfirmText,
	}
	return e, nil
}

// turn is the state of one Handle call.
type turn struct {
	u        Update
	s        session.Session
	answered bool
}

func (t *turn) callback() *Callback {
	if t.u.Callback == nil {
		return &Callback{}
	}
	return t.u.Callback
}

// Handle processes one update. Handler failures and panics are turned into a
// notice for the user; the returned error only reports that such a notice
// could not be delivered either.
func (e *Engine) Handle(ctx context.Context, u Update) (err error) {
	unlock := e.locker.Lock(u.UserID)
	defer unlock()

	start := time.Now()
	t := &turn{u: u}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("flow: panic: %v", r)
			logger.Flow.Error("handler panic",
				slog.String("event", "flow.panic"),
				slog.Int64("user_id", u.UserID),
				slog.String("stack", string(debug.Stack())),
			)
		}
		if err != nil {
			err = e.guard(ctx, t, err, start)
		}
		if err == nil && u.Kind == KindCallback && !t.answered {
			err = e.answer(ctx, t, "", false)
		}
	}()

	s, _, err := e.sessions.Get(ctx, u.UserID)
	if err != nil {
		return err
	}
	t.s = s
	ctx = logger.WithStage(ctx, string(s.Stage))
	return e.dispatch(ctx, t)
}

func (e *Engine) dispatch(ctx context.Context, t *turn) error {
	switch t.u.Command {
	case CmdStart:
		return e.start(ctx, t)
	case CmdAdmin:
		return e.adminMenu(ctx, t)
	}
	if t.u.Kind == KindCallback {
		return e.onCallback(ctx, t)
	}
	if !t.s.Idle() {
		if h, ok := e.stages[t.s.Stage]; ok {
			return h(ctx, t)
		}
		logger.Flow.Warn("unknown stage dropped",
			slog.String("event", "stage.unknown"),
			slog.String("stage", string(t.s.Stage)),
			slog.Int64("user_id", t.u.UserID),
		)
		if err := e.reset(ctx, t); err != nil {
			return err
		}
	}
	return e.onIdle(ctx, t)
}

func (e *Engine) onIdle(ctx context.Context, t *turn) error {
	switch t.u.Command {
	case CmdNewRequest:
		return e.startRequest(ctx, t)
	case CmdContacts:
		return e.contacts(ctx, t)
	case CmdAbout:
		return e.about(ctx, t)
	case CmdCancel:
		return e.reply(ctx, t, plain(txtNothingToCancel, menu(KeyboardMainMenu)))
	}
	return e.reply(ctx, t, plain(txtFallback, menu(KeyboardMainMenu)))
}

func (e *Engine) onCallback(ctx context.Context, t *turn) error {
	cb := t.callback()
	switch cb.Action {
	case ActionOption, ActionConfirm:
		if t.s.Stage != StageRequestOptions {
			return e.answer(ctx, t, txtOutdatedButton, false)
		}
		if cb.Action == ActionOption {
			return e.toggleOption(ctx, t)
		}
		return e.confirmRequest(ctx, t)
	case ActionAdminStats, ActionAdminBroadcast, ActionAdminUsers, ActionAdminBack,
		ActionAdminCancel, ActionUserInfo, ActionUsersPage,
		ActionBroadcastConfirm, ActionBroadcastCancel:
		return e.onAdminCallback(ctx, t)
	case ActionNone:
		return e.answer(ctx, t, "", false)
	}
	return e.answer(ctx, t, txtOutdatedButton, false)
}

// enter starts g from idle, discarding whatever flow was active.
func (e *Engine) enter(ctx context.Context, t *turn, g *Graph, ev Event) error {
	next, err := g.Next(ctx, session.StageIdle, ev)
	if err != nil {
		return err
	}
	return e.write(ctx, t, g, ev, session.Session{Stage: next, Version: t.s.Version})
}

// advance moves the active flow along ev, merging fields. Reaching idle clears the session.
func (e *Engine) advance(ctx context.Context, t *turn, g *Graph, ev Event, fields session.Fields) error {
	next, err := g.Next(ctx, t.s.Stage, ev)
	if err != nil {
		return err
	}
	if next == session.StageIdle {
		from := t.s.Stage
		if err := e.reset(ctx, t); err != nil {
			return err
		}
		e.logTransition(ctx, t, g, ev, from, next)
		return nil
	}
	return e.write(ctx, t, g, ev, t.s.With(next, fields))
}

func (e *Engine) write(ctx context.Context, t *turn, g *Graph, ev Event, next session.Session) error {
	if err := e.sessions.Set(ctx, t.u.UserID, next); err != nil {
		return err
	}
	from := t.s.Stage
	next.Version++
	t.s = next
	e.logTransition(ctx, t, g, ev, from, next.Stage)
	return nil
}

// reset clears the session.
func (e *Engine) reset(ctx context.Context, t *turn) error {
	if err := e.sessions.Clear(ctx, t.u.UserID); err != nil {
		return err
	}
	t.s = session.Session{Stage: session.StageIdle}
	return nil
}

func (e *Engine) logTransition(ctx context.Context, t *turn, g *Graph, ev Event, from, to session.Stage) {
	if !logger.ShouldSampleDebug() {
		return
	}
	logger.LogEvent(ctx, logger.Flow, slog.LevelDebug, "stage.advanced",
		slog.String("flow", g.Name()),
		slog.String("action", string(ev)),
		slog.String("stage", string(from)),
		slog.String("next_stage", string(to)),
		slog.Int64("user_id", t.u.UserID),
	)
}

func (e *Engine) reply(ctx context.Context, t *turn, msg Outgoing) error {
	return e.tr.Send(ctx, t.u.ChatID, msg)
}

// answer acknowledges the pressed button. Each callback is answered once.
func (e *Engine) answer(ctx context.Context, t *turn, notice string, alert bool) error {
	if t.answered || t.u.Callback == nil {
		return nil
	}
	t.answered = true
	return e.tr.Answer(ctx, t.u.Callback.ID, notice, alert)
}

func (e *Engine) isAdmin(ctx context.Context, userID int64) (bool, error) {
	return e.gw.IsAdmin(ctx, userID)
}

// guard converts a handler failure into one notice for the user.
func (e *Engine) guard(ctx context.Context, t *turn, cause error, start time.Time) error {
	notice, kb := classify(cause)
	attrs := []slog.Attr{
		slog.String("status", "fail"),
		slog.String("stage", string(t.s.Stage)),
		slog.String("command", t.u.Command.String()),
		slog.String("kind", t.u.Kind.String()),
		slog.Int64("user_id", t.u.UserID),
		slog.Duration("duration", logger.Took(start)),
		logger.Err(cause),
	}
	if code := errorCode(cause); code != "" {
		attrs = append(attrs, slog.String("err_code", code))
	}
	logger.LogEvent(ctx, logger.Flow, slog.LevelError, "flow.failed", attrs...)

	if t.u.Callback != nil && !t.answered {
		_ = e.answer(ctx, t, "", false)
	}
	if err := e.reply(ctx, t, plain(notice, kb)); err != nil {
		return fmt.Errorf("flow: notice after %v: %w", cause, err)
	}
	return nil
}

func classify(err error) (string, *Keyboard) {
	if errors.Is(err, session.ErrConflict) {
		return txtConcurrentUpdate, nil
	}
	if storage.IsError(err) {
		return txtDatabaseError, menu(KeyboardMainMenu)
	}
	if de, ok := asDelivery(err); ok {
		if de.BadRequest {
			return txtBadRequestError, nil
		}
		return txtTelegramError, nil
	}
	return txtUnexpectedError, menu(KeyboardMainMenu)
}

func errorCode(err error) string {
	type coder interface{ Code() string }
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}
