package bot

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/m3rciful/intakebot/core/telegram/middleware"
	tgsender "github.com/m3rciful/intakebot/core/telegram/sender"
	"github.com/m3rciful/intakebot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

// api is the part of the Bot API the transport calls.
type api interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	EditReplyMarkup(msg tele.Editable, markup *tele.ReplyMarkup) (*tele.Message, error)
	Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error
}

var errNoBot = errors.New("bot: transport not bound")

// Transport delivers engine output through the outbound dispatcher. It
// implements flow.Transport and flow.Notifier.
type Transport struct {
	bound      atomic.Pointer[apiHolder]
	dispatcher *tgsender.Dispatcher
}

type apiHolder struct{ api }

// NewTransport creates a transport; Bind attaches the bot once it exists.
func NewTransport(d *tgsender.Dispatcher) *Transport {
	return &Transport{dispatcher: d}
}

// Bind sets the Bot API client.
func (t *Transport) Bind(a api) {
	t.bound.Store(&apiHolder{a})
}

func (t *Transport) client() (api, error) {
	h := t.bound.Load()
	if h == nil {
		return nil, errNoBot
	}
	return h.api, nil
}

// Send implements flow.Transport.
func (t *Transport) Send(ctx context.Context, chatID int64, msg flow.Outgoing) error {
	endpoint := "sendMessage"
	if msg.HasPhoto() {
		endpoint = "sendPhoto"
	}
	err := t.dispatcher.Do(ctx, "send", endpoint, func() error {
		return t.send(chatID, msg)
	})
	if err != nil {
		return deliveryError("send", err)
	}
	middleware.CountMessage(ctx, msg.Keyboard != nil)
	return nil
}

// Edit implements flow.Transport.
func (t *Transport) Edit(ctx context.Context, ref flow.MessageRef, msg flow.Outgoing) error {
	err := t.dispatcher.Do(ctx, "edit", "editMessageText", func() error {
		a, err := t.client()
		if err != nil {
			return err
		}
		_, err = a.Edit(stored(ref), msg.Text, sendOptions(msg))
		return ignoreNotModified(err)
	})
	if err != nil {
		return deliveryError("edit", err)
	}
	middleware.CountMessage(ctx, msg.Keyboard != nil)
	return nil
}

// EditKeyboard implements flow.Transport.
func (t *Transport) EditKeyboard(ctx context.Context, ref flow.MessageRef, kb *flow.Keyboard) error {
	err := t.dispatcher.Do(ctx, "edit_keyboard", "editMessageReplyMarkup", func() error {
		a, err := t.client()
		if err != nil {
			return err
		}
		_, err = a.EditReplyMarkup(stored(ref), markup(kb))
		return ignoreNotModified(err)
	})
	if err != nil {
		return deliveryError("edit_keyboard", err)
	}
	return nil
}

// Answer implements flow.Transport.
func (t *Transport) Answer(ctx context.Context, callbackID, notice string, alert bool) error {
	err := t.dispatcher.Do(ctx, "answer", "answerCallbackQuery", func() error {
		a, err := t.client()
		if err != nil {
			return err
		}
		resp := &tele.CallbackResponse{CallbackID: callbackID, Text: notice, ShowAlert: alert}
		return a.Respond(&tele.Callback{ID: callbackID}, resp)
	})
	if err != nil {
		return deliveryError("answer", err)
	}
	return nil
}

// Notify implements flow.Notifier by queueing the send on the worker pool.
func (t *Transport) Notify(ctx context.Context, chatID int64, msg flow.Outgoing) error {
	endpoint := "sendMessage"
	if msg.HasPhoto() {
		endpoint = "sendPhoto"
	}
	return t.dispatcher.Enqueue(ctx, "notify", endpoint, func() error {
		return t.send(chatID, msg)
	})
}

func (t *Transport) send(chatID int64, msg flow.Outgoing) error {
	a, err := t.client()
	if err != nil {
		return err
	}
	to := tele.ChatID(chatID)
	opts := sendOptions(msg)
	switch {
	case msg.PhotoID != "":
		_, err = a.Send(to, &tele.Photo{File: tele.File{FileID: msg.PhotoID}, Caption: msg.Text}, opts)
	case msg.PhotoPath != "":
		_, err = a.Send(to, &tele.Photo{File: tele.FromDisk(msg.PhotoPath), Caption: msg.Text}, opts)
	default:
		_, err = a.Send(to, msg.Text, opts)
	}
	return err
}

func sendOptions(msg flow.Outgoing) *tele.SendOptions {
	opts := &tele.SendOptions{ReplyMarkup: markup(msg.Keyboard)}
	switch msg.Mode {
	case flow.ModeMarkdown:
		opts.ParseMode = tele.ModeMarkdown
	case flow.ModeHTML:
		opts.ParseMode = tele.ModeHTML
	}
	return opts
}

func stored(ref flow.MessageRef) tele.StoredMessage {
	return tele.StoredMessage{MessageID: strconv.Itoa(ref.MessageID), ChatID: ref.ChatID}
}

func ignoreNotModified(err error) error {
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

func deliveryError(op string, err error) error {
	return &flow.DeliveryError{
		Op:         op,
		BadRequest: tgsender.HTTPStatus(err) == http.StatusBadRequest,
		Err:        err,
	}
}
