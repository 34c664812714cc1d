package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/m3rciful/intakebot/internal/domain"
)

// Mode selects how Telegram parses Outgoing.Text.
type Mode int

const (
	ModePlain Mode = iota
	ModeMarkdown
	ModeHTML
)

// KeyboardKind names a keyboard layout; the transport owns the rendering.
type KeyboardKind int

const (
	KeyboardRemove KeyboardKind = iota + 1
	KeyboardMainMenu
	KeyboardPhoneRequest
	KeyboardRequestTypes
	KeyboardScreenshot
	KeyboardOptions
	KeyboardContacts
	KeyboardProfileLink
	KeyboardAdminMenu
	KeyboardAdminBack
	KeyboardBroadcastInput
	KeyboardBroadcastConfirm
	KeyboardUsersPage
	KeyboardUserCard
)

// Keyboard describes the markup attached to a message.
type Keyboard struct {
	Kind KeyboardKind
	// Selected marks toggled options for KeyboardOptions.
	Selected domain.OptionSet
	// Users, Page and Pages fill KeyboardUsersPage.
	Users []domain.UserSummary
	Page  int
	Pages int
	// UserID is the profile target of KeyboardProfileLink.
	UserID int64
	// URL is the site button target of KeyboardContacts.
	URL string
}

// Outgoing is one message to deliver. PhotoID or PhotoPath turn it into a
// photo with Text as the caption.
type Outgoing struct {
	Text      string
	Mode      Mode
	PhotoID   string
	PhotoPath string
	Keyboard  *Keyboard
}

// HasPhoto reports whether the message is sent as a photo.
func (o Outgoing) HasPhoto() bool {
	return o.PhotoID != "" || o.PhotoPath != ""
}

// Transport delivers messages synchronously on behalf of the engine.
type Transport interface {
	Send(ctx context.Context, chatID int64, msg Outgoing) error
	Edit(ctx context.Context, ref MessageRef, msg Outgoing) error
	// EditKeyboard replaces the inline keyboard; nil removes it.
	EditKeyboard(ctx context.Context, ref MessageRef, kb *Keyboard) error
	Answer(ctx context.Context, callbackID, notice string, alert bool) error
}

// Notifier queues a message and returns without waiting for delivery.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, msg Outgoing) error
}

// DeliveryError is a transport failure.
type DeliveryError struct {
	Op string
	// BadRequest marks errors Telegram rejected as malformed.
	BadRequest bool
	Err        error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery: %s: %v", e.Op, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Code names the failure class for log lines.
func (e *DeliveryError) Code() string {
	if e.BadRequest {
		return "bad_request"
	}
	return "delivery"
}

func asDelivery(err error) (*DeliveryError, bool) {
	var de *DeliveryError
	ok := errors.As(err, &de)
	return de, ok
}

func menu(kind KeyboardKind) *Keyboard {
	return &Keyboard{Kind: kind}
}

func plain(text string, kb *Keyboard) Outgoing {
	return Outgoing{Text: text, Keyboard: kb}
}

func markdown(text string, kb *Keyboard) Outgoing {
	return Outgoing{Text: text, Mode: ModeMarkdown, Keyboard: kb}
}
