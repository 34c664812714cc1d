package flow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/intakebot/internal/session"
)

// conflictStore rejects every write as stale.
type conflictStore struct {
	session.Store
}

func (conflictStore) Set(context.Context, int64, session.Session) error {
	return session.ErrConflict
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Config{})
	assert.EqualError(t, err, "flow: nil session store")

	_, err = New(Config{Sessions: session.NewMemoryStore(), Gateway: newFakeGateway(), Transport: &fakeTransport{}})
	assert.EqualError(t, err, "flow: nil notifier")
}

func TestIdleFallbacks(t *testing.T) {
	h := newHarness(t)

	h.handle(t, text(1, "привет"))
	msg := h.tr.last(t, 1)
	assert.Equal(t, txtFallback, msg.Text)
	assert.Equal(t, KeyboardMainMenu, msg.Keyboard.Kind)

	h.handle(t, command(1, CmdCancel, "❌ Отмена"))
	assert.Equal(t, txtNothingToCancel, h.tr.last(t, 1).Text)

	h.handle(t, photo(1, "pic", ""))
	assert.Equal(t, txtFallback, h.tr.last(t, 1).Text)
}

func TestContacts(t *testing.T) {
	h := newHarness(t)

	h.handle(t, command(1, CmdContacts, "📞 Контакты"))

	msg := h.tr.last(t, 1)
	assert.Equal(t, "📞 *Наши контакты*", msg.Text)
	assert.Equal(t, ModeMarkdown, msg.Mode)
	assert.Equal(t, &Keyboard{Kind: KeyboardContacts, URL: "https://example.org"}, msg.Keyboard)
}

func TestAbout(t *testing.T) {
	t.Run("with logo", func(t *testing.T) {
		h := newHarness(t, func(c *Config) { c.Content.LogoPath = "assets/logo.png" })
		h.handle(t, command(1, CmdAbout, "ℹ️ О нас"))

		msgs := h.tr.sentTo(1)
		require.Len(t, msgs, 1)
		assert.Equal(t, "assets/logo.png", msgs[0].PhotoPath)
		assert.Equal(t, "🌟 *О нас* 🌟", msgs[0].Text)
	})

	t.Run("logo failure falls back to text", func(t *testing.T) {
		h := newHarness(t, func(c *Config) { c.Content.LogoPath = "missing.png" })
		h.tr.failPhoto = true
		h.handle(t, command(1, CmdAbout, "ℹ️ О нас"))

		msgs := h.tr.sentTo(1)
		require.Len(t, msgs, 1)
		assert.False(t, msgs[0].HasPhoto())
		assert.Equal(t, "🌟 *О нас* 🌟", msgs[0].Text)
	})
}

func TestStorageFailureBecomesNotice(t *testing.T) {
	h := newHarness(t)
	h.gw.failLookup = dbError()

	h.handle(t, command(1, CmdNewRequest, "📝 Оставить заявку"))

	msg := h.tr.last(t, 1)
	assert.Equal(t, txtDatabaseError, msg.Text)
	assert.Equal(t, KeyboardMainMenu, msg.Keyboard.Kind)
	assert.Equal(t, session.StageIdle, h.stage(t, 1))
}

func TestPanicBecomesNotice(t *testing.T) {
	h := newHarness(t)
	h.tr.panics = 1

	h.handle(t, text(1, "привет"))

	assert.Equal(t, txtUnexpectedError, h.tr.last(t, 1).Text)
	assert.Zero(t, h.engine.locker.Len())
}

func TestConflictBecomesNotice(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.Sessions = conflictStore{Store: session.NewMemoryStore()} })

	h.handle(t, command(1, CmdStart, "/start"))

	msg := h.tr.last(t, 1)
	assert.Equal(t, txtConcurrentUpdate, msg.Text)
	assert.Nil(t, msg.Keyboard)
}

func TestUndeliverableNoticeIsReturned(t *testing.T) {
	h := newHarness(t)
	h.tr.failSend[1] = true

	err := h.engine.Handle(context.Background(), text(1, "привет"))

	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "send", de.Op)
}

func TestUnknownStageIsReset(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.sessions.Set(context.Background(), 1, session.Session{Stage: "legacy_stage"}))

	h.handle(t, text(1, "привет"))

	_, exists := h.session(t, 1)
	assert.False(t, exists)
	assert.Equal(t, txtFallback, h.tr.last(t, 1).Text)
}

func TestCallbacksAreAlwaysAnswered(t *testing.T) {
	h := newHarness(t)

	h.handle(t, press(1, ActionNone, "", 0))
	require.Len(t, h.tr.answers, 1)
	assert.Equal(t, answered{ID: "cb"}, h.tr.answers[0])

	h.handle(t, press(1, Action("retired"), "", 0))
	assert.Equal(t, txtOutdatedButton, h.tr.lastAnswer(t).Notice)

	h.gw.admins[1] = true
	h.gw.failLookup = dbError()
	h.handle(t, press(1, ActionUserInfo, "", 2))
	assert.Equal(t, txtDatabaseError, h.tr.last(t, 1).Text)
	assert.Len(t, h.tr.answers, 3)
}

func TestStartRestartsRegistration(t *testing.T) {
	h := newHarness(t)
	h.handle(t, command(1, CmdStart, "/start"))
	h.handle(t, text(1, "Петров Иван"))
	require.Equal(t, StageBirthDate, h.stage(t, 1))

	h.handle(t, command(1, CmdStart, "/start"))

	s, _ := h.session(t, 1)
	assert.Equal(t, StageFullName, s.Stage)
	assert.Empty(t, s.Get(fieldFullName))
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		text string
		kb   *Keyboard
	}{
		{"conflict", fmt.Errorf("write: %w", session.ErrConflict), txtConcurrentUpdate, nil},
		{"storage", fmt.Errorf("lookup: %w", dbError()), txtDatabaseError, menu(KeyboardMainMenu)},
		{"bad request", &DeliveryError{Op: "edit", BadRequest: true, Err: errors.New("message is not modified")}, txtBadRequestError, nil},
		{"telegram", &DeliveryError{Op: "send", Err: errors.New("timeout")}, txtTelegramError, nil},
		{"other", errors.New("boom"), txtUnexpectedError, menu(KeyboardMainMenu)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			text, kb := classify(c.err)
			assert.Equal(t, c.text, text)
			assert.Equal(t, c.kb, kb)
		})
	}
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "bad_request", errorCode(&DeliveryError{BadRequest: true, Err: errors.New("x")}))
	assert.Equal(t, "delivery", errorCode(fmt.Errorf("wrapped: %w", &DeliveryError{Err: errors.New("x")})))
	assert.Empty(t, errorCode(errors.New("plain")))
}
