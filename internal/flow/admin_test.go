package flow

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/intakebot/internal/richtext"
	"github.com/m3rciful/intakebot/internal/session"
)

const adminID int64 = 100

func newAdminHarness(t *testing.T, mutate ...func(*Config)) *harness {
	t.Helper()
	h := newHarness(t, mutate...)
	h.gw.admins[adminID] = true
	return h
}

func TestAdminMenuAccess(t *testing.T) {
	h := newAdminHarness(t)

	h.handle(t, command(1, CmdAdmin, "/admin"))
	assert.Equal(t, txtAdminNoAccess, h.tr.last(t, 1).Text)

	h.handle(t, command(adminID, CmdAdmin, "/admin"))
	menuMsg := h.tr.last(t, adminID)
	assert.Equal(t, txtAdminMenu, menuMsg.Text)
	assert.Equal(t, ModeMarkdown, menuMsg.Mode)
	assert.Equal(t, KeyboardAdminMenu, menuMsg.Keyboard.Kind)
}

func TestAdminMenuAbandonsActiveFlow(t *testing.T) {
	h := newAdminHarness(t)
	h.gw.addUser(adminID, "Админ Админов")
	h.handle(t, command(adminID, CmdNewRequest, "📝 Оставить заявку"))
	require.Equal(t, StageRequestType, h.stage(t, adminID))

	h.handle(t, command(adminID, CmdAdmin, "/admin"))
	_, exists := h.session(t, adminID)
	assert.False(t, exists)
}

func TestAdminCallbackRechecksMembership(t *testing.T) {
	h := newAdminHarness(t)

	h.handle(t, press(1, ActionAdminStats, "", 0))

	ans := h.tr.lastAnswer(t)
	assert.Equal(t, txtAdminNoAccessShort, ans.Notice)
	assert.True(t, ans.Alert)
	assert.Empty(t, h.tr.edits)
}

func TestAdminStats(t *testing.T) {
	h := newAdminHarness(t)
	h.gw.addUser(1, "Иванов Иван")
	h.gw.addUser(2, "Петров Пётр")

	h.handle(t, press(adminID, ActionAdminStats, "", 0))

	edit := h.tr.lastEdit(t)
	assert.Equal(t, MessageRef{ChatID: adminID, MessageID: 77}, edit.Ref)
	assert.Equal(t, "📊 *Статистика бота*\n\n👥 Пользователей: 2\n📝 Заявок: 0", edit.Msg.Text)
	assert.Len(t, h.tr.answers, 1)
}

func TestNormalizePage(t *testing.T) {
	cases := []struct{ page, pages, want int }{
		{1, 3, 1},
		{3, 3, 3},
		{4, 3, 1},
		{0, 3, 3},
		{-1, 3, 2},
		{7, 1, 1},
		{1, 0, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, normalizePage(c.page, c.pages), "page %d of %d", c.page, c.pages)
	}
}

func TestUsersPaging(t *testing.T) {
	h := newAdminHarness(t)
	for id := int64(1); id <= 12; id++ {
		h.gw.addUser(id, fmt.Sprintf("Пользователь %d", id))
	}

	h.handle(t, press(adminID, ActionAdminUsers, "", 0))
	first := h.tr.lastEdit(t).Msg
	assert.Equal(t, "👥 *Список пользователей* (стр. 1/3)\n\nВыберите пользователя:", first.Text)
	require.Len(t, first.Keyboard.Users, 5)
	assert.Equal(t, int64(1), first.Keyboard.Users[0].ID)

	h.handle(t, press(adminID, ActionUsersPage, "", 0))
	last := h.tr.lastEdit(t).Msg
	assert.Equal(t, 3, last.Keyboard.Page)
	assert.Equal(t, 3, last.Keyboard.Pages)
	require.Len(t, last.Keyboard.Users, 2)
	assert.Equal(t, int64(11), last.Keyboard.Users[0].ID)

	h.handle(t, press(adminID, ActionUsersPage, "", 4))
	assert.Equal(t, 1, h.tr.lastEdit(t).Msg.Keyboard.Page)
}

func TestUsersPageEmpty(t *testing.T) {
	h := newAdminHarness(t)

	h.handle(t, press(adminID, ActionAdminUsers, "", 0))

	edit := h.tr.lastEdit(t).Msg
	assert.Equal(t, txtUsersEmpty, edit.Text)
	assert.Equal(t, KeyboardAdminBack, edit.Keyboard.Kind)
}

func TestUserCard(t *testing.T) {
	h := newAdminHarness(t)
	h.gw.addUser(3, "Ivan_Petrov *Jr*")

	h.handle(t, press(adminID, ActionUserInfo, "", 3))
	card := h.tr.lastEdit(t).Msg
	assert.Equal(t, ModeMarkdown, card.Mode)
	assert.Equal(t, KeyboardUserCard, card.Keyboard.Kind)
	assert.Contains(t, card.Text, "🆔 ID: `3`")
	assert.Contains(t, card.Text, "📝 ФИО: Ivan\\_Petrov \\*Jr\\*")
	assert.Contains(t, card.Text, "📅 Дата рождения: 01.01.1990")

	h.handle(t, press(adminID, ActionUserInfo, "", 404))
	ans := h.tr.lastAnswer(t)
	assert.Equal(t, txtUserNotFound, ans.Notice)
	assert.True(t, ans.Alert)
}

func TestAdminBackAndClose(t *testing.T) {
	h := newAdminHarness(t)

	h.handle(t, press(adminID, ActionAdminBack, "", 0))
	assert.Equal(t, txtAdminMenu, h.tr.lastEdit(t).Msg.Text)

	h.handle(t, press(adminID, ActionAdminBroadcast, "", 0))
	require.Equal(t, StageBroadcastMessage, h.stage(t, adminID))
	h.handle(t, press(adminID, ActionAdminCancel, "", 0))
	assert.Equal(t, txtAdminClosed, h.tr.lastEdit(t).Msg.Text)
	_, exists := h.session(t, adminID)
	assert.False(t, exists)
}

func composeAndConfirm(t *testing.T, h *harness, draftMsg Update) {
	t.Helper()
	h.handle(t, press(adminID, ActionAdminBroadcast, "", 0))
	require.Equal(t, txtBroadcastAsk, h.tr.lastEdit(t).Msg.Text)
	h.handle(t, draftMsg)
	require.Equal(t, StageBroadcastConfirm, h.stage(t, adminID))
	h.handle(t, press(adminID, ActionBroadcastConfirm, "", 0))
}

func TestBroadcastPartialFailure(t *testing.T) {
	for _, workers := range []int{0, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			h := newAdminHarness(t, func(c *Config) { c.Policy.BroadcastWorkers = workers })
			for id := int64(1); id <= 5; id++ {
				h.gw.addUser(id, fmt.Sprintf("Пользователь %d", id))
			}
			h.tr.failSend[2] = true
			h.tr.failSend[4] = true

			composeAndConfirm(t, h, text(adminID, "Завтра офис закрыт"))

			for _, id := range []int64{1, 3, 5} {
				got := h.tr.sentTo(id)
				require.Len(t, got, 1, "user %d", id)
				assert.Equal(t, "Завтра офис закрыт", got[0].Text)
				assert.Equal(t, ModePlain, got[0].Mode)
			}
			assert.Empty(t, h.tr.sentTo(2))

			done := h.tr.lastEdit(t).Msg
			assert.Equal(t, "✅ *Рассылка завершена!*\n📤 Отправлено: 3/5", done.Text)
			assert.Equal(t, KeyboardAdminMenu, done.Keyboard.Kind)
			_, exists := h.session(t, adminID)
			assert.False(t, exists)
		})
	}
}

func TestBroadcastKeepsFormatting(t *testing.T) {
	h := newAdminHarness(t)
	h.gw.addUser(1, "Иванов Иван")

	composeAndConfirm(t, h, richText(adminID, "abcdef",
		richtext.Span{Type: richtext.Italic, Offset: 3, Length: 3},
		richtext.Span{Type: richtext.Bold, Offset: 0, Length: 3},
	))

	got := h.tr.last(t, 1)
	assert.Equal(t, "<b>abc</b><i>def</i>", got.Text)
	assert.Equal(t, ModeHTML, got.Mode)
}

func TestBroadcastPreview(t *testing.T) {
	h := newAdminHarness(t)
	long := strings.Repeat("я", 150)

	h.handle(t, press(adminID, ActionAdminBroadcast, "", 0))
	h.handle(t, text(adminID, long))

	preview := h.tr.last(t, adminID)
	assert.Equal(t, ModeMarkdown, preview.Mode)
	assert.Equal(t, KeyboardBroadcastConfirm, preview.Keyboard.Kind)
	assert.Equal(t, txtBroadcastPreview+txtBroadcastText+strings.Repeat("я", previewLimit)+"...", preview.Text)

	s, _ := h.session(t, adminID)
	assert.Equal(t, long, s.Get(fieldDraftText))
}

func TestBroadcastRejectsEmptyDraft(t *testing.T) {
	h := newAdminHarness(t)
	h.handle(t, press(adminID, ActionAdminBroadcast, "", 0))

	h.handle(t, text(adminID, "   "))
	assert.Equal(t, txtBroadcastEmpty, h.tr.last(t, adminID).Text)
	h.handle(t, contact(adminID, "+79991234567", adminID))
	assert.Equal(t, txtBroadcastEmpty, h.tr.last(t, adminID).Text)
	assert.Equal(t, StageBroadcastMessage, h.stage(t, adminID))
}

func TestBroadcastPhotoReportIsNewMessage(t *testing.T) {
	h := newAdminHarness(t)
	h.gw.addUser(1, "Иванов Иван")

	h.handle(t, press(adminID, ActionAdminBroadcast, "", 0))
	h.handle(t, photo(adminID, "pic-1", "Новый логотип"))
	preview := h.tr.last(t, adminID)
	assert.Equal(t, "pic-1", preview.PhotoID)
	assert.Contains(t, preview.Text, txtBroadcastHasPhoto)

	edits := len(h.tr.edits)
	h.handle(t, press(adminID, ActionBroadcastConfirm, "", 0))

	delivered := h.tr.last(t, 1)
	assert.Equal(t, "pic-1", delivered.PhotoID)
	assert.Equal(t, "Новый логотип", delivered.Text)
	assert.Len(t, h.tr.edits, edits)
	assert.Equal(t, "✅ *Рассылка завершена!*\n📤 Отправлено: 1/1", h.tr.last(t, adminID).Text)
}

func TestBroadcastCancel(t *testing.T) {
	t.Run("button", func(t *testing.T) {
		h := newAdminHarness(t)
		h.handle(t, press(adminID, ActionAdminBroadcast, "", 0))
		h.handle(t, press(adminID, ActionBroadcastCancel, "", 0))

		assert.Equal(t, txtBroadcastCancelled, h.tr.lastEdit(t).Msg.Text)
		assert.Equal(t, session.StageIdle, h.stage(t, adminID))
	})

	t.Run("text", func(t *testing.T) {
		h := newAdminHarness(t)
		h.gw.addUser(1, "Иванов Иван")
		h.handle(t, press(adminID, ActionAdminBroadcast, "", 0))
		h.handle(t, text(adminID, "черновик"))
		h.handle(t, command(adminID, CmdCancel, "❌ Отмена"))

		assert.Equal(t, txtBroadcastCancelled, h.tr.last(t, adminID).Text)
		assert.Equal(t, session.StageIdle, h.stage(t, adminID))
		assert.Empty(t, h.tr.sentTo(1))
	})
}

func TestBroadcastButtonsOutsideFlowAreOutdated(t *testing.T) {
	h := newAdminHarness(t)
	h.gw.addUser(1, "Иванов Иван")

	h.handle(t, press(adminID, ActionBroadcastConfirm, "", 0))
	assert.Equal(t, txtOutdatedButton, h.tr.lastAnswer(t).Notice)
	h.handle(t, press(adminID, ActionBroadcastCancel, "", 0))
	assert.Equal(t, txtOutdatedButton, h.tr.lastAnswer(t).Notice)
	assert.Empty(t, h.tr.sentTo(1))
}

func TestBroadcastRecipientLookupFailure(t *testing.T) {
	h := newAdminHarness(t)
	h.gw.failListUsers = dbError()

	composeAndConfirm(t, h, text(adminID, "всем привет"))

	assert.Equal(t, txtBroadcastFailed, h.tr.lastEdit(t).Msg.Text)
	_, exists := h.session(t, adminID)
	assert.False(t, exists)
}

func TestBroadcastDropsDemotedAdmin(t *testing.T) {
	h := newAdminHarness(t)
	h.handle(t, press(adminID, ActionAdminBroadcast, "", 0))
	delete(h.gw.admins, adminID)

	h.handle(t, text(adminID, "всем привет"))

	_, exists := h.session(t, adminID)
	assert.False(t, exists)
}

func TestDraftRoundTripsThroughSession(t *testing.T) {
	d := draft{Text: "<b>x</b>", PhotoID: "p", HTML: true}
	s := session.Session{Stage: StageBroadcastConfirm}.With(StageBroadcastConfirm, d.fields())
	assert.Equal(t, d, draftFrom(s))
	assert.Equal(t, Outgoing{Text: "<b>x</b>", PhotoID: "p", Mode: ModeHTML}, d.message())

	plainDraft := draftFrom(session.Session{}.With(StageBroadcastConfirm, draft{Text: "x"}.fields()))
	assert.False(t, plainDraft.HTML)
	assert.Equal(t, ModePlain, plainDraft.message().Mode)
}
