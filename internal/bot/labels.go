package bot

import (
	"strings"

	"github.com/m3rciful/intakebot/internal/flow"
)

// Reply keyboard labels. Pressing one sends the label as text.
const (
	labelNewRequest = "📝 Оставить заявку"
	labelContacts   = "📞 Контакты"
	labelAbout      = "ℹ️ Информация о компании"
	labelCancel     = "❌ Отмена"
	labelSkip       = "⏭ Пропустить"
	labelSharePhone = "📱 Отправить номер телефона"
)

// Inline button labels.
const (
	labelConfirm          = "Подтвердить"
	labelSelected         = "✅ "
	labelVisitSite        = "🌐 Посетить наш сайт"
	labelProfile          = "Профиль"
	labelStats            = "📊 Статистика"
	labelBroadcast        = "📢 Рассылка"
	labelUsers            = "👥 Пользователи"
	labelBack             = "⬅️ Назад"
	labelBackToList       = "⬅️ Назад к списку"
	labelPrev             = "⬅️"
	labelNext             = "➡️"
	labelPage             = "Стр. %d/%d"
	labelBroadcastConfirm = "✅ Отправить"
)

var commandsByText = map[string]flow.Command{
	"/start":        flow.CmdStart,
	"/admin":        flow.CmdAdmin,
	labelNewRequest: flow.CmdNewRequest,
	labelContacts:   flow.CmdContacts,
	labelAbout:      flow.CmdAbout,
	labelCancel:     flow.CmdCancel,
	labelSkip:       flow.CmdSkip,
}

// commandOf resolves slash commands and reply keyboard labels. A slash
// command may carry arguments or a bot mention.
func commandOf(text string) flow.Command {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "/") {
		fields := strings.Fields(text)
		name, _, _ := strings.Cut(fields[0], "@")
		return commandsByText[name]
	}
	return commandsByText[text]
}
