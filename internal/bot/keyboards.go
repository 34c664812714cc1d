package bot

import (
	"fmt"
	"strconv"

	"github.com/m3rciful/intakebot/core/telegram/keyboard"
	"github.com/m3rciful/intakebot/internal/domain"
	"github.com/m3rciful/intakebot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

func action(a flow.Action) string { return string(a) }

// markup renders a keyboard description. Nil means no markup.
func markup(kb *flow.Keyboard) *tele.ReplyMarkup {
	if kb == nil {
		return nil
	}
	switch kb.Kind {
	case flow.KeyboardRemove:
		return keyboard.RemoveKeyboard()
	case flow.KeyboardMainMenu:
		return keyboard.ReplyButtons(
			[]string{labelNewRequest, labelContacts},
			[]string{labelAbout},
		)
	case flow.KeyboardPhoneRequest:
		return keyboard.ContactRequest(labelSharePhone)
	case flow.KeyboardRequestTypes:
		m := keyboard.ReplyButtons(
			[]string{domain.RequestTransport.Label(), domain.RequestOffice.Label()},
			[]string{domain.RequestDelivery.Label(), domain.RequestOther.Label()},
			[]string{labelCancel},
		)
		m.OneTimeKeyboard = true
		return m
	case flow.KeyboardScreenshot:
		return keyboard.ReplyButtons([]string{labelSkip}, []string{labelCancel})
	case flow.KeyboardOptions:
		return optionsMarkup(kb.Selected)
	case flow.KeyboardContacts:
		return keyboard.InlineButtonsRows([]keyboard.InlineBtn{{Text: labelVisitSite, URL: kb.URL}})
	case flow.KeyboardProfileLink:
		return keyboard.InlineButtonsRows([]keyboard.InlineBtn{{
			Text: labelProfile,
			URL:  "tg://user?id=" + strconv.FormatInt(kb.UserID, 10),
		}})
	case flow.KeyboardAdminMenu:
		return keyboard.InlineButtonsRows(
			[]keyboard.InlineBtn{{Text: labelStats, Unique: action(flow.ActionAdminStats)}},
			[]keyboard.InlineBtn{{Text: labelBroadcast, Unique: action(flow.ActionAdminBroadcast)}},
			[]keyboard.InlineBtn{{Text: labelUsers, Unique: action(flow.ActionAdminUsers)}},
			[]keyboard.InlineBtn{{Text: labelCancel, Unique: action(flow.ActionAdminCancel)}},
		)
	case flow.KeyboardAdminBack:
		return keyboard.InlineButtonsRows([]keyboard.InlineBtn{{Text: labelBack, Unique: action(flow.ActionAdminBack)}})
	case flow.KeyboardBroadcastInput:
		return keyboard.InlineButtonsRows([]keyboard.InlineBtn{{Text: labelCancel, Unique: action(flow.ActionBroadcastCancel)}})
	case flow.KeyboardBroadcastConfirm:
		return keyboard.InlineButtonsRows(
			[]keyboard.InlineBtn{{Text: labelBroadcastConfirm, Unique: action(flow.ActionBroadcastConfirm)}},
			[]keyboard.InlineBtn{{Text: labelCancel, Unique: action(flow.ActionBroadcastCancel)}},
		)
	case flow.KeyboardUsersPage:
		return usersMarkup(kb.Users, kb.Page, kb.Pages)
	case flow.KeyboardUserCard:
		return keyboard.InlineButtonsRows([]keyboard.InlineBtn{{Text: labelBackToList, Unique: action(flow.ActionAdminUsers)}})
	default:
		return nil
	}
}

func optionsMarkup(selected domain.OptionSet) *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(domain.OptionTags)+1)
	for _, tag := range domain.OptionTags {
		text := tag.ButtonLabel()
		if selected.Has(tag) {
			text = labelSelected + text
		}
		rows = append(rows, []keyboard.InlineBtn{{Text: text, Unique: action(flow.ActionOption), Data: string(tag)}})
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: labelConfirm, Unique: action(flow.ActionConfirm)}})
	return keyboard.InlineButtonsRows(rows...)
}

func usersMarkup(users []domain.UserSummary, page, pages int) *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(users)+2)
	for _, u := range users {
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   u.FullName,
			Unique: action(flow.ActionUserInfo),
			Data:   strconv.FormatInt(u.ID, 10),
		}})
	}
	rows = append(rows,
		[]keyboard.InlineBtn{
			{Text: labelPrev, Unique: action(flow.ActionUsersPage), Data: strconv.Itoa(page - 1)},
			{Text: fmt.Sprintf(labelPage, page, pages), Unique: action(flow.ActionNone)},
			{Text: labelNext, Unique: action(flow.ActionUsersPage), Data: strconv.Itoa(page + 1)},
		},
		[]keyboard.InlineBtn{{Text: labelBack, Unique: action(flow.ActionAdminBack)}},
	)
	return keyboard.InlineButtonsRows(rows...)
}
