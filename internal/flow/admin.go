package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/intakebot/core/logger"
	"github.com/m3rciful/intakebot/core/telegram/format"
	"github.com/m3rciful/intakebot/internal/domain"
)

const usersPerPage = 5

// adminMenu answers /admin. It abandons any active flow of an administrator.
func (e *Engine) adminMenu(ctx context.Context, t *turn) error {
	ok, err := e.isAdmin(ctx, t.u.UserID)
	if err != nil {
		return err
	}
	if !ok {
		logger.LogEvent(ctx, logger.Flow, slog.LevelInfo, "admin.denied",
			slog.String("outcome", "rejected"),
			slog.Int64("user_id", t.u.UserID),
		)
		return e.reply(ctx, t, plain(txtAdminNoAccess, nil))
	}
	if !t.s.Idle() {
		if err := e.reset(ctx, t); err != nil {
			return err
		}
	}
	return e.reply(ctx, t, markdown(txtAdminMenu, menu(KeyboardAdminMenu)))
}

// onAdminCallback re-checks membership on every press; outsiders get an alert
// and nothing else changes.
func (e *Engine) onAdminCallback(ctx context.Context, t *turn) error {
	ok, err := e.isAdmin(ctx, t.u.UserID)
	if err != nil {
		return err
	}
	if !ok {
		logger.LogEvent(ctx, logger.Flow, slog.LevelInfo, "admin.denied",
			slog.String("outcome", "rejected"),
			slog.String("action", string(t.callback().Action)),
			slog.Int64("user_id", t.u.UserID),
		)
		return e.answer(ctx, t, txtAdminNoAccessShort, true)
	}

	cb := t.callback()
	switch cb.Action {
	case ActionAdminStats:
		return e.adminStats(ctx, t)
	case ActionAdminBroadcast:
		return e.composeBroadcast(ctx, t)
	case ActionAdminUsers:
		return e.usersPage(ctx, t, 1)
	case ActionUsersPage:
		return e.usersPage(ctx, t, int(cb.Arg))
	case ActionUserInfo:
		return e.userCard(ctx, t, cb.Arg)
	case ActionAdminBack:
		return e.tr.Edit(ctx, cb.Message, markdown(txtAdminMenu, menu(KeyboardAdminMenu)))
	case ActionAdminCancel:
		if !t.s.Idle() {
			if err := e.reset(ctx, t); err != nil {
				return err
			}
		}
		return e.tr.Edit(ctx, cb.Message, plain(txtAdminClosed, nil))
	case ActionBroadcastConfirm:
		if t.s.Stage != StageBroadcastConfirm {
			return e.answer(ctx, t, txtOutdatedButton, false)
		}
		return e.sendBroadcast(ctx, t)
	case ActionBroadcastCancel:
		if !e.broadcast.Owns(t.s.Stage) {
			return e.answer(ctx, t, txtOutdatedButton, false)
		}
		return e.cancelBroadcast(ctx, t)
	}
	return e.answer(ctx, t, txtOutdatedButton, false)
}

func (e *Engine) adminStats(ctx context.Context, t *turn) error {
	users, err := e.gw.CountUsers(ctx)
	if err != nil {
		return err
	}
	requests, err := e.gw.CountRequests(ctx)
	if err != nil {
		return err
	}
	return e.tr.Edit(ctx, t.callback().Message,
		markdown(fmt.Sprintf(txtAdminStats, users, requests), menu(KeyboardAdminMenu)))
}

// normalizePage wraps page into 1..pages so paging past either end cycles.
func normalizePage(page, pages int) int {
	if pages <= 0 {
		return 0
	}
	return ((page-1)%pages+pages)%pages + 1
}

func (e *Engine) usersPage(ctx context.Context, t *turn, page int) error {
	ids, err := e.gw.ListUserIDs(ctx)
	if err != nil {
		return err
	}
	ref := t.callback().Message
	if len(ids) == 0 {
		return e.tr.Edit(ctx, ref, plain(txtUsersEmpty, menu(KeyboardAdminBack)))
	}

	pages := (len(ids) + usersPerPage - 1) / usersPerPage
	page = normalizePage(page, pages)
	from := (page - 1) * usersPerPage
	to := min(from+usersPerPage, len(ids))

	users, err := e.gw.ListUsers(ctx, ids[from:to])
	if err != nil {
		return err
	}
	kb := &Keyboard{Kind: KeyboardUsersPage, Users: users, Page: page, Pages: pages}
	return e.tr.Edit(ctx, ref, markdown(fmt.Sprintf(txtUsersPage, page, pages), kb))
}

func (e *Engine) userCard(ctx context.Context, t *turn, userID int64) error {
	u, ok, err := e.gw.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return e.answer(ctx, t, txtUserNotFound, true)
	}
	text := fmt.Sprintf(txtUserCard,
		u.ID,
		format.EscapeV1(u.FullName),
		u.BirthDate.Format(domain.DisplayDateLayout),
		format.EscapeV1(u.Phone),
	)
	return e.tr.Edit(ctx, t.callback().Message, markdown(text, menu(KeyboardUserCard)))
}
