package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/tidwall/gjson"

	"github.com/m3rciful/intakebot/internal/session"
)

const mergeAttempts = 3

// SessionStore keeps sessions as one JSON document per user.
type SessionStore struct {
	db *sqlx.DB
}

var _ session.Store = (*SessionStore)(nil)

// NewSessionStore returns a session.Store backed by the sessions table.
func NewSessionStore(db *sqlx.DB) *SessionStore {
	return &SessionStore{db: db}
}

type sessionDoc struct {
	Stage  session.Stage  `json:"stage"`
	Fields session.Fields `json:"fields,omitempty"`
}

type sessionRow struct {
	Data    string `db:"data"`
	Version int64  `db:"version"`
}

// Get loads the session; users without a row are idle.
func (s *SessionStore) Get(ctx context.Context, userID int64) (session.Session, bool, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT data, version FROM sessions WHERE user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{Stage: session.StageIdle}, false, nil
	}
	if err != nil {
		return session.Session{}, false, wrap("get session", err)
	}
	out, err := decodeSession(row.Data)
	if err != nil {
		return session.Session{}, false, wrap("get session", err)
	}
	out.Version = row.Version
	return out, true, nil
}

// decodeSession reads the stage first and only walks fields of an active flow.
func decodeSession(data string) (session.Session, error) {
	if !gjson.Valid(data) {
		return session.Session{}, fmt.Errorf("malformed session document")
	}
	out := session.Session{Stage: session.Stage(gjson.Get(data, "stage").String())}
	if out.Idle() {
		out.Stage = session.StageIdle
		return out, nil
	}
	fields := gjson.Get(data, "fields")
	if fields.IsObject() {
		out.Fields = make(session.Fields)
		fields.ForEach(func(key, value gjson.Result) bool {
			out.Fields[key.String()] = value.String()
			return true
		})
	}
	return out, nil
}

// Set writes the session if nobody moved its version since it was read.
func (s *SessionStore) Set(ctx context.Context, userID int64, sess session.Session) error {
	data, err := json.Marshal(sessionDoc{Stage: sess.Stage, Fields: sess.Fields})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	var res sql.Result
	if sess.Version == 0 {
		res, err = s.db.ExecContext(ctx, s.db.Rebind(`
			INSERT INTO sessions (user_id, data, version, updated_at)
			VALUES (?, ?, 1, CURRENT_TIMESTAMP)
			ON CONFLICT (user_id) DO NOTHING`), userID, string(data))
	} else {
		res, err = s.db.ExecContext(ctx, s.db.Rebind(`
			UPDATE sessions SET data = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
			WHERE user_id = ? AND version = ?`), string(data), userID, sess.Version)
	}
	if err != nil {
		return wrap("set session", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("set session", err)
	}
	if n == 0 {
		return session.ErrConflict
	}
	return nil
}

// Merge adds fields to the stored session, retrying on concurrent writes.
func (s *SessionStore) Merge(ctx context.Context, userID int64, fields session.Fields) error {
	var err error
	for range mergeAttempts {
		var cur session.Session
		cur, _, err = s.Get(ctx, userID)
		if err != nil {
			return err
		}
		err = s.Set(ctx, userID, cur.With(cur.Stage, fields))
		if !errors.Is(err, session.ErrConflict) {
			return err
		}
	}
	return err
}

// Clear drops the user's session.
func (s *SessionStore) Clear(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM sessions WHERE user_id = ?`), userID)
	return wrap("clear session", err)
}
