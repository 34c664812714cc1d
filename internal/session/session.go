// Package session keeps per-user dialogue state between inbound events.
package session

import (
	"context"
	"errors"
)

// Stage identifies a step inside exactly one flow.
type Stage string

// StageIdle means no flow is active.
const StageIdle Stage = "idle"

// Fields holds values collected by the active flow.
type Fields map[string]string

// ErrConflict is returned by Set when the stored version moved since the caller read it.
var ErrConflict = errors.New("session: version conflict")

// Session is the state of one user's active flow.
type Session struct {
	Stage   Stage  `json:"stage"`
	Fields  Fields `json:"fields,omitempty"`
	Version int64  `json:"version"`
}

// Idle reports whether no flow is active.
func (s Session) Idle() bool {
	return s.Stage == "" || s.Stage == StageIdle
}

// Get returns a field value or "".
func (s Session) Get(key string) string {
	return s.Fields[key]
}

// With returns a copy of s moved to stage with fields merged in.
func (s Session) With(stage Stage, fields Fields) Session {
	out := Session{Stage: stage, Version: s.Version, Fields: make(Fields, len(s.Fields)+len(fields))}
	for k, v := range s.Fields {
		out.Fields[k] = v
	}
	for k, v := range fields {
		out.Fields[k] = v
	}
	return out
}

// Clone deep-copies the session.
func (s Session) Clone() Session {
	return s.With(s.Stage, nil)
}

// Store persists sessions keyed by user id.
//
// Get reports false for users without a session. Set writes only if the stored
// version equals s.Version and bumps it on success; a fresh session has version 0.
type Store interface {
	Get(ctx context.Context, userID int64) (Session, bool, error)
	Set(ctx context.Context, userID int64, s Session) error
	Merge(ctx context.Context, userID int64, fields Fields) error
	Clear(ctx context.Context, userID int64) error
}
