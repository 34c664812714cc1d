// Package storage persists users, requests, admins and dialogue sessions.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/m3rciful/intakebot/internal/domain"
)

// InsertResult reports the outcome of an idempotent insert.
type InsertResult int

const (
	// Inserted means a new row was written.
	Inserted InsertResult = iota + 1
	// AlreadyExists means the key was present and nothing changed.
	AlreadyExists
)

func (r InsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case AlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}

// Gateway is the durable store used by the dialogue flows.
type Gateway interface {
	InsertUserIfAbsent(ctx context.Context, u domain.User) (InsertResult, error)
	InsertRequest(ctx context.Context, r domain.Request) (int64, error)
	CountUsers(ctx context.Context) (int64, error)
	CountRequests(ctx context.Context) (int64, error)
	ListUserIDs(ctx context.Context) ([]int64, error)
	ListUsers(ctx context.Context, ids []int64) ([]domain.UserSummary, error)
	GetUser(ctx context.Context, id int64) (domain.User, bool, error)
	IsAdmin(ctx context.Context, id int64) (bool, error)
}

// Error wraps every driver failure so callers can tell persistence faults apart.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Code returns the driver error code when one is known.
func (e *Error) Code() string {
	var pqErr *pq.Error
	if errors.As(e.Err, &pqErr) {
		return string(pqErr.Code)
	}
	var liteErr *sqlite.Error
	if errors.As(e.Err, &liteErr) {
		return fmt.Sprintf("sqlite:%d", liteErr.Code())
	}
	return ""
}

// IsError reports whether err came from the storage layer.
func IsError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

const pqUniqueViolation = "23505"

// isUniqueViolation recognises duplicate-key failures of both drivers.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}
