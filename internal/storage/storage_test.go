package storage

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/intakebot/core/database"
	"github.com/m3rciful/intakebot/internal/domain"
	"github.com/m3rciful/intakebot/internal/session"
	"github.com/m3rciful/intakebot/migrations"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrations(db, database.DriverSQLite, migrations.FS))
	return db
}

func petrov() domain.User {
	return domain.User{
		ID:        100,
		FullName:  "Петров Иван",
		BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Phone:     "+79991234567",
	}
}

func TestInsertUserIfAbsentIsIdempotent(t *testing.T) {
	ctx := context.Background()
	g := NewSQLGateway(newTestDB(t), nil)

	res, err := g.InsertUserIfAbsent(ctx, petrov())
	require.NoError(t, err)
	assert.Equal(t, Inserted, res)

	again := petrov()
	again.FullName = "Другое Имя"
	res, err = g.InsertUserIfAbsent(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, AlreadyExists, res)

	u, ok, err := g.GetUser(ctx, 100)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Петров Иван", u.FullName)
	assert.Equal(t, "+79991234567", u.Phone)
	assert.Equal(t, "1990-01-01", u.BirthDate.Format(domain.BirthDateLayout))

	n, err := g.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestGetUserMissing(t *testing.T) {
	g := NewSQLGateway(newTestDB(t), nil)
	_, ok, err := g.GetUser(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInsertRequest(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	g := NewSQLGateway(db, nil)
	_, err := g.InsertUserIfAbsent(ctx, petrov())
	require.NoError(t, err)

	first, err := g.InsertRequest(ctx, domain.Request{
		UserID:  100,
		Type:    domain.RequestOffice,
		Options: domain.NewOptionSet(domain.OptionCoffee, domain.OptionIT),
	})
	require.NoError(t, err)
	second, err := g.InsertRequest(ctx, domain.Request{
		UserID:     100,
		Type:       domain.RequestOther,
		Screenshot: "photo-file-id",
		Options:    domain.NewOptionSet(domain.OptionCleaning),
	})
	require.NoError(t, err)
	assert.Greater(t, second, first)

	var row struct {
		Type       string  `db:"request_type"`
		Screenshot *string `db:"screenshot_file_id"`
		Options    string  `db:"options"`
	}
	require.NoError(t, db.Get(&row, `SELECT request_type, screenshot_file_id, options FROM requests WHERE id = ?`, first))
	assert.Equal(t, "🏢 Офис", row.Type)
	assert.Nil(t, row.Screenshot)
	assert.Equal(t, "it, coffee", row.Options)

	n, err := g.CountRequests(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestInsertRequestRejectsEmptyOptions(t *testing.T) {
	g := NewSQLGateway(newTestDB(t), nil)
	_, err := g.InsertRequest(context.Background(), domain.Request{UserID: 1, Type: domain.RequestOffice})
	assert.Error(t, err)

	n, err := g.CountRequests(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	g := NewSQLGateway(newTestDB(t), nil)
	for _, id := range []int64{30, 10, 20} {
		u := petrov()
		u.ID = id
		_, err := g.InsertUserIfAbsent(ctx, u)
		require.NoError(t, err)
	}

	ids, err := g.ListUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20, 30}, ids)

	users, err := g.ListUsers(ctx, []int64{30, 10})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(10), users[0].ID)
	assert.Equal(t, int64(30), users[1].ID)

	users, err = g.ListUsers(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestIsAdmin(t *testing.T) {
	ctx := context.Background()
	g := NewSQLGateway(newTestDB(t), []int64{7})

	ok, err := g.IsAdmin(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.IsAdmin(ctx, 8)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, g.AddAdmin(ctx, 8))
	require.NoError(t, g.AddAdmin(ctx, 8))
	ok, err = g.IsAdmin(ctx, 8)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAdminSeeder(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, AdminSeeder([]int64{1, 2}).Seed(ctx, db))
	require.NoError(t, AdminSeeder([]int64{2}).Seed(ctx, db))

	g := NewSQLGateway(db, nil)
	for _, id := range []int64{1, 2} {
		ok, err := g.IsAdmin(ctx, id)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestDriverErrorsAreWrapped(t *testing.T) {
	db := newTestDB(t)
	g := NewSQLGateway(db, nil)
	require.NoError(t, db.Close())

	_, err := g.CountUsers(context.Background())
	require.Error(t, err)
	assert.True(t, IsError(err))

	_, err = g.InsertUserIfAbsent(context.Background(), petrov())
	assert.True(t, IsError(err))
}

func TestSessionStoreVersioning(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(newTestDB(t))

	s, ok, err := store.Get(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, s.Idle())

	require.NoError(t, store.Set(ctx, 5, session.Session{Stage: "full_name"}))
	assert.ErrorIs(t, store.Set(ctx, 5, session.Session{Stage: "other"}), session.ErrConflict)

	s, ok, err = store.Get(ctx, 5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, session.Stage("full_name"), s.Stage)
	assert.Equal(t, int64(1), s.Version)

	next := s.With("birth_date", session.Fields{"full_name": "Петров Иван"})
	require.NoError(t, store.Set(ctx, 5, next))
	assert.ErrorIs(t, store.Set(ctx, 5, next), session.ErrConflict)

	require.NoError(t, store.Merge(ctx, 5, session.Fields{"birth_date": "01.01.1990"}))

	s, _, err = store.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, session.Stage("birth_date"), s.Stage)
	assert.Equal(t, int64(3), s.Version)
	assert.Equal(t, "Петров Иван", s.Get("full_name"))
	assert.Equal(t, "01.01.1990", s.Get("birth_date"))

	require.NoError(t, store.Clear(ctx, 5))
	_, ok, err = store.Get(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecodeSession(t *testing.T) {
	s, err := decodeSession(`{"stage":"options","fields":{"options":"it, coffee","type":"office"}}`)
	require.NoError(t, err)
	assert.Equal(t, session.Stage("options"), s.Stage)
	assert.Equal(t, session.Fields{"options": "it, coffee", "type": "office"}, s.Fields)

	s, err = decodeSession(`{"stage":"idle","fields":{"stale":"x"}}`)
	require.NoError(t, err)
	assert.True(t, s.Idle())
	assert.Empty(t, s.Fields)

	_, err = decodeSession(`{"stage":`)
	assert.Error(t, err)
}
