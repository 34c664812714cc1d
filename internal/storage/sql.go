package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/intakebot/core/logger"
	"github.com/m3rciful/intakebot/internal/domain"
)

// SQLGateway implements Gateway on top of sqlx. Queries use '?' placeholders
// rebound for the connected driver.
type SQLGateway struct {
	db     *sqlx.DB
	admins map[int64]struct{}
}

var _ Gateway = (*SQLGateway)(nil)

// NewSQLGateway builds a gateway. staticAdmins are treated as administrators
// without a lookup.
func NewSQLGateway(db *sqlx.DB, staticAdmins []int64) *SQLGateway {
	admins := make(map[int64]struct{}, len(staticAdmins))
	for _, id := range staticAdmins {
		admins[id] = struct{}{}
	}
	return &SQLGateway{db: db, admins: admins}
}

func (g *SQLGateway) q(query string) string {
	return g.db.Rebind(query)
}

func (g *SQLGateway) track(ctx context.Context, op string, start time.Time, err error, attrs ...slog.Attr) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	if level == slog.LevelDebug && !logger.ShouldSampleDebug() {
		return
	}
	base := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		base = append(base, logger.Err(err))
	}
	logger.LogEvent(ctx, logger.Storage, level, op, append(base, attrs...)...)
}

// InsertUserIfAbsent writes the user once. A second attempt for the same id
// reports AlreadyExists instead of an error.
func (g *SQLGateway) InsertUserIfAbsent(ctx context.Context, u domain.User) (res InsertResult, err error) {
	start := time.Now()
	defer func() {
		g.track(ctx, "user.insert", start, err, slog.Int64("user", u.ID), slog.String("outcome", res.String()))
	}()

	out, err := g.db.ExecContext(ctx, g.q(`
		INSERT INTO users (user_id, full_name, birth_date, phone_number)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`),
		u.ID, u.FullName, u.BirthDate.Format(domain.BirthDateLayout), u.Phone,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return AlreadyExists, nil
		}
		return 0, wrap("insert user", err)
	}
	n, err := out.RowsAffected()
	if err != nil {
		return 0, wrap("insert user", err)
	}
	if n == 0 {
		return AlreadyExists, nil
	}
	return Inserted, nil
}

// InsertRequest stores a completed request and returns its generated id.
func (g *SQLGateway) InsertRequest(ctx context.Context, r domain.Request) (id int64, err error) {
	start := time.Now()
	defer func() {
		g.track(ctx, "request.insert", start, err, slog.Int64("request_id", id))
	}()

	if !r.Type.Valid() {
		return 0, fmt.Errorf("insert request: unknown type %q", r.Type)
	}
	if r.Options.Empty() {
		return 0, fmt.Errorf("insert request: empty option set")
	}
	screenshot := sql.NullString{String: r.Screenshot, Valid: r.Screenshot != ""}
	err = g.db.QueryRowxContext(ctx, g.q(`
		INSERT INTO requests (user_id, request_type, screenshot_file_id, options)
		VALUES (?, ?, ?, ?)
		RETURNING id`),
		r.UserID, r.Type.Label(), screenshot, r.Options.Join(),
	).Scan(&id)
	if err != nil {
		return 0, wrap("insert request", err)
	}
	return id, nil
}

// CountUsers returns the number of registered users.
func (g *SQLGateway) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := g.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, wrap("count users", err)
	}
	return n, nil
}

// CountRequests returns the number of stored requests.
func (g *SQLGateway) CountRequests(ctx context.Context) (int64, error) {
	var n int64
	if err := g.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM requests`); err != nil {
		return 0, wrap("count requests", err)
	}
	return n, nil
}

// ListUserIDs returns every registered id in ascending order.
func (g *SQLGateway) ListUserIDs(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	if err := g.db.SelectContext(ctx, &ids, `SELECT user_id FROM users ORDER BY user_id`); err != nil {
		return nil, wrap("list user ids", err)
	}
	return ids, nil
}

// ListUsers returns id and name for the given ids, ordered by id.
func (g *SQLGateway) ListUsers(ctx context.Context, ids []int64) ([]domain.UserSummary, error) {
	if len(ids) == 0 {
		return []domain.UserSummary{}, nil
	}
	query, args, err := sqlx.In(`SELECT user_id, full_name FROM users WHERE user_id IN (?) ORDER BY user_id`, ids)
	if err != nil {
		return nil, wrap("list users", err)
	}
	users := []domain.UserSummary{}
	if err := g.db.SelectContext(ctx, &users, g.q(query), args...); err != nil {
		return nil, wrap("list users", err)
	}
	return users, nil
}

type userRow struct {
	ID        int64  `db:"user_id"`
	FullName  string `db:"full_name"`
	BirthDate string `db:"birth_date"`
	Phone     string `db:"phone_number"`
}

// GetUser loads one user; the bool is false when no such user exists.
func (g *SQLGateway) GetUser(ctx context.Context, id int64) (domain.User, bool, error) {
	var row userRow
	err := g.db.GetContext(ctx, &row, g.q(`
		SELECT user_id, full_name, CAST(birth_date AS TEXT) AS birth_date, phone_number
		FROM users WHERE user_id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, wrap("get user", err)
	}
	birth, err := time.Parse(domain.BirthDateLayout, row.BirthDate)
	if err != nil {
		return domain.User{}, false, wrap("get user", fmt.Errorf("birth date %q: %w", row.BirthDate, err))
	}
	return domain.User{ID: row.ID, FullName: row.FullName, BirthDate: birth, Phone: row.Phone}, true, nil
}

// IsAdmin checks the static list first and the admins table second.
func (g *SQLGateway) IsAdmin(ctx context.Context, id int64) (bool, error) {
	if _, ok := g.admins[id]; ok {
		return true, nil
	}
	var ok bool
	if err := g.db.GetContext(ctx, &ok, g.q(`SELECT EXISTS (SELECT 1 FROM admins WHERE user_id = ?)`), id); err != nil {
		return false, wrap("is admin", err)
	}
	return ok, nil
}

// AddAdmin grants administrator rights; repeated grants are no-ops.
func (g *SQLGateway) AddAdmin(ctx context.Context, id int64) error {
	_, err := g.db.ExecContext(ctx, g.q(`INSERT INTO admins (user_id) VALUES (?) ON CONFLICT (user_id) DO NOTHING`), id)
	return wrap("add admin", err)
}

// Ping reports whether the database answers.
func (g *SQLGateway) Ping(ctx context.Context) error {
	return wrap("ping", g.db.PingContext(ctx))
}
