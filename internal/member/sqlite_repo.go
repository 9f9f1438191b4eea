package member

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
)

var dialect = goqu.Dialect("sqlite3")

func selectMembers() *goqu.SelectDataset {
	return dialect.From("members").Prepared(true).Select(
		"id", "full_name",
		goqu.COALESCE(goqu.C("birth_date"), "").As("birth_date"),
		"phone", "email",
	)
}

type SQLiteRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewSQLiteRepo(db *sqlx.DB, timeout time.Duration) *SQLiteRepo {
	return &SQLiteRepo{db: db, timeout: timeout}
}

func (r *SQLiteRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *SQLiteRepo) List(ctx context.Context) ([]Member, error) {
	query, args, err := selectMembers().Order(goqu.C("full_name").Asc(), goqu.C("id").Asc()).ToSQL()
	if err != nil {
		return nil, err
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	out := []Member{}
	if err := r.db.SelectContext(timeoutCtx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQLiteRepo) GetByID(ctx context.Context, id int64) (Member, error) {
	query, args, err := selectMembers().Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return Member{}, err
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var m Member
	err = r.db.GetContext(timeoutCtx, &m, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return Member{}, ErrNotFound
	}
	return m, err
}

func (r *SQLiteRepo) Insert(ctx context.Context, m *Member) error {
	var birth any
	if m.BirthDate != "" {
		birth = m.BirthDate
	}
	query, args, err := dialect.Insert("members").Prepared(true).Rows(goqu.Record{
		"full_name":  m.FullName,
		"birth_date": birth,
		"phone":      m.Phone,
		"email":      m.Email,
	}).ToSQL()
	if err != nil {
		return err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.db.ExecContext(timeoutCtx, query, args...)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateEmail
		}
		return err
	}
	m.ID, err = res.LastInsertId()
	return err
}
