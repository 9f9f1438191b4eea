package auth

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

type SQLiteRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewSQLiteRepo(db *sqlx.DB, timeout time.Duration) *SQLiteRepo {
	return &SQLiteRepo{db: db, timeout: timeout}
}

func (r *SQLiteRepo) Insert(ctx context.Context, u *User) error {
	query, args, err := dialect.Insert("users").Prepared(true).Rows(goqu.Record{
		"username":      u.Username,
		"password_hash": u.PasswordHash,
		"role":          u.Role,
	}).ToSQL()
	if err != nil {
		return err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	res, err := r.db.ExecContext(timeoutCtx, query, args...)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateUsername
		}
		return err
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (r *SQLiteRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	query, args, err := dialect.From("users").Prepared(true).
		Select("id", "username", "password_hash", "role").
		Where(goqu.C("username").Eq(username)).ToSQL()
	if err != nil {
		return User{}, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var u User
	err = r.db.GetContext(timeoutCtx, &u, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}
