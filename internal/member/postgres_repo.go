package member

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const memberColumns = `id, full_name, COALESCE(to_char(birth_date, 'YYYY-MM-DD'), ''), phone, email`

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func scanMember(row pgx.Row) (Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.FullName, &m.BirthDate, &m.Phone, &m.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return Member{}, ErrNotFound
	}
	return m, err
}

func (r *PostgresRepo) List(ctx context.Context) ([]Member, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, `SELECT `+memberColumns+` FROM members ORDER BY full_name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (Member, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanMember(r.db.QueryRow(timeoutCtx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id))
}

func (r *PostgresRepo) Insert(ctx context.Context, m *Member) error {
	const sql = `
		INSERT INTO members (full_name, birth_date, phone, email)
		VALUES ($1, NULLIF($2, '')::date, $3, $4)
		RETURNING id`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, sql, m.FullName, m.BirthDate, m.Phone, m.Email).Scan(&m.ID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	return err
}
