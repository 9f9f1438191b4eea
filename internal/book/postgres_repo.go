package book

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"librarydesk/internal/platform/database"
)

const bookColumns = `id, title, author, publisher,
		COALESCE(to_char(edition_date, 'YYYY-MM-DD'), ''), language, page_count, state`

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

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Publisher, &b.EditionDate, &b.Language, &b.PageCount, &b.State)
	if errors.Is(err, pgx.ErrNoRows) {
		return Book{}, ErrNotFound
	}
	return b, err
}

func (r *PostgresRepo) List(ctx context.Context, f Filter) ([]Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books`
	var args []any
	if f.State != "" {
		query += ` WHERE state = $1`
		args = append(args, string(f.State))
	}
	query += ` ORDER BY title, id`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanBook(r.db.QueryRow(timeoutCtx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id))
}

func (r *PostgresRepo) Insert(ctx context.Context, b *Book) error {
	if b.State == "" {
		b.State = StateAvailable
	}
	const sql = `
		INSERT INTO books (title, author, publisher, edition_date, language, page_count, state)
		VALUES ($1, $2, $3, NULLIF($4, '')::date, $5, $6, $7)
		RETURNING id`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.QueryRow(timeoutCtx, sql,
		b.Title, b.Author, b.Publisher, b.EditionDate, b.Language, b.PageCount, string(b.State),
	).Scan(&b.ID)
}

func (r *PostgresRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return database.WithPgTx(timeoutCtx, r.db, func(tx pgx.Tx) error {
		return fn(timeoutCtx, &pgTx{tx: tx})
	})
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockByID(ctx context.Context, id int64) (Book, error) {
	return scanBook(t.tx.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1 FOR UPDATE`, id))
}

func (t *pgTx) Delete(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if database.IsPgForeignKeyViolation(err) {
		return ErrReferenced
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
