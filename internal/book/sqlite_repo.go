package book

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"

	"librarydesk/internal/platform/database"
)

var dialect = goqu.Dialect("sqlite3")

// selectBooks keeps NULL edition dates out of the string field.
func selectBooks() *goqu.SelectDataset {
	return dialect.From("books").Prepared(true).Select(
		"id", "title", "author", "publisher",
		goqu.COALESCE(goqu.C("edition_date"), "").As("edition_date"),
		"language", "page_count", "state",
	)
}

// SQLiteRepo stores books in SQLite through sqlx. Queries are built with goqu.
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

func (r *SQLiteRepo) List(ctx context.Context, f Filter) ([]Book, error) {
	ds := selectBooks().Order(goqu.C("title").Asc(), goqu.C("id").Asc())
	if f.State != "" {
		ds = ds.Where(goqu.C("state").Eq(string(f.State)))
	}
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	out := []Book{}
	if err := r.db.SelectContext(timeoutCtx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func getBook(ctx context.Context, q sqlx.QueryerContext, id int64) (Book, error) {
	query, args, err := selectBooks().Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return Book{}, err
	}
	var b Book
	err = sqlx.GetContext(ctx, q, &b, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, ErrNotFound
	}
	return b, err
}

func (r *SQLiteRepo) GetByID(ctx context.Context, id int64) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return getBook(timeoutCtx, r.db, id)
}

func (r *SQLiteRepo) Insert(ctx context.Context, b *Book) error {
	if b.State == "" {
		b.State = StateAvailable
	}
	var edition any
	if b.EditionDate != "" {
		edition = b.EditionDate
	}
	query, args, err := dialect.Insert("books").Prepared(true).Rows(goqu.Record{
		"title":        b.Title,
		"author":       b.Author,
		"publisher":    b.Publisher,
		"edition_date": edition,
		"language":     b.Language,
		"page_count":   b.PageCount,
		"state":        string(b.State),
	}).ToSQL()
	if err != nil {
		return err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.db.ExecContext(timeoutCtx, query, args...)
	if err != nil {
		return err
	}
	b.ID, err = res.LastInsertId()
	return err
}

func (r *SQLiteRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return database.WithSQLTx(timeoutCtx, r.db, func(tx *sqlx.Tx) error {
		return fn(timeoutCtx, &sqliteTx{tx: tx})
	})
}

type sqliteTx struct {
	tx *sqlx.Tx
}

// LockByID is a plain read: the single pooled connection already serializes
// transactions.
func (t *sqliteTx) LockByID(ctx context.Context, id int64) (Book, error) {
	return getBook(ctx, t.tx, id)
}

func (t *sqliteTx) Delete(ctx context.Context, id int64) error {
	query, args, err := dialect.Delete("books").Prepared(true).Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx, query, args...)
	if database.IsSQLiteForeignKeyViolation(err) {
		return ErrReferenced
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
