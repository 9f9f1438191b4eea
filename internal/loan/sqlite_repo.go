package loan

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"

	"librarydesk/internal/book"
	"librarydesk/internal/platform/database"
)

var dialect = goqu.Dialect("sqlite3")

func selectLoans() *goqu.SelectDataset {
	return dialect.From(goqu.T("loans").As("l")).Prepared(true).Select(
		goqu.I("l.id"), goqu.I("l.member_id"), goqu.I("l.loan_date"),
		goqu.I("l.return_date"), goqu.I("l.status"),
	)
}

// nullable turns a nil *string into an untyped nil for the driver.
func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// SQLiteRepo is the loan ledger on SQLite. The database must be opened with
// database.OpenSQLite so that transactions are serialized.
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

func (r *SQLiteRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return database.WithSQLTx(timeoutCtx, r.db, func(tx *sqlx.Tx) error {
		return fn(timeoutCtx, &sqliteTx{tx: tx})
	})
}

func (r *SQLiteRepo) List(ctx context.Context, f Filter) ([]Summary, error) {
	ds := dialect.From(goqu.T("loans").As("l")).Prepared(true).
		Join(goqu.T("members").As("m"), goqu.On(goqu.I("m.id").Eq(goqu.I("l.member_id")))).
		Select(
			goqu.I("l.id"), goqu.I("l.member_id"), goqu.I("l.loan_date"),
			goqu.I("l.return_date"), goqu.I("l.status"),
			goqu.I("m.full_name").As("member_name"),
		).
		Order(goqu.I("l.loan_date").Desc(), goqu.I("l.id").Desc())
	if f.Status != "" {
		ds = ds.Where(goqu.I("l.status").Eq(string(f.Status)))
	}
	if f.MemberID != 0 {
		ds = ds.Where(goqu.I("l.member_id").Eq(f.MemberID))
	}
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	summaries := []Summary{}
	if err := r.db.SelectContext(timeoutCtx, &summaries, query, args...); err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return summaries, nil
	}

	linesQuery, args, err := dialect.From(goqu.T("loan_lines").As("ll")).Prepared(true).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("ll.book_id")))).
		Select(goqu.I("ll.loan_id"), goqu.I("b.id").As("book_id"), goqu.I("b.title")).
		Where(goqu.I("ll.loan_id").In(loanIDs(summaries))).
		Order(goqu.I("ll.id").Asc()).
		ToSQL()
	if err != nil {
		return nil, err
	}
	var lines []lineBook
	if err := r.db.SelectContext(timeoutCtx, &lines, linesQuery, args...); err != nil {
		return nil, err
	}

	attachBooks(summaries, lines)
	return summaries, nil
}

// detailLine is the flat join row behind LineDetail.
type detailLine struct {
	Line
	BookTitle       string     `db:"title"`
	BookAuthor      string     `db:"author"`
	BookPublisher   string     `db:"publisher"`
	BookEditionDate string     `db:"edition_date"`
	BookLanguage    string     `db:"language"`
	BookPageCount   *int       `db:"page_count"`
	BookState       book.State `db:"state"`
}

func (r *SQLiteRepo) Get(ctx context.Context, id int64) (Detail, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var d Detail
	query, args, err := selectLoans().Where(goqu.I("l.id").Eq(id)).ToSQL()
	if err != nil {
		return Detail{}, err
	}
	err = r.db.GetContext(timeoutCtx, &d.Loan, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return Detail{}, ErrNotFound
	}
	if err != nil {
		return Detail{}, err
	}

	query, args, err = dialect.From("members").Prepared(true).Select(
		"id", "full_name",
		goqu.COALESCE(goqu.C("birth_date"), "").As("birth_date"),
		"phone", "email",
	).Where(goqu.C("id").Eq(d.MemberID)).ToSQL()
	if err != nil {
		return Detail{}, err
	}
	if err := r.db.GetContext(timeoutCtx, &d.Member, query, args...); err != nil {
		return Detail{}, err
	}

	query, args, err = dialect.From(goqu.T("loan_lines").As("ll")).Prepared(true).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("ll.book_id")))).
		Select(
			goqu.I("ll.id"), goqu.I("ll.loan_id"), goqu.I("ll.book_id"), goqu.I("ll.note"),
			goqu.I("b.title"), goqu.I("b.author"), goqu.I("b.publisher"),
			goqu.COALESCE(goqu.I("b.edition_date"), "").As("edition_date"),
			goqu.I("b.language"), goqu.I("b.page_count"), goqu.I("b.state"),
		).
		Where(goqu.I("ll.loan_id").Eq(id)).
		Order(goqu.I("ll.id").Asc()).
		ToSQL()
	if err != nil {
		return Detail{}, err
	}
	var rows []detailLine
	if err := r.db.SelectContext(timeoutCtx, &rows, query, args...); err != nil {
		return Detail{}, err
	}

	d.Lines = make([]LineDetail, len(rows))
	for i, row := range rows {
		d.Lines[i] = LineDetail{
			Line: row.Line,
			Book: book.Book{
				ID:          row.BookID,
				Title:       row.BookTitle,
				Author:      row.BookAuthor,
				Publisher:   row.BookPublisher,
				EditionDate: row.BookEditionDate,
				Language:    row.BookLanguage,
				PageCount:   row.BookPageCount,
				State:       row.BookState,
			},
		}
	}
	return d, nil
}

type sqliteTx struct {
	tx *sqlx.Tx
}

func (t *sqliteTx) MemberExists(ctx context.Context, memberID int64) (bool, error) {
	query, args, err := dialect.From("members").Prepared(true).
		Select(goqu.COUNT("*")).Where(goqu.C("id").Eq(memberID)).ToSQL()
	if err != nil {
		return false, err
	}
	var n int
	if err := t.tx.GetContext(ctx, &n, query, args...); err != nil {
		return false, err
	}
	return n > 0, nil
}

// LockBook is a plain read: the single pooled connection already keeps other
// transactions out until this one ends.
func (t *sqliteTx) LockBook(ctx context.Context, bookID int64) (book.Book, error) {
	query, args, err := dialect.From("books").Prepared(true).
		Select("id", "title", "state").Where(goqu.C("id").Eq(bookID)).ToSQL()
	if err != nil {
		return book.Book{}, err
	}
	var b book.Book
	err = t.tx.GetContext(ctx, &b, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return book.Book{}, book.ErrNotFound
	}
	return b, err
}

func (t *sqliteTx) SetBookState(ctx context.Context, bookID int64, state book.State) (bool, error) {
	query, args, err := dialect.Update("books").Prepared(true).
		Set(goqu.Record{"state": string(state)}).Where(goqu.C("id").Eq(bookID)).ToSQL()
	if err != nil {
		return false, err
	}
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (t *sqliteTx) InsertLoan(ctx context.Context, l *Loan) error {
	query, args, err := dialect.Insert("loans").Prepared(true).Rows(goqu.Record{
		"member_id":   l.MemberID,
		"loan_date":   l.LoanDate,
		"return_date": nullable(l.ReturnDate),
		"status":      string(l.Status),
	}).ToSQL()
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	l.ID, err = res.LastInsertId()
	return err
}

func (t *sqliteTx) InsertLines(ctx context.Context, lines []Line) error {
	if len(lines) == 0 {
		return nil
	}
	rows := make([]any, len(lines))
	for i, line := range lines {
		rows[i] = goqu.Record{"loan_id": line.LoanID, "book_id": line.BookID, "note": line.Note}
	}
	query, args, err := dialect.Insert("loan_lines").Prepared(true).Rows(rows...).ToSQL()
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, query, args...)
	return err
}

func (t *sqliteTx) LockLoan(ctx context.Context, id int64) (Loan, error) {
	query, args, err := selectLoans().Where(goqu.I("l.id").Eq(id)).ToSQL()
	if err != nil {
		return Loan{}, err
	}
	var l Loan
	err = t.tx.GetContext(ctx, &l, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return Loan{}, ErrNotFound
	}
	return l, err
}

func (t *sqliteTx) LineBookIDs(ctx context.Context, loanID int64) ([]int64, error) {
	query, args, err := dialect.From("loan_lines").Prepared(true).
		Select("book_id").Where(goqu.C("loan_id").Eq(loanID)).Order(goqu.C("id").Asc()).ToSQL()
	if err != nil {
		return nil, err
	}
	var ids []int64
	if err := t.tx.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, err
	}
	return ids, nil
}

func (t *sqliteTx) UpdateLoan(ctx context.Context, l Loan) error {
	query, args, err := dialect.Update("loans").Prepared(true).Set(goqu.Record{
		"status":      string(l.Status),
		"return_date": nullable(l.ReturnDate),
	}).Where(goqu.C("id").Eq(l.ID)).ToSQL()
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *sqliteTx) DeleteLoan(ctx context.Context, id int64) error {
	query, args, err := dialect.Delete("loans").Prepared(true).Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}
