package loan

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"librarydesk/internal/book"
	"librarydesk/internal/platform/database"
)

const loanColumns = `l.id, l.member_id, to_char(l.loan_date, 'YYYY-MM-DD'),
		to_char(l.return_date, 'YYYY-MM-DD'), l.status`

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

func (r *PostgresRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return database.WithPgTx(timeoutCtx, r.db, func(tx pgx.Tx) error {
		return fn(timeoutCtx, &pgTx{tx: tx})
	})
}

func (r *PostgresRepo) List(ctx context.Context, f Filter) ([]Summary, error) {
	const query = `
		SELECT ` + loanColumns + `, m.full_name
		FROM loans l
		JOIN members m ON m.id = l.member_id
		WHERE ($1::text = '' OR l.status = $1::text)
		  AND ($2::bigint = 0 OR l.member_id = $2::bigint)
		ORDER BY l.loan_date DESC, l.id DESC`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, string(f.Status), f.MemberID)
	if err != nil {
		return nil, err
	}
	summaries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Summary, error) {
		var s Summary
		err := row.Scan(&s.ID, &s.MemberID, &s.LoanDate, &s.ReturnDate, &s.Status, &s.MemberName)
		return s, err
	})
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return []Summary{}, nil
	}

	const linesQuery = `
		SELECT ll.loan_id, b.id, b.title
		FROM loan_lines ll
		JOIN books b ON b.id = ll.book_id
		WHERE ll.loan_id = ANY($1)
		ORDER BY ll.id`
	rows, err = r.db.Query(timeoutCtx, linesQuery, loanIDs(summaries))
	if err != nil {
		return nil, err
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (lineBook, error) {
		var lb lineBook
		err := row.Scan(&lb.LoanID, &lb.BookID, &lb.Title)
		return lb, err
	})
	if err != nil {
		return nil, err
	}

	attachBooks(summaries, lines)
	return summaries, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id int64) (Detail, error) {
	const query = `
		SELECT ` + loanColumns + `,
		       m.id, m.full_name, COALESCE(to_char(m.birth_date, 'YYYY-MM-DD'), ''), m.phone, m.email
		FROM loans l
		JOIN members m ON m.id = l.member_id
		WHERE l.id = $1`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var d Detail
	err := r.db.QueryRow(timeoutCtx, query, id).Scan(
		&d.ID, &d.MemberID, &d.LoanDate, &d.ReturnDate, &d.Status,
		&d.Member.ID, &d.Member.FullName, &d.Member.BirthDate, &d.Member.Phone, &d.Member.Email,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Detail{}, ErrNotFound
	}
	if err != nil {
		return Detail{}, err
	}

	const linesQuery = `
		SELECT ll.id, ll.loan_id, ll.book_id, ll.note,
		       b.id, b.title, b.author, b.publisher,
		       COALESCE(to_char(b.edition_date, 'YYYY-MM-DD'), ''), b.language, b.page_count, b.state
		FROM loan_lines ll
		JOIN books b ON b.id = ll.book_id
		WHERE ll.loan_id = $1
		ORDER BY ll.id`
	rows, err := r.db.Query(timeoutCtx, linesQuery, id)
	if err != nil {
		return Detail{}, err
	}
	d.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (LineDetail, error) {
		var ld LineDetail
		err := row.Scan(
			&ld.ID, &ld.LoanID, &ld.BookID, &ld.Note,
			&ld.Book.ID, &ld.Book.Title, &ld.Book.Author, &ld.Book.Publisher,
			&ld.Book.EditionDate, &ld.Book.Language, &ld.Book.PageCount, &ld.Book.State,
		)
		return ld, err
	})
	if err != nil {
		return Detail{}, err
	}
	return d, nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) MemberExists(ctx context.Context, memberID int64) (bool, error) {
	var ok bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM members WHERE id = $1)`, memberID).Scan(&ok)
	return ok, err
}

// LockBook takes a row lock so a concurrent loan on the same book waits and
// then sees it on-loan.
func (t *pgTx) LockBook(ctx context.Context, bookID int64) (book.Book, error) {
	var b book.Book
	err := t.tx.QueryRow(ctx, `SELECT id, title, state FROM books WHERE id = $1 FOR UPDATE`, bookID).
		Scan(&b.ID, &b.Title, &b.State)
	if errors.Is(err, pgx.ErrNoRows) {
		return book.Book{}, book.ErrNotFound
	}
	return b, err
}

func (t *pgTx) SetBookState(ctx context.Context, bookID int64, state book.State) (bool, error) {
	tag, err := t.tx.Exec(ctx, `UPDATE books SET state = $2 WHERE id = $1`, bookID, string(state))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (t *pgTx) InsertLoan(ctx context.Context, l *Loan) error {
	return t.tx.QueryRow(ctx,
		`INSERT INTO loans (member_id, loan_date, return_date, status) VALUES ($1, $2::text::date, $3::text::date, $4) RETURNING id`,
		l.MemberID, l.LoanDate, l.ReturnDate, string(l.Status),
	).Scan(&l.ID)
}

func (t *pgTx) InsertLines(ctx context.Context, lines []Line) error {
	_, err := t.tx.CopyFrom(ctx,
		pgx.Identifier{"loan_lines"},
		[]string{"loan_id", "book_id", "note"},
		pgx.CopyFromSlice(len(lines), func(i int) ([]any, error) {
			return []any{lines[i].LoanID, lines[i].BookID, lines[i].Note}, nil
		}),
	)
	return err
}

func (t *pgTx) LockLoan(ctx context.Context, id int64) (Loan, error) {
	var l Loan
	err := t.tx.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans l WHERE l.id = $1 FOR UPDATE`, id).
		Scan(&l.ID, &l.MemberID, &l.LoanDate, &l.ReturnDate, &l.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return Loan{}, ErrNotFound
	}
	return l, err
}

func (t *pgTx) LineBookIDs(ctx context.Context, loanID int64) ([]int64, error) {
	rows, err := t.tx.Query(ctx, `SELECT book_id FROM loan_lines WHERE loan_id = $1 ORDER BY id`, loanID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (t *pgTx) UpdateLoan(ctx context.Context, l Loan) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE loans SET status = $2, return_date = $3::text::date WHERE id = $1`,
		l.ID, string(l.Status), l.ReturnDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) DeleteLoan(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM loans WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
