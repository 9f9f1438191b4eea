package loan

import (
	"context"

	"librarydesk/internal/book"
)

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=loan

// Repository is the loan ledger. Every write goes through WithinTx.
type Repository interface {
	// WithinTx runs fn in one transaction, committed only when fn returns nil.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	List(ctx context.Context, f Filter) ([]Summary, error)
	Get(ctx context.Context, id int64) (Detail, error)
}

// Tx is the explicit transaction handle for one workflow operation.
type Tx interface {
	MemberExists(ctx context.Context, memberID int64) (bool, error)
	// LockBook reads a book and keeps other transactions from changing it
	// until this one ends. Returns book.ErrNotFound.
	LockBook(ctx context.Context, bookID int64) (book.Book, error)
	// SetBookState reports false when no such book exists.
	SetBookState(ctx context.Context, bookID int64, state book.State) (bool, error)
	// InsertLoan stores l and sets l.ID.
	InsertLoan(ctx context.Context, l *Loan) error
	InsertLines(ctx context.Context, lines []Line) error
	// LockLoan returns ErrNotFound.
	LockLoan(ctx context.Context, id int64) (Loan, error)
	LineBookIDs(ctx context.Context, loanID int64) ([]int64, error)
	UpdateLoan(ctx context.Context, l Loan) error
	// DeleteLoan removes the loan and, by cascade, its lines. Returns ErrNotFound.
	DeleteLoan(ctx context.Context, id int64) error
}
