package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=book

// Repository defines the contract for book data storage.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Book, error)
	GetByID(ctx context.Context, id int64) (Book, error)
	// Insert stores b and sets b.ID. Used by seeding and imports.
	Insert(ctx context.Context, b *Book) error
	// WithinTx runs fn in one transaction, committed only when fn returns nil.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of book operations available inside a transaction.
type Tx interface {
	// LockByID reads a book and holds it until the transaction ends.
	LockByID(ctx context.Context, id int64) (Book, error)
	Delete(ctx context.Context, id int64) error
}
