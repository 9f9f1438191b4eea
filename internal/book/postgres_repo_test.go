package book

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarydesk/internal/platform/apperr"
	"librarydesk/internal/testutil"
)

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func TestPostgresRepo_ListGetInsert(t *testing.T) {
	pool := testutil.NewPostgresPool(t)
	repo := NewPostgresRepo(pool, 2*time.Second)
	ctx := context.Background()

	pages := 320
	b := &Book{Title: "Kindred", Author: "Octavia E. Butler", EditionDate: "1979-06-01", Language: "en", PageCount: &pages}
	require.NoError(t, repo.Insert(ctx, b))
	assert.NotZero(t, b.ID)
	assert.Equal(t, StateAvailable, b.State)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, *b, got)

	list, err := repo.List(ctx, Filter{State: StateOnLoan})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = repo.GetByID(ctx, b.ID+1000)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresRepo_DeleteGate(t *testing.T) {
	pool := testutil.NewPostgresPool(t)
	svc := NewService(NewPostgresRepo(pool, 2*time.Second), nil)
	ctx := context.Background()

	lent := testutil.PgBook(t, pool, "Lent out", "on-loan")
	err := svc.Delete(ctx, lent)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	member := testutil.PgMember(t, pool, "Ada Lovelace", "ada@example.com")
	history := testutil.PgBook(t, pool, "Borrowed once", "available")
	var loanID int64
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO loans (member_id, loan_date, return_date, status) VALUES ($1, '2024-01-02', '2024-01-09', 'returned') RETURNING id`,
		member).Scan(&loanID))
	_, err = pool.Exec(ctx, `INSERT INTO loan_lines (loan_id, book_id) VALUES ($1, $2)`, loanID, history)
	require.NoError(t, err)

	err = svc.Delete(ctx, history)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "available", testutil.PgBookState(t, pool, history))

	shelf := testutil.PgBook(t, pool, "On the shelf", "available")
	require.NoError(t, svc.Delete(ctx, shelf))
	_, err = NewPostgresRepo(pool, time.Second).GetByID(ctx, shelf)
	assert.ErrorIs(t, err, ErrNotFound)
}
