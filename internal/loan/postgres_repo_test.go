package loan

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"librarydesk/internal/platform/apperr"
	"librarydesk/internal/testutil"
)

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func pgCount(t *testing.T, pool *pgxpool.Pool, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}

func pgLedger(pool *pgxpool.Pool) ledger {
	return ledger{
		repo: NewPostgresRepo(pool, 5*time.Second),
		member: func(t *testing.T, name, email string) int64 {
			return testutil.PgMember(t, pool, name, email)
		},
		book: func(t *testing.T, title, state string) int64 {
			return testutil.PgBook(t, pool, title, state)
		},
		bookState: func(t *testing.T, id int64) string {
			return testutil.PgBookState(t, pool, id)
		},
		loanCount: func(t *testing.T) int { return pgCount(t, pool, `SELECT COUNT(*) FROM loans`) },
		lineCount: func(t *testing.T) int { return pgCount(t, pool, `SELECT COUNT(*) FROM loan_lines`) },
	}
}

func TestPostgresRepo_Workflow(t *testing.T) {
	testWorkflow(t, func(t *testing.T) ledger {
		return pgLedger(testutil.NewPostgresPool(t))
	})
}

func TestPostgresRepo_ReturnWithMissingBookRollsBack(t *testing.T) {
	pool := testutil.NewPostgresPool(t)
	l := pgLedger(pool)
	svc := NewService(l.repo, zap.NewNop())
	ctx := context.Background()

	m := l.member(t, "Ada Lovelace", "ada@example.com")
	kept := l.book(t, "Dune", "available")
	gone := l.book(t, "Emma", "available")
	id, err := svc.CreateLoan(ctx, m, []int64{kept, gone})
	require.NoError(t, err)

	conn, err := pool.Acquire(ctx)
	require.NoError(t, err)
	// replica role skips foreign key triggers for this session
	_, err = conn.Exec(ctx, `SET session_replication_role = replica`)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, `DELETE FROM books WHERE id = $1`, gone)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, `SET session_replication_role = DEFAULT`)
	require.NoError(t, err)
	conn.Release()

	err = svc.ReturnLoan(ctx, id)
	assert.ErrorIs(t, err, apperr.ErrIntegrity)
	assert.Equal(t, 1, pgCount(t, pool,
		`SELECT COUNT(*) FROM loans WHERE id = $1 AND status = 'active' AND return_date IS NULL`, id))
	assert.Equal(t, "on-loan", l.bookState(t, kept))
}
