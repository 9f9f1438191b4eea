package loan

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"librarydesk/internal/platform/apperr"
)

// ledger binds the workflow tests to one store. The helpers read and seed
// tables directly, bypassing the repository under test.
type ledger struct {
	repo      Repository
	member    func(t *testing.T, name, email string) int64
	book      func(t *testing.T, title, state string) int64
	bookState func(t *testing.T, id int64) string
	loanCount func(t *testing.T) int
	lineCount func(t *testing.T) int
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(day string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now, _ = time.Parse(DateLayout, day)
}

func newClock() *clock {
	c := &clock{}
	c.Set("2024-03-01")
	return c
}

func testWorkflow(t *testing.T, newLedger func(t *testing.T) ledger) {
	t.Run("create checks out every book", func(t *testing.T) {
		l := newLedger(t)
		svc := NewService(l.repo, zap.NewNop(), WithClock(newClock().Now))
		ctx := context.Background()

		m := l.member(t, "Ada Lovelace", "ada@example.com")
		b1 := l.book(t, "Dune", "available")
		b2 := l.book(t, "Emma", "available")

		id, err := svc.CreateLoan(ctx, m, []int64{b1, b2})
		require.NoError(t, err)

		d, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, StatusActive, d.Status)
		assert.Equal(t, "2024-03-01", d.LoanDate)
		assert.Nil(t, d.ReturnDate)
		assert.Equal(t, "Ada Lovelace", d.Member.FullName)
		require.Len(t, d.Lines, 2)
		assert.Equal(t, b1, d.Lines[0].Book.ID)
		assert.Equal(t, "Emma", d.Lines[1].Book.Title)
		assert.Equal(t, "on-loan", l.bookState(t, b1))
		assert.Equal(t, "on-loan", l.bookState(t, b2))
	})

	t.Run("unavailable book rolls back the whole loan", func(t *testing.T) {
		l := newLedger(t)
		svc := NewService(l.repo, zap.NewNop())
		ctx := context.Background()

		m := l.member(t, "Ada Lovelace", "ada@example.com")
		free := l.book(t, "Dune", "available")
		lent := l.book(t, "Emma", "on-loan")
		repair := l.book(t, "Ulysses", "under-repair")

		_, err := svc.CreateLoan(ctx, m, []int64{free, lent})
		assert.ErrorIs(t, err, apperr.ErrConflict)

		_, err = svc.CreateLoan(ctx, m, []int64{free, repair})
		assert.ErrorIs(t, err, apperr.ErrConflict)

		assert.Equal(t, "available", l.bookState(t, free))
		assert.Equal(t, "on-loan", l.bookState(t, lent))
		assert.Equal(t, "under-repair", l.bookState(t, repair))
		assert.Zero(t, l.loanCount(t))
		assert.Zero(t, l.lineCount(t))
	})

	t.Run("missing book rolls back the whole loan", func(t *testing.T) {
		l := newLedger(t)
		svc := NewService(l.repo, zap.NewNop())
		ctx := context.Background()

		m := l.member(t, "Ada Lovelace", "ada@example.com")
		b1 := l.book(t, "Dune", "available")

		_, err := svc.CreateLoan(ctx, m, []int64{b1, 999})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.Equal(t, "book 999 not found", apperr.Message(err))
		assert.Equal(t, "available", l.bookState(t, b1))
		assert.Zero(t, l.loanCount(t))
	})

	t.Run("unknown member", func(t *testing.T) {
		l := newLedger(t)
		svc := NewService(l.repo, zap.NewNop())
		b1 := l.book(t, "Dune", "available")

		_, err := svc.CreateLoan(context.Background(), 4242, []int64{b1})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.Equal(t, "available", l.bookState(t, b1))
		assert.Zero(t, l.loanCount(t))
	})

	t.Run("return then delete", func(t *testing.T) {
		l := newLedger(t)
		clk := newClock()
		svc := NewService(l.repo, zap.NewNop(), WithClock(clk.Now))
		ctx := context.Background()

		m := l.member(t, "Ada Lovelace", "ada@example.com")
		b1 := l.book(t, "Dune", "available")
		b2 := l.book(t, "Emma", "available")
		id, err := svc.CreateLoan(ctx, m, []int64{b1, b2})
		require.NoError(t, err)

		err = svc.DeleteLoan(ctx, id)
		assert.ErrorIs(t, err, apperr.ErrConflict)
		assert.Equal(t, 1, l.loanCount(t))
		assert.Equal(t, 2, l.lineCount(t))

		clk.Set("2024-03-15")
		require.NoError(t, svc.ReturnLoan(ctx, id))
		d, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, StatusReturned, d.Status)
		require.NotNil(t, d.ReturnDate)
		assert.Equal(t, "2024-03-15", *d.ReturnDate)
		assert.Equal(t, "available", l.bookState(t, b1))
		assert.Equal(t, "available", l.bookState(t, b2))

		clk.Set("2024-03-20")
		require.NoError(t, svc.ReturnLoan(ctx, id))
		d, err = svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "2024-03-20", *d.ReturnDate)

		require.NoError(t, svc.DeleteLoan(ctx, id))
		assert.Zero(t, l.loanCount(t))
		assert.Zero(t, l.lineCount(t))
		assert.Equal(t, "available", l.bookState(t, b1))

		_, err = svc.Get(ctx, id)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.ErrorIs(t, svc.ReturnLoan(ctx, id), apperr.ErrNotFound)
		assert.ErrorIs(t, svc.DeleteLoan(ctx, id), apperr.ErrNotFound)
	})

	t.Run("list is newest first with labels", func(t *testing.T) {
		l := newLedger(t)
		clk := newClock()
		svc := NewService(l.repo, zap.NewNop(), WithClock(clk.Now))
		ctx := context.Background()

		ada := l.member(t, "Ada Lovelace", "ada@example.com")
		alan := l.member(t, "Alan Turing", "alan@example.com")
		dune := l.book(t, "Dune", "available")
		emma := l.book(t, "Emma", "available")
		kim := l.book(t, "Kim", "available")

		first, err := svc.CreateLoan(ctx, ada, []int64{dune})
		require.NoError(t, err)
		require.NoError(t, svc.ReturnLoan(ctx, first))

		clk.Set("2024-03-05")
		second, err := svc.CreateLoan(ctx, alan, []int64{emma, kim})
		require.NoError(t, err)
		third, err := svc.CreateLoan(ctx, ada, []int64{dune})
		require.NoError(t, err)

		all, err := svc.List(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []int64{third, second, first}, []int64{all[0].ID, all[1].ID, all[2].ID})
		assert.Equal(t, "Alan Turing", all[1].MemberName)
		assert.Equal(t, []string{
			"Emma (ID: " + itoa(emma) + ")",
			"Kim (ID: " + itoa(kim) + ")",
		}, all[1].Books)
		assert.True(t, all[1].IsActive)
		assert.False(t, all[2].IsActive)

		active, err := svc.List(ctx, Filter{Status: StatusActive})
		require.NoError(t, err)
		assert.Len(t, active, 2)

		adas, err := svc.List(ctx, Filter{MemberID: ada})
		require.NoError(t, err)
		assert.Len(t, adas, 2)

		none, err := svc.List(ctx, Filter{Status: StatusPartial})
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("concurrent loans of one book", func(t *testing.T) {
		l := newLedger(t)
		svc := NewService(l.repo, zap.NewNop())
		ctx := context.Background()

		m := l.member(t, "Ada Lovelace", "ada@example.com")
		b := l.book(t, "Dune", "available")

		const workers = 4
		errs := make([]error, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = svc.CreateLoan(ctx, m, []int64{b})
			}(i)
		}
		wg.Wait()

		var ok, conflicts int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case apperr.KindOf(err) == apperr.KindConflict:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, workers-1, conflicts)
		assert.Equal(t, 1, l.loanCount(t))
		assert.Equal(t, "on-loan", l.bookState(t, b))
	})
}
