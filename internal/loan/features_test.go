package loan_test

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"librarydesk/internal/loan"
	"librarydesk/internal/platform/apperr"
	"librarydesk/internal/testutil"
)

type lifecycle struct {
	t      *testing.T
	db     *sqlx.DB
	svc    *loan.Service
	today  time.Time
	loanID int64
	err    error
}

func (c *lifecycle) reset() {
	c.db = testutil.NewSQLiteDB(c.t)
	c.svc = loan.NewService(loan.NewSQLiteRepo(c.db, 5*time.Second), zap.NewNop(),
		loan.WithClock(func() time.Time { return c.today }))
	c.today = time.Now()
	c.loanID = 0
	c.err = nil
}

func (c *lifecycle) todayIs(day string) error {
	d, err := time.Parse(loan.DateLayout, day)
	if err != nil {
		return err
	}
	c.today = d
	return nil
}

func (c *lifecycle) aMemberNamed(id int64, name string) error {
	_, err := c.db.Exec(`INSERT INTO members (id, full_name, email) VALUES (?, ?, ?)`,
		id, name, fmt.Sprintf("member%d@example.com", id))
	return err
}

func (c *lifecycle) bookIs(id int64, title, state string) error {
	_, err := c.db.Exec(`INSERT INTO books (id, title, author, state) VALUES (?, ?, 'Anon', ?)`, id, title, state)
	return err
}

func (c *lifecycle) memberBorrowsBooks(memberID int64, list string) error {
	var ids []int64
	for _, raw := range strings.Split(list, ",") {
		if raw = strings.TrimSpace(raw); raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	id, err := c.svc.CreateLoan(context.Background(), memberID, ids)
	if err == nil {
		c.loanID = id
	}
	c.err = err
	return nil
}

func (c *lifecycle) theLoanIsReturned() error {
	c.err = c.svc.ReturnLoan(context.Background(), c.loanID)
	return nil
}

func (c *lifecycle) theLoanIsDeleted() error {
	c.err = c.svc.DeleteLoan(context.Background(), c.loanID)
	return nil
}

func (c *lifecycle) theRequestSucceeds() error {
	if c.err != nil {
		return fmt.Errorf("expected success, got %v", c.err)
	}
	return nil
}

func (c *lifecycle) theRequestFailsWith(kind, message string) error {
	if c.err == nil {
		return fmt.Errorf("expected %s error, got success", kind)
	}
	if got := apperr.KindOf(c.err).String(); got != kind {
		return fmt.Errorf("expected %s error, got %s: %v", kind, got, c.err)
	}
	if got := apperr.Message(c.err); got != message {
		return fmt.Errorf("expected message %q, got %q", message, got)
	}
	return nil
}

func (c *lifecycle) theLoanIs(status string) error {
	d, err := c.svc.Get(context.Background(), c.loanID)
	if err != nil {
		return err
	}
	if string(d.Status) != status {
		return fmt.Errorf("expected loan %d to be %s, got %s", c.loanID, status, d.Status)
	}
	return nil
}

func (c *lifecycle) theLoanIsWithReturnDate(status, day string) error {
	if err := c.theLoanIs(status); err != nil {
		return err
	}
	d, err := c.svc.Get(context.Background(), c.loanID)
	if err != nil {
		return err
	}
	if d.ReturnDate == nil || *d.ReturnDate != day {
		return fmt.Errorf("expected return date %s, got %v", day, d.ReturnDate)
	}
	return nil
}

func (c *lifecycle) bookStateIs(id int64, state string) error {
	var got string
	if err := c.db.Get(&got, `SELECT state FROM books WHERE id = ?`, id); err != nil {
		return err
	}
	if got != state {
		return fmt.Errorf("expected book %d to be %s, got %s", id, state, got)
	}
	return nil
}

func (c *lifecycle) thereAreLoans(n int) error {
	var got int
	if err := c.db.Get(&got, `SELECT COUNT(*) FROM loans`); err != nil {
		return err
	}
	if got != n {
		return fmt.Errorf("expected %d loans, got %d", n, got)
	}
	return nil
}

func initializeScenario(t *testing.T, ctx *godog.ScenarioContext) {
	c := &lifecycle{t: t}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		c.reset()
		return ctx, nil
	})

	ctx.Step(`^today is "([^"]*)"$`, c.todayIs)
	ctx.Step(`^a member (\d+) named "([^"]*)"$`, c.aMemberNamed)
	ctx.Step(`^book (\d+) "([^"]*)" is "([^"]*)"$`, c.bookIs)

	ctx.Step(`^member (\d+) borrows books "([^"]*)"$`, c.memberBorrowsBooks)
	ctx.Step(`^the loan is returned$`, c.theLoanIsReturned)
	ctx.Step(`^the loan is deleted$`, c.theLoanIsDeleted)

	ctx.Step(`^the request succeeds$`, c.theRequestSucceeds)
	ctx.Step(`^the request fails with "([^"]*)" and message "([^"]*)"$`, c.theRequestFailsWith)
	ctx.Step(`^the loan is "([^"]*)"$`, c.theLoanIs)
	ctx.Step(`^the loan is "([^"]*)" with return date "([^"]*)"$`, c.theLoanIsWithReturnDate)
	ctx.Step(`^book (\d+) is "([^"]*)"$`, c.bookStateIs)
	ctx.Step(`^there are (\d+) loans$`, c.thereAreLoans)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: func(sc *godog.ScenarioContext) { initializeScenario(t, sc) },
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
