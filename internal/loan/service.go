package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"librarydesk/internal/book"
	"librarydesk/internal/platform/apperr"
)

// Service is the loan workflow engine. It is the only writer of book state.
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now when stamping loan and return dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{repo: repo, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() string {
	return s.now().Format(DateLayout)
}

// CreateLoan checks out bookIDs to memberID and returns the new loan id.
// Books are processed in the given order; the first missing or unavailable
// book aborts the whole loan.
func (s *Service) CreateLoan(ctx context.Context, memberID int64, bookIDs []int64) (int64, error) {
	if len(bookIDs) == 0 {
		return 0, apperr.Validation("must select at least one book")
	}
	seen := make(map[int64]struct{}, len(bookIDs))
	for _, id := range bookIDs {
		if _, dup := seen[id]; dup {
			return 0, apperr.Validation("book %d selected more than once", id)
		}
		seen[id] = struct{}{}
	}

	var loanID int64
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		ok, err := tx.MemberExists(ctx, memberID)
		if err != nil {
			return fmt.Errorf("check member %d: %w", memberID, err)
		}
		if !ok {
			return apperr.NotFound("member %d not found", memberID)
		}

		l := Loan{MemberID: memberID, LoanDate: s.today(), Status: StatusActive}
		if err := tx.InsertLoan(ctx, &l); err != nil {
			return fmt.Errorf("insert loan: %w", err)
		}

		lines := make([]Line, 0, len(bookIDs))
		for _, bookID := range bookIDs {
			b, err := tx.LockBook(ctx, bookID)
			if errors.Is(err, book.ErrNotFound) {
				return apperr.NotFound("book %d not found", bookID)
			}
			if err != nil {
				return fmt.Errorf("load book %d: %w", bookID, err)
			}
			if err := b.CanLend(); err != nil {
				return err
			}
			if _, err := tx.SetBookState(ctx, bookID, book.StateOnLoan); err != nil {
				return fmt.Errorf("lend book %d: %w", bookID, err)
			}
			lines = append(lines, Line{LoanID: l.ID, BookID: bookID})
		}

		if err := tx.InsertLines(ctx, lines); err != nil {
			return fmt.Errorf("insert loan lines: %w", err)
		}
		loanID = l.ID
		return nil
	})
	if err != nil {
		s.logFailure("create loan", err, zap.Int64("member_id", memberID), zap.Int64s("book_ids", bookIDs))
		return 0, err
	}

	s.logger.Info("loan created",
		zap.Int64("loan_id", loanID),
		zap.Int64("member_id", memberID),
		zap.Int("books", len(bookIDs)),
	)
	return loanID, nil
}

// ReturnLoan marks the loan returned today and puts every book back on the
// shelf. Returning an already returned loan moves its return date.
func (s *Service) ReturnLoan(ctx context.Context, loanID int64) error {
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		l, err := tx.LockLoan(ctx, loanID)
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("loan %d not found", loanID)
		}
		if err != nil {
			return fmt.Errorf("load loan %d: %w", loanID, err)
		}
		if l.Status == StatusReturned {
			prev := ""
			if l.ReturnDate != nil {
				prev = *l.ReturnDate
			}
			s.logger.Warn("loan already returned", zap.Int64("loan_id", loanID), zap.String("previous_return_date", prev))
		}

		today := s.today()
		l.Status = StatusReturned
		l.ReturnDate = &today
		if err := tx.UpdateLoan(ctx, l); err != nil {
			return fmt.Errorf("update loan %d: %w", loanID, err)
		}

		bookIDs, err := tx.LineBookIDs(ctx, loanID)
		if err != nil {
			return fmt.Errorf("list lines of loan %d: %w", loanID, err)
		}
		for _, bookID := range bookIDs {
			found, err := tx.SetBookState(ctx, bookID, book.StateAvailable)
			if err != nil {
				return fmt.Errorf("return book %d: %w", bookID, err)
			}
			if !found {
				return apperr.Integrity(
					fmt.Errorf("loan line of loan %d points at missing book %d", loanID, bookID),
					"loan %d references book %d which no longer exists", loanID, bookID)
			}
		}
		return nil
	})
	if err != nil {
		s.logFailure("return loan", err, zap.Int64("loan_id", loanID))
		return err
	}

	s.logger.Info("loan returned", zap.Int64("loan_id", loanID))
	return nil
}

// DeleteLoan removes a loan that is no longer active. Book states are left
// alone.
func (s *Service) DeleteLoan(ctx context.Context, loanID int64) error {
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		l, err := tx.LockLoan(ctx, loanID)
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("loan %d not found", loanID)
		}
		if err != nil {
			return fmt.Errorf("load loan %d: %w", loanID, err)
		}
		if err := l.CanDelete(); err != nil {
			return err
		}

		err = tx.DeleteLoan(ctx, loanID)
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("loan %d not found", loanID)
		}
		if err != nil {
			return fmt.Errorf("delete loan %d: %w", loanID, err)
		}
		return nil
	})
	if err != nil {
		s.logFailure("delete loan", err, zap.Int64("loan_id", loanID))
		return err
	}

	s.logger.Info("loan deleted", zap.Int64("loan_id", loanID))
	return nil
}

// List returns loans newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Summary, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("unknown loan status %q", f.Status)
	}
	loans, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	return loans, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Detail, error) {
	d, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Detail{}, apperr.NotFound("loan %d not found", id)
	}
	if err != nil {
		return Detail{}, fmt.Errorf("get loan %d: %w", id, err)
	}
	return d, nil
}

// logFailure logs a rolled back operation. Integrity errors are tagged so
// operators can alert on them.
func (s *Service) logFailure(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.Error(err))
	switch apperr.KindOf(err) {
	case apperr.KindIntegrity:
		s.logger.Error("loan data integrity violated", append(fields, zap.Bool("integrity", true))...)
	case apperr.KindUnknown:
		s.logger.Error("loan operation failed", fields...)
	default:
		s.logger.Info("loan operation rejected", fields...)
	}
}
