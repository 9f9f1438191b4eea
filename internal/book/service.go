package book

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"librarydesk/internal/platform/apperr"
)

// Service provides book-related business logic.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new book service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// List returns the catalog ordered by title.
func (s *Service) List(ctx context.Context, f Filter) ([]Book, error) {
	if f.State != "" && !f.State.Valid() {
		return nil, apperr.Validation("unknown book state %q", f.State)
	}
	books, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// Get returns a single book.
func (s *Service) Get(ctx context.Context, id int64) (Book, error) {
	b, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Book{}, apperr.NotFound("book %d not found", id)
	}
	if err != nil {
		return Book{}, fmt.Errorf("get book %d: %w", id, err)
	}
	return b, nil
}

// Delete removes a book that is on the shelf. Books with loan history stay.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		b, err := tx.LockByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("book %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("load book %d: %w", id, err)
		}
		if err := b.CanDelete(); err != nil {
			return err
		}

		err = tx.Delete(ctx, id)
		switch {
		case errors.Is(err, ErrReferenced):
			return apperr.Conflict("book %d is referenced by loan history", id)
		case errors.Is(err, ErrNotFound):
			return apperr.NotFound("book %d not found", id)
		case err != nil:
			return fmt.Errorf("delete book %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("book deleted", zap.Int64("book_id", id))
	return nil
}
