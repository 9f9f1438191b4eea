package member

import (
	"context"
	"errors"
	"fmt"

	"librarydesk/internal/platform/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns members ordered by full name.
func (s *Service) List(ctx context.Context) ([]Member, error) {
	members, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Member{}, apperr.NotFound("member %d not found", id)
	}
	if err != nil {
		return Member{}, fmt.Errorf("get member %d: %w", id, err)
	}
	return m, nil
}
