package member

import "context"

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=member

type Repository interface {
	List(ctx context.Context) ([]Member, error)
	GetByID(ctx context.Context, id int64) (Member, error)
	Insert(ctx context.Context, m *Member) error
}
