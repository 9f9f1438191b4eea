package auth

import "context"

type UserRepository interface {
	// Insert stores u and sets u.ID. Returns ErrDuplicateUsername.
	Insert(ctx context.Context, u *User) error
	// GetByUsername returns ErrUserNotFound.
	GetByUsername(ctx context.Context, username string) (User, error)
}
