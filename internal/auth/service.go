package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"librarydesk/internal/platform/apperr"
	"librarydesk/internal/platform/crypto"
)

type Service struct {
	repo   UserRepository
	logger *zap.Logger
}

func NewService(repo UserRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// Authenticate checks a username and password. A failed check is reported in
// the Result, not as an error; the error is reserved for store failures.
func (s *Service) Authenticate(ctx context.Context, username, password string) (Result, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		s.logger.Info("authentication failed", zap.String("username", username), zap.String("reason", ReasonUnknownUser))
		return Result{Reason: ReasonUnknownUser}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("load user %q: %w", username, err)
	}
	if !crypto.VerifyPassword(u.PasswordHash, password) {
		s.logger.Info("authentication failed", zap.String("username", username), zap.String("reason", ReasonWrongPassword))
		return Result{Reason: ReasonWrongPassword}, nil
	}
	return Result{OK: true, User: u}, nil
}

// AddUser provisions a librarian account.
func (s *Service) AddUser(ctx context.Context, username, password, role string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, apperr.Validation("username is required")
	}
	if role == "" {
		role = RoleLibrarian
	}
	if role != RoleLibrarian && role != RoleAdmin {
		return User{}, apperr.Validation("role must be one of: %s, %s", RoleLibrarian, RoleAdmin)
	}
	if err := crypto.ValidatePasswordStrength(password); err != nil {
		return User{}, apperr.Validation("%s", err.Error())
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	u := User{Username: username, PasswordHash: hash, Role: role}
	err = s.repo.Insert(ctx, &u)
	if errors.Is(err, ErrDuplicateUsername) {
		return User{}, apperr.Conflict("username %q is already taken", username)
	}
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	s.logger.Info("user added", zap.Int64("user_id", u.ID), zap.String("role", role))
	return u, nil
}

// IssueToken authenticates and signs a bearer token valid for ttl.
func (s *Service) IssueToken(ctx context.Context, secret, username, password string, ttl time.Duration) (string, error) {
	res, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	if !res.OK {
		return "", apperr.Validation("cannot issue token: %s", res.Reason)
	}
	token, _, err := crypto.GenerateToken(secret, strconv.FormatInt(res.User.ID, 10), res.User.Role, ttl)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	s.logger.Info("token issued", zap.Int64("user_id", res.User.ID), zap.Duration("ttl", ttl))
	return token, nil
}
