// Package auth holds librarian accounts and turns a username and password
// into a signed API token.
package auth

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already taken")
)

const (
	RoleLibrarian = "librarian"
	RoleAdmin     = "admin"
)

type User struct {
	ID           int64  `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         string `json:"role" db:"role"`
}

// Result is the outcome of Authenticate. Reason is set only when OK is false.
type Result struct {
	OK     bool
	User   User
	Reason string
}

const (
	ReasonUnknownUser   = "user not found"
	ReasonWrongPassword = "incorrect password"
)
