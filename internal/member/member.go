package member

import "errors"

var ErrNotFound = errors.New("member not found")

// ErrDuplicateEmail is returned by Insert when the email is taken.
var ErrDuplicateEmail = errors.New("member email already registered")

type Member struct {
	ID        int64  `json:"id" db:"id"`
	FullName  string `json:"full_name" db:"full_name"`
	BirthDate string `json:"birth_date,omitempty" db:"birth_date"` // YYYY-MM-DD
	Phone     string `json:"phone,omitempty" db:"phone"`
	Email     string `json:"email" db:"email"`
}
