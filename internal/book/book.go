package book

import (
	"errors"
	"fmt"

	"librarydesk/internal/platform/apperr"
)

// ErrNotFound is returned when a book is not found.
var ErrNotFound = errors.New("book not found")

// ErrReferenced is returned when a delete would orphan loan lines.
var ErrReferenced = errors.New("book is referenced by loan lines")

// State is where a copy currently is. Only the lending workflow moves a book
// between available and on-loan; under-repair is set by imports.
type State string

const (
	StateAvailable   State = "available"
	StateOnLoan      State = "on-loan"
	StateUnderRepair State = "under-repair"
)

func (s State) Valid() bool {
	switch s {
	case StateAvailable, StateOnLoan, StateUnderRepair:
		return true
	}
	return false
}

// ParseState parses a state filter. The empty string means "any".
func ParseState(raw string) (State, error) {
	s := State(raw)
	if raw == "" || s.Valid() {
		return s, nil
	}
	return "", apperr.Validation("unknown book state %q", raw)
}

// Book represents a book entity.
type Book struct {
	ID          int64  `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Author      string `json:"author" db:"author"`
	Publisher   string `json:"publisher,omitempty" db:"publisher"`
	EditionDate string `json:"edition_date,omitempty" db:"edition_date"` // YYYY-MM-DD
	Language    string `json:"language,omitempty" db:"language"`
	PageCount   *int   `json:"page_count,omitempty" db:"page_count"`
	State       State  `json:"state" db:"state"`
}

// Label renders the book the way loan listings show it.
func (b Book) Label() string {
	return fmt.Sprintf("%s (ID: %d)", b.Title, b.ID)
}

// CanLend reports a conflict unless the book is on the shelf.
func (b Book) CanLend() error {
	if b.State != StateAvailable {
		return apperr.Conflict("book %d is not available for loan, current state: %s", b.ID, b.State)
	}
	return nil
}

// CanDelete reports a conflict unless the book is on the shelf.
func (b Book) CanDelete() error {
	if b.State != StateAvailable {
		return apperr.Conflict("book %d must be in library to delete, current state: %s", b.ID, b.State)
	}
	return nil
}

// Filter narrows List.
type Filter struct {
	State State
}
