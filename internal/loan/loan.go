// Package loan implements the lending workflow: checking books out to a
// member, taking them back and clearing old loans, each as one transaction.
package loan

import (
	"errors"

	"librarydesk/internal/book"
	"librarydesk/internal/member"
	"librarydesk/internal/platform/apperr"
)

// DateLayout is the wire and storage format of loan dates.
const DateLayout = "2006-01-02"

var ErrNotFound = errors.New("loan not found")

type Status string

const (
	StatusActive   Status = "active"
	StatusReturned Status = "returned"
	// StatusPartial exists in stored data but no workflow operation produces it.
	StatusPartial Status = "partial"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusReturned, StatusPartial:
		return true
	}
	return false
}

// ParseStatus parses a status filter. The empty string means "any".
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if raw == "" || s.Valid() {
		return s, nil
	}
	return "", apperr.Validation("unknown loan status %q", raw)
}

// Loan is the header row. ReturnDate is set iff Status is returned.
type Loan struct {
	ID         int64   `json:"id" db:"id"`
	MemberID   int64   `json:"member_id" db:"member_id"`
	LoanDate   string  `json:"loan_date" db:"loan_date"`
	ReturnDate *string `json:"return_date" db:"return_date"`
	Status     Status  `json:"status" db:"status"`
}

// IsActive reports whether the books are still out.
func (l Loan) IsActive() bool {
	return l.Status == StatusActive && l.ReturnDate == nil
}

func (l Loan) CanDelete() error {
	if l.Status == StatusActive {
		return apperr.Conflict("cannot delete an active loan")
	}
	return nil
}

// Line is one book within a loan.
type Line struct {
	ID     int64  `json:"id" db:"id"`
	LoanID int64  `json:"loan_id" db:"loan_id"`
	BookID int64  `json:"book_id" db:"book_id"`
	Note   string `json:"note" db:"note"`
}

// Summary is a loan as listed: with the borrower's name and book labels.
type Summary struct {
	Loan
	MemberName string   `json:"member_name" db:"member_name"`
	Books      []string `json:"books" db:"-"`
	IsActive   bool     `json:"is_active" db:"-"`
}

type Detail struct {
	Loan
	Member member.Member `json:"member"`
	Lines  []LineDetail  `json:"lines"`
}

type LineDetail struct {
	Line
	Book book.Book `json:"book"`
}

type Filter struct {
	Status   Status
	MemberID int64
}

// lineBook is one (loan, book) pair used to label summaries.
type lineBook struct {
	LoanID int64  `db:"loan_id"`
	BookID int64  `db:"book_id"`
	Title  string `db:"title"`
}

// attachBooks fills Books and IsActive. lines must be in line order.
func attachBooks(summaries []Summary, lines []lineBook) {
	byLoan := make(map[int64][]string, len(summaries))
	for _, lb := range lines {
		byLoan[lb.LoanID] = append(byLoan[lb.LoanID], book.Book{ID: lb.BookID, Title: lb.Title}.Label())
	}
	for i := range summaries {
		summaries[i].Books = byLoan[summaries[i].ID]
		if summaries[i].Books == nil {
			summaries[i].Books = []string{}
		}
		summaries[i].IsActive = summaries[i].Loan.IsActive()
	}
}

func loanIDs(summaries []Summary) []int64 {
	ids := make([]int64, len(summaries))
	for i, s := range summaries {
		ids[i] = s.ID
	}
	return ids
}
