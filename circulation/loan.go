package circulation

import (
	"time"

	"github.com/google/uuid"

	"github.com/flowinghill/circulation-ledger-go/shared/core"
)

// LoanStatus represents the lifecycle state of a loan.
// Transitions: issued -> overdue (time-based, sweeper-driven) -> returned,
// or issued -> returned directly. Returned is terminal.
type LoanStatus string

const (
	LoanStatusIssued   LoanStatus = "issued"
	LoanStatusOverdue  LoanStatus = "overdue"
	LoanStatusReturned LoanStatus = "returned"
)

// IsOpen reports whether the loan still binds a copy of the book,
// i.e. the status is issued or overdue.
func (s LoanStatus) IsOpen() bool {
	return s == LoanStatusIssued || s == LoanStatusOverdue
}

// Loan is one borrowing instance of a book by a patron, from issue to return.
// Copy-level identity is not tracked - only the aggregate available-copies
// count on the book moves when a loan opens or closes.
type Loan struct {
	ID                uuid.UUID
	BookID            uuid.UUID
	PatronID          uuid.UUID
	IssueDate         time.Time
	DueDate           time.Time
	ReturnDate        *time.Time
	Status            LoanStatus
	RenewalCount      int
	ConditionOnReturn string
}

// DaysOverdueAt returns the whole calendar days the loan is past due at the
// given time, never negative. Returning exactly on the due date yields zero.
func (l Loan) DaysOverdueAt(at time.Time) int {
	return core.DaysOverdue(l.DueDate, at)
}

// IsPastDueAt reports whether the due date has passed at the given time
// with no return recorded.
func (l Loan) IsPastDueAt(at time.Time) bool {
	return l.Status.IsOpen() && l.DaysOverdueAt(at) > 0
}
