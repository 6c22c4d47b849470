package circulation

import (
	"errors"
)

// Not-found errors, one per entity so callers can surface them distinctly.
var (
	ErrBookNotFound   = errors.New("book not found")
	ErrPatronNotFound = errors.New("patron not found")
	ErrLoanNotFound   = errors.New("no open loan found")
	ErrFineNotFound   = errors.New("fine not found")
)

// Precondition errors for issuing a loan, in the order they are checked.
var (
	ErrBookNotActive     = errors.New("book is not active")
	ErrNoCopiesAvailable = errors.New("no copies available")
	ErrPatronNotActive   = errors.New("patron is not active")
	ErrLoanLimitExceeded = errors.New("patron has reached the loan limit")
	ErrHasOverdueLoans   = errors.New("patron has overdue loans")
	ErrDuplicateLoan     = errors.New("patron already has an open loan for this book")
)

// Renewal errors.
var (
	ErrLoanNotRenewable    = errors.New("loan is not renewable")
	ErrRenewalLimitReached = errors.New("loan has reached the renewal limit")
)

// Settlement errors.
var (
	ErrAlreadySettled   = errors.New("fine is already settled")
	ErrEmptyWaiveReason = errors.New("waive reason must not be empty")
)

// ErrInvariantViolation indicates a counter or state inconsistency that must
// never be silently corrected - it points at a bug or external tampering,
// not at user input.
var ErrInvariantViolation = errors.New("invariant violation detected")

// ErrTransientStorageFailure wraps storage-level failures where the operation
// rolled back completely. It is the only error kind a caller may safely
// retry verbatim.
var ErrTransientStorageFailure = errors.New("transient storage failure")

// Engine construction errors.
var (
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
	ErrEmptyTableName        = errors.New("empty table name supplied")
)

// IsRetryable reports whether an error may be retried verbatim by the caller.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientStorageFailure)
}
