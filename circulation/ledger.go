package circulation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session is the transaction-scoped contract every ledger engine implements.
// All methods run inside the transaction opened by WithinTx; the engines
// guarantee that either every mutation in the callback commits or none does.
//
// The ForUpdate variants take a row lock (or the engine's equivalent) so
// concurrent requests mutating the same book or loan serialize instead of
// losing updates.
type Session interface {
	// GetBookForUpdate loads and locks a book row.
	// Returns ErrBookNotFound if no such book exists.
	GetBookForUpdate(ctx context.Context, bookID uuid.UUID) (Book, error)

	// AdjustAvailableCopies moves the available-copies counter by delta,
	// guarded so the result stays within [0, total_copies]. A decrement that
	// would go negative fails with ErrNoCopiesAvailable; an increment that
	// would exceed the total fails closed with ErrInvariantViolation.
	AdjustAvailableCopies(ctx context.Context, bookID uuid.UUID, delta int) error

	// GetPatron loads a patron. Returns ErrPatronNotFound if missing.
	GetPatron(ctx context.Context, patronID uuid.UUID) (Patron, error)

	// CountOpenLoans counts the patron's loans with status issued or overdue.
	CountOpenLoans(ctx context.Context, patronID uuid.UUID) (int, error)

	// CountOverdueLoans counts the patron's loans with status overdue.
	CountOverdueLoans(ctx context.Context, patronID uuid.UUID) (int, error)

	// HasOpenLoan reports whether the (book, patron) pair already has a loan
	// with status issued or overdue.
	HasOpenLoan(ctx context.Context, bookID uuid.UUID, patronID uuid.UUID) (bool, error)

	// GetOpenLoanForUpdate loads and locks a loan that is still open.
	// Returns ErrLoanNotFound if the loan does not exist or is already
	// returned - a second return of the same loan must fail, not double
	// increment the copy counter.
	GetOpenLoanForUpdate(ctx context.Context, loanID uuid.UUID) (Loan, error)

	InsertLoan(ctx context.Context, loan Loan) error
	UpdateLoan(ctx context.Context, loan Loan) error

	// FindFineForLoanForUpdate loads and locks the fine generated by a loan,
	// reporting whether one exists. Used by fine materialization to stay
	// idempotent across repeated sweeper passes.
	FindFineForLoanForUpdate(ctx context.Context, loanID uuid.UUID) (Fine, bool, error)

	// GetFineForUpdate loads and locks a fine row.
	// Returns ErrFineNotFound if no such fine exists.
	GetFineForUpdate(ctx context.Context, fineID uuid.UUID) (Fine, error)

	InsertFine(ctx context.Context, fine Fine) error

	// UpdateFine persists changes to a fine. Engines only apply the update
	// while the stored status is still pending and return ErrAlreadySettled
	// otherwise, so a double-submitted settlement loses cleanly inside its
	// own transaction.
	UpdateFine(ctx context.Context, fine Fine) error

	// AppendFineTransaction appends one immutable entry to the fine journal.
	AppendFineTransaction(ctx context.Context, transaction FineTransaction) error
}

// TxFunc is the unit of work executed within a ledger transaction.
type TxFunc func(ctx context.Context, session Session) error

// Ledger is the top-level contract of a circulation ledger engine:
// transactional units of work plus the read-only queries the surrounding
// admin application lists with.
type Ledger interface {
	// WithinTx runs fn inside a single transaction. If fn returns an error
	// the transaction rolls back completely and the error is returned; no
	// partial state is ever observable.
	WithinTx(ctx context.Context, fn TxFunc) error

	// ListOpenLoans returns loans with status issued or overdue.
	ListOpenLoans(ctx context.Context) ([]Loan, error)

	// ListOverdueLoans returns loans with status overdue.
	ListOverdueLoans(ctx context.Context) ([]Loan, error)

	// ListDueOpenLoans returns loans with status issued whose due date lies
	// strictly before the given time. The sweeper uses this to pick
	// candidates; each candidate is re-checked under lock before mutation.
	ListDueOpenLoans(ctx context.Context, before time.Time) ([]Loan, error)

	// ListPendingFines returns fines with status pending.
	ListPendingFines(ctx context.Context) ([]Fine, error)

	// Summary computes the circulation summary statistics.
	Summary(ctx context.Context) (SummaryStats, error)
}

// SummaryStats is the aggregate view for dashboards and reports.
type SummaryStats struct {
	OpenLoans        int
	OverdueLoans     int
	PendingFines     int
	PendingFineTotal decimal.Decimal
	PaidFineTotal    decimal.Decimal
	WaivedFineTotal  decimal.Decimal
}
