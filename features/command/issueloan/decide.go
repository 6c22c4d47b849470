package issueloan

import (
	"github.com/flowinghill/circulation-ledger-go/circulation"
	"github.com/flowinghill/circulation-ledger-go/shared/core"
)

// state represents the current facts about the book and patron, loaded under
// lock by the command handler within the transaction. The patron may be
// absent; carrying that as a flag instead of an early load error keeps the
// full precondition ordering inside Decide.
type state struct {
	book             circulation.Book
	patron           circulation.Patron
	patronFound      bool
	openLoanCount    int
	overdueLoanCount int
	hasOpenLoanPair  bool
}

// Decide implements the business logic to determine whether a loan should be
// issued. This is a pure function with no side effects - it takes the loaded
// state, the command, and the circulation policy, and returns the loan to
// insert or the distinct error for the first violated precondition.
//
// Business Rules, checked in order:
//
//	ERROR: ErrBookNotActive if the book is retired from circulation
//	ERROR: ErrNoCopiesAvailable if no copy is on the shelf
//	ERROR: ErrPatronNotFound if no such patron is registered
//	ERROR: ErrPatronNotActive if the patron's membership is inactive
//	ERROR: ErrLoanLimitExceeded if the patron holds the configured maximum of open loans
//	ERROR: ErrHasOverdueLoans if the patron holds any overdue loan (hard gate)
//	ERROR: ErrDuplicateLoan if this (book, patron) pair already has an open loan
func Decide(s state, command Command, config circulation.Config) (circulation.Loan, error) {
	if !s.book.Active {
		return circulation.Loan{}, circulation.ErrBookNotActive
	}

	if s.book.AvailableCopies <= 0 {
		return circulation.Loan{}, circulation.ErrNoCopiesAvailable
	}

	if !s.patronFound {
		return circulation.Loan{}, circulation.ErrPatronNotFound
	}

	if !s.patron.Active {
		return circulation.Loan{}, circulation.ErrPatronNotActive
	}

	if s.openLoanCount >= config.MaxBooksPerPatron {
		return circulation.Loan{}, circulation.ErrLoanLimitExceeded
	}

	if s.overdueLoanCount > 0 {
		return circulation.Loan{}, circulation.ErrHasOverdueLoans
	}

	if s.hasOpenLoanPair {
		return circulation.Loan{}, circulation.ErrDuplicateLoan
	}

	return buildLoan(command, config), nil
}

// buildLoan assembles the loan row with normalized calendar dates, so day
// arithmetic on the due date never depends on the request's time of day.
func buildLoan(command Command, config circulation.Config) circulation.Loan {
	periodDays := command.PeriodDays
	if periodDays <= 0 {
		periodDays = config.LoanDurationDays
	}

	issueDate := core.DateOf(command.OccurredAt)

	return circulation.Loan{
		BookID:    command.BookID,
		PatronID:  command.PatronID,
		IssueDate: issueDate,
		DueDate:   issueDate.AddDate(0, 0, periodDays),
		Status:    circulation.LoanStatusIssued,
	}
}
