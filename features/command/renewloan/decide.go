package renewloan

import (
	"github.com/flowinghill/circulation-ledger-go/circulation"
)

// Decide implements the business logic to determine whether a loan may be
// renewed. This is a pure function with no side effects - it takes the
// locked open loan, the command, and the circulation policy, and returns the
// extended loan or the error for the first violated precondition.
//
// Business Rules:
//
//	ERROR: ErrLoanNotRenewable if the loan is overdue by status, or already
//	       past its due date even when the sweeper has not flagged it yet
//	ERROR: ErrRenewalLimitReached if the loan hit the configured renewal cap
//
// A renewal extends the due date and bumps the renewal counter. It never
// touches copy counters - the copy stays with the patron.
func Decide(loan circulation.Loan, command Command, config circulation.Config) (circulation.Loan, error) {
	if loan.Status != circulation.LoanStatusIssued {
		return circulation.Loan{}, circulation.ErrLoanNotRenewable
	}

	if loan.IsPastDueAt(command.OccurredAt) {
		return circulation.Loan{}, circulation.ErrLoanNotRenewable
	}

	if loan.RenewalCount >= config.MaxRenewalCount {
		return circulation.Loan{}, circulation.ErrRenewalLimitReached
	}

	additionalDays := command.AdditionalDays
	if additionalDays <= 0 {
		additionalDays = config.LoanDurationDays
	}

	loan.DueDate = loan.DueDate.AddDate(0, 0, additionalDays)
	loan.RenewalCount++

	return loan, nil
}
