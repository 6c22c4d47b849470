package returnloan

import (
	"github.com/flowinghill/circulation-ledger-go/circulation"
	"github.com/flowinghill/circulation-ledger-go/shared/core"
)

// decision is the mutation plan for one return.
type decision struct {
	loan            circulation.Loan
	assessment      core.FineAssessment
	materializeFine bool
}

// Decide implements the business logic of a return. This is a pure function
// with no side effects - it takes the locked open loan and the command and
// returns the closed loan plus the fine assessment for its lateness.
//
// Business Rules:
//
//	GIVEN: An open loan (status issued or overdue - the handler's locked load
//	       already rejected anything else with ErrLoanNotFound)
//	WHEN: ReturnLoan command is received
//	THEN: The loan becomes returned with today's date, and for a late return
//	      a fine is assessed as days_overdue x rate_per_day
//	WAIVER: WaiveAccruedFine suppresses fine materialization for this return
//
// The amount is a pure function of due date, return date, and rate - it does
// not depend on whether the sweeper flagged the loan first.
func Decide(loan circulation.Loan, command Command, config circulation.Config) decision {
	returnDate := core.DateOf(command.OccurredAt)

	loan.Status = circulation.LoanStatusReturned
	loan.ReturnDate = &returnDate
	loan.ConditionOnReturn = command.Condition

	assessment := core.AssessFine(loan.DueDate, returnDate, config.FinePerDay)

	return decision{
		loan:            loan,
		assessment:      assessment,
		materializeFine: assessment.IsFineDue() && !command.WaiveAccruedFine,
	}
}
