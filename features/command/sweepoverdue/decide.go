package sweepoverdue

import (
	"github.com/flowinghill/circulation-ledger-go/circulation"
	"github.com/flowinghill/circulation-ledger-go/shared/core"
)

// decision is the mutation plan for one swept loan.
type decision struct {
	loan       circulation.Loan
	assessment core.FineAssessment
	sweep      bool
}

// Decide implements the business logic of sweeping one candidate loan. This
// is a pure function with no side effects - it re-evaluates the loan as
// loaded under lock, because the loan may have been returned, renewed, or
// already swept between candidate selection and now.
//
// Business Rules:
//
//	SKIP: loan no longer issued (returned or already overdue)
//	SKIP: loan no longer past due (renewed in the meantime)
//	SWEEP: transition issued -> overdue and assess the fine as
//	       days_overdue x rate_per_day
func Decide(loan circulation.Loan, command Command, config circulation.Config) decision {
	if loan.Status != circulation.LoanStatusIssued || !loan.IsPastDueAt(command.Now) {
		return decision{}
	}

	loan.Status = circulation.LoanStatusOverdue

	return decision{
		loan:       loan,
		assessment: core.AssessFine(loan.DueDate, command.Now, config.FinePerDay),
		sweep:      true,
	}
}
