package returnloan

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flowinghill/circulation-ledger-go/circulation"
)

const (
	commandType = "ReturnLoan"
)

// Command represents the intent to return a loaned book.
// It encapsulates all the necessary information required to execute the return loan use case.
type Command struct {
	LoanID uuid.UUID

	// Condition is the free-text state of the copy as inspected at the desk,
	// recorded on the loan row.
	Condition string

	// WaiveAccruedFine applies admin discretion at the point of return: no
	// fine is materialized for a late return. It does not touch a fine the
	// sweeper already created - that one is waived through its own use case.
	WaiveAccruedFine bool

	OccurredAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID uuid.UUID, condition string, waiveAccruedFine bool, occurredAt time.Time) Command {
	return Command{
		LoanID:           loanID,
		Condition:        condition,
		WaiveAccruedFine: waiveAccruedFine,
		OccurredAt:       occurredAt,
	}
}

// Result reports the outcome of a return: the closed loan, how many days
// late it was, and the resulting fine amount (zero when none was due or the
// accrued fine was waived at the desk).
type Result struct {
	Loan        circulation.Loan
	DaysOverdue int
	FineAmount  decimal.Decimal
}
