package settlepayment

import (
	"github.com/flowinghill/circulation-ledger-go/circulation"
)

// Decide implements the business logic of settling a fine by payment. This
// is a pure function with no side effects - it takes the locked fine and the
// command and returns the settled fine or an error.
//
// Business Rules:
//
//	ERROR: ErrAlreadySettled if the fine is already paid or waived
//
// Settlement is terminal: the amount freezes the instant the status leaves
// pending, and the storage engines re-check pending on write so a
// double-submitted settlement loses cleanly.
func Decide(fine circulation.Fine, command Command) (circulation.Fine, error) {
	if fine.Status.IsSettled() {
		return circulation.Fine{}, circulation.ErrAlreadySettled
	}

	settledAt := command.OccurredAt

	fine.Status = circulation.FineStatusPaid
	fine.SettledAt = &settledAt
	fine.SettlementDetail = command.Method

	return fine, nil
}
