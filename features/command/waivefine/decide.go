package waivefine

import (
	"strings"

	"github.com/flowinghill/circulation-ledger-go/circulation"
)

// Decide implements the business logic of waiving a fine. This is a pure
// function with no side effects - it takes the locked fine and the command
// and returns the waived fine or an error.
//
// Business Rules:
//
//	ERROR: ErrEmptyWaiveReason if the reason is empty or whitespace -
//	       rejected before any mutation
//	ERROR: ErrAlreadySettled if the fine is already paid or waived
//
// Waiving and payment are mutually exclusive terminal transitions; once
// either happened the fine is frozen.
func Decide(fine circulation.Fine, command Command) (circulation.Fine, error) {
	if strings.TrimSpace(command.Reason) == "" {
		return circulation.Fine{}, circulation.ErrEmptyWaiveReason
	}

	if fine.Status.IsSettled() {
		return circulation.Fine{}, circulation.ErrAlreadySettled
	}

	settledAt := command.OccurredAt

	fine.Status = circulation.FineStatusWaived
	fine.SettledAt = &settledAt
	fine.SettlementDetail = command.Reason

	return fine, nil
}
