package renewloan

import (
	"time"

	"github.com/google/uuid"
)

const (
	commandType = "RenewLoan"
)

// Command represents the intent to extend the due date of an open loan.
type Command struct {
	LoanID         uuid.UUID
	AdditionalDays int
	OccurredAt     time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
// A non-positive additionalDays falls back to the configured loan duration.
func BuildCommand(loanID uuid.UUID, additionalDays int, occurredAt time.Time) Command {
	return Command{
		LoanID:         loanID,
		AdditionalDays: additionalDays,
		OccurredAt:     occurredAt,
	}
}
