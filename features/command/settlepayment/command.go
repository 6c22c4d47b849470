package settlepayment

import (
	"time"

	"github.com/google/uuid"
)

const (
	commandType = "SettlePayment"
)

// Command represents the intent to settle a pending fine by payment.
type Command struct {
	FineID uuid.UUID

	// Method is how the fine was paid (cash, card, online).
	Method string

	// Notes is optional free text recorded on the settlement journal entry.
	Notes string

	OccurredAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(fineID uuid.UUID, method string, notes string, occurredAt time.Time) Command {
	return Command{
		FineID:     fineID,
		Method:     method,
		Notes:      notes,
		OccurredAt: occurredAt,
	}
}
