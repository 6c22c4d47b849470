package waivefine

import (
	"time"

	"github.com/google/uuid"
)

const (
	commandType = "WaiveFine"
)

// Command represents the intent to waive a pending fine.
type Command struct {
	FineID uuid.UUID

	// Reason documents why the fine is forgiven. Must be non-empty.
	Reason string

	OccurredAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(fineID uuid.UUID, reason string, occurredAt time.Time) Command {
	return Command{
		FineID:     fineID,
		Reason:     reason,
		OccurredAt: occurredAt,
	}
}
