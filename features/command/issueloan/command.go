package issueloan

import (
	"time"

	"github.com/google/uuid"
)

const (
	commandType = "IssueLoan"
)

// Command represents the intent to issue a book to a patron.
// It encapsulates all the necessary information required to execute the issue loan use case.
type Command struct {
	BookID     uuid.UUID
	PatronID   uuid.UUID
	PeriodDays int
	OccurredAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
// A non-positive periodDays falls back to the configured loan duration.
func BuildCommand(bookID uuid.UUID, patronID uuid.UUID, periodDays int, occurredAt time.Time) Command {
	return Command{
		BookID:     bookID,
		PatronID:   patronID,
		PeriodDays: periodDays,
		OccurredAt: occurredAt,
	}
}
