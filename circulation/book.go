package circulation

import (
	"github.com/google/uuid"
)

// Book is the catalog view the circulation core reads. The copy counters are
// mutated only through circulation operations (decrement on issue, increment
// on return), never by fine logic.
//
// Invariant: 0 <= AvailableCopies <= TotalCopies.
type Book struct {
	ID              uuid.UUID
	Title           string
	TotalCopies     int
	AvailableCopies int
	Active          bool
}

// Patron is the directory view the circulation core reads.
type Patron struct {
	ID     uuid.UUID
	Name   string
	Active bool
}
