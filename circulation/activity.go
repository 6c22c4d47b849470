package circulation

import (
	"context"

	"github.com/google/uuid"
)

// Activity action kinds emitted by the command handlers, one per mutating
// operation.
const (
	ActionLoanIssued       = "loan_issued"
	ActionLoanReturned     = "loan_returned"
	ActionLoanRenewed      = "loan_renewed"
	ActionLoanSweptOverdue = "loan_swept_overdue"
	ActionFinePaid         = "fine_paid"
	ActionFineWaived       = "fine_waived"
)

// Activity is one structured event describing a mutating operation.
// Delivery and formatting are the collaborator's concern, not the core's.
type Activity struct {
	Actor    string
	Action   string
	EntityID uuid.UUID
	Summary  string
}

// ActivityLogger receives one Activity per successful mutating operation.
type ActivityLogger interface {
	Record(ctx context.Context, activity Activity)
}

// NoopActivityLogger discards all activities. Useful for tests and for
// callers that wire their own audit pipeline elsewhere.
type NoopActivityLogger struct{}

// Record implements ActivityLogger and does nothing.
func (NoopActivityLogger) Record(context.Context, Activity) {}
