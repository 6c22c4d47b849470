// Package overdueloans implements the Overdue Loans query.
//
// Viewing the overdue list is what triggers the lazy sweep: the handler
// reconciles overdue status first, then lists, so the view never shows a
// loan as issued when the calendar already says otherwise.
package overdueloans

import (
	"context"
	"time"

	"github.com/flowinghill/circulation-ledger-go/circulation"
	"github.com/flowinghill/circulation-ledger-go/features/command/sweepoverdue"
	"github.com/flowinghill/circulation-ledger-go/shared/shell"
)

// Ledger defines the interface needed by the QueryHandler for storage operations.
type Ledger interface {
	ListOverdueLoans(ctx context.Context) ([]circulation.Loan, error)
}

// Sweeper runs the overdue reconciliation pass before the listing.
type Sweeper interface {
	Handle(ctx context.Context, command sweepoverdue.Command) (sweepoverdue.Result, shell.HandlerResult, error)
}

// QueryHandler sweeps and then lists the overdue loans.
type QueryHandler struct {
	ledger  Ledger
	sweeper Sweeper
}

// NewQueryHandler creates a new QueryHandler with the provided dependencies.
func NewQueryHandler(ledger Ledger, sweeper Sweeper) QueryHandler {
	return QueryHandler{ledger: ledger, sweeper: sweeper}
}

// Handle reconciles overdue status as of now and returns the overdue loans.
func (h QueryHandler) Handle(ctx context.Context, now time.Time) ([]circulation.Loan, error) {
	if _, _, sweepErr := h.sweeper.Handle(ctx, sweepoverdue.BuildCommand(now)); sweepErr != nil {
		return nil, sweepErr
	}

	return h.ledger.ListOverdueLoans(ctx)
}
