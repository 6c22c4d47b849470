// Package activeloans implements the Active Loans query: every loan whose
// status is issued or overdue, oldest due date first.
package activeloans

import (
	"context"

	"github.com/flowinghill/circulation-ledger-go/circulation"
)

// Ledger defines the interface needed by the QueryHandler for storage operations.
type Ledger interface {
	ListOpenLoans(ctx context.Context) ([]circulation.Loan, error)
}

// QueryHandler lists the open loans.
type QueryHandler struct {
	ledger Ledger
}

// NewQueryHandler creates a new QueryHandler with the provided Ledger dependency.
func NewQueryHandler(ledger Ledger) QueryHandler {
	return QueryHandler{ledger: ledger}
}

// Handle returns all open loans.
func (h QueryHandler) Handle(ctx context.Context) ([]circulation.Loan, error) {
	return h.ledger.ListOpenLoans(ctx)
}
