// Package pendingfines implements the Pending Fines query: every fine still
// awaiting settlement, oldest first.
package pendingfines

import (
	"context"

	"github.com/flowinghill/circulation-ledger-go/circulation"
)

// Ledger defines the interface needed by the QueryHandler for storage operations.
type Ledger interface {
	ListPendingFines(ctx context.Context) ([]circulation.Fine, error)
}

// QueryHandler lists the pending fines.
type QueryHandler struct {
	ledger Ledger
}

// NewQueryHandler creates a new QueryHandler with the provided Ledger dependency.
func NewQueryHandler(ledger Ledger) QueryHandler {
	return QueryHandler{ledger: ledger}
}

// Handle returns all pending fines.
func (h QueryHandler) Handle(ctx context.Context) ([]circulation.Fine, error) {
	return h.ledger.ListPendingFines(ctx)
}
