// Package circulationsummary implements the Circulation Summary query: the
// aggregate counts and fine totals shown on the admin dashboard.
package circulationsummary

import (
	"context"

	"github.com/flowinghill/circulation-ledger-go/circulation"
)

// Ledger defines the interface needed by the QueryHandler for storage operations.
type Ledger interface {
	Summary(ctx context.Context) (circulation.SummaryStats, error)
}

// QueryHandler computes the circulation summary.
type QueryHandler struct {
	ledger Ledger
}

// NewQueryHandler creates a new QueryHandler with the provided Ledger dependency.
func NewQueryHandler(ledger Ledger) QueryHandler {
	return QueryHandler{ledger: ledger}
}

// Handle returns the circulation summary statistics.
func (h QueryHandler) Handle(ctx context.Context) (circulation.SummaryStats, error) {
	return h.ledger.Summary(ctx)
}
