package shell

import (
	"context"

	"github.com/flowinghill/circulation-ledger-go/circulation"
)

// Command represents the contract for all command types.
// The CommandType method enables polymorphic handling and observability instrumentation.
type Command interface {
	CommandType() string
}

// TransactionalLedger is the minimal store capability a command handler
// needs: running a unit of work in one transaction. Feature slices declare
// their own narrowed interfaces on top of this where they need reads too.
type TransactionalLedger interface {
	WithinTx(ctx context.Context, fn circulation.TxFunc) error
}
