package renewloan

import (
	"context"
	"fmt"

	"github.com/flowinghill/circulation-ledger-go/circulation"
	"github.com/flowinghill/circulation-ledger-go/shared/shell"
)

// Ledger defines the interface needed by the CommandHandler for storage operations.
type Ledger interface {
	WithinTx(ctx context.Context, fn circulation.TxFunc) error
}

// CommandHandler orchestrates the complete command processing workflow with
// pure business logic and retry.
type CommandHandler struct {
	ledger       Ledger
	config       circulation.Config
	activityLog  circulation.ActivityLogger
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// WithActivityLogger sets the activity log collaborator.
func WithActivityLogger(activityLog circulation.ActivityLogger) Option {
	return func(h *CommandHandler) {
		h.activityLog = activityLog
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(ledger Ledger, config circulation.Config, opts ...Option) CommandHandler {
	handler := CommandHandler{
		ledger:      ledger,
		config:      config,
		activityLog: circulation.NoopActivityLogger{},
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the complete command processing workflow with retry logic.
// Returns the renewed loan plus HandlerResult metadata for observability.
func (h CommandHandler) Handle(ctx context.Context, command Command) (circulation.Loan, shell.HandlerResult, error) {
	var loan circulation.Loan

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		renewed, execErr := h.executeCommand(retryCtx, command)
		loan = renewed

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return circulation.Loan{}, shell.NewHandlerResult(retryMetrics), err
	}

	h.activityLog.Record(ctx, circulation.Activity{
		Actor:    loan.PatronID.String(),
		Action:   circulation.ActionLoanRenewed,
		EntityID: loan.ID,
		Summary:  fmt.Sprintf("loan renewed until %s (renewal %d)", loan.DueDate.Format("2006-01-02"), loan.RenewalCount),
	})

	return loan, shell.NewHandlerResult(retryMetrics), nil
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (circulation.Loan, error) {
	var loan circulation.Loan

	txErr := h.ledger.WithinTx(ctx, func(txCtx context.Context, session circulation.Session) error {
		current, loadErr := session.GetOpenLoanForUpdate(txCtx, command.LoanID)
		if loadErr != nil {
			return loadErr
		}

		renewed, decideErr := Decide(current, command, h.config)
		if decideErr != nil {
			return decideErr
		}

		if updateErr := session.UpdateLoan(txCtx, renewed); updateErr != nil {
			return updateErr
		}

		loan = renewed

		return nil
	})
	if txErr != nil {
		return circulation.Loan{}, txErr
	}

	return loan, nil
}
