package returnloan

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

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
// Returns the return outcome plus HandlerResult metadata for observability.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, shell.HandlerResult, error) {
	var result Result

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		returned, execErr := h.executeCommand(retryCtx, command)
		result = returned

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return Result{}, shell.NewHandlerResult(retryMetrics), err
	}

	h.activityLog.Record(ctx, circulation.Activity{
		Actor:    result.Loan.PatronID.String(),
		Action:   circulation.ActionLoanReturned,
		EntityID: result.Loan.ID,
		Summary:  fmt.Sprintf("book %s returned, %d day(s) overdue", result.Loan.BookID, result.DaysOverdue),
	})

	return result, shell.NewHandlerResult(retryMetrics), nil
}

// executeCommand contains the core command processing logic that can be retried.
// The locked load rejects a second return of the same loan with
// ErrLoanNotFound before any mutation, so the copy counter can never be
// incremented twice.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (Result, error) {
	var result Result

	txErr := h.ledger.WithinTx(ctx, func(txCtx context.Context, session circulation.Session) error {
		loan, loadErr := session.GetOpenLoanForUpdate(txCtx, command.LoanID)
		if loadErr != nil {
			return loadErr
		}

		decided := Decide(loan, command, h.config)

		if updateErr := session.UpdateLoan(txCtx, decided.loan); updateErr != nil {
			return updateErr
		}

		if adjustErr := session.AdjustAvailableCopies(txCtx, decided.loan.BookID, +1); adjustErr != nil {
			return adjustErr
		}

		fineAmount := decimal.Zero

		if decided.materializeFine {
			fine, fineErr := shell.MaterializeFine(txCtx, session, decided.loan, decided.assessment, command.OccurredAt)
			if fineErr != nil {
				return fineErr
			}

			fineAmount = fine.Amount
		}

		result = Result{
			Loan:        decided.loan,
			DaysOverdue: decided.assessment.DaysOverdue,
			FineAmount:  fineAmount,
		}

		return nil
	})
	if txErr != nil {
		return Result{}, txErr
	}

	return result, nil
}
