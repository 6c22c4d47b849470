package sweepoverdue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flowinghill/circulation-ledger-go/circulation"
	"github.com/flowinghill/circulation-ledger-go/shared/shell"
)

// Ledger defines the interface needed by the CommandHandler for storage operations.
type Ledger interface {
	WithinTx(ctx context.Context, fn circulation.TxFunc) error
	ListDueOpenLoans(ctx context.Context, before time.Time) ([]circulation.Loan, error)
}

// CommandHandler orchestrates the complete sweep workflow with pure business
// logic and retry. Each candidate loan is swept in its own short
// transaction, so the pass never holds cross-loan locks and a failure on one
// loan leaves the others committed.
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

// Handle executes the complete sweep with retry logic. The sweep is
// idempotent - a retried or repeated pass re-selects only loans still
// issued and past due, and fine materialization updates pending fines in
// place instead of duplicating them.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, shell.HandlerResult, error) {
	var result Result

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		swept, execErr := h.executeCommand(retryCtx, command)
		result = swept

		return execErr
	}, h.retryOptions...)

	return result, shell.NewHandlerResult(retryMetrics), err
}

// executeCommand selects candidates and sweeps each in its own transaction.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (Result, error) {
	candidates, listErr := h.ledger.ListDueOpenLoans(ctx, command.Now)
	if listErr != nil {
		return Result{}, listErr
	}

	result := Result{Candidates: len(candidates)}

	for _, candidate := range candidates {
		swept, sweepErr := h.sweepLoan(ctx, candidate, command)
		if sweepErr != nil {
			return result, sweepErr
		}

		if swept {
			result.MarkedOverdue++
		}
	}

	return result, nil
}

// sweepLoan re-checks one candidate under lock and applies the transition.
// A candidate that raced a return between selection and lock is skipped, not
// an error - the return already settled the loan's fate.
func (h CommandHandler) sweepLoan(ctx context.Context, candidate circulation.Loan, command Command) (bool, error) {
	var swept bool

	txErr := h.ledger.WithinTx(ctx, func(txCtx context.Context, session circulation.Session) error {
		loan, loadErr := session.GetOpenLoanForUpdate(txCtx, candidate.ID)
		if errors.Is(loadErr, circulation.ErrLoanNotFound) {
			return nil
		}

		if loadErr != nil {
			return loadErr
		}

		decided := Decide(loan, command, h.config)
		if !decided.sweep {
			return nil
		}

		if updateErr := session.UpdateLoan(txCtx, decided.loan); updateErr != nil {
			return updateErr
		}

		if _, fineErr := shell.MaterializeFine(txCtx, session, decided.loan, decided.assessment, command.Now); fineErr != nil {
			return fineErr
		}

		swept = true

		return nil
	})
	if txErr != nil {
		return false, txErr
	}

	if swept {
		h.activityLog.Record(ctx, circulation.Activity{
			Actor:    candidate.PatronID.String(),
			Action:   circulation.ActionLoanSweptOverdue,
			EntityID: candidate.ID,
			Summary:  fmt.Sprintf("loan for book %s marked overdue", candidate.BookID),
		})
	}

	return swept, nil
}
