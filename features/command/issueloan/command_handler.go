package issueloan

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/flowinghill/circulation-ledger-go/circulation"
	"github.com/flowinghill/circulation-ledger-go/shared/shell"
)

// Ledger defines the interface needed by the CommandHandler for storage operations.
type Ledger interface {
	WithinTx(ctx context.Context, fn circulation.TxFunc) error
}

// CommandHandler orchestrates the complete command processing workflow with
// pure business logic and retry. It loads state under lock, delegates the
// decision to the pure Decide function, and applies the mutations in the
// same transaction.
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
// Returns the created loan plus HandlerResult metadata for observability.
//
// Resilience: implements exponential backoff retry for transient storage failures.
func (h CommandHandler) Handle(ctx context.Context, command Command) (circulation.Loan, shell.HandlerResult, error) {
	var loan circulation.Loan

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		issued, execErr := h.executeCommand(retryCtx, command)
		loan = issued

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return circulation.Loan{}, shell.NewHandlerResult(retryMetrics), err
	}

	h.activityLog.Record(ctx, circulation.Activity{
		Actor:    command.PatronID.String(),
		Action:   circulation.ActionLoanIssued,
		EntityID: loan.ID,
		Summary:  fmt.Sprintf("book %s issued until %s", command.BookID, loan.DueDate.Format("2006-01-02")),
	})

	return loan, shell.NewHandlerResult(retryMetrics), nil
}

// executeCommand contains the core command processing logic that can be retried.
// The book row is locked first, so two concurrent issues of the last copy
// serialize and the loser fails its availability check.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (circulation.Loan, error) {
	var loan circulation.Loan

	txErr := h.ledger.WithinTx(ctx, func(txCtx context.Context, session circulation.Session) error {
		s, loadErr := loadState(txCtx, session, command)
		if loadErr != nil {
			return loadErr
		}

		decided, decideErr := Decide(s, command, h.config)
		if decideErr != nil {
			return decideErr
		}

		decided.ID = uuid.New()

		if adjustErr := session.AdjustAvailableCopies(txCtx, command.BookID, -1); adjustErr != nil {
			return adjustErr
		}

		if insertErr := session.InsertLoan(txCtx, decided); insertErr != nil {
			return insertErr
		}

		loan = decided

		return nil
	})
	if txErr != nil {
		return circulation.Loan{}, txErr
	}

	return loan, nil
}

// loadState gathers the facts Decide rules on. A missing patron is recorded
// as a flag rather than returned as an error, so Decide can surface the
// book-level violations first when several preconditions fail at once.
func loadState(ctx context.Context, session circulation.Session, command Command) (state, error) {
	book, bookErr := session.GetBookForUpdate(ctx, command.BookID)
	if bookErr != nil {
		return state{}, bookErr
	}

	patron, patronErr := session.GetPatron(ctx, command.PatronID)
	if patronErr != nil {
		if errors.Is(patronErr, circulation.ErrPatronNotFound) {
			return state{book: book}, nil
		}

		return state{}, patronErr
	}

	openLoanCount, openErr := session.CountOpenLoans(ctx, command.PatronID)
	if openErr != nil {
		return state{}, openErr
	}

	overdueLoanCount, overdueErr := session.CountOverdueLoans(ctx, command.PatronID)
	if overdueErr != nil {
		return state{}, overdueErr
	}

	hasOpenLoanPair, pairErr := session.HasOpenLoan(ctx, command.BookID, command.PatronID)
	if pairErr != nil {
		return state{}, pairErr
	}

	return state{
		book:             book,
		patron:           patron,
		patronFound:      true,
		openLoanCount:    openLoanCount,
		overdueLoanCount: overdueLoanCount,
		hasOpenLoanPair:  hasOpenLoanPair,
	}, nil
}
