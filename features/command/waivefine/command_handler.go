package waivefine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/flowinghill/circulation-ledger-go/circulation"
	"github.com/flowinghill/circulation-ledger-go/shared/shell"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrMarshalingWaiverDetail is returned when the waiver journal payload cannot be serialized.
var ErrMarshalingWaiverDetail = errors.New("failed to marshal waiver detail")

// waiverDetail is the serialized payload of the waiver journal entry.
type waiverDetail struct {
	Reason string `json:"reason"`
}

// Ledger defines the interface needed by the CommandHandler for storage operations.
type Ledger interface {
	WithinTx(ctx context.Context, fn circulation.TxFunc) error
}

// CommandHandler orchestrates the complete command processing workflow with
// pure business logic and retry.
type CommandHandler struct {
	ledger       Ledger
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
func NewCommandHandler(ledger Ledger, opts ...Option) CommandHandler {
	handler := CommandHandler{
		ledger:      ledger,
		activityLog: circulation.NoopActivityLogger{},
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the complete command processing workflow with retry logic.
// Returns the waived fine plus HandlerResult metadata for observability.
func (h CommandHandler) Handle(ctx context.Context, command Command) (circulation.Fine, shell.HandlerResult, error) {
	var fine circulation.Fine

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		waived, execErr := h.executeCommand(retryCtx, command)
		fine = waived

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return circulation.Fine{}, shell.NewHandlerResult(retryMetrics), err
	}

	h.activityLog.Record(ctx, circulation.Activity{
		Actor:    fine.PatronID.String(),
		Action:   circulation.ActionFineWaived,
		EntityID: fine.ID,
		Summary:  fmt.Sprintf("fine of %s waived: %s", fine.Amount, command.Reason),
	})

	return fine, shell.NewHandlerResult(retryMetrics), nil
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (circulation.Fine, error) {
	var fine circulation.Fine

	txErr := h.ledger.WithinTx(ctx, func(txCtx context.Context, session circulation.Session) error {
		current, loadErr := session.GetFineForUpdate(txCtx, command.FineID)
		if loadErr != nil {
			return loadErr
		}

		waived, decideErr := Decide(current, command)
		if decideErr != nil {
			return decideErr
		}

		if updateErr := session.UpdateFine(txCtx, waived); updateErr != nil {
			return updateErr
		}

		detail, marshalErr := json.Marshal(waiverDetail{Reason: command.Reason})
		if marshalErr != nil {
			return errors.Join(ErrMarshalingWaiverDetail, marshalErr)
		}

		journalErr := session.AppendFineTransaction(txCtx, circulation.FineTransaction{
			ID:         uuid.New(),
			FineID:     waived.ID,
			LoanID:     waived.LoanID,
			Kind:       circulation.FineTransactionWaived,
			Amount:     waived.Amount,
			OccurredAt: command.OccurredAt,
			DetailJSON: detail,
		})
		if journalErr != nil {
			return journalErr
		}

		fine = waived

		return nil
	})
	if txErr != nil {
		return circulation.Fine{}, txErr
	}

	return fine, nil
}
