package settlepayment

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

// ErrMarshalingSettlementDetail is returned when the settlement journal payload cannot be serialized.
var ErrMarshalingSettlementDetail = errors.New("failed to marshal settlement detail")

// settlementDetail is the serialized payload of the payment journal entry.
type settlementDetail struct {
	Method string `json:"method"`
	Notes  string `json:"notes,omitempty"`
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
// Returns the settled fine plus HandlerResult metadata for observability.
func (h CommandHandler) Handle(ctx context.Context, command Command) (circulation.Fine, shell.HandlerResult, error) {
	var fine circulation.Fine

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		settled, execErr := h.executeCommand(retryCtx, command)
		fine = settled

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return circulation.Fine{}, shell.NewHandlerResult(retryMetrics), err
	}

	h.activityLog.Record(ctx, circulation.Activity{
		Actor:    fine.PatronID.String(),
		Action:   circulation.ActionFinePaid,
		EntityID: fine.ID,
		Summary:  fmt.Sprintf("fine of %s paid via %s", fine.Amount, command.Method),
	})

	return fine, shell.NewHandlerResult(retryMetrics), nil
}

// executeCommand contains the core command processing logic that can be retried.
// The pending status is re-checked by the engine's guarded update inside the
// same transaction, so two racing settlements cannot both succeed.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (circulation.Fine, error) {
	var fine circulation.Fine

	txErr := h.ledger.WithinTx(ctx, func(txCtx context.Context, session circulation.Session) error {
		current, loadErr := session.GetFineForUpdate(txCtx, command.FineID)
		if loadErr != nil {
			return loadErr
		}

		settled, decideErr := Decide(current, command)
		if decideErr != nil {
			return decideErr
		}

		if updateErr := session.UpdateFine(txCtx, settled); updateErr != nil {
			return updateErr
		}

		detail, marshalErr := json.Marshal(settlementDetail{Method: command.Method, Notes: command.Notes})
		if marshalErr != nil {
			return errors.Join(ErrMarshalingSettlementDetail, marshalErr)
		}

		journalErr := session.AppendFineTransaction(txCtx, circulation.FineTransaction{
			ID:         uuid.New(),
			FineID:     settled.ID,
			LoanID:     settled.LoanID,
			Kind:       circulation.FineTransactionPaid,
			Amount:     settled.Amount,
			OccurredAt: command.OccurredAt,
			DetailJSON: detail,
		})
		if journalErr != nil {
			return journalErr
		}

		fine = settled

		return nil
	})
	if txErr != nil {
		return circulation.Fine{}, txErr
	}

	return fine, nil
}
