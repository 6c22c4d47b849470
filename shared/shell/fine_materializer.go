package shell

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/flowinghill/circulation-ledger-go/circulation"
	"github.com/flowinghill/circulation-ledger-go/shared/core"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrMarshalingJournalDetail is returned when a fine journal detail payload cannot be serialized.
var ErrMarshalingJournalDetail = errors.New("failed to marshal fine journal detail")

// fineJournalDetail is the serialized payload of creation/recalculation
// journal entries.
type fineJournalDetail struct {
	DaysOverdue int    `json:"days_overdue"`
	RatePerDay  string `json:"rate_per_day"`
	Amount      string `json:"amount"`
}

// MaterializeFine inserts or refreshes the fine row for a loan from an
// assessment, inside the caller's transaction. It is the single
// materialization path shared by the return flow and the sweeper, and it is
// idempotent: repeated passes update the one pending fine in place instead of
// creating duplicates, and a settled fine is never touched.
func MaterializeFine(
	ctx context.Context,
	session circulation.Session,
	loan circulation.Loan,
	assessment core.FineAssessment,
	at time.Time,
) (circulation.Fine, error) {

	existing, found, findErr := session.FindFineForLoanForUpdate(ctx, loan.ID)
	if findErr != nil {
		return circulation.Fine{}, findErr
	}

	if found {
		if existing.Status.IsSettled() {
			return existing, nil
		}

		return refreshPendingFine(ctx, session, existing, assessment, at)
	}

	return createFine(ctx, session, loan, assessment, at)
}

func createFine(
	ctx context.Context,
	session circulation.Session,
	loan circulation.Loan,
	assessment core.FineAssessment,
	at time.Time,
) (circulation.Fine, error) {

	fine := circulation.Fine{
		ID:           uuid.New(),
		LoanID:       loan.ID,
		PatronID:     loan.PatronID,
		Amount:       assessment.Amount,
		DaysOverdue:  assessment.DaysOverdue,
		RatePerDay:   assessment.RatePerDay,
		Status:       circulation.FineStatusPending,
		CalculatedAt: at,
	}

	if insertErr := session.InsertFine(ctx, fine); insertErr != nil {
		return circulation.Fine{}, insertErr
	}

	if journalErr := appendAssessmentJournalEntry(ctx, session, fine, circulation.FineTransactionCreated, at); journalErr != nil {
		return circulation.Fine{}, journalErr
	}

	return fine, nil
}

func refreshPendingFine(
	ctx context.Context,
	session circulation.Session,
	fine circulation.Fine,
	assessment core.FineAssessment,
	at time.Time,
) (circulation.Fine, error) {

	amountUnchanged := fine.Amount.Equal(assessment.Amount) && fine.DaysOverdue == assessment.DaysOverdue
	if amountUnchanged {
		return fine, nil
	}

	fine.Amount = assessment.Amount
	fine.DaysOverdue = assessment.DaysOverdue
	fine.RatePerDay = assessment.RatePerDay
	fine.CalculatedAt = at

	if updateErr := session.UpdateFine(ctx, fine); updateErr != nil {
		return circulation.Fine{}, updateErr
	}

	if journalErr := appendAssessmentJournalEntry(ctx, session, fine, circulation.FineTransactionRecalculated, at); journalErr != nil {
		return circulation.Fine{}, journalErr
	}

	return fine, nil
}

func appendAssessmentJournalEntry(
	ctx context.Context,
	session circulation.Session,
	fine circulation.Fine,
	kind circulation.FineTransactionKind,
	at time.Time,
) error {

	detail, marshalErr := json.Marshal(fineJournalDetail{
		DaysOverdue: fine.DaysOverdue,
		RatePerDay:  fine.RatePerDay.String(),
		Amount:      fine.Amount.String(),
	})
	if marshalErr != nil {
		return errors.Join(ErrMarshalingJournalDetail, marshalErr)
	}

	return session.AppendFineTransaction(ctx, circulation.FineTransaction{
		ID:         uuid.New(),
		FineID:     fine.ID,
		LoanID:     fine.LoanID,
		Kind:       kind,
		Amount:     fine.Amount,
		OccurredAt: at,
		DetailJSON: detail,
	})
}
