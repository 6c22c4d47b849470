package shell_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowinghill/circulation-ledger-go/circulation"
	"github.com/flowinghill/circulation-ledger-go/circulation/memoryengine"
	"github.com/flowinghill/circulation-ledger-go/shared/core"
	"github.com/flowinghill/circulation-ledger-go/shared/shell"
)

func Test_MaterializeFine_CreatesPendingFineWithJournalEntry(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	loan := givenOverdueLoan()
	at := time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC)
	assessment := core.AssessFine(loan.DueDate, at, decimal.RequireFromString("0.50"))

	var fine circulation.Fine

	// act
	err := ledger.WithinTx(context.Background(), func(ctx context.Context, session circulation.Session) error {
		materialized, materializeErr := shell.MaterializeFine(ctx, session, loan, assessment, at)
		fine = materialized
		return materializeErr
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, circulation.FineStatusPending, fine.Status)
	assert.Equal(t, 6, fine.DaysOverdue)
	assert.True(t, fine.Amount.Equal(decimal.RequireFromString("3.00")))

	journal := ledger.FineJournal()
	require.Len(t, journal, 1)
	assert.Equal(t, circulation.FineTransactionCreated, journal[0].Kind)
}

func Test_MaterializeFine_RepeatedAssessmentIsIdempotent(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	loan := givenOverdueLoan()
	at := time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC)
	assessment := core.AssessFine(loan.DueDate, at, decimal.RequireFromString("0.50"))

	materialize := func() (circulation.Fine, error) {
		var fine circulation.Fine
		err := ledger.WithinTx(context.Background(), func(ctx context.Context, session circulation.Session) error {
			materialized, materializeErr := shell.MaterializeFine(ctx, session, loan, assessment, at)
			fine = materialized
			return materializeErr
		})
		return fine, err
	}

	first, firstErr := materialize()
	require.NoError(t, firstErr)

	// act - same assessment again
	second, secondErr := materialize()

	// assert - one fine row, no extra journal noise
	require.NoError(t, secondErr)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.Amount.Equal(second.Amount))
	assert.Len(t, ledger.FineJournal(), 1)
}

func Test_MaterializeFine_RecalculatesGrowingPendingFine(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	loan := givenOverdueLoan()
	rate := decimal.RequireFromString("0.50")

	firstPass := time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC)
	secondPass := time.Date(2025, 3, 25, 0, 0, 0, 0, time.UTC)

	seedErr := ledger.WithinTx(context.Background(), func(ctx context.Context, session circulation.Session) error {
		_, err := shell.MaterializeFine(ctx, session, loan, core.AssessFine(loan.DueDate, firstPass, rate), firstPass)
		return err
	})
	require.NoError(t, seedErr)

	var fine circulation.Fine

	// act
	err := ledger.WithinTx(context.Background(), func(ctx context.Context, session circulation.Session) error {
		materialized, materializeErr := shell.MaterializeFine(ctx, session, loan, core.AssessFine(loan.DueDate, secondPass, rate), secondPass)
		fine = materialized
		return materializeErr
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, 10, fine.DaysOverdue)
	assert.True(t, fine.Amount.Equal(decimal.RequireFromString("5.00")))

	journal := ledger.FineJournal()
	require.Len(t, journal, 2)
	assert.Equal(t, circulation.FineTransactionRecalculated, journal[1].Kind)
}

func Test_MaterializeFine_NeverTouchesSettledFine(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	loan := givenOverdueLoan()
	rate := decimal.RequireFromString("0.50")
	at := time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC)

	var fineID uuid.UUID

	seedErr := ledger.WithinTx(context.Background(), func(ctx context.Context, session circulation.Session) error {
		fine, err := shell.MaterializeFine(ctx, session, loan, core.AssessFine(loan.DueDate, at, rate), at)
		if err != nil {
			return err
		}

		fineID = fine.ID
		fine.Status = circulation.FineStatusPaid
		settledAt := at
		fine.SettledAt = &settledAt

		return session.UpdateFine(ctx, fine)
	})
	require.NoError(t, seedErr)

	later := time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC)

	// act - a later sweep pass reassesses a bigger amount
	err := ledger.WithinTx(context.Background(), func(ctx context.Context, session circulation.Session) error {
		_, materializeErr := shell.MaterializeFine(ctx, session, loan, core.AssessFine(loan.DueDate, later, rate), later)
		return materializeErr
	})

	// assert - the settled amount is frozen
	require.NoError(t, err)

	stored, ok := ledger.GetFine(fineID)
	require.True(t, ok)
	assert.Equal(t, circulation.FineStatusPaid, stored.Status)
	assert.True(t, stored.Amount.Equal(decimal.RequireFromString("3.00")))
}

func givenOverdueLoan() circulation.Loan {
	issueDate := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	return circulation.Loan{
		ID:        uuid.New(),
		BookID:    uuid.New(),
		PatronID:  uuid.New(),
		IssueDate: issueDate,
		DueDate:   issueDate.AddDate(0, 0, 14),
		Status:    circulation.LoanStatusOverdue,
	}
}
