package circulationsummary_test

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
	"github.com/flowinghill/circulation-ledger-go/features/query/circulationsummary"
)

func Test_QueryHandler_AggregatesLoansAndFineTotals(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()

	givenLoan(t, ledger, circulation.LoanStatusIssued)
	givenLoan(t, ledger, circulation.LoanStatusOverdue)
	givenLoan(t, ledger, circulation.LoanStatusReturned)

	givenFine(t, ledger, circulation.FineStatusPending, "3.00")
	givenFine(t, ledger, circulation.FineStatusPending, "1.50")
	givenFine(t, ledger, circulation.FineStatusPaid, "2.50")
	givenFine(t, ledger, circulation.FineStatusWaived, "4.00")

	handler := circulationsummary.NewQueryHandler(ledger)

	// act
	summary, err := handler.Handle(context.Background())

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, summary.OpenLoans)
	assert.Equal(t, 1, summary.OverdueLoans)
	assert.Equal(t, 2, summary.PendingFines)
	assert.True(t, summary.PendingFineTotal.Equal(decimal.RequireFromString("4.50")))
	assert.True(t, summary.PaidFineTotal.Equal(decimal.RequireFromString("2.50")))
	assert.True(t, summary.WaivedFineTotal.Equal(decimal.RequireFromString("4.00")))
}

func Test_QueryHandler_ZeroTotalsOnFreshLedger(t *testing.T) {
	// arrange
	handler := circulationsummary.NewQueryHandler(memoryengine.NewLedger())

	// act
	summary, err := handler.Handle(context.Background())

	// assert
	require.NoError(t, err)
	assert.Equal(t, 0, summary.OpenLoans)
	assert.Equal(t, 0, summary.PendingFines)
	assert.True(t, summary.PendingFineTotal.IsZero())
}

func givenLoan(t *testing.T, ledger *memoryengine.Ledger, status circulation.LoanStatus) {
	t.Helper()

	issueDate := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	loan := circulation.Loan{
		ID:        uuid.New(),
		BookID:    uuid.New(),
		PatronID:  uuid.New(),
		IssueDate: issueDate,
		DueDate:   issueDate.AddDate(0, 0, 14),
		Status:    status,
	}

	if status == circulation.LoanStatusReturned {
		returned := issueDate.AddDate(0, 0, 10)
		loan.ReturnDate = &returned
	}

	err := ledger.WithinTx(context.Background(), func(ctx context.Context, session circulation.Session) error {
		return session.InsertLoan(ctx, loan)
	})
	require.NoError(t, err)
}

func givenFine(t *testing.T, ledger *memoryengine.Ledger, status circulation.FineStatus, amount string) {
	t.Helper()

	calculatedAt := time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC)

	fine := circulation.Fine{
		ID:           uuid.New(),
		LoanID:       uuid.New(),
		PatronID:     uuid.New(),
		Amount:       decimal.RequireFromString(amount),
		DaysOverdue:  6,
		RatePerDay:   decimal.RequireFromString("0.50"),
		Status:       status,
		CalculatedAt: calculatedAt,
	}

	if status != circulation.FineStatusPending {
		settled := calculatedAt.AddDate(0, 0, 1)
		fine.SettledAt = &settled
	}

	err := ledger.WithinTx(context.Background(), func(ctx context.Context, session circulation.Session) error {
		return session.InsertFine(ctx, fine)
	})
	require.NoError(t, err)
}
