package memoryengine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowinghill/circulation-ledger-go/circulation"
	"github.com/flowinghill/circulation-ledger-go/circulation/memoryengine"
)

func Test_WithinTx_RollsBackAllMutationsOnError(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	book := givenBook(2, 2)
	ledger.AddBook(book)
	errBoom := errors.New("boom")

	// act
	err := ledger.WithinTx(context.Background(), func(ctx context.Context, session circulation.Session) error {
		if adjustErr := session.AdjustAvailableCopies(ctx, book.ID, -1); adjustErr != nil {
			return adjustErr
		}

		if insertErr := session.InsertLoan(ctx, givenLoan(book.ID, uuid.New())); insertErr != nil {
			return insertErr
		}

		return errBoom
	})

	// assert
	assert.ErrorIs(t, err, errBoom)

	stored, ok := ledger.GetBook(book.ID)
	require.True(t, ok)
	assert.Equal(t, 2, stored.AvailableCopies)

	openLoans, listErr := ledger.ListOpenLoans(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, openLoans)
}

func Test_WithinTx_CommitsAllMutationsOnSuccess(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	book := givenBook(2, 2)
	ledger.AddBook(book)
	loan := givenLoan(book.ID, uuid.New())

	// act
	err := ledger.WithinTx(context.Background(), func(ctx context.Context, session circulation.Session) error {
		if adjustErr := session.AdjustAvailableCopies(ctx, book.ID, -1); adjustErr != nil {
			return adjustErr
		}

		return session.InsertLoan(ctx, loan)
	})

	// assert
	require.NoError(t, err)

	stored, ok := ledger.GetBook(book.ID)
	require.True(t, ok)
	assert.Equal(t, 1, stored.AvailableCopies)

	openLoans, listErr := ledger.ListOpenLoans(context.Background())
	require.NoError(t, listErr)
	require.Len(t, openLoans, 1)
	assert.Equal(t, loan.ID, openLoans[0].ID)
}

func Test_AdjustAvailableCopies_FailsWhenDecrementGoesNegative(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	book := givenBook(1, 0)
	ledger.AddBook(book)

	// act
	err := ledger.WithinTx(context.Background(), func(ctx context.Context, session circulation.Session) error {
		return session.AdjustAvailableCopies(ctx, book.ID, -1)
	})

	// assert
	assert.ErrorIs(t, err, circulation.ErrNoCopiesAvailable)
}

func Test_AdjustAvailableCopies_FailsClosedWhenIncrementExceedsTotal(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	book := givenBook(1, 1)
	ledger.AddBook(book)

	// act
	err := ledger.WithinTx(context.Background(), func(ctx context.Context, session circulation.Session) error {
		return session.AdjustAvailableCopies(ctx, book.ID, +1)
	})

	// assert
	assert.ErrorIs(t, err, circulation.ErrInvariantViolation)

	stored, ok := ledger.GetBook(book.ID)
	require.True(t, ok)
	assert.Equal(t, 1, stored.AvailableCopies)
}

func Test_UpdateFine_FailsWhenAlreadySettled(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	fine := givenPendingFine()
	settledAt := time.Now()

	seedErr := ledger.WithinTx(context.Background(), func(ctx context.Context, session circulation.Session) error {
		return session.InsertFine(ctx, fine)
	})
	require.NoError(t, seedErr)

	settleErr := ledger.WithinTx(context.Background(), func(ctx context.Context, session circulation.Session) error {
		fine.Status = circulation.FineStatusPaid
		fine.SettledAt = &settledAt
		return session.UpdateFine(ctx, fine)
	})
	require.NoError(t, settleErr)

	// act
	err := ledger.WithinTx(context.Background(), func(ctx context.Context, session circulation.Session) error {
		fine.Status = circulation.FineStatusWaived
		return session.UpdateFine(ctx, fine)
	})

	// assert
	assert.ErrorIs(t, err, circulation.ErrAlreadySettled)

	stored, ok := ledger.GetFine(fine.ID)
	require.True(t, ok)
	assert.Equal(t, circulation.FineStatusPaid, stored.Status)
}

func Test_GetOpenLoanForUpdate_FailsForReturnedLoan(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	book := givenBook(1, 1)
	ledger.AddBook(book)

	loan := givenLoan(book.ID, uuid.New())
	loan.Status = circulation.LoanStatusReturned

	seedErr := ledger.WithinTx(context.Background(), func(ctx context.Context, session circulation.Session) error {
		return session.InsertLoan(ctx, loan)
	})
	require.NoError(t, seedErr)

	// act
	err := ledger.WithinTx(context.Background(), func(ctx context.Context, session circulation.Session) error {
		_, loadErr := session.GetOpenLoanForUpdate(ctx, loan.ID)
		return loadErr
	})

	// assert
	assert.ErrorIs(t, err, circulation.ErrLoanNotFound)
}

func givenBook(total int, available int) circulation.Book {
	return circulation.Book{
		ID:              uuid.New(),
		Title:           "The Go Programming Language",
		TotalCopies:     total,
		AvailableCopies: available,
		Active:          true,
	}
}

func givenLoan(bookID uuid.UUID, patronID uuid.UUID) circulation.Loan {
	issueDate := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	return circulation.Loan{
		ID:        uuid.New(),
		BookID:    bookID,
		PatronID:  patronID,
		IssueDate: issueDate,
		DueDate:   issueDate.AddDate(0, 0, 14),
		Status:    circulation.LoanStatusIssued,
	}
}

func givenPendingFine() circulation.Fine {
	return circulation.Fine{
		ID:           uuid.New(),
		LoanID:       uuid.New(),
		PatronID:     uuid.New(),
		Amount:       decimal.RequireFromString("3.00"),
		DaysOverdue:  6,
		RatePerDay:   decimal.RequireFromString("0.50"),
		Status:       circulation.FineStatusPending,
		CalculatedAt: time.Now(),
	}
}
