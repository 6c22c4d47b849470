package returnloan_test

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
	"github.com/flowinghill/circulation-ledger-go/features/command/returnloan"
)

func Test_CommandHandler_OnTimeReturnRestocksWithoutFine(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	book := givenBook(ledger, 1, 0)
	loan := givenIssuedLoan(t, ledger, book.ID, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 14)
	handler := returnloan.NewCommandHandler(ledger, circulation.DefaultConfig())

	command := returnloan.BuildCommand(loan.ID, "good", false, time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC))

	// act
	result, _, err := handler.Handle(context.Background(), command)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 0, result.DaysOverdue)
	assert.True(t, result.FineAmount.IsZero())
	assert.Equal(t, circulation.LoanStatusReturned, result.Loan.Status)
	assert.Equal(t, "good", result.Loan.ConditionOnReturn)

	stored, ok := ledger.GetBook(book.ID)
	require.True(t, ok)
	assert.Equal(t, 1, stored.AvailableCopies)

	pending, listErr := ledger.ListPendingFines(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, pending)
}

func Test_CommandHandler_LateReturnMaterializesFine(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	book := givenBook(ledger, 1, 0)
	loan := givenIssuedLoan(t, ledger, book.ID, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 14)
	handler := returnloan.NewCommandHandler(ledger, circulation.DefaultConfig())

	// due 2025-03-15, returned 2025-03-21: 6 days late at 0.50/day
	command := returnloan.BuildCommand(loan.ID, "worn", false, time.Date(2025, 3, 21, 11, 0, 0, 0, time.UTC))

	// act
	result, _, err := handler.Handle(context.Background(), command)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 6, result.DaysOverdue)
	assert.True(t, result.FineAmount.Equal(decimal.RequireFromString("3.00")))

	pending, listErr := ledger.ListPendingFines(context.Background())
	require.NoError(t, listErr)
	require.Len(t, pending, 1)
	assert.Equal(t, loan.ID, pending[0].LoanID)
	assert.Equal(t, circulation.FineStatusPending, pending[0].Status)

	journal := ledger.FineJournal()
	require.Len(t, journal, 1)
	assert.Equal(t, circulation.FineTransactionCreated, journal[0].Kind)
}

func Test_CommandHandler_WaiverAtDeskSkipsFine(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	book := givenBook(ledger, 1, 0)
	loan := givenIssuedLoan(t, ledger, book.ID, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 14)
	handler := returnloan.NewCommandHandler(ledger, circulation.DefaultConfig())

	command := returnloan.BuildCommand(loan.ID, "good", true, time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC))

	// act
	result, _, err := handler.Handle(context.Background(), command)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 6, result.DaysOverdue)
	assert.True(t, result.FineAmount.IsZero())

	pending, listErr := ledger.ListPendingFines(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, pending)
}

func Test_CommandHandler_SecondReturnFailsWithoutDoubleRestock(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	book := givenBook(ledger, 1, 0)
	loan := givenIssuedLoan(t, ledger, book.ID, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 14)
	handler := returnloan.NewCommandHandler(ledger, circulation.DefaultConfig())

	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	_, _, firstErr := handler.Handle(context.Background(), returnloan.BuildCommand(loan.ID, "good", false, now))
	require.NoError(t, firstErr)

	// act
	_, _, err := handler.Handle(context.Background(), returnloan.BuildCommand(loan.ID, "good", false, now))

	// assert
	assert.ErrorIs(t, err, circulation.ErrLoanNotFound)

	stored, ok := ledger.GetBook(book.ID)
	require.True(t, ok)
	assert.Equal(t, 1, stored.AvailableCopies)
}

func givenBook(ledger *memoryengine.Ledger, total int, available int) circulation.Book {
	book := circulation.Book{
		ID:              uuid.New(),
		Title:           "The Mythical Man-Month",
		TotalCopies:     total,
		AvailableCopies: available,
		Active:          true,
	}
	ledger.AddBook(book)

	return book
}

func givenIssuedLoan(t *testing.T, ledger *memoryengine.Ledger, bookID uuid.UUID, issueDate time.Time, periodDays int) circulation.Loan {
	t.Helper()

	loan := circulation.Loan{
		ID:        uuid.New(),
		BookID:    bookID,
		PatronID:  uuid.New(),
		IssueDate: issueDate,
		DueDate:   issueDate.AddDate(0, 0, periodDays),
		Status:    circulation.LoanStatusIssued,
	}

	err := ledger.WithinTx(context.Background(), func(ctx context.Context, session circulation.Session) error {
		return session.InsertLoan(ctx, loan)
	})
	require.NoError(t, err)

	return loan
}
