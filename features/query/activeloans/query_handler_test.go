package activeloans_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowinghill/circulation-ledger-go/circulation"
	"github.com/flowinghill/circulation-ledger-go/circulation/memoryengine"
	"github.com/flowinghill/circulation-ledger-go/features/query/activeloans"
)

func Test_QueryHandler_ListsOnlyOpenLoansOldestDueFirst(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()

	later := givenLoan(t, ledger, circulation.LoanStatusIssued, time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC))
	earlier := givenLoan(t, ledger, circulation.LoanStatusOverdue, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	givenLoan(t, ledger, circulation.LoanStatusReturned, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC))

	handler := activeloans.NewQueryHandler(ledger)

	// act
	loans, err := handler.Handle(context.Background())

	// assert - the returned loan is gone, the open ones come back due-date order
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, earlier.ID, loans[0].ID)
	assert.Equal(t, later.ID, loans[1].ID)
}

func Test_QueryHandler_EmptyOnFreshLedger(t *testing.T) {
	// arrange
	handler := activeloans.NewQueryHandler(memoryengine.NewLedger())

	// act
	loans, err := handler.Handle(context.Background())

	// assert
	require.NoError(t, err)
	assert.Empty(t, loans)
}

func givenLoan(t *testing.T, ledger *memoryengine.Ledger, status circulation.LoanStatus, dueDate time.Time) circulation.Loan {
	t.Helper()

	loan := circulation.Loan{
		ID:        uuid.New(),
		BookID:    uuid.New(),
		PatronID:  uuid.New(),
		IssueDate: dueDate.AddDate(0, 0, -14),
		DueDate:   dueDate,
		Status:    status,
	}

	if status == circulation.LoanStatusReturned {
		returned := dueDate
		loan.ReturnDate = &returned
	}

	err := ledger.WithinTx(context.Background(), func(ctx context.Context, session circulation.Session) error {
		return session.InsertLoan(ctx, loan)
	})
	require.NoError(t, err)

	return loan
}
