package issueloan_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowinghill/circulation-ledger-go/circulation"
	"github.com/flowinghill/circulation-ledger-go/circulation/memoryengine"
	"github.com/flowinghill/circulation-ledger-go/features/command/issueloan"
)

func Test_CommandHandler_IssuesLoanAndDecrementsAvailability(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	book := givenBook(ledger, 2, 2)
	patron := givenPatron(ledger)
	handler := issueloan.NewCommandHandler(ledger, circulation.DefaultConfig())

	command := issueloan.BuildCommand(book.ID, patron.ID, 14, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))

	// act
	loan, result, err := handler.Handle(context.Background(), command)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.RetryAttempts)
	assert.Equal(t, circulation.LoanStatusIssued, loan.Status)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), loan.DueDate)

	stored, ok := ledger.GetBook(book.ID)
	require.True(t, ok)
	assert.Equal(t, 1, stored.AvailableCopies)
}

func Test_CommandHandler_FailsWhenBookUnknown(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	patron := givenPatron(ledger)
	handler := issueloan.NewCommandHandler(ledger, circulation.DefaultConfig())

	command := issueloan.BuildCommand(uuid.New(), patron.ID, 14, time.Now())

	// act
	_, _, err := handler.Handle(context.Background(), command)

	// assert
	assert.ErrorIs(t, err, circulation.ErrBookNotFound)
}

func Test_CommandHandler_RejectsSecondLoanOfSameTitle(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	book := givenBook(ledger, 3, 3)
	patron := givenPatron(ledger)
	handler := issueloan.NewCommandHandler(ledger, circulation.DefaultConfig())

	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	_, _, firstErr := handler.Handle(context.Background(), issueloan.BuildCommand(book.ID, patron.ID, 14, now))
	require.NoError(t, firstErr)

	// act
	_, _, err := handler.Handle(context.Background(), issueloan.BuildCommand(book.ID, patron.ID, 14, now))

	// assert
	assert.ErrorIs(t, err, circulation.ErrDuplicateLoan)

	stored, ok := ledger.GetBook(book.ID)
	require.True(t, ok)
	assert.Equal(t, 2, stored.AvailableCopies)
}

func Test_CommandHandler_ReportsBookViolationWhenPatronAlsoUnknown(t *testing.T) {
	// arrange - empty shelf and an unregistered patron at the same time
	ledger := memoryengine.NewLedger()
	book := givenBook(ledger, 1, 0)
	handler := issueloan.NewCommandHandler(ledger, circulation.DefaultConfig())

	command := issueloan.BuildCommand(book.ID, uuid.New(), 14, time.Now())

	// act
	_, _, err := handler.Handle(context.Background(), command)

	// assert - the shelf check comes before any look at the patron
	assert.ErrorIs(t, err, circulation.ErrNoCopiesAvailable)
}

func Test_CommandHandler_ReportsInactiveBookBeforeUnknownPatron(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	book := circulation.Book{
		ID:              uuid.New(),
		Title:           "Withdrawn From Circulation",
		TotalCopies:     1,
		AvailableCopies: 1,
		Active:          false,
	}
	ledger.AddBook(book)

	handler := issueloan.NewCommandHandler(ledger, circulation.DefaultConfig())

	// act
	_, _, err := handler.Handle(context.Background(), issueloan.BuildCommand(book.ID, uuid.New(), 14, time.Now()))

	// assert
	assert.ErrorIs(t, err, circulation.ErrBookNotActive)
}

func Test_CommandHandler_FailsWhenPatronUnknown(t *testing.T) {
	// arrange - the book itself is fine, so the patron check is the one that fires
	ledger := memoryengine.NewLedger()
	book := givenBook(ledger, 1, 1)
	handler := issueloan.NewCommandHandler(ledger, circulation.DefaultConfig())

	// act
	_, _, err := handler.Handle(context.Background(), issueloan.BuildCommand(book.ID, uuid.New(), 14, time.Now()))

	// assert
	assert.ErrorIs(t, err, circulation.ErrPatronNotFound)

	stored, ok := ledger.GetBook(book.ID)
	require.True(t, ok)
	assert.Equal(t, 1, stored.AvailableCopies)
}

func Test_CommandHandler_EnforcesLoanLimitAcrossTitles(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	patron := givenPatron(ledger)

	config := circulation.DefaultConfig()
	config.MaxBooksPerPatron = 2

	handler := issueloan.NewCommandHandler(ledger, config)
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		book := givenBook(ledger, 1, 1)
		_, _, err := handler.Handle(context.Background(), issueloan.BuildCommand(book.ID, patron.ID, 14, now))
		require.NoError(t, err)
	}

	thirdBook := givenBook(ledger, 1, 1)

	// act
	_, _, err := handler.Handle(context.Background(), issueloan.BuildCommand(thirdBook.ID, patron.ID, 14, now))

	// assert
	assert.ErrorIs(t, err, circulation.ErrLoanLimitExceeded)
}

func Test_CommandHandler_ExactlyOneWinsTheLastCopy(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	book := givenBook(ledger, 1, 1)
	handler := issueloan.NewCommandHandler(ledger, circulation.DefaultConfig())

	const contenders = 8
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		errs      []error
		succeeded int
	)

	// act
	for i := 0; i < contenders; i++ {
		patron := givenPatron(ledger)

		wg.Add(1)
		go func(patronID uuid.UUID) {
			defer wg.Done()

			_, _, err := handler.Handle(context.Background(), issueloan.BuildCommand(book.ID, patronID, 14, now))

			mu.Lock()
			defer mu.Unlock()

			if err == nil {
				succeeded++
			} else {
				errs = append(errs, err)
			}
		}(patron.ID)
	}

	wg.Wait()

	// assert
	assert.Equal(t, 1, succeeded)
	require.Len(t, errs, contenders-1)

	for _, err := range errs {
		assert.ErrorIs(t, err, circulation.ErrNoCopiesAvailable)
	}

	stored, ok := ledger.GetBook(book.ID)
	require.True(t, ok)
	assert.Equal(t, 0, stored.AvailableCopies)
}

func givenBook(ledger *memoryengine.Ledger, total int, available int) circulation.Book {
	book := circulation.Book{
		ID:              uuid.New(),
		Title:           "Structure and Interpretation",
		TotalCopies:     total,
		AvailableCopies: available,
		Active:          true,
	}
	ledger.AddBook(book)

	return book
}

func givenPatron(ledger *memoryengine.Ledger) circulation.Patron {
	patron := circulation.Patron{
		ID:     uuid.New(),
		Name:   "Ada",
		Active: true,
	}
	ledger.AddPatron(patron)

	return patron
}
