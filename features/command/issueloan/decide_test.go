package issueloan

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowinghill/circulation-ledger-go/circulation"
)

func Test_Decide_Success_WhenAllPreconditionsMet(t *testing.T) {
	// arrange
	s := givenCleanState()
	command := BuildCommand(s.book.ID, s.patron.ID, 14, time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC))

	// act
	loan, err := Decide(s, command, circulation.DefaultConfig())

	// assert
	require.NoError(t, err)
	assert.Equal(t, s.book.ID, loan.BookID)
	assert.Equal(t, s.patron.ID, loan.PatronID)
	assert.Equal(t, circulation.LoanStatusIssued, loan.Status)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), loan.IssueDate)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), loan.DueDate)
}

func Test_Decide_UsesConfiguredDurationWhenPeriodNotGiven(t *testing.T) {
	// arrange
	s := givenCleanState()
	command := BuildCommand(s.book.ID, s.patron.ID, 0, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))

	config := circulation.DefaultConfig()
	config.LoanDurationDays = 21

	// act
	loan, err := Decide(s, command, config)

	// assert
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 22, 0, 0, 0, 0, time.UTC), loan.DueDate)
}

func Test_Decide_BusinessErrors(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name        string
		mutate      func(*state)
		expectedErr error
	}{
		{
			name:        "inactive book",
			mutate:      func(s *state) { s.book.Active = false },
			expectedErr: circulation.ErrBookNotActive,
		},
		{
			name:        "no copies available",
			mutate:      func(s *state) { s.book.AvailableCopies = 0 },
			expectedErr: circulation.ErrNoCopiesAvailable,
		},
		{
			name:        "unknown patron",
			mutate:      func(s *state) { s.patronFound = false },
			expectedErr: circulation.ErrPatronNotFound,
		},
		{
			name:        "inactive patron",
			mutate:      func(s *state) { s.patron.Active = false },
			expectedErr: circulation.ErrPatronNotActive,
		},
		{
			name:        "loan limit reached",
			mutate:      func(s *state) { s.openLoanCount = circulation.DefaultConfig().MaxBooksPerPatron },
			expectedErr: circulation.ErrLoanLimitExceeded,
		},
		{
			name:        "overdue loans block issue",
			mutate:      func(s *state) { s.overdueLoanCount = 1 },
			expectedErr: circulation.ErrHasOverdueLoans,
		},
		{
			name:        "duplicate open loan for pair",
			mutate:      func(s *state) { s.hasOpenLoanPair = true },
			expectedErr: circulation.ErrDuplicateLoan,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			s := givenCleanState()
			tc.mutate(&s)
			command := BuildCommand(s.book.ID, s.patron.ID, 14, now)

			// act
			_, err := Decide(s, command, circulation.DefaultConfig())

			// assert
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func Test_Decide_ChecksAvailabilityBeforePatronState(t *testing.T) {
	// arrange - both violated; the earlier precondition must win
	s := givenCleanState()
	s.book.AvailableCopies = 0
	s.patron.Active = false

	command := BuildCommand(s.book.ID, s.patron.ID, 14, time.Now())

	// act
	_, err := Decide(s, command, circulation.DefaultConfig())

	// assert
	assert.ErrorIs(t, err, circulation.ErrNoCopiesAvailable)
}

func Test_Decide_ChecksBookPreconditionsBeforePatronExistence(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		name        string
		mutate      func(*state)
		expectedErr error
	}{
		{
			name:        "inactive book beats unknown patron",
			mutate:      func(s *state) { s.book.Active = false },
			expectedErr: circulation.ErrBookNotActive,
		},
		{
			name:        "empty shelf beats unknown patron",
			mutate:      func(s *state) { s.book.AvailableCopies = 0 },
			expectedErr: circulation.ErrNoCopiesAvailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange - the patron is unknown on top of the book violation
			s := givenCleanState()
			s.patronFound = false
			s.patron = circulation.Patron{}
			tc.mutate(&s)

			command := BuildCommand(s.book.ID, uuid.New(), 14, now)

			// act
			_, err := Decide(s, command, circulation.DefaultConfig())

			// assert
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func givenCleanState() state {
	return state{
		book: circulation.Book{
			ID:              uuid.New(),
			Title:           "The Go Programming Language",
			TotalCopies:     2,
			AvailableCopies: 2,
			Active:          true,
		},
		patron: circulation.Patron{
			ID:     uuid.New(),
			Name:   "Ada",
			Active: true,
		},
		patronFound: true,
	}
}
