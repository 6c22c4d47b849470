package memoryengine

import (
	"context"

	"github.com/google/uuid"

	"github.com/flowinghill/circulation-ledger-go/circulation"
)

// memSession implements circulation.Session against the transaction's working
// copy of the state. The mutex held by WithinTx already serializes sessions,
// so the ForUpdate variants are plain lookups here.
type memSession struct {
	state *state
}

func (s *memSession) GetBookForUpdate(_ context.Context, bookID uuid.UUID) (circulation.Book, error) {
	book, ok := s.state.books[bookID]
	if !ok {
		return circulation.Book{}, circulation.ErrBookNotFound
	}

	return book, nil
}

func (s *memSession) AdjustAvailableCopies(_ context.Context, bookID uuid.UUID, delta int) error {
	book, ok := s.state.books[bookID]
	if !ok {
		return circulation.ErrBookNotFound
	}

	adjusted := book.AvailableCopies + delta

	if adjusted < 0 {
		return circulation.ErrNoCopiesAvailable
	}

	if adjusted > book.TotalCopies {
		return circulation.ErrInvariantViolation
	}

	book.AvailableCopies = adjusted
	s.state.books[bookID] = book

	return nil
}

func (s *memSession) GetPatron(_ context.Context, patronID uuid.UUID) (circulation.Patron, error) {
	patron, ok := s.state.patrons[patronID]
	if !ok {
		return circulation.Patron{}, circulation.ErrPatronNotFound
	}

	return patron, nil
}

func (s *memSession) CountOpenLoans(_ context.Context, patronID uuid.UUID) (int, error) {
	count := 0

	for _, loan := range s.state.loans {
		if loan.PatronID == patronID && loan.Status.IsOpen() {
			count++
		}
	}

	return count, nil
}

func (s *memSession) CountOverdueLoans(_ context.Context, patronID uuid.UUID) (int, error) {
	count := 0

	for _, loan := range s.state.loans {
		if loan.PatronID == patronID && loan.Status == circulation.LoanStatusOverdue {
			count++
		}
	}

	return count, nil
}

func (s *memSession) HasOpenLoan(_ context.Context, bookID uuid.UUID, patronID uuid.UUID) (bool, error) {
	for _, loan := range s.state.loans {
		if loan.BookID == bookID && loan.PatronID == patronID && loan.Status.IsOpen() {
			return true, nil
		}
	}

	return false, nil
}

func (s *memSession) GetOpenLoanForUpdate(_ context.Context, loanID uuid.UUID) (circulation.Loan, error) {
	loan, ok := s.state.loans[loanID]
	if !ok || !loan.Status.IsOpen() {
		return circulation.Loan{}, circulation.ErrLoanNotFound
	}

	return cloneLoan(loan), nil
}

func (s *memSession) InsertLoan(_ context.Context, loan circulation.Loan) error {
	s.state.loans[loan.ID] = cloneLoan(loan)

	return nil
}

func (s *memSession) UpdateLoan(_ context.Context, loan circulation.Loan) error {
	if _, ok := s.state.loans[loan.ID]; !ok {
		return circulation.ErrLoanNotFound
	}

	s.state.loans[loan.ID] = cloneLoan(loan)

	return nil
}

func (s *memSession) FindFineForLoanForUpdate(_ context.Context, loanID uuid.UUID) (circulation.Fine, bool, error) {
	for _, fine := range s.state.fines {
		if fine.LoanID == loanID {
			return cloneFine(fine), true, nil
		}
	}

	return circulation.Fine{}, false, nil
}

func (s *memSession) GetFineForUpdate(_ context.Context, fineID uuid.UUID) (circulation.Fine, error) {
	fine, ok := s.state.fines[fineID]
	if !ok {
		return circulation.Fine{}, circulation.ErrFineNotFound
	}

	return cloneFine(fine), nil
}

func (s *memSession) InsertFine(_ context.Context, fine circulation.Fine) error {
	s.state.fines[fine.ID] = cloneFine(fine)

	return nil
}

func (s *memSession) UpdateFine(_ context.Context, fine circulation.Fine) error {
	stored, ok := s.state.fines[fine.ID]
	if !ok {
		return circulation.ErrFineNotFound
	}

	if stored.Status != circulation.FineStatusPending {
		return circulation.ErrAlreadySettled
	}

	s.state.fines[fine.ID] = cloneFine(fine)

	return nil
}

func (s *memSession) AppendFineTransaction(_ context.Context, transaction circulation.FineTransaction) error {
	s.state.journal = append(s.state.journal, transaction)

	return nil
}

var _ circulation.Session = (*memSession)(nil)
