package memoryengine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flowinghill/circulation-ledger-go/circulation"
)

// state is the complete ledger content. Transactions operate on a deep copy.
type state struct {
	books   map[uuid.UUID]circulation.Book
	patrons map[uuid.UUID]circulation.Patron
	loans   map[uuid.UUID]circulation.Loan
	fines   map[uuid.UUID]circulation.Fine
	journal []circulation.FineTransaction
}

func newState() *state {
	return &state{
		books:   make(map[uuid.UUID]circulation.Book),
		patrons: make(map[uuid.UUID]circulation.Patron),
		loans:   make(map[uuid.UUID]circulation.Loan),
		fines:   make(map[uuid.UUID]circulation.Fine),
	}
}

func (s *state) clone() *state {
	cloned := &state{
		books:   make(map[uuid.UUID]circulation.Book, len(s.books)),
		patrons: make(map[uuid.UUID]circulation.Patron, len(s.patrons)),
		loans:   make(map[uuid.UUID]circulation.Loan, len(s.loans)),
		fines:   make(map[uuid.UUID]circulation.Fine, len(s.fines)),
		journal: make([]circulation.FineTransaction, len(s.journal)),
	}

	for id, book := range s.books {
		cloned.books[id] = book
	}

	for id, patron := range s.patrons {
		cloned.patrons[id] = patron
	}

	for id, loan := range s.loans {
		cloned.loans[id] = cloneLoan(loan)
	}

	for id, fine := range s.fines {
		cloned.fines[id] = cloneFine(fine)
	}

	copy(cloned.journal, s.journal)

	return cloned
}

func cloneLoan(loan circulation.Loan) circulation.Loan {
	if loan.ReturnDate != nil {
		returned := *loan.ReturnDate
		loan.ReturnDate = &returned
	}

	return loan
}

func cloneFine(fine circulation.Fine) circulation.Fine {
	if fine.SettledAt != nil {
		settled := *fine.SettledAt
		fine.SettledAt = &settled
	}

	return fine
}

// Ledger is the in-memory circulation ledger.
type Ledger struct {
	mu    sync.Mutex
	state *state
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{state: newState()}
}

// AddBook seeds a book into the catalog.
func (l *Ledger) AddBook(book circulation.Book) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.books[book.ID] = book
}

// AddPatron seeds a patron into the directory.
func (l *Ledger) AddPatron(patron circulation.Patron) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.patrons[patron.ID] = patron
}

// GetBook returns the current book row, for test assertions.
func (l *Ledger) GetBook(bookID uuid.UUID) (circulation.Book, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	book, ok := l.state.books[bookID]

	return book, ok
}

// GetLoan returns the current loan row, for test assertions.
func (l *Ledger) GetLoan(loanID uuid.UUID) (circulation.Loan, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	loan, ok := l.state.loans[loanID]

	return cloneLoan(loan), ok
}

// GetFine returns the current fine row, for test assertions.
func (l *Ledger) GetFine(fineID uuid.UUID) (circulation.Fine, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fine, ok := l.state.fines[fineID]

	return cloneFine(fine), ok
}

// FineJournal returns a copy of the append-only fine journal.
func (l *Ledger) FineJournal() []circulation.FineTransaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	journal := make([]circulation.FineTransaction, len(l.state.journal))
	copy(journal, l.state.journal)

	return journal
}

// WithinTx runs fn against a deep copy of the state under the ledger mutex.
// The copy becomes the live state only if fn succeeds.
func (l *Ledger) WithinTx(ctx context.Context, fn circulation.TxFunc) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	working := l.state.clone()
	session := &memSession{state: working}

	if fnErr := fn(ctx, session); fnErr != nil {
		return fnErr
	}

	l.state = working

	return nil
}

// ListOpenLoans returns loans with status issued or overdue, oldest due first.
func (l *Ledger) ListOpenLoans(_ context.Context) ([]circulation.Loan, error) {
	return l.selectLoans(func(loan circulation.Loan) bool {
		return loan.Status.IsOpen()
	}), nil
}

// ListOverdueLoans returns loans with status overdue, oldest due first.
func (l *Ledger) ListOverdueLoans(_ context.Context) ([]circulation.Loan, error) {
	return l.selectLoans(func(loan circulation.Loan) bool {
		return loan.Status == circulation.LoanStatusOverdue
	}), nil
}

// ListDueOpenLoans returns issued loans whose due date lies strictly before
// the given time.
func (l *Ledger) ListDueOpenLoans(_ context.Context, before time.Time) ([]circulation.Loan, error) {
	return l.selectLoans(func(loan circulation.Loan) bool {
		return loan.Status == circulation.LoanStatusIssued && loan.DueDate.Before(before)
	}), nil
}

func (l *Ledger) selectLoans(match func(circulation.Loan) bool) []circulation.Loan {
	l.mu.Lock()
	defer l.mu.Unlock()

	loans := make([]circulation.Loan, 0)

	for _, loan := range l.state.loans {
		if match(loan) {
			loans = append(loans, cloneLoan(loan))
		}
	}

	sort.Slice(loans, func(i, j int) bool {
		return loans[i].DueDate.Before(loans[j].DueDate)
	})

	return loans
}

// ListPendingFines returns fines with status pending, oldest first.
func (l *Ledger) ListPendingFines(_ context.Context) ([]circulation.Fine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fines := make([]circulation.Fine, 0)

	for _, fine := range l.state.fines {
		if fine.Status == circulation.FineStatusPending {
			fines = append(fines, cloneFine(fine))
		}
	}

	sort.Slice(fines, func(i, j int) bool {
		return fines[i].CalculatedAt.Before(fines[j].CalculatedAt)
	})

	return fines, nil
}

// Summary computes the circulation summary statistics.
func (l *Ledger) Summary(_ context.Context) (circulation.SummaryStats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := circulation.SummaryStats{
		PendingFineTotal: decimal.Zero,
		PaidFineTotal:    decimal.Zero,
		WaivedFineTotal:  decimal.Zero,
	}

	for _, loan := range l.state.loans {
		if loan.Status.IsOpen() {
			stats.OpenLoans++
		}

		if loan.Status == circulation.LoanStatusOverdue {
			stats.OverdueLoans++
		}
	}

	for _, fine := range l.state.fines {
		switch fine.Status {
		case circulation.FineStatusPending:
			stats.PendingFines++
			stats.PendingFineTotal = stats.PendingFineTotal.Add(fine.Amount)
		case circulation.FineStatusPaid:
			stats.PaidFineTotal = stats.PaidFineTotal.Add(fine.Amount)
		case circulation.FineStatusWaived:
			stats.WaivedFineTotal = stats.WaivedFineTotal.Add(fine.Amount)
		}
	}

	return stats, nil
}

var _ circulation.Ledger = (*Ledger)(nil)
