package sqliteengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/flowinghill/circulation-ledger-go/circulation"
)

// txSession implements circulation.Session on a SQLite transaction. The
// single-connection pool serializes writers, so there are no row locks to
// take; the guarded UPDATE statements still decide conflicts by rows
// affected, identical to the Postgres engine.
type txSession struct {
	tx *sql.Tx
}

func (s *txSession) GetBookForUpdate(ctx context.Context, bookID uuid.UUID) (circulation.Book, error) {
	row := s.tx.QueryRowContext(ctx,
		`SELECT id, title, total_copies, available_copies, active FROM books WHERE id = ?`,
		bookID.String())

	var (
		idRaw, title                 string
		totalCopies, availableCopies int
		active                       bool
	)

	scanErr := row.Scan(&idRaw, &title, &totalCopies, &availableCopies, &active)
	if errors.Is(scanErr, sql.ErrNoRows) {
		return circulation.Book{}, circulation.ErrBookNotFound
	}

	if scanErr != nil {
		return circulation.Book{}, errors.Join(circulation.ErrTransientStorageFailure, scanErr)
	}

	id, parseErr := uuid.Parse(idRaw)
	if parseErr != nil {
		return circulation.Book{}, errors.Join(ErrScanningDBRowFailed, parseErr)
	}

	return circulation.Book{
		ID:              id,
		Title:           title,
		TotalCopies:     totalCopies,
		AvailableCopies: availableCopies,
		Active:          active,
	}, nil
}

func (s *txSession) AdjustAvailableCopies(ctx context.Context, bookID uuid.UUID, delta int) error {
	result, execErr := s.tx.ExecContext(ctx,
		`UPDATE books
		 SET available_copies = available_copies + ?
		 WHERE id = ? AND available_copies + ? BETWEEN 0 AND total_copies`,
		delta, bookID.String(), delta)
	if execErr != nil {
		return errors.Join(circulation.ErrTransientStorageFailure, execErr)
	}

	affected, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return errors.Join(circulation.ErrTransientStorageFailure, affectedErr)
	}

	if affected == 0 {
		if delta < 0 {
			return circulation.ErrNoCopiesAvailable
		}

		return circulation.ErrInvariantViolation
	}

	return nil
}

func (s *txSession) GetPatron(ctx context.Context, patronID uuid.UUID) (circulation.Patron, error) {
	row := s.tx.QueryRowContext(ctx,
		`SELECT id, name, active FROM patrons WHERE id = ?`, patronID.String())

	var (
		idRaw, name string
		active      bool
	)

	scanErr := row.Scan(&idRaw, &name, &active)
	if errors.Is(scanErr, sql.ErrNoRows) {
		return circulation.Patron{}, circulation.ErrPatronNotFound
	}

	if scanErr != nil {
		return circulation.Patron{}, errors.Join(circulation.ErrTransientStorageFailure, scanErr)
	}

	id, parseErr := uuid.Parse(idRaw)
	if parseErr != nil {
		return circulation.Patron{}, errors.Join(ErrScanningDBRowFailed, parseErr)
	}

	return circulation.Patron{ID: id, Name: name, Active: active}, nil
}

func (s *txSession) CountOpenLoans(ctx context.Context, patronID uuid.UUID) (int, error) {
	return s.countLoans(ctx,
		`SELECT COUNT(*) FROM loans WHERE patron_id = ? AND status IN ('issued', 'overdue')`,
		patronID.String())
}

func (s *txSession) CountOverdueLoans(ctx context.Context, patronID uuid.UUID) (int, error) {
	return s.countLoans(ctx,
		`SELECT COUNT(*) FROM loans WHERE patron_id = ? AND status = 'overdue'`,
		patronID.String())
}

func (s *txSession) countLoans(ctx context.Context, query string, args ...any) (int, error) {
	var count int

	if scanErr := s.tx.QueryRowContext(ctx, query, args...).Scan(&count); scanErr != nil {
		return 0, errors.Join(circulation.ErrTransientStorageFailure, scanErr)
	}

	return count, nil
}

func (s *txSession) HasOpenLoan(ctx context.Context, bookID uuid.UUID, patronID uuid.UUID) (bool, error) {
	count, countErr := s.countLoans(ctx,
		`SELECT COUNT(*) FROM loans WHERE book_id = ? AND patron_id = ? AND status IN ('issued', 'overdue')`,
		bookID.String(), patronID.String())
	if countErr != nil {
		return false, countErr
	}

	return count > 0, nil
}

func (s *txSession) GetOpenLoanForUpdate(ctx context.Context, loanID uuid.UUID) (circulation.Loan, error) {
	row := s.tx.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = ? AND status IN ('issued', 'overdue')`,
		loanID.String())

	loan, scanErr := scanLoan(row)
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return circulation.Loan{}, circulation.ErrLoanNotFound
		}

		return circulation.Loan{}, scanErr
	}

	return loan, nil
}

func (s *txSession) InsertLoan(ctx context.Context, loan circulation.Loan) error {
	_, execErr := s.tx.ExecContext(ctx,
		`INSERT INTO loans (`+loanColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID.String(), loan.BookID.String(), loan.PatronID.String(),
		formatTime(loan.IssueDate), formatTime(loan.DueDate), nullableTime(loan.ReturnDate),
		string(loan.Status), loan.RenewalCount, loan.ConditionOnReturn)
	if execErr != nil {
		return errors.Join(circulation.ErrTransientStorageFailure, execErr)
	}

	return nil
}

func (s *txSession) UpdateLoan(ctx context.Context, loan circulation.Loan) error {
	result, execErr := s.tx.ExecContext(ctx,
		`UPDATE loans
		 SET due_date = ?, return_date = ?, status = ?, renewal_count = ?, condition_on_return = ?
		 WHERE id = ?`,
		formatTime(loan.DueDate), nullableTime(loan.ReturnDate), string(loan.Status),
		loan.RenewalCount, loan.ConditionOnReturn, loan.ID.String())
	if execErr != nil {
		return errors.Join(circulation.ErrTransientStorageFailure, execErr)
	}

	affected, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return errors.Join(circulation.ErrTransientStorageFailure, affectedErr)
	}

	if affected == 0 {
		return circulation.ErrLoanNotFound
	}

	return nil
}

func (s *txSession) FindFineForLoanForUpdate(ctx context.Context, loanID uuid.UUID) (circulation.Fine, bool, error) {
	row := s.tx.QueryRowContext(ctx,
		`SELECT `+fineColumns+` FROM fines WHERE loan_id = ?`, loanID.String())

	fine, scanErr := scanFine(row)
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return circulation.Fine{}, false, nil
		}

		return circulation.Fine{}, false, scanErr
	}

	return fine, true, nil
}

func (s *txSession) GetFineForUpdate(ctx context.Context, fineID uuid.UUID) (circulation.Fine, error) {
	row := s.tx.QueryRowContext(ctx,
		`SELECT `+fineColumns+` FROM fines WHERE id = ?`, fineID.String())

	fine, scanErr := scanFine(row)
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return circulation.Fine{}, circulation.ErrFineNotFound
		}

		return circulation.Fine{}, scanErr
	}

	return fine, nil
}

func (s *txSession) InsertFine(ctx context.Context, fine circulation.Fine) error {
	_, execErr := s.tx.ExecContext(ctx,
		`INSERT INTO fines (`+fineColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fine.ID.String(), fine.LoanID.String(), fine.PatronID.String(),
		fine.Amount.String(), fine.DaysOverdue, fine.RatePerDay.String(),
		string(fine.Status), formatTime(fine.CalculatedAt), nullableTime(fine.SettledAt),
		fine.SettlementDetail)
	if execErr != nil {
		return errors.Join(circulation.ErrTransientStorageFailure, execErr)
	}

	return nil
}

func (s *txSession) UpdateFine(ctx context.Context, fine circulation.Fine) error {
	result, execErr := s.tx.ExecContext(ctx,
		`UPDATE fines
		 SET amount = ?, days_overdue = ?, rate_per_day = ?, status = ?,
		     calculated_at = ?, settled_at = ?, settlement_detail = ?
		 WHERE id = ? AND status = 'pending'`,
		fine.Amount.String(), fine.DaysOverdue, fine.RatePerDay.String(), string(fine.Status),
		formatTime(fine.CalculatedAt), nullableTime(fine.SettledAt), fine.SettlementDetail,
		fine.ID.String())
	if execErr != nil {
		return errors.Join(circulation.ErrTransientStorageFailure, execErr)
	}

	affected, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return errors.Join(circulation.ErrTransientStorageFailure, affectedErr)
	}

	if affected == 0 {
		// Zero rows means either the fine is already settled or it never
		// existed; tell the two apart so the contract matches the other engines.
		var count int

		scanErr := s.tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM fines WHERE id = ?`, fine.ID.String()).Scan(&count)
		if scanErr != nil {
			return errors.Join(circulation.ErrTransientStorageFailure, scanErr)
		}

		if count == 0 {
			return circulation.ErrFineNotFound
		}

		return circulation.ErrAlreadySettled
	}

	return nil
}

func (s *txSession) AppendFineTransaction(ctx context.Context, transaction circulation.FineTransaction) error {
	detail := transaction.DetailJSON
	if len(detail) == 0 {
		detail = []byte(`{}`)
	}

	_, execErr := s.tx.ExecContext(ctx,
		`INSERT INTO fine_transactions (id, fine_id, loan_id, kind, amount, occurred_at, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		transaction.ID.String(), transaction.FineID.String(), transaction.LoanID.String(),
		string(transaction.Kind), transaction.Amount.String(), formatTime(transaction.OccurredAt),
		string(detail))
	if execErr != nil {
		return errors.Join(circulation.ErrTransientStorageFailure, execErr)
	}

	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}

	return formatTime(*t)
}

var _ circulation.Session = (*txSession)(nil)
