package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/flowinghill/circulation-ledger-go/circulation"
	"github.com/flowinghill/circulation-ledger-go/circulation/postgresengine/internal/adapters"
)

// ErrBuildingQueryFailed wraps goqu SQL generation failures.
var ErrBuildingQueryFailed = errors.New("failed to build query")

// txSession implements circulation.Session over one open transaction.
type txSession struct {
	tx               adapters.DBTx
	tables           TableNames
	logger           circulation.Logger
	contextualLogger circulation.ContextualLogger
}

func (s *txSession) builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

func (s *txSession) executor() queryExecutor {
	return queryExecutor{run: s.tx, logger: s.logger, contextualLogger: s.contextualLogger}
}

func (s *txSession) logBuildError(err error) {
	if s.logger != nil {
		s.logger.Error(logMsgBuildQueryFailed, logAttrError, err.Error())
	}
}

// GetBookForUpdate loads and locks a book row.
func (s *txSession) GetBookForUpdate(ctx context.Context, bookID uuid.UUID) (circulation.Book, error) {
	selectStmt := s.builder().
		From(s.tables.Books).
		Select(colID, colTitle, colTotalCopies, colAvailableCopies, colActive).
		Where(goqu.Ex{colID: bookID.String()}).
		ForUpdate(exp.Wait)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		s.logBuildError(toSQLErr)
		return circulation.Book{}, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	executor := s.executor()

	rows, queryErr := executor.query(ctx, sqlQuery)
	if queryErr != nil {
		return circulation.Book{}, queryErr
	}
	defer executor.closeRows(rows)

	if !rows.Next() {
		return circulation.Book{}, circulation.ErrBookNotFound
	}

	var (
		idRaw, title                 string
		totalCopies, availableCopies int
		active                       bool
	)

	if scanErr := rows.Scan(&idRaw, &title, &totalCopies, &availableCopies, &active); scanErr != nil {
		return circulation.Book{}, errors.Join(ErrScanningDBRowFailed, scanErr)
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

// AdjustAvailableCopies moves the copy counter by delta with the bounds baked
// into the statement itself. A zero rows-affected count means the guard
// rejected the move: no copies left for a decrement, counter corruption for
// an increment that would exceed the total.
func (s *txSession) AdjustAvailableCopies(ctx context.Context, bookID uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}

	updateStmt := s.builder().
		Update(s.tables.Books).
		Set(goqu.Record{colAvailableCopies: goqu.L(colAvailableCopies+" + ?", delta)}).
		Where(goqu.Ex{colID: bookID.String()})

	if delta < 0 {
		updateStmt = updateStmt.Where(goqu.C(colAvailableCopies).Gte(-delta))
	} else {
		updateStmt = updateStmt.Where(goqu.L(colAvailableCopies+" + ? <= "+colTotalCopies, delta))
	}

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		s.logBuildError(toSQLErr)
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, execErr := s.executor().exec(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		if delta < 0 {
			return circulation.ErrNoCopiesAvailable
		}

		return circulation.ErrInvariantViolation
	}

	return nil
}

// GetPatron loads a patron.
func (s *txSession) GetPatron(ctx context.Context, patronID uuid.UUID) (circulation.Patron, error) {
	selectStmt := s.builder().
		From(s.tables.Patrons).
		Select(colID, colName, colActive).
		Where(goqu.Ex{colID: patronID.String()})

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		s.logBuildError(toSQLErr)
		return circulation.Patron{}, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	executor := s.executor()

	rows, queryErr := executor.query(ctx, sqlQuery)
	if queryErr != nil {
		return circulation.Patron{}, queryErr
	}
	defer executor.closeRows(rows)

	if !rows.Next() {
		return circulation.Patron{}, circulation.ErrPatronNotFound
	}

	var (
		idRaw, name string
		active      bool
	)

	if scanErr := rows.Scan(&idRaw, &name, &active); scanErr != nil {
		return circulation.Patron{}, errors.Join(ErrScanningDBRowFailed, scanErr)
	}

	id, parseErr := uuid.Parse(idRaw)
	if parseErr != nil {
		return circulation.Patron{}, errors.Join(ErrScanningDBRowFailed, parseErr)
	}

	return circulation.Patron{ID: id, Name: name, Active: active}, nil
}

// CountOpenLoans counts the patron's loans with status issued or overdue.
func (s *txSession) CountOpenLoans(ctx context.Context, patronID uuid.UUID) (int, error) {
	return s.countLoans(ctx, goqu.Ex{
		colPatronID: patronID.String(),
		colStatus:   openLoanStatuses(),
	})
}

// CountOverdueLoans counts the patron's loans with status overdue.
func (s *txSession) CountOverdueLoans(ctx context.Context, patronID uuid.UUID) (int, error) {
	return s.countLoans(ctx, goqu.Ex{
		colPatronID: patronID.String(),
		colStatus:   string(circulation.LoanStatusOverdue),
	})
}

// HasOpenLoan reports whether the (book, patron) pair already has an open loan.
func (s *txSession) HasOpenLoan(ctx context.Context, bookID uuid.UUID, patronID uuid.UUID) (bool, error) {
	count, countErr := s.countLoans(ctx, goqu.Ex{
		colBookID:   bookID.String(),
		colPatronID: patronID.String(),
		colStatus:   openLoanStatuses(),
	})
	if countErr != nil {
		return false, countErr
	}

	return count > 0, nil
}

func (s *txSession) countLoans(ctx context.Context, where goqu.Ex) (int, error) {
	selectStmt := s.builder().
		From(s.tables.Loans).
		Select(goqu.COUNT(goqu.Star())).
		Where(where)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		s.logBuildError(toSQLErr)
		return 0, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	executor := s.executor()

	rows, queryErr := executor.query(ctx, sqlQuery)
	if queryErr != nil {
		return 0, queryErr
	}
	defer executor.closeRows(rows)

	var count int64
	if rows.Next() {
		if scanErr := rows.Scan(&count); scanErr != nil {
			return 0, errors.Join(ErrScanningDBRowFailed, scanErr)
		}
	}

	return int(count), nil
}

// GetOpenLoanForUpdate loads and locks a loan that is still open.
func (s *txSession) GetOpenLoanForUpdate(ctx context.Context, loanID uuid.UUID) (circulation.Loan, error) {
	selectStmt := s.builder().
		From(s.tables.Loans).
		Select(loanSelectColumns()...).
		Where(goqu.Ex{
			colID:     loanID.String(),
			colStatus: openLoanStatuses(),
		}).
		ForUpdate(exp.Wait)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		s.logBuildError(toSQLErr)
		return circulation.Loan{}, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	executor := s.executor()

	rows, queryErr := executor.query(ctx, sqlQuery)
	if queryErr != nil {
		return circulation.Loan{}, queryErr
	}
	defer executor.closeRows(rows)

	if !rows.Next() {
		return circulation.Loan{}, circulation.ErrLoanNotFound
	}

	return scanLoan(rows)
}

// InsertLoan inserts a new loan row.
func (s *txSession) InsertLoan(ctx context.Context, loan circulation.Loan) error {
	insertStmt := s.builder().
		Insert(s.tables.Loans).
		Rows(loanRecord(loan))

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		s.logBuildError(toSQLErr)
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	_, execErr := s.executor().exec(ctx, sqlQuery)

	return execErr
}

// UpdateLoan persists changes to a loan row.
func (s *txSession) UpdateLoan(ctx context.Context, loan circulation.Loan) error {
	record := loanRecord(loan)
	delete(record, colID)

	updateStmt := s.builder().
		Update(s.tables.Loans).
		Set(record).
		Where(goqu.Ex{colID: loan.ID.String()})

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		s.logBuildError(toSQLErr)
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, execErr := s.executor().exec(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return circulation.ErrLoanNotFound
	}

	return nil
}

// FindFineForLoanForUpdate loads and locks the fine generated by a loan, if any.
func (s *txSession) FindFineForLoanForUpdate(ctx context.Context, loanID uuid.UUID) (circulation.Fine, bool, error) {
	fine, err := s.selectOneFine(ctx, goqu.Ex{colLoanID: loanID.String()})

	switch {
	case errors.Is(err, circulation.ErrFineNotFound):
		return circulation.Fine{}, false, nil
	case err != nil:
		return circulation.Fine{}, false, err
	default:
		return fine, true, nil
	}
}

// GetFineForUpdate loads and locks a fine row.
func (s *txSession) GetFineForUpdate(ctx context.Context, fineID uuid.UUID) (circulation.Fine, error) {
	return s.selectOneFine(ctx, goqu.Ex{colID: fineID.String()})
}

func (s *txSession) selectOneFine(ctx context.Context, where goqu.Ex) (circulation.Fine, error) {
	selectStmt := s.builder().
		From(s.tables.Fines).
		Select(fineSelectColumns()...).
		Where(where).
		ForUpdate(exp.Wait)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		s.logBuildError(toSQLErr)
		return circulation.Fine{}, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	executor := s.executor()

	rows, queryErr := executor.query(ctx, sqlQuery)
	if queryErr != nil {
		return circulation.Fine{}, queryErr
	}
	defer executor.closeRows(rows)

	if !rows.Next() {
		return circulation.Fine{}, circulation.ErrFineNotFound
	}

	return scanFine(rows)
}

// InsertFine inserts a new fine row.
func (s *txSession) InsertFine(ctx context.Context, fine circulation.Fine) error {
	insertStmt := s.builder().
		Insert(s.tables.Fines).
		Rows(fineRecord(fine))

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		s.logBuildError(toSQLErr)
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	_, execErr := s.executor().exec(ctx, sqlQuery)

	return execErr
}

// UpdateFine persists changes to a fine row. The statement only matches while
// the stored status is still pending, so a settlement racing another
// settlement (or a recalculation racing a settlement) loses cleanly with
// ErrAlreadySettled instead of overwriting a frozen fine.
func (s *txSession) UpdateFine(ctx context.Context, fine circulation.Fine) error {
	record := fineRecord(fine)
	delete(record, colID)

	updateStmt := s.builder().
		Update(s.tables.Fines).
		Set(record).
		Where(goqu.Ex{
			colID:     fine.ID.String(),
			colStatus: string(circulation.FineStatusPending),
		})

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		s.logBuildError(toSQLErr)
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, execErr := s.executor().exec(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		// Zero rows means either the fine is already settled or it never
		// existed; tell the two apart so the contract matches the other engines.
		exists, existsErr := s.fineExists(ctx, fine.ID)
		if existsErr != nil {
			return existsErr
		}

		if !exists {
			return circulation.ErrFineNotFound
		}

		return circulation.ErrAlreadySettled
	}

	return nil
}

func (s *txSession) fineExists(ctx context.Context, fineID uuid.UUID) (bool, error) {
	selectStmt := s.builder().
		From(s.tables.Fines).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.Ex{colID: fineID.String()})

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		s.logBuildError(toSQLErr)
		return false, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	executor := s.executor()

	rows, queryErr := executor.query(ctx, sqlQuery)
	if queryErr != nil {
		return false, queryErr
	}
	defer executor.closeRows(rows)

	var count int64
	if rows.Next() {
		if scanErr := rows.Scan(&count); scanErr != nil {
			return false, errors.Join(ErrScanningDBRowFailed, scanErr)
		}
	}

	return count > 0, nil
}

// AppendFineTransaction appends one immutable entry to the fine journal.
func (s *txSession) AppendFineTransaction(ctx context.Context, transaction circulation.FineTransaction) error {
	insertStmt := s.builder().
		Insert(s.tables.FineTransactions).
		Rows(goqu.Record{
			colID:         transaction.ID.String(),
			colFineID:     transaction.FineID.String(),
			colLoanID:     transaction.LoanID.String(),
			colKind:       string(transaction.Kind),
			colAmount:     transaction.Amount.String(),
			colOccurredAt: transaction.OccurredAt,
			colDetail:     string(transaction.DetailJSON),
		})

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		s.logBuildError(toSQLErr)
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	_, execErr := s.executor().exec(ctx, sqlQuery)

	return execErr
}

// openLoanStatuses returns the status values of loans that still bind a copy.
func openLoanStatuses() []string {
	return []string{
		string(circulation.LoanStatusIssued),
		string(circulation.LoanStatusOverdue),
	}
}

func loanRecord(loan circulation.Loan) goqu.Record {
	record := goqu.Record{
		colID:                loan.ID.String(),
		colBookID:            loan.BookID.String(),
		colPatronID:          loan.PatronID.String(),
		colIssueDate:         loan.IssueDate,
		colDueDate:           loan.DueDate,
		colReturnDate:        nil,
		colStatus:            string(loan.Status),
		colRenewalCount:      loan.RenewalCount,
		colConditionOnReturn: loan.ConditionOnReturn,
	}

	if loan.ReturnDate != nil {
		record[colReturnDate] = *loan.ReturnDate
	}

	return record
}

func fineRecord(fine circulation.Fine) goqu.Record {
	record := goqu.Record{
		colID:               fine.ID.String(),
		colLoanID:           fine.LoanID.String(),
		colPatronID:         fine.PatronID.String(),
		colAmount:           fine.Amount.String(),
		colDaysOverdue:      fine.DaysOverdue,
		colRatePerDay:       fine.RatePerDay.String(),
		colStatus:           string(fine.Status),
		colCalculatedAt:     fine.CalculatedAt,
		colSettledAt:        nil,
		colSettlementDetail: fine.SettlementDetail,
	}

	if fine.SettledAt != nil {
		record[colSettledAt] = *fine.SettledAt
	}

	return record
}

var _ circulation.Session = (*txSession)(nil)
