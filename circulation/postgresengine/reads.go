package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/shopspring/decimal"

	"github.com/flowinghill/circulation-ledger-go/circulation"
)

// ListOpenLoans returns loans with status issued or overdue, oldest due first.
func (l *Ledger) ListOpenLoans(ctx context.Context) ([]circulation.Loan, error) {
	return l.selectLoans(ctx, goqu.Ex{colStatus: openLoanStatuses()})
}

// ListOverdueLoans returns loans with status overdue, oldest due first.
func (l *Ledger) ListOverdueLoans(ctx context.Context) ([]circulation.Loan, error) {
	return l.selectLoans(ctx, goqu.Ex{colStatus: string(circulation.LoanStatusOverdue)})
}

// ListDueOpenLoans returns issued loans whose due date lies strictly before
// the given time. Candidates only - the sweeper re-checks each one under
// lock before mutating it.
func (l *Ledger) ListDueOpenLoans(ctx context.Context, before time.Time) ([]circulation.Loan, error) {
	return l.selectLoans(ctx, goqu.Ex{
		colStatus:  string(circulation.LoanStatusIssued),
		colDueDate: goqu.Op{"lt": before},
	})
}

func (l *Ledger) selectLoans(ctx context.Context, where goqu.Ex) ([]circulation.Loan, error) {
	selectStmt := l.builder().
		From(l.tables.Loans).
		Select(loanSelectColumns()...).
		Where(where).
		Order(goqu.I(colDueDate).Asc())

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		l.logError(logMsgBuildQueryFailed, toSQLErr)
		return nil, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	executor := queryExecutor{run: l.db, logger: l.logger, contextualLogger: l.contextualLogger}

	rows, queryErr := executor.query(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer executor.closeRows(rows)

	loans := make([]circulation.Loan, 0)

	for rows.Next() {
		loan, scanErr := scanLoan(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		loans = append(loans, loan)
	}

	return loans, nil
}

// ListPendingFines returns fines with status pending, oldest first.
func (l *Ledger) ListPendingFines(ctx context.Context) ([]circulation.Fine, error) {
	selectStmt := l.builder().
		From(l.tables.Fines).
		Select(fineSelectColumns()...).
		Where(goqu.Ex{colStatus: string(circulation.FineStatusPending)}).
		Order(goqu.I(colCalculatedAt).Asc())

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		l.logError(logMsgBuildQueryFailed, toSQLErr)
		return nil, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	executor := queryExecutor{run: l.db, logger: l.logger, contextualLogger: l.contextualLogger}

	rows, queryErr := executor.query(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer executor.closeRows(rows)

	fines := make([]circulation.Fine, 0)

	for rows.Next() {
		fine, scanErr := scanFine(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		fines = append(fines, fine)
	}

	return fines, nil
}

// Summary computes the circulation summary statistics in two grouped
// aggregate queries, one over loans and one over fines.
func (l *Ledger) Summary(ctx context.Context) (circulation.SummaryStats, error) {
	stats := circulation.SummaryStats{
		PendingFineTotal: decimal.Zero,
		PaidFineTotal:    decimal.Zero,
		WaivedFineTotal:  decimal.Zero,
	}

	if loanErr := l.summarizeLoans(ctx, &stats); loanErr != nil {
		return circulation.SummaryStats{}, loanErr
	}

	if fineErr := l.summarizeFines(ctx, &stats); fineErr != nil {
		return circulation.SummaryStats{}, fineErr
	}

	return stats, nil
}

func (l *Ledger) summarizeLoans(ctx context.Context, stats *circulation.SummaryStats) error {
	selectStmt := l.builder().
		From(l.tables.Loans).
		Select(colStatus, goqu.COUNT(goqu.Star())).
		Where(goqu.Ex{colStatus: openLoanStatuses()}).
		GroupBy(colStatus)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		l.logError(logMsgBuildQueryFailed, toSQLErr)
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	executor := queryExecutor{run: l.db, logger: l.logger, contextualLogger: l.contextualLogger}

	rows, queryErr := executor.query(ctx, sqlQuery)
	if queryErr != nil {
		return queryErr
	}
	defer executor.closeRows(rows)

	for rows.Next() {
		var (
			status string
			count  int64
		)

		if scanErr := rows.Scan(&status, &count); scanErr != nil {
			return errors.Join(ErrScanningDBRowFailed, scanErr)
		}

		stats.OpenLoans += int(count)

		if circulation.LoanStatus(status) == circulation.LoanStatusOverdue {
			stats.OverdueLoans = int(count)
		}
	}

	return nil
}

func (l *Ledger) summarizeFines(ctx context.Context, stats *circulation.SummaryStats) error {
	selectStmt := l.builder().
		From(l.tables.Fines).
		Select(
			colStatus,
			goqu.COUNT(goqu.Star()),
			goqu.L("COALESCE(SUM("+colAmount+"), 0)::text"),
		).
		GroupBy(colStatus)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		l.logError(logMsgBuildQueryFailed, toSQLErr)
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	executor := queryExecutor{run: l.db, logger: l.logger, contextualLogger: l.contextualLogger}

	rows, queryErr := executor.query(ctx, sqlQuery)
	if queryErr != nil {
		return queryErr
	}
	defer executor.closeRows(rows)

	for rows.Next() {
		var (
			status   string
			count    int64
			totalRaw string
		)

		if scanErr := rows.Scan(&status, &count, &totalRaw); scanErr != nil {
			return errors.Join(ErrScanningDBRowFailed, scanErr)
		}

		total, totalErr := decimal.NewFromString(totalRaw)
		if totalErr != nil {
			return errors.Join(ErrScanningDBRowFailed, totalErr)
		}

		switch circulation.FineStatus(status) {
		case circulation.FineStatusPending:
			stats.PendingFines = int(count)
			stats.PendingFineTotal = total
		case circulation.FineStatusPaid:
			stats.PaidFineTotal = total
		case circulation.FineStatusWaived:
			stats.WaivedFineTotal = total
		}
	}

	return nil
}

var _ circulation.Ledger = (*Ledger)(nil)
