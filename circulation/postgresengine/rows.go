package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flowinghill/circulation-ledger-go/circulation"
	"github.com/flowinghill/circulation-ledger-go/circulation/postgresengine/internal/adapters"
)

// ErrScanningDBRowFailed wraps row scanning failures.
var ErrScanningDBRowFailed = errors.New("failed to scan database row")

// runner is the subset of adapter capability shared by connections and
// transactions, so the scan helpers work in both scopes.
type runner interface {
	Query(ctx context.Context, query string) (adapters.DBRows, error)
	Exec(ctx context.Context, query string) (adapters.DBResult, error)
}

// queryExecutor runs built SQL on a runner with debug logging and uniform
// transient-error wrapping.
type queryExecutor struct {
	run              runner
	logger           circulation.Logger
	contextualLogger circulation.ContextualLogger
}

func (q queryExecutor) query(ctx context.Context, sqlQuery sqlQueryString) (adapters.DBRows, error) {
	start := time.Now()
	rows, queryErr := q.run.Query(ctx, sqlQuery)
	q.logQueryWithDuration(ctx, sqlQuery, logActionQuery, time.Since(start))

	if queryErr != nil {
		q.logExecutionError(ctx, logMsgDBQueryFailed, queryErr, sqlQuery)
		return nil, errors.Join(circulation.ErrTransientStorageFailure, queryErr)
	}

	return rows, nil
}

func (q queryExecutor) exec(ctx context.Context, sqlQuery sqlQueryString) (int64, error) {
	start := time.Now()
	result, execErr := q.run.Exec(ctx, sqlQuery)
	q.logQueryWithDuration(ctx, sqlQuery, logActionExec, time.Since(start))

	if execErr != nil {
		q.logExecutionError(ctx, logMsgDBExecFailed, execErr, sqlQuery)
		return 0, errors.Join(circulation.ErrTransientStorageFailure, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		return 0, errors.Join(circulation.ErrTransientStorageFailure, rowsAffectedErr)
	}

	return rowsAffected, nil
}

// closeRows safely closes database rows and logs any errors.
func (q queryExecutor) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if q.logger != nil {
			q.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

// logQueryWithDuration logs SQL queries with execution time at debug level on
// whichever loggers are configured.
func (q queryExecutor) logQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration time.Duration) {
	if q.logger != nil {
		q.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, durationToMilliseconds(duration), logAttrQuery, sqlQuery)
	}

	if q.contextualLogger != nil {
		q.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, logAttrDurationMS, durationToMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

func (q queryExecutor) logExecutionError(ctx context.Context, msg string, err error, sqlQuery string) {
	if q.logger != nil {
		q.logger.Error(msg, logAttrError, err.Error(), logAttrQuery, sqlQuery)
	}

	if q.contextualLogger != nil {
		q.contextualLogger.ErrorContext(ctx, msg, logAttrError, err.Error(), logAttrQuery, sqlQuery)
	}
}

// loanSelectColumns is the canonical column order scanLoan expects.
func loanSelectColumns() []any {
	return []any{
		colID, colBookID, colPatronID, colIssueDate, colDueDate,
		colReturnDate, colStatus, colRenewalCount, colConditionOnReturn,
	}
}

func scanLoan(rows adapters.DBRows) (circulation.Loan, error) {
	var (
		idRaw, bookIDRaw, patronIDRaw string
		issueDate, dueDate            time.Time
		returnDate                    sql.NullTime
		status                        string
		renewalCount                  int
		condition                     sql.NullString
	)

	if scanErr := rows.Scan(
		&idRaw, &bookIDRaw, &patronIDRaw, &issueDate, &dueDate,
		&returnDate, &status, &renewalCount, &condition,
	); scanErr != nil {
		return circulation.Loan{}, errors.Join(ErrScanningDBRowFailed, scanErr)
	}

	id, idErr := uuid.Parse(idRaw)
	bookID, bookIDErr := uuid.Parse(bookIDRaw)
	patronID, patronIDErr := uuid.Parse(patronIDRaw)

	if parseErr := errors.Join(idErr, bookIDErr, patronIDErr); parseErr != nil {
		return circulation.Loan{}, errors.Join(ErrScanningDBRowFailed, parseErr)
	}

	loan := circulation.Loan{
		ID:                id,
		BookID:            bookID,
		PatronID:          patronID,
		IssueDate:         issueDate,
		DueDate:           dueDate,
		Status:            circulation.LoanStatus(status),
		RenewalCount:      renewalCount,
		ConditionOnReturn: condition.String,
	}

	if returnDate.Valid {
		returned := returnDate.Time
		loan.ReturnDate = &returned
	}

	return loan, nil
}

// fineSelectColumns is the canonical column order scanFine expects.
// Numeric columns are cast to text so all three adapters scan them
// identically into decimals.
func fineSelectColumns() []any {
	return []any{
		colID, colLoanID, colPatronID,
		castText(colAmount), colDaysOverdue, castText(colRatePerDay),
		colStatus, colCalculatedAt, colSettledAt, colSettlementDetail,
	}
}

// castText renders a column cast to text in a SELECT list.
func castText(column string) any {
	return goqu.L(column + "::text")
}

func scanFine(rows adapters.DBRows) (circulation.Fine, error) {
	var (
		idRaw, loanIDRaw, patronIDRaw string
		amountRaw, rateRaw            string
		daysOverdue                   int
		status                        string
		calculatedAt                  time.Time
		settledAt                     sql.NullTime
		settlementDetail              sql.NullString
	)

	if scanErr := rows.Scan(
		&idRaw, &loanIDRaw, &patronIDRaw,
		&amountRaw, &daysOverdue, &rateRaw,
		&status, &calculatedAt, &settledAt, &settlementDetail,
	); scanErr != nil {
		return circulation.Fine{}, errors.Join(ErrScanningDBRowFailed, scanErr)
	}

	id, idErr := uuid.Parse(idRaw)
	loanID, loanIDErr := uuid.Parse(loanIDRaw)
	patronID, patronIDErr := uuid.Parse(patronIDRaw)
	amount, amountErr := decimal.NewFromString(amountRaw)
	rate, rateErr := decimal.NewFromString(rateRaw)

	if parseErr := errors.Join(idErr, loanIDErr, patronIDErr, amountErr, rateErr); parseErr != nil {
		return circulation.Fine{}, errors.Join(ErrScanningDBRowFailed, parseErr)
	}

	fine := circulation.Fine{
		ID:               id,
		LoanID:           loanID,
		PatronID:         patronID,
		Amount:           amount,
		DaysOverdue:      daysOverdue,
		RatePerDay:       rate,
		Status:           circulation.FineStatus(status),
		CalculatedAt:     calculatedAt,
		SettlementDetail: settlementDetail.String,
	}

	if settledAt.Valid {
		settled := settledAt.Time
		fine.SettledAt = &settled
	}

	return fine, nil
}
