package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/flowinghill/circulation-ledger-go/circulation"
	"github.com/flowinghill/circulation-ledger-go/circulation/postgresengine/internal/adapters"
)

const (
	logMsgBuildQueryFailed = "failed to build query"
	logMsgDBQueryFailed    = "database query execution failed"
	logMsgDBExecFailed     = "database execution failed"
	logMsgCloseRowsFailed  = "failed to close database rows"
	logMsgScanRowFailed    = "failed to scan database row"
	logMsgBeginTxFailed    = "failed to begin transaction"
	logMsgCommitTxFailed   = "failed to commit transaction"
	logMsgRollbackTxFailed = "failed to roll back transaction"
	logMsgTxCompleted      = "transaction completed"
	logMsgSQLExecuted      = "executed sql for: "
	logMsgOperation        = "ledger operation: "
	logAttrError           = "error"
	logAttrQuery           = "query"
	logAttrDurationMS      = "duration_ms"
	logActionQuery         = "query"
	logActionExec          = "exec"
	dialectPostgres        = "postgres"
)

// Column names shared by queries and the schema.
const (
	colID                = "id"
	colTitle             = "title"
	colName              = "name"
	colActive            = "active"
	colTotalCopies       = "total_copies"
	colAvailableCopies   = "available_copies"
	colBookID            = "book_id"
	colPatronID          = "patron_id"
	colLoanID            = "loan_id"
	colFineID            = "fine_id"
	colIssueDate         = "issue_date"
	colDueDate           = "due_date"
	colReturnDate        = "return_date"
	colStatus            = "status"
	colRenewalCount      = "renewal_count"
	colConditionOnReturn = "condition_on_return"
	colAmount            = "amount"
	colDaysOverdue       = "days_overdue"
	colRatePerDay        = "rate_per_day"
	colCalculatedAt      = "calculated_at"
	colSettledAt         = "settled_at"
	colSettlementDetail  = "settlement_detail"
	colKind              = "kind"
	colOccurredAt        = "occurred_at"
	colDetail            = "detail"
)

type sqlQueryString = string

// TableNames configures the tables the engine reads and writes.
type TableNames struct {
	Books            string
	Patrons          string
	Loans            string
	Fines            string
	FineTransactions string
}

func defaultTableNames() TableNames {
	return TableNames{
		Books:            "books",
		Patrons:          "patrons",
		Loans:            "loans",
		Fines:            "fines",
		FineTransactions: "fine_transactions",
	}
}

// Ledger is the PostgreSQL circulation ledger. It implements
// circulation.Ledger; the Session handed to WithinTx callbacks implements
// circulation.Session over the open transaction.
type Ledger struct {
	db               adapters.DBAdapter
	tables           TableNames
	logger           circulation.Logger
	contextualLogger circulation.ContextualLogger
}

// NewLedgerFromPGXPool creates a new Ledger using a pgx Pool with optional configuration.
func NewLedgerFromPGXPool(db *pgxpool.Pool, options ...Option) (*Ledger, error) {
	if db == nil {
		return nil, circulation.ErrNilDatabaseConnection
	}

	return newLedger(adapters.NewPGXAdapter(db), options...)
}

// NewLedgerFromSQLDB creates a new Ledger using a sql.DB with optional configuration.
func NewLedgerFromSQLDB(db *sql.DB, options ...Option) (*Ledger, error) {
	if db == nil {
		return nil, circulation.ErrNilDatabaseConnection
	}

	return newLedger(adapters.NewSQLAdapter(db), options...)
}

// NewLedgerFromSQLX creates a new Ledger using a sqlx.DB with optional configuration.
func NewLedgerFromSQLX(db *sqlx.DB, options ...Option) (*Ledger, error) {
	if db == nil {
		return nil, circulation.ErrNilDatabaseConnection
	}

	return newLedger(adapters.NewSQLXAdapter(db), options...)
}

func newLedger(db adapters.DBAdapter, options ...Option) (*Ledger, error) {
	ledger := &Ledger{
		db:     db,
		tables: defaultTableNames(),
	}

	for _, option := range options {
		if err := option(ledger); err != nil {
			return nil, err
		}
	}

	return ledger, nil
}

// WithinTx runs fn inside a single database transaction. The callback's
// session holds row locks until commit or rollback; any error from the
// callback rolls the whole transaction back, so no partial state is ever
// observable.
func (l *Ledger) WithinTx(ctx context.Context, fn circulation.TxFunc) error {
	start := time.Now()

	tx, beginErr := l.db.BeginTx(ctx)
	if beginErr != nil {
		l.logError(logMsgBeginTxFailed, beginErr)
		l.logErrorContext(ctx, logMsgBeginTxFailed, beginErr)

		return errors.Join(circulation.ErrTransientStorageFailure, beginErr)
	}

	session := &txSession{tx: tx, tables: l.tables, logger: l.logger, contextualLogger: l.contextualLogger}

	if fnErr := fn(ctx, session); fnErr != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			l.logWarn(logMsgRollbackTxFailed, rollbackErr)
			l.logWarnContext(ctx, logMsgRollbackTxFailed, rollbackErr)
		}

		return fnErr
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		l.logError(logMsgCommitTxFailed, commitErr)
		l.logErrorContext(ctx, logMsgCommitTxFailed, commitErr)

		return errors.Join(circulation.ErrTransientStorageFailure, commitErr)
	}

	l.logOperation(logMsgTxCompleted, logAttrDurationMS, durationToMilliseconds(time.Since(start)))
	l.logOperationContext(ctx, logMsgTxCompleted, logAttrDurationMS, durationToMilliseconds(time.Since(start)))

	return nil
}

func (l *Ledger) builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

func (l *Ledger) logError(msg string, err error) {
	if l.logger != nil {
		l.logger.Error(msg, logAttrError, err.Error())
	}
}

func (l *Ledger) logWarn(msg string, err error) {
	if l.logger != nil {
		l.logger.Warn(msg, logAttrError, err.Error())
	}
}

// logOperation logs operational information at info level if the logger is configured.
func (l *Ledger) logOperation(action string, args ...any) {
	if l.logger != nil {
		l.logger.Info(logMsgOperation+action, args...)
	}
}

// The context variants mirror the plain helpers for the contextual logger, so
// trace and span correlation survives into the log records when one is set.

func (l *Ledger) logErrorContext(ctx context.Context, msg string, err error) {
	if l.contextualLogger != nil {
		l.contextualLogger.ErrorContext(ctx, msg, logAttrError, err.Error())
	}
}

func (l *Ledger) logWarnContext(ctx context.Context, msg string, err error) {
	if l.contextualLogger != nil {
		l.contextualLogger.WarnContext(ctx, msg, logAttrError, err.Error())
	}
}

func (l *Ledger) logOperationContext(ctx context.Context, action string, args ...any) {
	if l.contextualLogger != nil {
		l.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
