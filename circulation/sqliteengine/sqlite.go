package sqliteengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/flowinghill/circulation-ledger-go/circulation"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS books (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL DEFAULT '',
	total_copies     INTEGER NOT NULL CHECK (total_copies >= 0),
	available_copies INTEGER NOT NULL CHECK (available_copies >= 0 AND available_copies <= total_copies),
	active           INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS patrons (
	id     TEXT PRIMARY KEY,
	name   TEXT NOT NULL DEFAULT '',
	active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS loans (
	id                  TEXT PRIMARY KEY,
	book_id             TEXT NOT NULL REFERENCES books (id),
	patron_id           TEXT NOT NULL REFERENCES patrons (id),
	issue_date          TEXT NOT NULL,
	due_date            TEXT NOT NULL,
	return_date         TEXT,
	status              TEXT NOT NULL CHECK (status IN ('issued', 'overdue', 'returned')),
	renewal_count       INTEGER NOT NULL DEFAULT 0,
	condition_on_return TEXT NOT NULL DEFAULT ''
);

CREATE UNIQUE INDEX IF NOT EXISTS loans_one_open_per_pair
	ON loans (book_id, patron_id) WHERE status IN ('issued', 'overdue');

CREATE INDEX IF NOT EXISTS loans_status_due ON loans (status, due_date);

CREATE TABLE IF NOT EXISTS fines (
	id                TEXT PRIMARY KEY,
	loan_id           TEXT NOT NULL UNIQUE REFERENCES loans (id),
	patron_id         TEXT NOT NULL REFERENCES patrons (id),
	amount            TEXT NOT NULL,
	days_overdue      INTEGER NOT NULL CHECK (days_overdue >= 0),
	rate_per_day      TEXT NOT NULL,
	status            TEXT NOT NULL CHECK (status IN ('pending', 'paid', 'waived')),
	calculated_at     TEXT NOT NULL,
	settled_at        TEXT,
	settlement_detail TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS fines_status ON fines (status);

CREATE TABLE IF NOT EXISTS fine_transactions (
	id          TEXT PRIMARY KEY,
	fine_id     TEXT NOT NULL REFERENCES fines (id),
	loan_id     TEXT NOT NULL REFERENCES loans (id),
	kind        TEXT NOT NULL CHECK (kind IN ('created', 'recalculated', 'paid', 'waived')),
	amount      TEXT NOT NULL,
	occurred_at TEXT NOT NULL,
	detail      TEXT NOT NULL DEFAULT '{}'
);
`

// Ledger is the SQLite-backed circulation ledger.
type Ledger struct {
	db *sql.DB
}

// NewLedger creates a ledger on an open SQLite database handle.
func NewLedger(db *sql.DB) (*Ledger, error) {
	if db == nil {
		return nil, circulation.ErrNilDatabaseConnection
	}

	return &Ledger{db: db}, nil
}

// InitSchema creates the ledger tables and indexes if they do not exist.
func (l *Ledger) InitSchema(ctx context.Context) error {
	if _, execErr := l.db.ExecContext(ctx, schemaDDL); execErr != nil {
		return errors.Join(circulation.ErrTransientStorageFailure, execErr)
	}

	return nil
}

// WithinTx runs fn inside a single SQLite transaction.
func (l *Ledger) WithinTx(ctx context.Context, fn circulation.TxFunc) error {
	tx, beginErr := l.db.BeginTx(ctx, nil)
	if beginErr != nil {
		return errors.Join(circulation.ErrTransientStorageFailure, beginErr)
	}

	session := &txSession{tx: tx}

	if fnErr := fn(ctx, session); fnErr != nil {
		_ = tx.Rollback()
		return fnErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return errors.Join(circulation.ErrTransientStorageFailure, commitErr)
	}

	return nil
}

// ListOpenLoans returns loans with status issued or overdue, oldest due first.
func (l *Ledger) ListOpenLoans(ctx context.Context) ([]circulation.Loan, error) {
	return l.selectLoans(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE status IN ('issued', 'overdue') ORDER BY due_date`)
}

// ListOverdueLoans returns loans with status overdue, oldest due first.
func (l *Ledger) ListOverdueLoans(ctx context.Context) ([]circulation.Loan, error) {
	return l.selectLoans(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE status = 'overdue' ORDER BY due_date`)
}

// ListDueOpenLoans returns issued loans whose due date lies strictly before
// the given time.
func (l *Ledger) ListDueOpenLoans(ctx context.Context, before time.Time) ([]circulation.Loan, error) {
	return l.selectLoans(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE status = 'issued' AND due_date < ? ORDER BY due_date`,
		formatTime(before))
}

func (l *Ledger) selectLoans(ctx context.Context, query string, args ...any) ([]circulation.Loan, error) {
	rows, queryErr := l.db.QueryContext(ctx, query, args...)
	if queryErr != nil {
		return nil, errors.Join(circulation.ErrTransientStorageFailure, queryErr)
	}
	defer func() { _ = rows.Close() }()

	loans := make([]circulation.Loan, 0)

	for rows.Next() {
		loan, scanErr := scanLoan(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		loans = append(loans, loan)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, errors.Join(circulation.ErrTransientStorageFailure, rowsErr)
	}

	return loans, nil
}

// ListPendingFines returns fines with status pending, oldest first.
func (l *Ledger) ListPendingFines(ctx context.Context) ([]circulation.Fine, error) {
	rows, queryErr := l.db.QueryContext(ctx,
		`SELECT `+fineColumns+` FROM fines WHERE status = 'pending' ORDER BY calculated_at`)
	if queryErr != nil {
		return nil, errors.Join(circulation.ErrTransientStorageFailure, queryErr)
	}
	defer func() { _ = rows.Close() }()

	fines := make([]circulation.Fine, 0)

	for rows.Next() {
		fine, scanErr := scanFine(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		fines = append(fines, fine)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, errors.Join(circulation.ErrTransientStorageFailure, rowsErr)
	}

	return fines, nil
}

// Summary computes the circulation summary statistics.
func (l *Ledger) Summary(ctx context.Context) (circulation.SummaryStats, error) {
	stats := newSummaryStats()

	if loanErr := l.summarizeLoans(ctx, &stats); loanErr != nil {
		return circulation.SummaryStats{}, loanErr
	}

	if fineErr := l.summarizeFines(ctx, &stats); fineErr != nil {
		return circulation.SummaryStats{}, fineErr
	}

	return stats, nil
}

func (l *Ledger) summarizeLoans(ctx context.Context, stats *circulation.SummaryStats) error {
	rows, queryErr := l.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM loans WHERE status IN ('issued', 'overdue') GROUP BY status`)
	if queryErr != nil {
		return errors.Join(circulation.ErrTransientStorageFailure, queryErr)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			status string
			count  int64
		)

		if scanErr := rows.Scan(&status, &count); scanErr != nil {
			return errors.Join(circulation.ErrTransientStorageFailure, scanErr)
		}

		stats.OpenLoans += int(count)

		if circulation.LoanStatus(status) == circulation.LoanStatusOverdue {
			stats.OverdueLoans = int(count)
		}
	}

	return rows.Err()
}

// summarizeFines sums amounts in Go rather than in SQL: the amounts are
// stored as TEXT, and summing them through SQLite would mean a lossy cast
// to floating point.
func (l *Ledger) summarizeFines(ctx context.Context, stats *circulation.SummaryStats) error {
	rows, queryErr := l.db.QueryContext(ctx, `SELECT status, amount FROM fines`)
	if queryErr != nil {
		return errors.Join(circulation.ErrTransientStorageFailure, queryErr)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var status, amountRaw string

		if scanErr := rows.Scan(&status, &amountRaw); scanErr != nil {
			return errors.Join(circulation.ErrTransientStorageFailure, scanErr)
		}

		amount, amountErr := decimal.NewFromString(amountRaw)
		if amountErr != nil {
			return errors.Join(circulation.ErrTransientStorageFailure, amountErr)
		}

		switch circulation.FineStatus(status) {
		case circulation.FineStatusPending:
			stats.PendingFines++
			stats.PendingFineTotal = stats.PendingFineTotal.Add(amount)
		case circulation.FineStatusPaid:
			stats.PaidFineTotal = stats.PaidFineTotal.Add(amount)
		case circulation.FineStatusWaived:
			stats.WaivedFineTotal = stats.WaivedFineTotal.Add(amount)
		}
	}

	return rows.Err()
}

var _ circulation.Ledger = (*Ledger)(nil)
