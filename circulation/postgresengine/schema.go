package postgresengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/flowinghill/circulation-ledger-go/circulation"
)

const schemaTemplate = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id               UUID PRIMARY KEY,
	title            TEXT NOT NULL DEFAULT '',
	total_copies     INTEGER NOT NULL CHECK (total_copies >= 0),
	available_copies INTEGER NOT NULL CHECK (available_copies >= 0 AND available_copies <= total_copies),
	active           BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS %[2]s (
	id     UUID PRIMARY KEY,
	name   TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS %[3]s (
	id                  UUID PRIMARY KEY,
	book_id             UUID NOT NULL REFERENCES %[1]s (id),
	patron_id           UUID NOT NULL REFERENCES %[2]s (id),
	issue_date          TIMESTAMP WITH TIME ZONE NOT NULL,
	due_date            TIMESTAMP WITH TIME ZONE NOT NULL,
	return_date         TIMESTAMP WITH TIME ZONE,
	status              TEXT NOT NULL CHECK (status IN ('issued', 'overdue', 'returned')),
	renewal_count       INTEGER NOT NULL DEFAULT 0,
	condition_on_return TEXT NOT NULL DEFAULT ''
);

CREATE UNIQUE INDEX IF NOT EXISTS %[3]s_one_open_per_pair
	ON %[3]s (book_id, patron_id) WHERE status IN ('issued', 'overdue');

CREATE INDEX IF NOT EXISTS %[3]s_status_due
	ON %[3]s (status, due_date);

CREATE TABLE IF NOT EXISTS %[4]s (
	id                UUID PRIMARY KEY,
	loan_id           UUID NOT NULL UNIQUE REFERENCES %[3]s (id),
	patron_id         UUID NOT NULL REFERENCES %[2]s (id),
	amount            NUMERIC(12, 2) NOT NULL CHECK (amount >= 0),
	days_overdue      INTEGER NOT NULL CHECK (days_overdue >= 0),
	rate_per_day      NUMERIC(12, 2) NOT NULL,
	status            TEXT NOT NULL CHECK (status IN ('pending', 'paid', 'waived')),
	calculated_at     TIMESTAMP WITH TIME ZONE NOT NULL,
	settled_at        TIMESTAMP WITH TIME ZONE,
	settlement_detail TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS %[4]s_status
	ON %[4]s (status);

CREATE TABLE IF NOT EXISTS %[5]s (
	id          UUID PRIMARY KEY,
	fine_id     UUID NOT NULL REFERENCES %[4]s (id),
	loan_id     UUID NOT NULL REFERENCES %[3]s (id),
	kind        TEXT NOT NULL CHECK (kind IN ('created', 'recalculated', 'paid', 'waived')),
	amount      NUMERIC(12, 2) NOT NULL,
	occurred_at TIMESTAMP WITH TIME ZONE NOT NULL,
	detail      JSONB NOT NULL DEFAULT '{}'
);
`

// Schema returns the DDL for the configured table names. The partial unique
// index on open loans backs the one-open-loan-per-pair invariant at the
// storage level, as a second line of defense behind the issue checks.
func (l *Ledger) Schema() string {
	return fmt.Sprintf(
		schemaTemplate,
		l.tables.Books,
		l.tables.Patrons,
		l.tables.Loans,
		l.tables.Fines,
		l.tables.FineTransactions,
	)
}

// InitSchema creates the ledger tables and indexes if they do not exist.
func (l *Ledger) InitSchema(ctx context.Context) error {
	if _, execErr := l.db.Exec(ctx, l.Schema()); execErr != nil {
		l.logError(logMsgDBExecFailed, execErr)
		return errors.Join(circulation.ErrTransientStorageFailure, execErr)
	}

	return nil
}
