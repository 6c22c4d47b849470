package postgresengine

import (
	"github.com/flowinghill/circulation-ledger-go/circulation"
)

// Option defines a functional option for configuring the Ledger.
type Option func(*Ledger) error

// WithTableNames overrides the default table names.
// Every name must be non-empty.
func WithTableNames(tables TableNames) Option {
	return func(l *Ledger) error {
		if tables.Books == "" || tables.Patrons == "" || tables.Loans == "" ||
			tables.Fines == "" || tables.FineTransactions == "" {

			return circulation.ErrEmptyTableName
		}

		l.tables = tables

		return nil
	}
}

// WithLogger sets the logger for the Ledger.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: transaction durations and operational outcomes (production-safe)
// Warn level: non-critical issues like rollback failures
// Error level: critical failures that cause operation failures.
func WithLogger(logger circulation.Logger) Option {
	return func(l *Ledger) error {
		l.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Ledger.
// The contextual logger receives the same messages as the plain logger but
// with the request context attached, enabling automatic trace and span
// correlation when the logging backend supports it.
func WithContextualLogger(logger circulation.ContextualLogger) Option {
	return func(l *Ledger) error {
		l.contextualLogger = logger
		return nil
	}
}
