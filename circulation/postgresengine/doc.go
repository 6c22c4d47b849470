// Package postgresengine provides a PostgreSQL implementation of the
// circulation ledger contracts.
//
// Every multi-entity state transition (copy counter plus loan row, fine row
// plus journal entry) runs inside a single database transaction. Rows that a
// transition is about to mutate are locked with SELECT ... FOR UPDATE, and
// counter moves use guarded UPDATE statements whose rows-affected count
// distinguishes "no copies available" and "counter corruption" from success,
// so two concurrent issues of the last copy can never both win.
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX)
//   - Atomic issue/return/settlement with row-level locking
//   - Guarded copy-counter updates that fail closed on corruption
//   - Configurable table names and optional logging/metrics
//
// Usage examples:
//
//	// Basic usage
//	pool, _ := pgxpool.New(context.Background(), dsn)
//	ledger, _ := postgresengine.NewLedgerFromPGXPool(pool)
//
//	// With operational logging
//	ledger, _ := postgresengine.NewLedgerFromPGXPool(
//		pool,
//		postgresengine.WithLogger(logger),
//	)
//
//	err := ledger.WithinTx(ctx, func(ctx context.Context, session circulation.Session) error {
//		...
//	})
package postgresengine
