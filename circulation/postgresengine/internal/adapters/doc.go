// Package adapters provides database abstraction adapters for the ledger engine.
//
// It wraps the three supported connection types (pgxpool.Pool, sql.DB,
// sqlx.DB) behind small interfaces so the engine builds one SQL string and
// runs it on any of them, including inside transactions.
package adapters
