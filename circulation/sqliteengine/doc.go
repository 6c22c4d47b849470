// Package sqliteengine implements the circulation ledger on SQLite via
// database/sql and the modernc.org/sqlite driver.
//
// It mirrors the semantics of the Postgres engine with one difference in
// mechanism: SQLite has no SELECT ... FOR UPDATE, so the engine relies on
// the database's single-writer transaction model (the pool is opened with a
// single connection) to serialize units of work. The guarded UPDATE
// statements and their rows-affected checks are the same.
//
// Monetary amounts are stored as TEXT and parsed with shopspring/decimal,
// timestamps as RFC 3339 strings in UTC.
package sqliteengine
