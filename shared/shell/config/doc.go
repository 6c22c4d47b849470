// Package config provides database connection constructors for the ledger
// engines: pgx pool, database/sql, and sqlx connections for Postgres, and an
// embedded sqlite database for small deployments and tests.
package config
