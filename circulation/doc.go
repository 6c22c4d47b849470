// Package circulation defines the core types and contracts of the circulation
// and fine ledger: loans, fines, the status state machines, the error
// taxonomy, the injected configuration, and the storage session contract that
// all ledger engines implement.
//
// The package is purely declarative - the transactional behavior lives in the
// storage engines (postgresengine, sqliteengine, memoryengine) and the
// business rules live in the feature slices under features/command and
// features/query.
package circulation
