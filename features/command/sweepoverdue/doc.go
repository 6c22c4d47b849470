// Package sweepoverdue implements the Sweep Overdue use case.
//
// The sweep reconciles loan status with the calendar: every issued loan past
// its due date at the given time transitions to overdue and gets its fine
// materialized. It is one idempotent function over an explicit "now", so
// the overdue-loans view can invoke it lazily and a scheduler can invoke it
// periodically with identical results.
//
// Safe to run concurrently with returns on the same loans: each candidate
// is re-checked under lock, and fine amounts are a pure function of dates,
// so the outcome does not depend on which side won the race.
package sweepoverdue
