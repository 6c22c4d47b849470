// Package returnloan implements the Return Loan use case.
//
// This feature closes an open loan, restocks the copy, and assesses a fine
// for late returns. The loan row, the copy counter, and the fine row mutate
// in one transaction.
//
// A return racing the overdue sweeper on the same loan converges: the fine
// amount is a pure function of the dates, so whichever side flags the
// lateness first produces the same figure. Incrementing availability past
// the total copies indicates external corruption and fails closed with
// ErrInvariantViolation instead of silently clamping.
package returnloan
