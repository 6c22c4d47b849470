// Package settlepayment implements the Settle Payment use case.
//
// Payment transitions a pending fine to its terminal paid state and appends
// an immutable entry to the fine journal. The transition is idempotent in
// outcome: a second settlement of the same fine fails with
// ErrAlreadySettled and changes nothing.
package settlepayment
