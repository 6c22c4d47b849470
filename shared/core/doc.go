// Package core holds the pure arithmetic of the circulation domain:
// calendar-day normalization, overdue day counts, and fine assessment.
//
// Everything here is a deterministic function of its inputs. Both the late
// return path and the sweeper path converge on AssessFine, which is what
// guarantees that the fine amount depends only on the dates involved and
// never on which path flagged the loan as overdue.
package core
