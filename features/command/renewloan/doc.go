// Package renewloan implements the Renew Loan use case.
//
// Renewal extends an issued loan's due date while it is still in good
// standing: not overdue by status or by date, and below the configured
// renewal cap. Copy counters are never touched.
package renewloan
