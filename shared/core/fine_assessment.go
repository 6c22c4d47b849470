package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// FineAssessment is the outcome of assessing a loan for lateness at a point
// in time: the whole days overdue, the rate that was in effect, and the
// resulting amount.
type FineAssessment struct {
	DaysOverdue int
	RatePerDay  decimal.Decimal
	Amount      decimal.Decimal
}

// AssessFine computes the fine owed for a loan with the given due date at
// the given time: days_overdue x rate_per_day, with days_overdue clamped at
// zero. Pure function - reassessing a pending fine is always safe and two
// assessments with the same inputs yield the same amount.
func AssessFine(dueDate time.Time, at time.Time, ratePerDay decimal.Decimal) FineAssessment {
	daysOverdue := DaysOverdue(dueDate, at)

	return FineAssessment{
		DaysOverdue: daysOverdue,
		RatePerDay:  ratePerDay,
		Amount:      ratePerDay.Mul(decimal.NewFromInt(int64(daysOverdue))),
	}
}

// IsFineDue reports whether the assessment found any overdue days.
func (a FineAssessment) IsFineDue() bool {
	return a.DaysOverdue > 0
}
