package core

import (
	"time"
)

const hoursPerDay = 24

// DateOf normalizes a time to midnight UTC of its calendar date.
// All loan dates (issue, due, return) are stored normalized so that day
// arithmetic never depends on the time of day a request happened to arrive.
func DateOf(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// WholeDaysBetween returns the number of whole calendar days from one date
// to another, negative if to lies before from.
func WholeDaysBetween(from time.Time, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / hoursPerDay)
}

// DaysOverdue returns max(0, at - dueDate) in whole calendar days.
// A return exactly on the due date yields zero.
func DaysOverdue(dueDate time.Time, at time.Time) int {
	days := WholeDaysBetween(dueDate, at)
	if days < 0 {
		return 0
	}

	return days
}
