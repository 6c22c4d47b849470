package sweepoverdue

import (
	"time"
)

const (
	commandType = "SweepOverdue"
)

// Command represents the intent to reconcile overdue status across all open
// loans at an explicit point in time. Taking "now" as input keeps the sweep
// testable without wall-clock dependence and lets the lazy (on-view) and
// scheduled invocations share one code path.
type Command struct {
	Now time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(now time.Time) Command {
	return Command{Now: now}
}

// Result reports what a sweep pass did: how many due loans were selected as
// candidates and how many were actually transitioned to overdue. The counts
// differ when a candidate was returned or renewed between selection and its
// locked re-check.
type Result struct {
	Candidates    int
	MarkedOverdue int
}
