package obligation

import "time"

// Status is the display state of an obligation for a given month.
type Status string

const (
	StatusPaid     Status = "PAID"
	StatusUpcoming Status = "UPCOMING"
	StatusDueToday Status = "DUE_TODAY"
	StatusOverdue  Status = "OVERDUE"
	// StatusSkipped takes precedence over everything below it and is applied
	// by callers that consult the skip override registry; ResolveStatus never
	// returns it.
	StatusSkipped Status = "SKIPPED"
)

// ResolveStatus classifies an obligation's state for display. Paid wins
// unconditionally; otherwise today's calendar date is compared to the due
// date. Only the civil date matters, not the time of day.
func ResolveStatus(dueDate, today time.Time, paid bool) Status {
	if paid {
		return StatusPaid
	}
	d := civilDate(dueDate)
	t := civilDate(today)
	switch {
	case t.Before(d):
		return StatusUpcoming
	case t.Equal(d):
		return StatusDueToday
	default:
		return StatusOverdue
	}
}

func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
