package obligation

import "time"

// DueRule specifies the calendar day an obligation falls due: a day of month
// in [1,31], or DueLastDay for "last day of the month".
type DueRule int

// DueLastDay is the sentinel rule for obligations due on the last day of
// whatever month is being resolved.
const DueLastDay DueRule = 0

// ResolveDueDate maps a (month, rule) pair to the concrete due date, at
// midnight in the given zone. A rule that exceeds the month's length is
// clamped down to the last day (so "day 31" falls on Feb 29 in a leap year),
// and anything below 1 is clamped up to day 1. Total over all inputs.
func ResolveDueDate(m Month, rule DueRule, loc *time.Location) time.Time {
	last := m.Days()
	day := int(rule)
	switch {
	case rule == DueLastDay || day > last:
		day = last
	case day < 1:
		day = 1
	}
	return time.Date(m.Year, m.Month, day, 0, 0, 0, 0, loc)
}
