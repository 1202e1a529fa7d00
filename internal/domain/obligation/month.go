package obligation

import (
	"fmt"
	"time"
)

// monthLayout is the canonical textual form of a Month ("2006-01"), used both
// for persistence and for override keys of the form "{obligationId}|{yearMonth}".
const monthLayout = "2006-01"

// Month is a calendar month in a specific year. It is the granularity at
// which recurring obligations are due, posted, skipped and snoozed.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing the given instant.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses the canonical "2006-01" form.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Days returns the number of days in the month, leap years included.
func (m Month) Days() int {
	// Day 0 of the following month normalizes to the last day of this one.
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Start returns midnight on the first day of the month in the given zone.
func (m Month) Start(loc *time.Location) time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// Next returns the following month.
func (m Month) Next() Month {
	t := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) Before(o Month) bool {
	return m.Year < o.Year || (m.Year == o.Year && m.Month < o.Month)
}

func (m Month) After(o Month) bool {
	return o.Before(m)
}
