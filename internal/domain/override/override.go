// Package override holds the per-(obligation, month) exception registries.
// Overrides carry no business logic beyond presence and absence; the
// auto-post engine and the reminder scheduler consult them.
package override

import (
	"time"

	"finance_tracker_bot/internal/domain/obligation"
)

// Skip suppresses auto-posting and standard reminders for one obligation in
// one month. It does not affect manual posting.
type Skip struct {
	ObligationID int64
	Month        obligation.Month
	CreatedAt    time.Time
}

// Snooze replaces the standard reminder set for the month with a single
// deferred reminder at SnoozedUntil. It is cleared when that reminder fires
// or when explicitly removed.
type Snooze struct {
	ObligationID int64
	Month        obligation.Month
	SnoozedUntil time.Time
	CreatedAt    time.Time
}
