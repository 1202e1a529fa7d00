package reminder

import (
	"context"
	"time"

	"finance_tracker_bot/internal/domain/obligation"
)

// Alarm is the platform alarm capability the scheduler arms events against.
// Scheduling is fire-and-forget and best-effort: an implementation that
// cannot schedule exactly degrades to inexact delivery rather than failing,
// and cancelling an unknown key is a no-op.
type Alarm interface {
	ScheduleAt(at time.Time, ev Event, key string)
	Cancel(key string)
}

// Presenter renders a fired reminder to the user, with the Mark Paid and
// Snooze actions attached. It owns no business logic; the resulting action
// comes back through the action handler.
type Presenter interface {
	PresentReminder(ctx context.Context, ob *obligation.Obligation, ev Event) error
}
