// Package reminder defines the transient reminder events the engine arms and
// the capability interfaces it needs to arm them. Events are never persisted:
// the full set is recomputed from obligations and overrides on every
// scheduling pass, which is also how the schedule survives a process restart.
package reminder

import (
	"fmt"
	"time"

	"finance_tracker_bot/internal/domain/obligation"
)

// Kind distinguishes the events armed for one obligation-month.
type Kind string

const (
	KindLead    Kind = "LEAD"
	KindDue     Kind = "DUE"
	KindOverdue Kind = "OVERDUE"
	KindSnoozed Kind = "SNOOZED"
)

// Kinds lists every kind, in firing order.
var Kinds = []Kind{KindLead, KindDue, KindOverdue, KindSnoozed}

// Event is one armed reminder occurrence.
type Event struct {
	ObligationID int64
	Month        obligation.Month
	Kind         Kind
	TriggerAt    time.Time
}

// Key returns the stable alarm handle for an (obligation, kind) pair. It is
// an explicit composite, not a hash, so cancellation can never collide.
func Key(obligationID int64, kind Kind) string {
	return fmt.Sprintf("reminder|%d|%s", obligationID, kind)
}

// Key returns the event's own alarm handle.
func (e Event) Key() string {
	return Key(e.ObligationID, e.Kind)
}
