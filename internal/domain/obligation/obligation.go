package obligation

import "time"

// State is the lifecycle state of an obligation definition.
type State string

const (
	StateActive State = "ACTIVE"
	StatePaused State = "PAUSED"
)

// Obligation is a recurring financial commitment definition (rent, a
// subscription, an EMI). Amounts are integer minor currency units.
//
// LastPostedMonth is a derived cache, never authoritative: the ledger is the
// source of truth for whether a month has been posted, and the cache must
// always be repairable from it (see PostingService.Sync).
type Obligation struct {
	ID                  int64
	Title               string
	AmountMinor         int64
	Account             string
	Category            string
	DueRule             DueRule
	LeadDays            int
	AutoPost            bool
	SkipIfAlreadyPosted bool
	ActiveFrom          Month
	ActiveUntil         *Month
	LastPostedMonth     *Month
	State               State
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ActiveIn reports whether the month falls inside the obligation's active
// range. The lifecycle state is not consulted here.
func (o *Obligation) ActiveIn(m Month) bool {
	if m.Before(o.ActiveFrom) {
		return false
	}
	return o.ActiveUntil == nil || !m.After(*o.ActiveUntil)
}
