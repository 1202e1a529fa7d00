package ledger

import (
	"time"

	"finance_tracker_bot/internal/domain/obligation"
)

// Entry is an immutable record of money moved. Entries posted by the engine
// carry a back-reference to their originating obligation and the month they
// satisfy; ObligationID 0 means the entry has no such origin.
type Entry struct {
	ID           string // UUID
	ObligationID int64
	Month        obligation.Month // meaningful only when ObligationID != 0
	AmountMinor  int64
	Account      string
	Category     string
	Note         string
	PostedAt     time.Time
	CreatedAt    time.Time
}
