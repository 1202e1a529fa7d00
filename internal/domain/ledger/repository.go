package ledger

import (
	"context"

	"finance_tracker_bot/internal/domain/obligation"
)

// Repository defines the ledger store operations the engine consumes. The
// implementation must enforce uniqueness of (obligation_id, month) for
// obligation-originated entries; Insert reports a violation as
// database.ErrDuplicateObligationEntry so callers can treat the race loser's
// insert as an ordinary already-posted outcome.
type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id string) error
	// FindByMonth returns the obligation's entry tagged with the given month,
	// or database.ErrEntryNotFound when the month has no entry.
	FindByMonth(ctx context.Context, obligationID int64, m obligation.Month) (*Entry, error)
	// Latest returns the single most recently posted entry for the obligation.
	Latest(ctx context.Context, obligationID int64) (*Entry, error)
}
