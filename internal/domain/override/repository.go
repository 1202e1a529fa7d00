package override

import (
	"context"
	"time"

	"finance_tracker_bot/internal/domain/obligation"
)

// SkipStore persists skip overrides. Set is idempotent; clearing an absent
// override is a no-op.
type SkipStore interface {
	Set(ctx context.Context, obligationID int64, m obligation.Month) error
	Clear(ctx context.Context, obligationID int64, m obligation.Month) error
	IsSet(ctx context.Context, obligationID int64, m obligation.Month) (bool, error)
}

// SnoozeStore persists snooze overrides. Set replaces any existing override
// for the same (obligation, month).
type SnoozeStore interface {
	Set(ctx context.Context, obligationID int64, m obligation.Month, until time.Time) error
	Clear(ctx context.Context, obligationID int64, m obligation.Month) error
	Get(ctx context.Context, obligationID int64, m obligation.Month) (*Snooze, error)
}
