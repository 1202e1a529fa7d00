package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finance_tracker_bot/internal/domain/ledger"
	"finance_tracker_bot/internal/domain/obligation"
	idb "finance_tracker_bot/internal/infra/database"
)

func TestMarkAsPaidPostsOnce(t *testing.T) {
	now := time.Date(2024, time.March, 2, 10, 0, 0, 0, time.UTC)
	f := newEngineFixture(now)
	ob := f.addObligation()

	entry, err := f.posting.MarkAsPaid(context.Background(), ob.ID, march2024)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Contains(t, entry.Note, "Manually paid")

	// The second call is a normal idempotent outcome, not an error.
	again, err := f.posting.MarkAsPaid(context.Background(), ob.ID, march2024)
	require.NoError(t, err)
	require.Nil(t, again)
	require.Equal(t, 1, f.entries.count())
}

func TestMarkAsPaidMissingObligation(t *testing.T) {
	f := newEngineFixture(time.Date(2024, time.March, 2, 10, 0, 0, 0, time.UTC))

	_, err := f.posting.MarkAsPaid(context.Background(), 42, march2024)
	require.ErrorIs(t, err, idb.ErrObligationNotFound)
}

func TestMarkAsPaidUndoSyncRoundTrip(t *testing.T) {
	now := time.Date(2024, time.March, 2, 10, 0, 0, 0, time.UTC)
	f := newEngineFixture(now)
	ob := f.addObligation()

	// February was posted earlier; the round trip must land back on it.
	february := obligation.Month{Year: 2024, Month: time.February}
	require.NoError(t, f.entries.Insert(context.Background(), &ledger.Entry{
		ID:           "feb-entry",
		ObligationID: ob.ID,
		Month:        february,
		AmountMinor:  ob.AmountMinor,
		PostedAt:     time.Date(2024, time.February, 5, 9, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, f.posting.Sync(context.Background(), ob.ID))

	entry, err := f.posting.MarkAsPaid(context.Background(), ob.ID, march2024)
	require.NoError(t, err)
	require.NotNil(t, entry)

	stored, err := f.obs.GetByID(context.Background(), ob.ID)
	require.NoError(t, err)
	require.Equal(t, march2024, *stored.LastPostedMonth)

	require.NoError(t, f.posting.Undo(context.Background(), entry.ID, ob.ID))

	stored, err = f.obs.GetByID(context.Background(), ob.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastPostedMonth)
	require.Equal(t, february, *stored.LastPostedMonth)
	require.Equal(t, 1, f.entries.count())
}

func TestUndoClearsCacheWhenNoEntriesRemain(t *testing.T) {
	now := time.Date(2024, time.March, 2, 10, 0, 0, 0, time.UTC)
	f := newEngineFixture(now)
	ob := f.addObligation()

	entry, err := f.posting.MarkAsPaid(context.Background(), ob.ID, march2024)
	require.NoError(t, err)
	require.NoError(t, f.posting.Undo(context.Background(), entry.ID, ob.ID))

	stored, err := f.obs.GetByID(context.Background(), ob.ID)
	require.NoError(t, err)
	require.Nil(t, stored.LastPostedMonth)
	require.Zero(t, f.entries.count())
}

func TestUndoRejectsStaleReference(t *testing.T) {
	now := time.Date(2024, time.March, 2, 10, 0, 0, 0, time.UTC)
	f := newEngineFixture(now)
	ob := f.addObligation()

	older, err := f.posting.MarkAsPaid(context.Background(), ob.ID, obligation.Month{Year: 2024, Month: time.February})
	require.NoError(t, err)
	f.clock.set(now.Add(time.Hour))
	_, err = f.posting.MarkAsPaid(context.Background(), ob.ID, march2024)
	require.NoError(t, err)

	err = f.posting.Undo(context.Background(), older.ID, ob.ID)
	require.ErrorIs(t, err, ErrStaleEntryReference)
	require.Equal(t, 2, f.entries.count())
}

func TestUndoWithoutAnyEntries(t *testing.T) {
	f := newEngineFixture(time.Date(2024, time.March, 2, 10, 0, 0, 0, time.UTC))
	ob := f.addObligation()

	err := f.posting.Undo(context.Background(), "no-such-entry", ob.ID)
	require.ErrorIs(t, err, ErrStaleEntryReference)
}

func TestSyncAfterOutOfBandDeletion(t *testing.T) {
	now := time.Date(2024, time.March, 2, 10, 0, 0, 0, time.UTC)
	f := newEngineFixture(now)
	ob := f.addObligation()

	entry, err := f.posting.MarkAsPaid(context.Background(), ob.ID, march2024)
	require.NoError(t, err)

	// Deleted behind the service's back; the cache is now a lie until Sync.
	require.NoError(t, f.entries.Delete(context.Background(), entry.ID))
	require.NoError(t, f.posting.Sync(context.Background(), ob.ID))

	stored, err := f.obs.GetByID(context.Background(), ob.ID)
	require.NoError(t, err)
	require.Nil(t, stored.LastPostedMonth)
}

func TestMarkAsPaidSurvivesInsertRace(t *testing.T) {
	now := time.Date(2024, time.March, 2, 10, 0, 0, 0, time.UTC)
	f := newEngineFixture(now)
	ob := f.addObligation()

	// A concurrent writer commits between our existence check and our insert;
	// the unique constraint is the last line, and losing it is not an error.
	require.NoError(t, f.entries.Insert(context.Background(), &ledger.Entry{
		ID:           "raced",
		ObligationID: ob.ID,
		Month:        march2024,
		AmountMinor:  ob.AmountMinor,
		PostedAt:     now,
	}))
	f.entries.hidden["raced"] = true

	entry, err := f.posting.MarkAsPaid(context.Background(), ob.ID, march2024)
	require.NoError(t, err)
	require.Nil(t, entry)
	require.Equal(t, 1, f.entries.count())

	stored, err := f.obs.GetByID(context.Background(), ob.ID)
	require.NoError(t, err)
	require.Equal(t, march2024, *stored.LastPostedMonth)
}
