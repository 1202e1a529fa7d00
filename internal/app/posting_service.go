package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"finance_tracker_bot/internal/domain/ledger"
	"finance_tracker_bot/internal/domain/obligation"
	idb "finance_tracker_bot/internal/infra/database"
)

// ErrStaleEntryReference means an undo referenced an entry that is not the
// obligation's most recent ledger entry, so nothing was deleted.
var ErrStaleEntryReference = fmt.Errorf("entry is not the latest ledger entry for this obligation")

// PostingService owns the posting primitives shared by every trigger path:
// manual pay, undo, cache repair, and the auto-post engine's insert. All of
// them serialize through a per-obligation lock, and every posting decision is
// verified against the ledger; the LastPostedMonth cache is only ever a
// hint.
type PostingService struct {
	obligations obligation.Repository
	entries     ledger.Repository
	clock       Clock
	locks       *keyedMutex
	logger      *logrus.Entry
}

func NewPostingService(or obligation.Repository, lr ledger.Repository, clock Clock, logger *logrus.Entry) *PostingService {
	return &PostingService{
		obligations: or,
		entries:     lr,
		clock:       clock,
		locks:       newKeyedMutex(),
		logger:      logger,
	}
}

// MarkAsPaid posts the obligation for the given month on the user's behalf.
// It returns the new entry, or (nil, nil) when the month was already
// satisfied, which is a normal idempotent outcome, not an error.
func (s *PostingService) MarkAsPaid(ctx context.Context, obligationID int64, m obligation.Month) (*ledger.Entry, error) {
	unlock := s.locks.lock(obligationID)
	defer unlock()
	return s.postLocked(ctx, obligationID, m, "Manually paid")
}

// AutoPost posts the obligation for the given month from the auto-post
// engine. Same contract as MarkAsPaid, different entry note.
func (s *PostingService) AutoPost(ctx context.Context, obligationID int64, m obligation.Month) (*ledger.Entry, error) {
	unlock := s.locks.lock(obligationID)
	defer unlock()
	return s.postLocked(ctx, obligationID, m, "Auto-posted")
}

func (s *PostingService) postLocked(ctx context.Context, obligationID int64, m obligation.Month, notePrefix string) (*ledger.Entry, error) {
	ob, err := s.obligations.GetByID(ctx, obligationID)
	if err != nil {
		return nil, err
	}

	// Authoritative idempotency check: the ledger decides, never the cache.
	existing, err := s.entries.FindByMonth(ctx, obligationID, m)
	if err != nil && err != idb.ErrEntryNotFound {
		return nil, fmt.Errorf("failed to check existing entries for obligation %d: %w", obligationID, err)
	}
	if existing != nil {
		// Already satisfied; repair a stale cache without re-posting.
		s.reconcileCacheLocked(ctx, ob, m)
		return nil, nil
	}

	entry := &ledger.Entry{
		ID:           uuid.NewString(),
		ObligationID: ob.ID,
		Month:        m,
		AmountMinor:  ob.AmountMinor,
		Account:      ob.Account,
		Category:     ob.Category,
		Note:         fmt.Sprintf("%s: %s (%s)", notePrefix, ob.Title, m),
		PostedAt:     s.clock.Now(),
	}
	if err := s.entries.Insert(ctx, entry); err != nil {
		if err == idb.ErrDuplicateObligationEntry {
			// Lost the insert race to a concurrent trigger; the month is
			// satisfied either way.
			s.logger.WithField("obligation_id", obligationID).WithField("month", m.String()).
				Info("Concurrent trigger already posted this month")
			s.reconcileCacheLocked(ctx, ob, m)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to insert ledger entry for obligation %d: %w", obligationID, err)
	}

	// The entry is committed; a failed cache write stays repairable via Sync.
	s.reconcileCacheLocked(ctx, ob, m)
	return entry, nil
}

// reconcileCacheLocked advances LastPostedMonth to m unless the cache already
// names m or a later month. Failures are logged, not propagated: the ledger
// write this accompanies has already succeeded.
func (s *PostingService) reconcileCacheLocked(ctx context.Context, ob *obligation.Obligation, m obligation.Month) {
	if ob.LastPostedMonth != nil && !ob.LastPostedMonth.Before(m) {
		return
	}
	month := m
	ob.LastPostedMonth = &month
	if err := s.obligations.Update(ctx, ob); err != nil {
		s.logger.WithError(err).WithField("obligation_id", ob.ID).
			Warn("Failed to update last-posted-month cache; run Sync to repair")
	}
}

// Undo deletes the given entry, but only after verifying it is in fact the
// obligation's most recent one; a stale reference deletes nothing. The cache
// is unconditionally recomputed from the ledger afterwards.
func (s *PostingService) Undo(ctx context.Context, entryID string, obligationID int64) error {
	unlock := s.locks.lock(obligationID)
	defer unlock()

	latest, err := s.entries.Latest(ctx, obligationID)
	if err != nil {
		if err == idb.ErrEntryNotFound {
			return ErrStaleEntryReference
		}
		return fmt.Errorf("failed to look up latest entry for obligation %d: %w", obligationID, err)
	}
	if latest.ID != entryID {
		return ErrStaleEntryReference
	}
	if err := s.entries.Delete(ctx, entryID); err != nil {
		return fmt.Errorf("failed to delete ledger entry %s: %w", entryID, err)
	}
	return s.syncLocked(ctx, obligationID)
}

// Sync recomputes LastPostedMonth from the single latest ledger entry (or
// clears it when none exist). This is the only authoritative cache repair and
// must be called after any out-of-band ledger mutation.
func (s *PostingService) Sync(ctx context.Context, obligationID int64) error {
	unlock := s.locks.lock(obligationID)
	defer unlock()
	return s.syncLocked(ctx, obligationID)
}

func (s *PostingService) syncLocked(ctx context.Context, obligationID int64) error {
	ob, err := s.obligations.GetByID(ctx, obligationID)
	if err != nil {
		return err
	}

	latest, err := s.entries.Latest(ctx, obligationID)
	switch {
	case err == idb.ErrEntryNotFound:
		ob.LastPostedMonth = nil
	case err != nil:
		return fmt.Errorf("failed to look up latest entry for obligation %d: %w", obligationID, err)
	default:
		month := latest.Month
		ob.LastPostedMonth = &month
	}

	if err := s.obligations.Update(ctx, ob); err != nil {
		return fmt.Errorf("failed to sync cache for obligation %d: %w", obligationID, err)
	}
	return nil
}
