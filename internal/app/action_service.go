package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"finance_tracker_bot/internal/domain/ledger"
	"finance_tracker_bot/internal/domain/obligation"
	"finance_tracker_bot/internal/domain/override"
	idb "finance_tracker_bot/internal/infra/database"
)

// ActionService reacts to the user actions taken from a reminder. Each action
// is a short bounded task: it runs to completion under its context or is
// retried wholesale on the next trigger; the per-obligation lock inside the
// posting primitives keeps interleaved actions on the same obligation
// sequential.
type ActionService struct {
	obligations obligation.Repository
	skips       override.SkipStore
	snoozes     override.SnoozeStore
	posting     *PostingService
	reminders   *ReminderService
	clock       Clock
	hour        int // same fixed time-of-day the scheduler uses
	logger      *logrus.Entry
}

func NewActionService(
	or obligation.Repository,
	ss override.SkipStore,
	sn override.SnoozeStore,
	ps *PostingService,
	rs *ReminderService,
	clock Clock,
	hour int,
	logger *logrus.Entry,
) *ActionService {
	return &ActionService{
		obligations: or,
		skips:       ss,
		snoozes:     sn,
		posting:     ps,
		reminders:   rs,
		clock:       clock,
		hour:        hour,
		logger:      logger,
	}
}

// OnMarkPaid posts the month (idempotently), clears any snooze, cancels the
// month's reminders, and rolls the look-ahead: when the obligation stays
// active into the next month and that month is not skipped, its reminders are
// armed immediately. Only the current and the next boundary are ever armed.
// The new entry is returned, or nil when the month was already satisfied.
func (s *ActionService) OnMarkPaid(ctx context.Context, obligationID int64, m obligation.Month) (*ledger.Entry, error) {
	entry, err := s.posting.MarkAsPaid(ctx, obligationID, m)
	if err != nil {
		if err == idb.ErrObligationNotFound {
			s.logger.WithField("obligation_id", obligationID).
				Warn("Mark-paid action for missing obligation; ignoring")
			return nil, nil
		}
		return nil, fmt.Errorf("mark-paid action for obligation %d: %w", obligationID, err)
	}

	if err := s.snoozes.Clear(ctx, obligationID, m); err != nil {
		s.logger.WithError(err).WithField("obligation_id", obligationID).
			Warn("Failed to clear snooze override after mark-paid")
	}
	s.reminders.CancelReminders(obligationID)

	ob, err := s.obligations.GetByID(ctx, obligationID)
	if err != nil {
		return entry, fmt.Errorf("failed to reload obligation %d after mark-paid: %w", obligationID, err)
	}
	next := m.Next()
	if ob.State != obligation.StateActive || !ob.ActiveIn(next) {
		return entry, nil
	}
	skipped, err := s.skips.IsSet(ctx, obligationID, next)
	if err != nil {
		return entry, fmt.Errorf("failed to check skip override for obligation %d: %w", obligationID, err)
	}
	if skipped {
		return entry, nil
	}
	return entry, s.reminders.ScheduleReminders(ctx, ob, next)
}

// SetSkip marks the month as skipped for the obligation: no auto-posting, no
// standard reminders. Manual posting stays possible.
func (s *ActionService) SetSkip(ctx context.Context, obligationID int64, m obligation.Month) error {
	ob, err := s.obligations.GetByID(ctx, obligationID)
	if err != nil {
		return err
	}
	if err := s.skips.Set(ctx, obligationID, m); err != nil {
		return fmt.Errorf("failed to set skip override for obligation %d: %w", obligationID, err)
	}
	// Rescheduling under an active skip cancels the month's reminders.
	return s.reminders.ScheduleReminders(ctx, ob, m)
}

// ClearSkip removes the skip override and restores the month's reminders.
func (s *ActionService) ClearSkip(ctx context.Context, obligationID int64, m obligation.Month) error {
	ob, err := s.obligations.GetByID(ctx, obligationID)
	if err != nil {
		return err
	}
	if err := s.skips.Clear(ctx, obligationID, m); err != nil {
		return fmt.Errorf("failed to clear skip override for obligation %d: %w", obligationID, err)
	}
	return s.reminders.ScheduleReminders(ctx, ob, m)
}

// OnSnooze defers the month's reminders by the given number of days: the
// deferred instant lands on the fixed reminder hour, pushed forward one day
// if that would already be in the past, is persisted as a snooze override,
// and replaces the standard set with a single SNOOZED event.
func (s *ActionService) OnSnooze(ctx context.Context, obligationID int64, m obligation.Month, days int) error {
	ob, err := s.obligations.GetByID(ctx, obligationID)
	if err != nil {
		if err == idb.ErrObligationNotFound {
			s.logger.WithField("obligation_id", obligationID).
				Warn("Snooze action for missing obligation; ignoring")
			return nil
		}
		return fmt.Errorf("snooze action for obligation %d: %w", obligationID, err)
	}

	now := s.clock.Now()
	until := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, s.clock.Location()).
		AddDate(0, 0, days)
	if !until.After(now) {
		until = until.AddDate(0, 0, 1)
	}

	if err := s.snoozes.Set(ctx, obligationID, m, until); err != nil {
		return fmt.Errorf("failed to persist snooze override for obligation %d: %w", obligationID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"obligation_id": obligationID,
		"month":         m.String(),
		"until":         until,
	}).Info("Obligation snoozed")

	return s.reminders.ScheduleReminders(ctx, ob, m)
}
