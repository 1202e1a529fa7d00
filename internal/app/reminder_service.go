package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"finance_tracker_bot/internal/domain/obligation"
	"finance_tracker_bot/internal/domain/override"
	"finance_tracker_bot/internal/domain/reminder"
	idb "finance_tracker_bot/internal/infra/database"
)

// ReminderService computes and arms the derived reminder schedule. Armed
// events do not survive a restart, so everything here is recomputable:
// RescheduleAll rebuilds the full set from obligations and overrides and is
// run on boot and after every posting, skip or snooze mutation.
type ReminderService struct {
	obligations obligation.Repository
	skips       override.SkipStore
	snoozes     override.SnoozeStore
	alarm       reminder.Alarm
	presenter   reminder.Presenter
	clock       Clock
	hour        int // local time-of-day reminders fire at
	logger      *logrus.Entry
}

func NewReminderService(
	or obligation.Repository,
	ss override.SkipStore,
	sn override.SnoozeStore,
	alarm reminder.Alarm,
	presenter reminder.Presenter,
	clock Clock,
	hour int,
	logger *logrus.Entry,
) *ReminderService {
	return &ReminderService{
		obligations: or,
		skips:       ss,
		snoozes:     sn,
		alarm:       alarm,
		presenter:   presenter,
		clock:       clock,
		hour:        hour,
		logger:      logger,
	}
}

// ScheduleReminders recomputes and arms the obligation's events for the given
// month, replacing whatever was armed before. A snooze override replaces the
// standard LEAD/DUE/OVERDUE set with a single SNOOZED event; a skip override
// suppresses everything. Instants already in the past are not armed.
func (s *ReminderService) ScheduleReminders(ctx context.Context, ob *obligation.Obligation, m obligation.Month) error {
	s.CancelReminders(ob.ID)

	skipped, err := s.skips.IsSet(ctx, ob.ID, m)
	if err != nil {
		return fmt.Errorf("failed to check skip override for obligation %d: %w", ob.ID, err)
	}
	if skipped {
		return nil
	}

	now := s.clock.Now()

	sn, err := s.snoozes.Get(ctx, ob.ID, m)
	if err != nil && err != idb.ErrSnoozeNotFound {
		return fmt.Errorf("failed to check snooze override for obligation %d: %w", ob.ID, err)
	}
	if sn != nil {
		s.arm(reminder.Event{ObligationID: ob.ID, Month: m, Kind: reminder.KindSnoozed, TriggerAt: sn.SnoozedUntil}, now)
		return nil
	}

	due := obligation.ResolveDueDate(m, ob.DueRule, s.clock.Location())
	s.arm(reminder.Event{ObligationID: ob.ID, Month: m, Kind: reminder.KindLead, TriggerAt: s.atHour(due.AddDate(0, 0, -ob.LeadDays))}, now)
	s.arm(reminder.Event{ObligationID: ob.ID, Month: m, Kind: reminder.KindDue, TriggerAt: s.atHour(due)}, now)
	s.arm(reminder.Event{ObligationID: ob.ID, Month: m, Kind: reminder.KindOverdue, TriggerAt: s.atHour(due.AddDate(0, 0, 1))}, now)
	return nil
}

func (s *ReminderService) arm(ev reminder.Event, now time.Time) {
	if !ev.TriggerAt.After(now) {
		return
	}
	s.alarm.ScheduleAt(ev.TriggerAt, ev, ev.Key())
}

// atHour pins a calendar date to the configured reminder hour.
func (s *ReminderService) atHour(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), s.hour, 0, 0, 0, s.clock.Location())
}

// CancelReminders cancels every armed event for the obligation. Keys are
// explicit (obligationID, kind) composites, so cancellation is exact and
// cancelling nothing is a no-op.
func (s *ReminderService) CancelReminders(obligationID int64) {
	for _, kind := range reminder.Kinds {
		s.alarm.Cancel(reminder.Key(obligationID, kind))
	}
}

// RescheduleAll rebuilds the complete reminder set from scratch for every
// active obligation. It is the only mechanism after a process restart. Obligations
// whose cache already names the current month roll forward to the next one
// (the same look-ahead the mark-paid action uses); only the current and next
// boundary are ever armed.
func (s *ReminderService) RescheduleAll(ctx context.Context, now time.Time) error {
	m := obligation.MonthOf(now.In(s.clock.Location()))

	actives, err := s.obligations.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active obligations: %w", err)
	}

	var errs []error
	for _, ob := range actives {
		target := m
		if ob.LastPostedMonth != nil && !ob.LastPostedMonth.Before(m) {
			target = m.Next()
		}
		if !ob.ActiveIn(target) {
			s.CancelReminders(ob.ID)
			continue
		}
		if err := s.ScheduleReminders(ctx, ob, target); err != nil {
			errs = append(errs, err)
			s.logger.WithError(err).WithField("obligation_id", ob.ID).
				Error("Failed to reschedule reminders; continuing rebuild")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("reminder rebuild: %w", errors.Join(errs...))
	}
	return nil
}

// HandleFired dispatches a fired alarm event: a fired SNOOZED event consumes
// its override, then presentation is delegated. A vanished obligation is a
// logged no-op.
func (s *ReminderService) HandleFired(ctx context.Context, ev reminder.Event) error {
	ob, err := s.obligations.GetByID(ctx, ev.ObligationID)
	if err != nil {
		if err == idb.ErrObligationNotFound {
			s.logger.WithField("obligation_id", ev.ObligationID).
				Warn("Reminder fired for missing obligation; ignoring")
			return nil
		}
		return fmt.Errorf("failed to load obligation %d for fired reminder: %w", ev.ObligationID, err)
	}

	if ev.Kind == reminder.KindSnoozed {
		if err := s.snoozes.Clear(ctx, ev.ObligationID, ev.Month); err != nil {
			s.logger.WithError(err).WithField("obligation_id", ev.ObligationID).
				Warn("Failed to clear fired snooze override")
		}
	}

	if err := s.presenter.PresentReminder(ctx, ob, ev); err != nil {
		return fmt.Errorf("failed to present %s reminder for obligation %d: %w", ev.Kind, ev.ObligationID, err)
	}
	return nil
}
