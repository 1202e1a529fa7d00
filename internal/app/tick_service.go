package app

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// TickService is the single entry point every trigger path shares: the daily
// cron job, the on-boot run and the user's ad-hoc check all invoke the same
// auto-post pass followed by a full reminder rebuild.
type TickService struct {
	autoPost  *AutoPostService
	reminders *ReminderService
	clock     Clock
	logger    *logrus.Entry
}

func NewTickService(ap *AutoPostService, rs *ReminderService, clock Clock, logger *logrus.Entry) *TickService {
	return &TickService{autoPost: ap, reminders: rs, clock: clock, logger: logger}
}

// RunTick runs one full pass. Auto-post failures do not prevent the reminder
// rebuild; both errors are reported joined so the host scheduler can retry.
func (s *TickService) RunTick(ctx context.Context) (Result, error) {
	now := s.clock.Now()
	s.logger.WithField("now", now).Info("Tick started")

	res, postErr := s.autoPost.Run(ctx, now)
	rebuildErr := s.reminders.RescheduleAll(ctx, now)
	if rebuildErr != nil {
		s.logger.WithError(rebuildErr).Error("Reminder rebuild reported failures")
	}
	return res, errors.Join(postErr, rebuildErr)
}
