package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"finance_tracker_bot/internal/app"
)

const tickTimeout = 5 * time.Minute

// TickScheduler drives the periodic trigger path: one auto-post pass plus a
// full reminder rebuild, daily and once on boot. The on-boot run is what
// restores the reminder schedule after a restart; armed events do not survive
// one on their own.
type TickScheduler struct {
	cronEngine *cron.Cron
	ticks      *app.TickService
	logger     *logrus.Entry
	cronSpec   string
}

func NewTickScheduler(ts *app.TickService, loc *time.Location, cronSpec string, logger *logrus.Entry) *TickScheduler {
	return &TickScheduler{
		cronEngine: cron.New(cron.WithLocation(loc)),
		ticks:      ts,
		logger:     logger,
		cronSpec:   cronSpec,
	}
}

func (s *TickScheduler) Start() {
	s.logger.Info("Starting tick scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, s.runTick)
	if err != nil {
		s.logger.Fatalf("Could not add daily tick cron job: %v", err)
	}

	// Boot tick: reconcile anything missed while the process was down and
	// rebuild the reminder schedule from scratch.
	go s.runTick()

	s.cronEngine.Start()
	s.logger.WithField("cron_spec", s.cronSpec).Info("Tick scheduler started")
}

func (s *TickScheduler) runTick() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	res, err := s.ticks.RunTick(ctx)
	if err != nil {
		// Per-item failures are already isolated; the next tick retries them.
		s.logger.WithError(err).Error("Tick finished with failures")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"posted":     res.Posted,
		"reconciled": res.Reconciled,
		"skipped":    res.Skipped,
	}).Info("Tick finished")
}

func (s *TickScheduler) Stop() {
	s.logger.Info("Stopping tick scheduler...")
	ctx := s.cronEngine.Stop() // Waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Tick scheduler gracefully stopped")
}
