package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"finance_tracker_bot/internal/domain/obligation"
	"finance_tracker_bot/internal/domain/override"
)

// Result summarizes one auto-post pass for the host scheduler.
type Result struct {
	Posted     int // new ledger entries inserted
	Reconciled int // months already satisfied, cache repaired if stale
	Skipped    int // filtered out before the ledger check
	Failed     int // isolated per-obligation failures
}

// AutoPostService is the idempotent, eligibility-filtered posting engine. It
// is invoked by the periodic tick, by on-boot and ad-hoc triggers, and never
// posts an (obligation, month) pair more than once regardless of how many of
// those overlap.
type AutoPostService struct {
	obligations obligation.Repository
	skips       override.SkipStore
	posting     *PostingService
	clock       Clock
	logger      *logrus.Entry
}

func NewAutoPostService(or obligation.Repository, ss override.SkipStore, ps *PostingService, clock Clock, logger *logrus.Entry) *AutoPostService {
	return &AutoPostService{
		obligations: or,
		skips:       ss,
		posting:     ps,
		clock:       clock,
		logger:      logger,
	}
}

// Run processes every active auto-post obligation for the month containing
// now. A persistence failure on one obligation never aborts the rest; the
// joined error reports the batch as retryable to the host scheduler.
func (s *AutoPostService) Run(ctx context.Context, now time.Time) (Result, error) {
	loc := s.clock.Location()
	now = now.In(loc)
	m := obligation.MonthOf(now)

	actives, err := s.obligations.ListActive(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list active obligations: %w", err)
	}

	var res Result
	var errs []error
	for _, ob := range actives {
		if !ob.AutoPost {
			continue
		}
		outcome, err := s.runOne(ctx, ob, m, now)
		if err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("obligation %d (%s): %w", ob.ID, ob.Title, err))
			s.logger.WithError(err).WithField("obligation_id", ob.ID).
				Error("Auto-post failed for obligation; continuing batch")
			continue
		}
		switch outcome {
		case outcomePosted:
			res.Posted++
		case outcomeReconciled:
			res.Reconciled++
		case outcomeSkipped:
			res.Skipped++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"month":      m.String(),
		"posted":     res.Posted,
		"reconciled": res.Reconciled,
		"skipped":    res.Skipped,
		"failed":     res.Failed,
	}).Info("Auto-post run finished")

	if len(errs) > 0 {
		return res, fmt.Errorf("auto-post run for %s: %w", m, errors.Join(errs...))
	}
	return res, nil
}

type runOutcome int

const (
	outcomeSkipped runOutcome = iota
	outcomePosted
	outcomeReconciled
)

func (s *AutoPostService) runOne(ctx context.Context, ob *obligation.Obligation, m obligation.Month, now time.Time) (runOutcome, error) {
	if !ob.ActiveIn(m) {
		return outcomeSkipped, nil
	}

	// Fast path only: a warm cache may skip the ledger round-trip, so it can
	// suppress work but never create it. Any posting decision is still
	// ledger-verified inside PostingService, with the unique index as the
	// final arbiter.
	if ob.SkipIfAlreadyPosted && ob.LastPostedMonth != nil && !ob.LastPostedMonth.Before(m) {
		return outcomeSkipped, nil
	}

	skipped, err := s.skips.IsSet(ctx, ob.ID, m)
	if err != nil {
		return 0, fmt.Errorf("failed to check skip override: %w", err)
	}
	if skipped {
		return outcomeSkipped, nil
	}

	due := obligation.ResolveDueDate(m, ob.DueRule, s.clock.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.clock.Location())
	if today.Before(due) {
		return outcomeSkipped, nil
	}

	entry, err := s.posting.AutoPost(ctx, ob.ID, m)
	if err != nil {
		return 0, err
	}
	if entry == nil {
		return outcomeReconciled, nil
	}
	s.logger.WithFields(logrus.Fields{
		"obligation_id": ob.ID,
		"entry_id":      entry.ID,
		"month":         m.String(),
	}).Info("Auto-posted obligation")
	return outcomePosted, nil
}
