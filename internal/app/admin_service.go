package app

import (
	"context"
	"fmt"
	"time"

	"finance_tracker_bot/internal/domain/ledger"
	"finance_tracker_bot/internal/domain/obligation"
	"finance_tracker_bot/internal/domain/override"
	idb "finance_tracker_bot/internal/infra/database"
)

// Custom application-level errors for the admin service.
var ErrObligationAlreadyPaused = fmt.Errorf("obligation is already paused")
var ErrObligationAlreadyActive = fmt.Errorf("obligation is already active")
var ErrInvalidObligation = fmt.Errorf("invalid obligation definition")

// AdminService handles obligation definition management: the user creates,
// lists, pauses and resumes obligations; the engine never deletes one.
type AdminService struct {
	obligations obligation.Repository
	entries     ledger.Repository
	skips       override.SkipStore
	clock       Clock
}

func NewAdminService(or obligation.Repository, lr ledger.Repository, ss override.SkipStore, clock Clock) *AdminService {
	return &AdminService{
		obligations: or,
		entries:     lr,
		skips:       ss,
		clock:       clock,
	}
}

// CreateObligation validates and stores a new obligation definition, active
// from the current month. Due rules outside [1,31] other than the last-day
// sentinel are rejected here; resolution still clamps defensively later.
func (s *AdminService) CreateObligation(ctx context.Context, title string, amountMinor int64, account, category string, rule obligation.DueRule, leadDays int, autoPost bool) (*obligation.Obligation, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrInvalidObligation)
	}
	if amountMinor <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidObligation)
	}
	if rule != obligation.DueLastDay && (rule < 1 || rule > 31) {
		return nil, fmt.Errorf("%w: due day must be 1-31 or last day of month", ErrInvalidObligation)
	}
	if leadDays < 0 {
		return nil, fmt.Errorf("%w: lead days must not be negative", ErrInvalidObligation)
	}

	ob := &obligation.Obligation{
		Title:               title,
		AmountMinor:         amountMinor,
		Account:             account,
		Category:            category,
		DueRule:             rule,
		LeadDays:            leadDays,
		AutoPost:            autoPost,
		SkipIfAlreadyPosted: true,
		ActiveFrom:          obligation.MonthOf(s.clock.Now()),
		State:               obligation.StateActive,
	}
	if err := s.obligations.Create(ctx, ob); err != nil {
		return nil, fmt.Errorf("failed to create obligation: %w", err)
	}
	return ob, nil
}

// Pause stops auto-posting and reminders for the obligation until resumed.
func (s *AdminService) Pause(ctx context.Context, id int64) (*obligation.Obligation, error) {
	ob, err := s.obligations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ob.State == obligation.StatePaused {
		return ob, ErrObligationAlreadyPaused
	}
	ob.State = obligation.StatePaused
	if err := s.obligations.Update(ctx, ob); err != nil {
		return nil, fmt.Errorf("failed to pause obligation %d: %w", id, err)
	}
	return ob, nil
}

// Resume reactivates a paused obligation.
func (s *AdminService) Resume(ctx context.Context, id int64) (*obligation.Obligation, error) {
	ob, err := s.obligations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ob.State == obligation.StateActive {
		return ob, ErrObligationAlreadyActive
	}
	ob.State = obligation.StateActive
	if err := s.obligations.Update(ctx, ob); err != nil {
		return nil, fmt.Errorf("failed to resume obligation %d: %w", id, err)
	}
	return ob, nil
}

func (s *AdminService) List(ctx context.Context, includeInactive bool) ([]*obligation.Obligation, error) {
	if includeInactive {
		return s.obligations.ListAll(ctx)
	}
	return s.obligations.ListActive(ctx)
}

// ObligationOverview is one line of the due overview.
type ObligationOverview struct {
	Obligation *obligation.Obligation
	DueDate    time.Time
	Status     obligation.Status
}

// Overview resolves every active obligation's current-month due date and
// display status. Paid is decided by a ledger existence check, not the cache;
// a skip override takes precedence over everything else.
func (s *AdminService) Overview(ctx context.Context) ([]ObligationOverview, error) {
	now := s.clock.Now()
	loc := s.clock.Location()
	m := obligation.MonthOf(now)

	actives, err := s.obligations.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active obligations: %w", err)
	}

	var out []ObligationOverview
	for _, ob := range actives {
		if !ob.ActiveIn(m) {
			continue
		}
		due := obligation.ResolveDueDate(m, ob.DueRule, loc)

		skipped, err := s.skips.IsSet(ctx, ob.ID, m)
		if err != nil {
			return nil, fmt.Errorf("failed to check skip override for obligation %d: %w", ob.ID, err)
		}
		if skipped {
			out = append(out, ObligationOverview{Obligation: ob, DueDate: due, Status: obligation.StatusSkipped})
			continue
		}

		entry, err := s.entries.FindByMonth(ctx, ob.ID, m)
		if err != nil && err != idb.ErrEntryNotFound {
			return nil, fmt.Errorf("failed to check entries for obligation %d: %w", ob.ID, err)
		}
		status := obligation.ResolveStatus(due, now, entry != nil)
		out = append(out, ObligationOverview{Obligation: ob, DueDate: due, Status: status})
	}
	return out, nil
}
