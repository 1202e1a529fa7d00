package app

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"finance_tracker_bot/internal/domain/ledger"
	"finance_tracker_bot/internal/domain/obligation"
	"finance_tracker_bot/internal/domain/override"
	"finance_tracker_bot/internal/domain/reminder"
	idb "finance_tracker_bot/internal/infra/database"
)

// In-memory store fakes with the same error contracts as the postgres
// repositories, including the (obligation, month) unique constraint on the
// ledger.

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
	loc *time.Location
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now, loc: now.Location()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Location() *time.Location { return c.loc }

func (c *fakeClock) set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

type fakeObligationStore struct {
	mu     sync.Mutex
	nextID int64
	obs    map[int64]*obligation.Obligation
}

func newFakeObligationStore() *fakeObligationStore {
	return &fakeObligationStore{obs: make(map[int64]*obligation.Obligation)}
}

func cloneObligation(ob *obligation.Obligation) *obligation.Obligation {
	c := *ob
	if ob.ActiveUntil != nil {
		m := *ob.ActiveUntil
		c.ActiveUntil = &m
	}
	if ob.LastPostedMonth != nil {
		m := *ob.LastPostedMonth
		c.LastPostedMonth = &m
	}
	return &c
}

func (s *fakeObligationStore) Create(_ context.Context, ob *obligation.Obligation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ob.ID = s.nextID
	s.obs[ob.ID] = cloneObligation(ob)
	return nil
}

func (s *fakeObligationStore) GetByID(_ context.Context, id int64) (*obligation.Obligation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ob, ok := s.obs[id]
	if !ok {
		return nil, idb.ErrObligationNotFound
	}
	return cloneObligation(ob), nil
}

func (s *fakeObligationStore) Update(_ context.Context, ob *obligation.Obligation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.obs[ob.ID]; !ok {
		return idb.ErrObligationNotFound
	}
	s.obs[ob.ID] = cloneObligation(ob)
	return nil
}

func (s *fakeObligationStore) ListActive(_ context.Context) ([]*obligation.Obligation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*obligation.Obligation
	for _, ob := range s.obs {
		if ob.State == obligation.StateActive {
			out = append(out, cloneObligation(ob))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeObligationStore) ListAll(_ context.Context) ([]*obligation.Obligation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*obligation.Obligation
	for _, ob := range s.obs {
		out = append(out, cloneObligation(ob))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeLedgerStore struct {
	mu        sync.Mutex
	seq       int
	entries   map[string]*ledger.Entry
	order     map[string]int  // insertion sequence, breaks PostedAt ties
	insertErr map[int64]error // injected per-obligation failures
	hidden    map[string]bool // invisible to FindByMonth, still traps Insert
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{
		entries:   make(map[string]*ledger.Entry),
		order:     make(map[string]int),
		insertErr: make(map[int64]error),
		hidden:    make(map[string]bool),
	}
}

func (s *fakeLedgerStore) Insert(_ context.Context, e *ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insertErr[e.ObligationID]; err != nil {
		return err
	}
	if e.ObligationID != 0 {
		for _, other := range s.entries {
			if other.ObligationID == e.ObligationID && other.Month == e.Month {
				return idb.ErrDuplicateObligationEntry
			}
		}
	}
	c := *e
	s.seq++
	s.entries[e.ID] = &c
	s.order[e.ID] = s.seq
	return nil
}

func (s *fakeLedgerStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return idb.ErrEntryNotFound
	}
	delete(s.entries, id)
	delete(s.order, id)
	return nil
}

func (s *fakeLedgerStore) FindByMonth(_ context.Context, obligationID int64, m obligation.Month) (*ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ObligationID == obligationID && e.Month == m && !s.hidden[e.ID] {
			c := *e
			return &c, nil
		}
	}
	return nil, idb.ErrEntryNotFound
}

func (s *fakeLedgerStore) Latest(_ context.Context, obligationID int64) (*ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *ledger.Entry
	for _, e := range s.entries {
		if e.ObligationID != obligationID {
			continue
		}
		if latest == nil || e.PostedAt.After(latest.PostedAt) ||
			(e.PostedAt.Equal(latest.PostedAt) && s.order[e.ID] > s.order[latest.ID]) {
			latest = e
		}
	}
	if latest == nil {
		return nil, idb.ErrEntryNotFound
	}
	c := *latest
	return &c, nil
}

func (s *fakeLedgerStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *fakeLedgerStore) single() *ledger.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		c := *e
		return &c
	}
	return nil
}

func overrideKey(obligationID int64, m obligation.Month) string {
	return fmt.Sprintf("%d|%s", obligationID, m)
}

type fakeSkipStore struct {
	mu    sync.Mutex
	skips map[string]bool
}

func newFakeSkipStore() *fakeSkipStore {
	return &fakeSkipStore{skips: make(map[string]bool)}
}

func (s *fakeSkipStore) Set(_ context.Context, obligationID int64, m obligation.Month) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skips[overrideKey(obligationID, m)] = true
	return nil
}

func (s *fakeSkipStore) Clear(_ context.Context, obligationID int64, m obligation.Month) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.skips, overrideKey(obligationID, m))
	return nil
}

func (s *fakeSkipStore) IsSet(_ context.Context, obligationID int64, m obligation.Month) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skips[overrideKey(obligationID, m)], nil
}

type fakeSnoozeStore struct {
	mu      sync.Mutex
	snoozes map[string]*override.Snooze
}

func newFakeSnoozeStore() *fakeSnoozeStore {
	return &fakeSnoozeStore{snoozes: make(map[string]*override.Snooze)}
}

func (s *fakeSnoozeStore) Set(_ context.Context, obligationID int64, m obligation.Month, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snoozes[overrideKey(obligationID, m)] = &override.Snooze{
		ObligationID: obligationID,
		Month:        m,
		SnoozedUntil: until,
	}
	return nil
}

func (s *fakeSnoozeStore) Clear(_ context.Context, obligationID int64, m obligation.Month) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snoozes, overrideKey(obligationID, m))
	return nil
}

func (s *fakeSnoozeStore) Get(_ context.Context, obligationID int64, m obligation.Month) (*override.Snooze, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn, ok := s.snoozes[overrideKey(obligationID, m)]
	if !ok {
		return nil, idb.ErrSnoozeNotFound
	}
	c := *sn
	return &c, nil
}

type fakeAlarm struct {
	mu        sync.Mutex
	armed     map[string]reminder.Event
	cancelled []string
}

func newFakeAlarm() *fakeAlarm {
	return &fakeAlarm{armed: make(map[string]reminder.Event)}
}

func (a *fakeAlarm) ScheduleAt(at time.Time, ev reminder.Event, key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ev.TriggerAt = at
	a.armed[key] = ev
}

func (a *fakeAlarm) Cancel(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.armed, key)
	a.cancelled = append(a.cancelled, key)
}

func (a *fakeAlarm) event(key string) (reminder.Event, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ev, ok := a.armed[key]
	return ev, ok
}

func (a *fakeAlarm) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.armed)
}

type fakePresenter struct {
	mu     sync.Mutex
	events []reminder.Event
}

func (p *fakePresenter) PresentReminder(_ context.Context, _ *obligation.Obligation, ev reminder.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePresenter) presented() []reminder.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]reminder.Event(nil), p.events...)
}

// engineFixture wires all services over the fakes, the way main does over
// postgres.
type engineFixture struct {
	obs       *fakeObligationStore
	entries   *fakeLedgerStore
	skips     *fakeSkipStore
	snoozes   *fakeSnoozeStore
	alarm     *fakeAlarm
	presenter *fakePresenter
	clock     *fakeClock

	posting   *PostingService
	autoPost  *AutoPostService
	reminders *ReminderService
	actions   *ActionService
	admin     *AdminService
	ticks     *TickService
}

const testReminderHour = 9

func newEngineFixture(now time.Time) *engineFixture {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	log := discard.WithField("component", "test")

	f := &engineFixture{
		obs:       newFakeObligationStore(),
		entries:   newFakeLedgerStore(),
		skips:     newFakeSkipStore(),
		snoozes:   newFakeSnoozeStore(),
		alarm:     newFakeAlarm(),
		presenter: &fakePresenter{},
		clock:     newFakeClock(now),
	}
	f.posting = NewPostingService(f.obs, f.entries, f.clock, log)
	f.autoPost = NewAutoPostService(f.obs, f.skips, f.posting, f.clock, log)
	f.reminders = NewReminderService(f.obs, f.skips, f.snoozes, f.alarm, f.presenter, f.clock, testReminderHour, log)
	f.actions = NewActionService(f.obs, f.skips, f.snoozes, f.posting, f.reminders, f.clock, testReminderHour, log)
	f.admin = NewAdminService(f.obs, f.entries, f.skips, f.clock)
	f.ticks = NewTickService(f.autoPost, f.reminders, f.clock, log)
	return f
}

// addObligation stores a standard test obligation (due day 5, lead 3,
// amount 150000, active from 2024-01, auto-post on), then applies mutators.
func (f *engineFixture) addObligation(mut ...func(*obligation.Obligation)) *obligation.Obligation {
	ob := &obligation.Obligation{
		Title:               "Rent",
		AmountMinor:         150000,
		Account:             "Main",
		Category:            "Bills & Utilities",
		DueRule:             5,
		LeadDays:            3,
		AutoPost:            true,
		SkipIfAlreadyPosted: true,
		ActiveFrom:          obligation.Month{Year: 2024, Month: time.January},
		State:               obligation.StateActive,
	}
	for _, m := range mut {
		m(ob)
	}
	if err := f.obs.Create(context.Background(), ob); err != nil {
		panic(err)
	}
	return ob
}
