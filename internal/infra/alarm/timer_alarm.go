// Package alarm provides the in-process implementation of the alarm
// capability the reminder scheduler arms events against.
package alarm

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"finance_tracker_bot/internal/domain/reminder"
)

// TimerAlarm arms reminder events on plain timers, keyed by the scheduler's
// stable (obligationID, kind) handles. Scheduling the same key again replaces
// the previous timer; cancelling an unknown key is a no-op. An instant
// already in the past fires immediately: late delivery degrades to "as soon
// as possible", never to failure.
type TimerAlarm struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	onFire func(reminder.Event)
	logger *logrus.Entry
}

func NewTimerAlarm(logger *logrus.Entry) *TimerAlarm {
	return &TimerAlarm{
		timers: make(map[string]*time.Timer),
		logger: logger,
	}
}

// OnFire sets the handler invoked (on the timer goroutine) when an event
// fires. Must be called before the first ScheduleAt.
func (a *TimerAlarm) OnFire(fn func(reminder.Event)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onFire = fn
}

func (a *TimerAlarm) ScheduleAt(at time.Time, ev reminder.Event, key string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if t, ok := a.timers[key]; ok {
		t.Stop()
	}

	d := time.Until(at)
	if d < 0 {
		d = 0
	}
	a.timers[key] = time.AfterFunc(d, func() {
		a.mu.Lock()
		delete(a.timers, key)
		fire := a.onFire
		a.mu.Unlock()

		if fire != nil {
			fire(ev)
		}
	})

	a.logger.WithFields(logrus.Fields{"key": key, "at": at}).Debug("Reminder armed")
}

func (a *TimerAlarm) Cancel(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if t, ok := a.timers[key]; ok {
		t.Stop()
		delete(a.timers, key)
	}
}

// Stop cancels every armed timer; used on shutdown.
func (a *TimerAlarm) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for key, t := range a.timers {
		t.Stop()
		delete(a.timers, key)
	}
}
