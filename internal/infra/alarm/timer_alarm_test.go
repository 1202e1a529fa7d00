package alarm

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"finance_tracker_bot/internal/domain/obligation"
	"finance_tracker_bot/internal/domain/reminder"
)

func newTestAlarm() (*TimerAlarm, chan reminder.Event) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	fired := make(chan reminder.Event, 16)
	a := NewTimerAlarm(log.WithField("component", "test"))
	a.OnFire(func(ev reminder.Event) { fired <- ev })
	return a, fired
}

func waitFired(t *testing.T, fired chan reminder.Event) reminder.Event {
	t.Helper()
	select {
	case ev := <-fired:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for alarm to fire")
		return reminder.Event{}
	}
}

func TestTimerAlarmFires(t *testing.T) {
	a, fired := newTestAlarm()
	defer a.Stop()

	ev := reminder.Event{ObligationID: 1, Kind: reminder.KindDue}
	a.ScheduleAt(time.Now().Add(10*time.Millisecond), ev, ev.Key())

	got := waitFired(t, fired)
	require.Equal(t, int64(1), got.ObligationID)
	require.Equal(t, reminder.KindDue, got.Kind)
}

func TestTimerAlarmPastInstantFiresImmediately(t *testing.T) {
	a, fired := newTestAlarm()
	defer a.Stop()

	ev := reminder.Event{ObligationID: 2, Kind: reminder.KindOverdue}
	a.ScheduleAt(time.Now().Add(-time.Hour), ev, ev.Key())

	waitFired(t, fired)
}

func TestTimerAlarmCancelPreventsFiring(t *testing.T) {
	a, fired := newTestAlarm()
	defer a.Stop()

	ev := reminder.Event{ObligationID: 3, Kind: reminder.KindLead}
	a.ScheduleAt(time.Now().Add(30*time.Millisecond), ev, ev.Key())
	a.Cancel(ev.Key())

	select {
	case <-fired:
		t.Fatal("cancelled alarm fired anyway")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTimerAlarmCancelUnknownKeyIsNoop(t *testing.T) {
	a, _ := newTestAlarm()
	defer a.Stop()

	a.Cancel("reminder|99|DUE")
}

func TestTimerAlarmRescheduleReplacesTimer(t *testing.T) {
	a, fired := newTestAlarm()
	defer a.Stop()

	key := reminder.Key(4, reminder.KindDue)
	first := reminder.Event{ObligationID: 4, Kind: reminder.KindDue, Month: obligation.Month{Year: 2024, Month: time.March}}
	second := reminder.Event{ObligationID: 4, Kind: reminder.KindDue, Month: obligation.Month{Year: 2024, Month: time.April}}

	a.ScheduleAt(time.Now().Add(20*time.Millisecond), first, key)
	a.ScheduleAt(time.Now().Add(40*time.Millisecond), second, key)

	got := waitFired(t, fired)
	require.Equal(t, second.Month, got.Month)

	select {
	case <-fired:
		t.Fatal("replaced alarm fired twice")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTimerAlarmStopCancelsEverything(t *testing.T) {
	a, fired := newTestAlarm()

	for id := int64(1); id <= 3; id++ {
		ev := reminder.Event{ObligationID: id, Kind: reminder.KindDue}
		a.ScheduleAt(time.Now().Add(30*time.Millisecond), ev, ev.Key())
	}
	a.Stop()

	select {
	case <-fired:
		t.Fatal("alarm fired after Stop")
	case <-time.After(100 * time.Millisecond):
	}
}
