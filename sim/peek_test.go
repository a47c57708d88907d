package sim

import (
	"testing"
	"time"
)

func newTestState(client bool, now time.Duration) *SimState {
	return NewSimState(client, nil, nil, now, nil)
}

func TestPeekScheduled_NoActionsReturnsMax(t *testing.T) {
	client := newTestState(true, 0)
	server := newTestState(false, 0)

	if got := peekScheduled(client, server, 0); got != maxDelta {
		t.Errorf("peekScheduled with no pending actions = %v, want maxDelta", got)
	}
}

func TestPeekScheduled_FindsEarliestAcrossBothSides(t *testing.T) {
	client := newTestState(true, 0)
	server := newTestState(false, 0)
	client.ScheduledAction[1] = ScheduledAction{Time: 50 * time.Microsecond}
	server.ScheduledAction[2] = ScheduledAction{Time: 30 * time.Microsecond}

	got := peekScheduled(client, server, 0)
	if got != 30*time.Microsecond {
		t.Errorf("peekScheduled = %v, want 30µs (server's earlier action)", got)
	}
}

func TestPeekInternal_FindsEarliest(t *testing.T) {
	client := newTestState(true, 0)
	server := newTestState(false, 0)
	client.ScheduledInternal[1] = 40 * time.Microsecond
	server.ScheduledInternal[2] = 10 * time.Microsecond

	if got := peekInternal(client, server, 0); got != 10*time.Microsecond {
		t.Errorf("peekInternal = %v, want 10µs", got)
	}
}

func TestPeekBlockedExp_NeitherBlockedReturnsMax(t *testing.T) {
	client := newTestState(true, 100*time.Microsecond)
	server := newTestState(false, 100*time.Microsecond)

	if got := peekBlockedExp(client, server, 100*time.Microsecond); got != maxDelta {
		t.Errorf("peekBlockedExp with nobody blocked = %v, want maxDelta", got)
	}
}

func TestPeekBlockedExp_EarliestExpiryWins(t *testing.T) {
	client := newTestState(true, 0)
	server := newTestState(false, 0)
	client.BlockingUntil = 20 * time.Microsecond
	server.BlockingUntil = 5 * time.Microsecond

	if got := peekBlockedExp(client, server, 0); got != 5*time.Microsecond {
		t.Errorf("peekBlockedExp = %v, want 5µs (server expires first)", got)
	}
}

func TestPeekQueue_RespectsBound(t *testing.T) {
	client := newTestState(true, 0)
	server := newTestState(false, 0)
	sq := NewSimQueue()
	sq.Push(TriggerEvent{Kind: EventNormalQueued}, true, 100*time.Microsecond, 0, 1)

	delta, ev := peekQueue(sq, client, server, 10*time.Microsecond, 0)
	if delta != maxDelta || ev != nil {
		t.Errorf("peekQueue with bound 10µs should not admit an event at 100µs, got delta=%v ev=%v", delta, ev)
	}

	delta, ev = peekQueue(sq, client, server, 200*time.Microsecond, 0)
	if delta != 100*time.Microsecond || ev == nil {
		t.Fatalf("peekQueue with a wide bound should admit the event, got delta=%v ev=%v", delta, ev)
	}
	if ev.Time != 100*time.Microsecond {
		t.Errorf("peekQueue returned event at %v, want 100µs", ev.Time)
	}
}

func TestPeekQueue_BlockedNonBypassableEventIsDeferredNotHidden(t *testing.T) {
	client := newTestState(true, 0)
	client.BlockingUntil = 500 * time.Microsecond
	client.BlockingBypassable = false
	server := newTestState(false, 0)

	sq := NewSimQueue()
	sq.Push(TriggerEvent{Kind: EventNormalQueued}, true, 50*time.Microsecond, 0, 1)

	// A narrow bound that doesn't reach the blocking expiry still excludes it.
	delta, ev := peekQueue(sq, client, server, 100*time.Microsecond, 0)
	if delta != maxDelta || ev != nil {
		t.Errorf("peekQueue with a bound short of blocking expiry should not admit it yet, got delta=%v ev=%v", delta, ev)
	}

	// Once the bound reaches the blocking expiry, the event is still found
	// (not hidden), competing on the delta to blockingUntil rather than its
	// own (earlier, blocked) timestamp.
	delta, ev = peekQueue(sq, client, server, maxDelta, 0)
	if delta != 500*time.Microsecond {
		t.Errorf("peekQueue delta = %v, want 500µs (the blocking expiry, not the event's own 50µs)", delta)
	}
	if ev == nil || ev.Time != 50*time.Microsecond {
		t.Errorf("peekQueue should return the event as stored (Time=50µs), got %+v", ev)
	}
}

func TestPeekQueue_DoesNotPullAnEventBeforeBlockingCatchesUpToIt(t *testing.T) {
	client := newTestState(true, 0)
	client.BlockingUntil = 20 * time.Microsecond
	client.BlockingBypassable = false
	server := newTestState(false, 0)

	sq := NewSimQueue()
	// Raw time (30µs) is already past the blocking expiry (20µs): it isn't
	// "stuck early", so its effective delta must stay 30µs, not be pulled
	// forward to the expiry.
	sq.Push(TriggerEvent{Kind: EventNormalQueued}, true, 30*time.Microsecond, 0, 1)

	delta, ev := peekQueue(sq, client, server, maxDelta, 0)
	if delta != 30*time.Microsecond || ev == nil {
		t.Fatalf("peekQueue delta = %v, want 30µs (the event's own later time)", delta)
	}
}

func TestPeekQueue_ReportsEventAsStoredForRemoval(t *testing.T) {
	client := newTestState(true, 0)
	server := newTestState(false, 0)
	sq := NewSimQueue()
	// Event timestamped in the past relative to now: peekQueue reports
	// delta 0 but leaves Time untouched (Remove must match the stored
	// event; forward-clamping for emission is pick_next's job).
	sq.Push(TriggerEvent{Kind: EventNormalQueued}, true, -5*time.Microsecond, 0, 1)

	delta, ev := peekQueue(sq, client, server, maxDelta, 10*time.Microsecond)
	if delta != 0 {
		t.Errorf("peekQueue delta = %v, want 0 for an overdue event", delta)
	}
	if ev == nil || ev.Time != -5*time.Microsecond {
		t.Errorf("peekQueue should leave Time as stored, got %+v", ev)
	}
}
