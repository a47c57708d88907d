package sim

import "time"

// maxDelta is the saturating "no such event" sentinel the peekers return,
// matching Rust's Duration::MAX.
const maxDelta = time.Duration(1<<63 - 1)

// peekScheduled returns the smallest delta to now across every pending
// ScheduledAction in either endpoint's map, clamped to zero.
func peekScheduled(client, server *SimState, now time.Duration) time.Duration {
	best := maxDelta
	for _, sa := range client.ScheduledAction {
		if d := clampDelta(sa.Time, now); d < best {
			best = d
		}
	}
	for _, sa := range server.ScheduledAction {
		if d := clampDelta(sa.Time, now); d < best {
			best = d
		}
	}
	return best
}

// peekInternal returns the smallest delta to now across every pending
// internal timer in either endpoint's map.
func peekInternal(client, server *SimState, now time.Duration) time.Duration {
	best := maxDelta
	for _, t := range client.ScheduledInternal {
		if d := clampDelta(t, now); d < best {
			best = d
		}
	}
	for _, t := range server.ScheduledInternal {
		if d := clampDelta(t, now); d < best {
			best = d
		}
	}
	return best
}

// peekBlockedExp returns the smallest delta to now among the two
// endpoints' blocking expiries, MAX if neither is currently blocked.
// BlockingUntil >= now (not strictly greater) counts as blocked, so
// BlockingEnd is still synthesizable at the exact instant a deferred
// queued event (see dispatchEvent) has caught up to it.
func peekBlockedExp(client, server *SimState, now time.Duration) time.Duration {
	best := maxDelta
	if client.BlockingUntil >= now {
		best = client.BlockingUntil - now
	}
	if server.BlockingUntil >= now {
		if d := server.BlockingUntil - now; d < best {
			best = d
		}
	}
	return best
}

// peekQueue finds the earliest queued event whose effective delivery time
// (given blocking admission) is within bound of now, returning both the
// delta and the event as stored (Remove matches it by structural identity;
// pick_next clamps its Time forward only after removing it).
func peekQueue(sq *SimQueue, client, server *SimState, bound, now time.Duration) (time.Duration, *SimEvent) {
	var bestEvent *SimEvent
	best := maxDelta

	consider := func(ev SimEvent, d time.Duration) {
		if d > bound {
			return
		}
		if d < best {
			found := ev
			best = d
			bestEvent = &found
		}
	}

	if ev, d, ok := dispatchEvent(sq, client, true, now); ok {
		consider(ev, d)
	}
	if ev, d, ok := dispatchEvent(sq, server, false, now); ok {
		consider(ev, d)
	}

	return best, bestEvent
}

// dispatchEvent returns the earliest event on the given side pick_next may
// resolve right now, and the delta to now it competes on. Unblocked, this
// is simply the side's earliest event. Blocked, PeekDispatch still
// surfaces deferred (non-admitted) packet events rather than hiding them
// entirely, so they can win the priority tie against a BlockingEnd
// synthesized at the same instant blocking expires.
func dispatchEvent(sq *SimQueue, state *SimState, client bool, now time.Duration) (SimEvent, time.Duration, bool) {
	if state.BlockingUntil < now {
		ev, ok := sq.PeekSide(client)
		if !ok {
			return SimEvent{}, maxDelta, false
		}
		return ev, clampDelta(ev.Time, now), true
	}
	return sq.PeekDispatch(state.BlockingUntil, state.BlockingBypassable, client, now)
}

// admittedEvent returns the earliest event on the given side that the
// current blocking regime would admit: any event, control or packet, if the
// side is not currently blocked, or only the packet events
// SimQueue.PeekBlocking allows otherwise. Used by the network stack's
// padding-replace coalescing peek, which only ever looks for a NormalSent to
// coalesce with.
func admittedEvent(sq *SimQueue, state *SimState, client bool, now time.Duration) (SimEvent, bool) {
	if state.BlockingUntil >= now {
		return sq.PeekBlocking(state.BlockingBypassable, client)
	}
	return sq.PeekSide(client)
}

func clampDelta(t, now time.Duration) time.Duration {
	if t <= now {
		return 0
	}
	return t - now
}
