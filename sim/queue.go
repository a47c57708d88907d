package sim

import (
	"container/heap"
	"errors"
	"time"
)

// ErrEmpty is returned by SimQueue.Peek when the queue holds no events.
var ErrEmpty = errors.New("simqueue: empty")

// bucketKey partitions SimQueue by (side, bypass-flag, gated-flag) so
// PeekBlocking and PeekControl can each answer in O(log n): a blocked,
// bypassable side only ever needs to consult the gated+bypass bucket, and
// control bookkeeping only ever lives in the non-gated buckets.
type bucketKey struct {
	client bool
	bypass bool
	gated  bool
}

func keyFor(event SimEvent) bucketKey {
	return bucketKey{client: event.Client, bypass: event.Bypass, gated: event.Event.Kind.SubjectToBlocking()}
}

// eventHeap is a container/heap of SimEvents ordered by (Time, Fuzz); the
// Fuzz tiebreak makes the order strict even when two events share a Time,
// which is what lets SimQueue.Remove identify one event among equal
// timestamps.
type eventHeap []SimEvent

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	return h[i].Fuzz < h[j].Fuzz
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)   { *h = append(*h, x.(SimEvent)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// SimQueue is a multi-bucket priority queue of pending SimEvents.
type SimQueue struct {
	buckets map[bucketKey]*eventHeap
}

// NewSimQueue creates an empty SimQueue.
func NewSimQueue() *SimQueue {
	return &SimQueue{buckets: make(map[bucketKey]*eventHeap)}
}

func (sq *SimQueue) bucket(key bucketKey) *eventHeap {
	h, ok := sq.buckets[key]
	if !ok {
		h = &eventHeap{}
		heap.Init(h)
		sq.buckets[key] = h
	}
	return h
}

// PushSim inserts an already-constructed SimEvent, keyed by its own
// Client/Bypass/Kind. Used when the caller has already set every field,
// e.g. when reinserting a mutated clone during padding replacement.
func (sq *SimQueue) PushSim(event SimEvent) {
	heap.Push(sq.bucket(keyFor(event)), event)
}

// Push constructs and inserts a SimEvent from its parts. Bypass/Replace
// default to false; use PushSim for events that must carry them.
func (sq *SimQueue) Push(event TriggerEvent, client bool, t, delay time.Duration, fuzz uint32) {
	sq.PushSim(SimEvent{
		Event:  event,
		Time:   t,
		Delay:  delay,
		Client: client,
		Fuzz:   fuzz,
	})
}

// Peek returns the globally earliest pending event without removing it.
// Returns ErrEmpty if the queue holds nothing.
func (sq *SimQueue) Peek() (SimEvent, error) {
	best, ok := sq.peekBest(func(bucketKey) bool { return true })
	if !ok {
		return SimEvent{}, ErrEmpty
	}
	return best, nil
}

// PeekSide returns the earliest event on the given side across every
// bucket, gated or not, bypass or not, ignoring blocking entirely.
func (sq *SimQueue) PeekSide(client bool) (SimEvent, bool) {
	return sq.peekBest(func(k bucketKey) bool { return k.client == client })
}

// PeekBlocking returns the earliest packet-carrying (gated) event on the
// given side admitted through the blocking regime described by bypassable:
//   - bypassable == false: the block is total; nothing gets through, not
//     even an event marked Bypass.
//   - bypassable == true: only events already marked Bypass are admitted.
//
// Control events are never considered here; see PeekControl/PeekDispatch.
func (sq *SimQueue) PeekBlocking(bypassable, client bool) (SimEvent, bool) {
	if !bypassable {
		return SimEvent{}, false
	}
	return sq.peekBest(func(k bucketKey) bool { return k.client == client && k.gated && k.bypass })
}

// PeekControl returns the earliest control/bookkeeping event (blocking or
// timer begin/end) on the given side. Control events are never subject to
// blocking admission, so this ignores bypass/blocking state entirely.
func (sq *SimQueue) PeekControl(client bool) (SimEvent, bool) {
	return sq.peekBest(func(k bucketKey) bool { return k.client == client && !k.gated })
}

// PeekDispatch returns the earliest event on the given side pick_next may
// resolve right now while that side is blocked, together with the delta to
// now it competes on. A control event, or a packet admitted by the
// blocking regime (PeekBlocking), competes at its own time. Every other
// gated event is not hidden behind the block: it still competes, but on
// the delta to whichever is later of its own time and blockingUntil, so it
// only catches up to (and, on a tie, wins against) the synthesized
// BlockingEnd once blocking has actually caught up to it -- never before.
func (sq *SimQueue) PeekDispatch(blockingUntil time.Duration, bypassable, client bool, now time.Duration) (SimEvent, time.Duration, bool) {
	var best SimEvent
	bestDelta := maxDelta
	found := false

	consider := func(ev SimEvent, ok bool, d time.Duration) {
		if !ok {
			return
		}
		if !found || d < bestDelta || (d == bestDelta && eventLess(ev, best)) {
			best, bestDelta, found = ev, d, true
		}
	}

	if ev, ok := sq.PeekControl(client); ok {
		consider(ev, ok, clampDelta(ev.Time, now))
	}
	if ev, ok := sq.PeekBlocking(bypassable, client); ok {
		consider(ev, ok, clampDelta(ev.Time, now))
	}
	if ev, ok := sq.peekBest(func(k bucketKey) bool {
		return k.client == client && k.gated && !(bypassable && k.bypass)
	}); ok {
		effective := ev.Time
		if blockingUntil > effective {
			effective = blockingUntil
		}
		consider(ev, ok, clampDelta(effective, now))
	}

	return best, bestDelta, found
}

func (sq *SimQueue) peekBest(include func(bucketKey) bool) (SimEvent, bool) {
	var best SimEvent
	found := false
	for key, h := range sq.buckets {
		if h.Len() == 0 || !include(key) {
			continue
		}
		top := (*h)[0]
		if !found || eventLess(top, best) {
			best = top
			found = true
		}
	}
	return best, found
}

func eventLess(a, b SimEvent) bool {
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	return a.Fuzz < b.Fuzz
}

// Remove deletes a specific event by structural identity. It is a
// no-op if the event is not present (tolerated: fuzz collisions are
// probabilistically rare and harmless).
func (sq *SimQueue) Remove(event SimEvent) {
	h, ok := sq.buckets[keyFor(event)]
	if !ok {
		return
	}
	for i, e := range *h {
		if e == event {
			heap.Remove(h, i)
			return
		}
	}
}

// Len returns the total number of pending events across all buckets.
func (sq *SimQueue) Len() int {
	n := 0
	for _, h := range sq.buckets {
		n += h.Len()
	}
	return n
}
