package sim

import (
	"math/rand"
	"time"
)

// NetworkReplaceWindow is the 1µs tolerance within which padding-replacement
// coalescing applies.
const NetworkReplaceWindow = time.Microsecond

// NetworkStack transforms queued/sent events into receive events and
// implements padding replacement. It models the network between the two
// endpoints as a one-way delay sampled from Delay (a constant sampler
// reproduces a fixed one-way delay; any Sampler works).
type NetworkStack struct {
	Delay Sampler
}

// NewNetworkStack creates a NetworkStack with the given one-way delay
// sampler.
func NewNetworkStack(delay Sampler) *NetworkStack {
	return &NetworkStack{Delay: delay}
}

// Process dispatches next through the network stack. client/server are the
// two endpoints' SimState; rng feeds the network delay sample (the
// recipient's reporting delay is drawn from its own Integration); newFuzz
// mints a fresh tie-breaker for any event
// synthesized along the way. Returns true if next represents network
// activity: a packet actually traversing the wire.
func (ns *NetworkStack) Process(sq *SimQueue, next SimEvent, client, server *SimState, now time.Duration, rng *rand.Rand, newFuzz func() uint32) bool {
	sender, recipient := client, server
	if !next.Client {
		sender, recipient = server, client
	}

	switch next.Event.Kind {
	case EventNormalQueued:
		sq.Push(TriggerEvent{Kind: EventNormalSent}, next.Client, next.Time, next.Delay, newFuzz())
		return false

	case EventPaddingQueued:
		sq.PushSim(SimEvent{
			Event:   TriggerEvent{Kind: EventPaddingSent},
			Time:    next.Time,
			Delay:   next.Delay,
			Client:  next.Client,
			Bypass:  next.Bypass,
			Replace: next.Replace,
			Fuzz:    next.Fuzz,
		})
		return false

	case EventNormalSent:
		reportingDelay := recipient.Integration.ReportingDelaySample()
		arrival := next.Time - next.Delay + sampleOrZero(ns.Delay, rng) + reportingDelay
		if arrival < now {
			arrival = now
		}
		sq.Push(TriggerEvent{Kind: EventNormalRecv}, !next.Client, arrival, reportingDelay, newFuzz())
		return true

	case EventPaddingSent:
		if next.Replace {
			if clampNonNeg(next.Time-sender.LastSentTime) <= NetworkReplaceWindow {
				// Coalesced into the packet already sent; no new send.
				return false
			}
			if peeked, ok := admittedEvent(sq, sender, next.Client, now); ok {
				if peeked.Event.Kind == EventNormalSent && clampNonNeg(peeked.Time-next.Time) <= NetworkReplaceWindow {
					sq.Remove(peeked)
					replaced := peeked
					replaced.Bypass = true
					replaced.Replace = false
					replaced.Time = next.Time
					sq.PushSim(replaced)
					return false
				}
			}
		}
		reportingDelay := recipient.Integration.ReportingDelaySample()
		arrival := next.Time + next.Delay + sampleOrZero(ns.Delay, rng) + reportingDelay
		sq.Push(TriggerEvent{Kind: EventPaddingRecv}, !next.Client, arrival, reportingDelay, newFuzz())
		return true

	case EventNormalRecv, EventPaddingRecv:
		return true

	default:
		return false
	}
}

func clampNonNeg(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
