// Package machines provides concrete sim.Framework implementations for a
// handful of common traffic-shaping defenses: no-op passthrough,
// fixed-interval padding, block-after-send, periodic re-blocking, and
// block-then-burst-release. Each is a single probabilistic state machine
// wrapped in its own Framework, mirroring how a single defense is attached
// to one endpoint in practice.
package machines

import (
	"time"

	"github.com/trafficsim/trafficsim/sim"
)

// None is a Framework that never schedules any action. Attaching it to an
// endpoint reproduces the trace identically, the no-machines baseline.
type None struct{}

func (None) TriggerEvents([]sim.TriggerEvent, time.Duration) []sim.TriggerAction { return nil }

// FixedIntervalPadding arms an internal timer once and re-arms it every time
// it fires, sending one padding packet per tick. The machine has no notion
// of wall-clock start time; it arms on whatever event it first observes.
type FixedIntervalPadding struct {
	Interval time.Duration

	started bool
}

func (m *FixedIntervalPadding) TriggerEvents(events []sim.TriggerEvent, _ time.Duration) []sim.TriggerAction {
	var actions []sim.TriggerAction
	if !m.started {
		m.started = true
		actions = append(actions, sim.TriggerAction{Kind: sim.ActionUpdateTimer, Duration: m.Interval})
	}
	for _, ev := range events {
		if ev.Kind == sim.EventTimerEnd {
			actions = append(actions,
				sim.TriggerAction{Kind: sim.ActionSendPadding},
				sim.TriggerAction{Kind: sim.ActionUpdateTimer, Duration: m.Interval, Replace: true},
			)
		}
	}
	return actions
}

// BlockAfterSend blocks outgoing traffic for BlockDuration immediately after
// every normal packet is sent. Bypass controls whether the block lets
// bypass-flagged padding through.
type BlockAfterSend struct {
	BlockDuration time.Duration
	Bypass        bool
}

func (m *BlockAfterSend) TriggerEvents(events []sim.TriggerEvent, _ time.Duration) []sim.TriggerAction {
	var actions []sim.TriggerAction
	for _, ev := range events {
		if ev.Kind == sim.EventNormalSent {
			actions = append(actions, sim.TriggerAction{
				Kind:     sim.ActionBlockOutgoing,
				Duration: m.BlockDuration,
				Bypass:   m.Bypass,
			})
		}
	}
	return actions
}

// PeriodicBlock waits Wait after every normal send, and after each of its
// own BlockingEnd, then blocks outgoing traffic for BlockDuration, so once
// started the wait/block cycle repeats indefinitely even without further
// sends.
type PeriodicBlock struct {
	Wait          time.Duration
	BlockDuration time.Duration
}

func (m *PeriodicBlock) TriggerEvents(events []sim.TriggerEvent, _ time.Duration) []sim.TriggerAction {
	var actions []sim.TriggerAction
	for _, ev := range events {
		switch ev.Kind {
		case sim.EventNormalSent, sim.EventBlockingEnd:
			actions = append(actions, sim.TriggerAction{
				Kind:     sim.ActionBlockOutgoing,
				Timeout:  m.Wait,
				Duration: m.BlockDuration,
			})
		}
	}
	return actions
}

// BlockThenBurst blocks outgoing traffic Wait after every normal send, then,
// BurstGap after blocking begins, sends BurstCount padding packets BurstGap
// apart, one at a time: each padding send re-arms the next, so a packet
// deferred by the still-active block only advances the next packet's clock
// once it actually fires, rather than all three racing to fire together.
// The first padding in the burst carries Replace so it can coalesce with a
// normal packet already queued at the instant blocking lifts.
type BlockThenBurst struct {
	Wait          time.Duration
	BlockDuration time.Duration
	BurstCount    int
	BurstGap      time.Duration
	Bypass        bool

	sent int
}

func (m *BlockThenBurst) TriggerEvents(events []sim.TriggerEvent, _ time.Duration) []sim.TriggerAction {
	var actions []sim.TriggerAction
	for _, ev := range events {
		switch ev.Kind {
		case sim.EventNormalSent:
			actions = append(actions, sim.TriggerAction{
				Kind:     sim.ActionBlockOutgoing,
				Timeout:  m.Wait,
				Duration: m.BlockDuration,
				Bypass:   m.Bypass,
			})

		case sim.EventBlockingBegin:
			m.sent = 0
			if m.BurstCount > 0 {
				actions = append(actions, sim.TriggerAction{
					Kind:    sim.ActionSendPadding,
					Timeout: m.BurstGap,
					Replace: true,
					Bypass:  m.Bypass,
				})
				m.sent = 1
			}

		case sim.EventPaddingSent:
			if m.sent > 0 && m.sent < m.BurstCount {
				actions = append(actions, sim.TriggerAction{
					Kind:    sim.ActionSendPadding,
					Timeout: m.BurstGap,
					Bypass:  m.Bypass,
				})
				m.sent++
			}
		}
	}
	return actions
}

// compile-time interface checks.
var (
	_ sim.Framework = None{}
	_ sim.Framework = (*FixedIntervalPadding)(nil)
	_ sim.Framework = (*BlockAfterSend)(nil)
	_ sim.Framework = (*PeriodicBlock)(nil)
	_ sim.Framework = (*BlockThenBurst)(nil)
)
