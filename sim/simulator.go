// sim/simulator.go
package sim

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// Simulator is the core object holding the simulated clock, the pending
// event queue, both endpoints' state, and the output trace.
type Simulator struct {
	Queue   *SimQueue
	Client  *SimState
	Server  *SimState
	Network *NetworkStack
	Args    SimulatorArgs
	RNG     *PartitionedRNG

	Clock time.Duration
	Trace []SimEvent

	iterations int64
}

// NewSimulator wires a Simulator from its pieces. queue must already hold
// the seed events from a parsed trace. seed controls every deterministic
// random draw (fuzz tags and network/reporting/action/trigger delay
// sampling).
func NewSimulator(args SimulatorArgs, queue *SimQueue, clientFramework, serverFramework Framework, seed int64) (*Simulator, error) {
	first, err := queue.Peek()
	if err != nil {
		return nil, fmt.Errorf("sim: cannot start with an empty queue: %w", err)
	}

	rng := NewPartitionedRNG(seed)
	clientRNG := rng.ForSubsystem("client")
	serverRNG := rng.ForSubsystem("server")

	s := &Simulator{
		Queue:   queue,
		Network: NewNetworkStack(args.Network),
		Args:    args,
		RNG:     rng,
		Clock:   first.Time,
	}
	s.Client = NewSimState(true, clientFramework, args.ClientIntegration, s.Clock, clientRNG)
	s.Server = NewSimState(false, serverFramework, args.ServerIntegration, s.Clock, serverRNG)
	return s, nil
}

func (s *Simulator) newFuzz() uint32 { return s.RNG.NextFuzz() }

// Run drains the event queue, advancing Clock monotonically, until no event
// remains or a configured limit is hit. The returned trace is sorted by Time
// ascending, since the emission-time adjustment below can perturb the order
// events were produced in.
func (s *Simulator) Run() []SimEvent {
	for {
		next, ok := s.pickNext()
		if !ok {
			break
		}

		if next.Time < s.Clock {
			panic(fmt.Sprintf("sim: BUG: next event moves time backwards: %v < %v", next.Time, s.Clock))
		}
		s.Clock = next.Time

		logrus.Debugf("[t=%v] dispatching %s (client=%v)", s.Clock, next.Event.Kind, next.Client)

		networkRNG := s.RNG.ForSubsystem(SubsystemNetwork)
		activity := s.Network.Process(s.Queue, *next, s.Client, s.Server, s.Clock, networkRNG, s.newFuzz)

		if activity {
			switch next.Event.Kind {
			case EventNormalSent, EventPaddingSent:
				if next.Client {
					s.Client.LastSentTime = s.Clock
				} else {
					s.Server.LastSentTime = s.Clock
				}
			}
		}

		state := s.Server
		if next.Client {
			state = s.Client
		}
		s.triggerUpdate(state, next.Event, next.Client)

		if s.shouldEmit(*next, activity) {
			emitted := *next
			emitted.Time = emitTime(emitted)
			s.Trace = append(s.Trace, emitted)
		}

		s.iterations++
		if s.Args.MaxTraceLength > 0 && len(s.Trace) >= s.Args.MaxTraceLength {
			logrus.Debugf("sim: reached max trace length %d", s.Args.MaxTraceLength)
			break
		}
		if s.Args.MaxSimIterations > 0 && s.iterations >= s.Args.MaxSimIterations {
			logrus.Debugf("sim: reached max iterations %d", s.Args.MaxSimIterations)
			break
		}
	}

	sort.SliceStable(s.Trace, func(i, j int) bool { return s.Trace[i].Time < s.Trace[j].Time })
	return s.Trace
}

func (s *Simulator) shouldEmit(ev SimEvent, activity bool) bool {
	if s.Args.OnlyNetworkActivity && !activity {
		return false
	}
	if s.Args.OnlyClientEvents && !ev.Client {
		return false
	}
	return true
}

// emitTime adjusts a SimEvent's recorded time to represent the on-wire
// observable instant, reversing whichever direction the integration delay
// was folded in.
func emitTime(ev SimEvent) time.Duration {
	switch ev.Event.Kind {
	case EventPaddingSent:
		return ev.Time + ev.Delay
	case EventPaddingRecv, EventNormalRecv, EventNormalSent:
		return ev.Time - ev.Delay
	default:
		return ev.Time
	}
}

// pickNext resolves the four event sources into a single next event,
// recursing when it must synthesize an internal-timer or scheduled-action
// event into the queue first. Each recursion consumes one pending
// scheduled/internal entry, so it is bounded by the number of machines.
func (s *Simulator) pickNext() (*SimEvent, bool) {
	now := s.Clock
	sVal := peekScheduled(s.Client, s.Server, now)
	iVal := peekInternal(s.Client, s.Server, now)
	bVal := peekBlockedExp(s.Client, s.Server, now)

	bound := sVal
	if bVal < bound {
		bound = bVal
	}
	qVal, qPeek := peekQueue(s.Queue, s.Client, s.Server, bound, now)

	if sVal == maxDelta && iVal == maxDelta && bVal == maxDelta && qVal == maxDelta {
		return nil, false
	}

	switch {
	case qVal <= sVal && qVal <= iVal && qVal <= bVal:
		ev := *qPeek
		s.Queue.Remove(*qPeek)
		if now+qVal > ev.Time {
			ev.Time = now + qVal
		}
		return &ev, true

	case bVal <= sVal && bVal <= iVal:
		return s.materializeBlockingEnd(now), true

	case iVal <= sVal:
		ev := s.fireInternalTimer(now + iVal)
		s.Queue.PushSim(ev)
		return s.pickNext()

	default:
		ev := s.fireScheduledAction(now + sVal)
		if ev != nil {
			s.Queue.PushSim(*ev)
		}
		return s.pickNext()
	}
}

// materializeBlockingEnd synthesizes the BlockingEnd event for whichever
// side's blocking expires first, and marks that side's blocking as
// processed by moving blocking_until one microsecond into the past.
func (s *Simulator) materializeBlockingEnd(now time.Duration) *SimEvent {
	clientBlocked := s.Client.BlockingUntil >= now
	serverBlocked := s.Server.BlockingUntil >= now

	var clientWins bool
	if clientBlocked && serverBlocked {
		clientWins = s.Client.BlockingUntil <= s.Server.BlockingUntil
	} else {
		clientWins = clientBlocked
	}

	state := s.Server
	client := false
	if clientWins {
		state = s.Client
		client = true
	}

	t := state.BlockingUntil
	reportingDelay := state.ReportingDelay()
	state.BlockingUntil = state.BlockingUntil - time.Microsecond

	return &SimEvent{
		Event:  TriggerEvent{Kind: EventBlockingEnd},
		Time:   t + reportingDelay,
		Delay:  reportingDelay,
		Client: client,
		Fuzz:   s.newFuzz(),
	}
}

// fireInternalTimer finds the machine whose internal timer matches target
// in either side's map, clears it, and produces its TimerEnd event.
func (s *Simulator) fireInternalTimer(target time.Duration) SimEvent {
	if machine, ok := popInternalAt(s.Client.ScheduledInternal, target); ok {
		return SimEvent{Event: TriggerEvent{Kind: EventTimerEnd, Machine: machine}, Time: target, Client: true, Fuzz: s.newFuzz()}
	}
	if machine, ok := popInternalAt(s.Server.ScheduledInternal, target); ok {
		return SimEvent{Event: TriggerEvent{Kind: EventTimerEnd, Machine: machine}, Time: target, Client: false, Fuzz: s.newFuzz()}
	}
	panic(fmt.Sprintf("sim: BUG: internal timer fired at %v but not found", target))
}

func popInternalAt(m map[MachineID]time.Duration, target time.Duration) (MachineID, bool) {
	for machine, t := range m {
		if t == target {
			delete(m, machine)
			return machine, true
		}
	}
	return 0, false
}

// fireScheduledAction finds the ScheduledAction pinned to target in either
// side's map, clears it, and materializes the resulting event. Cancel and
// UpdateTimer must never be found here: they are resolved synchronously in
// triggerUpdate, so their presence is a fatal bug.
func (s *Simulator) fireScheduledAction(target time.Duration) *SimEvent {
	if mid, sa, ok := popScheduledAt(s.Client.ScheduledAction, target); ok {
		return s.materializeAction(true, mid, sa.Action, sa.Time)
	}
	if mid, sa, ok := popScheduledAt(s.Server.ScheduledAction, target); ok {
		return s.materializeAction(false, mid, sa.Action, sa.Time)
	}
	panic(fmt.Sprintf("sim: BUG: scheduled action fired at %v but not found", target))
}

func popScheduledAt(m map[MachineID]ScheduledAction, target time.Duration) (MachineID, ScheduledAction, bool) {
	for machine, sa := range m {
		if sa.Time == target {
			delete(m, machine)
			return machine, sa, true
		}
	}
	return 0, ScheduledAction{}, false
}

func (s *Simulator) materializeAction(client bool, machine MachineID, action TriggerAction, fireTime time.Duration) *SimEvent {
	state := s.Server
	if client {
		state = s.Client
	}

	switch action.Kind {
	case ActionSendPadding:
		return &SimEvent{
			Event:   TriggerEvent{Kind: EventPaddingQueued, Machine: machine},
			Time:    fireTime,
			Delay:   state.ActionDelay(),
			Client:  client,
			Bypass:  action.Bypass,
			Replace: action.Replace,
			Fuzz:    s.newFuzz(),
		}

	case ActionBlockOutgoing:
		block := fireTime + action.Duration
		if action.Replace || block > state.BlockingUntil {
			state.BlockingUntil = block
			state.BlockingBypassable = action.Bypass
		}
		actionDelay := state.ActionDelay()
		reportingDelay := state.ReportingDelay()
		return &SimEvent{
			Event:  TriggerEvent{Kind: EventBlockingBegin, Machine: machine},
			Time:   fireTime + actionDelay + reportingDelay,
			Delay:  actionDelay + reportingDelay,
			Client: client,
			Bypass: state.BlockingBypassable,
			Fuzz:   s.newFuzz(),
		}

	default:
		panic(fmt.Sprintf("sim: BUG: %s scheduled as an action, must be resolved synchronously", action.Kind))
	}
}

// triggerUpdate feeds event to state's framework and installs each returned
// action into scheduled_action/scheduled_internal.
func (s *Simulator) triggerUpdate(state *SimState, event TriggerEvent, client bool) {
	currentTime := s.Clock
	actions := state.Framework.TriggerEvents([]TriggerEvent{event}, currentTime)

	for _, action := range actions {
		switch action.Kind {
		case ActionCancel:
			switch action.Timer {
			case TimerKindAction:
				delete(state.ScheduledAction, action.Machine)
			case TimerKindInternal:
				delete(state.ScheduledInternal, action.Machine)
			case TimerKindAll:
				delete(state.ScheduledAction, action.Machine)
				delete(state.ScheduledInternal, action.Machine)
			}

		case ActionSendPadding, ActionBlockOutgoing:
			// No trigger delay applied to Cancel; SendPadding/BlockOutgoing
			// do apply it here.
			state.ScheduledAction[action.Machine] = ScheduledAction{
				Action: action,
				Time:   currentTime + action.Timeout + state.TriggerDelay(),
			}

		case ActionUpdateTimer:
			newDeadline := currentTime + action.Duration
			existing, exists := state.ScheduledInternal[action.Machine]
			if action.Replace || !exists || existing < newDeadline {
				state.ScheduledInternal[action.Machine] = newDeadline
				s.Queue.Push(TriggerEvent{Kind: EventTimerBegin, Machine: action.Machine}, client, currentTime, 0, s.newFuzz())
			}

		default:
			panic(fmt.Sprintf("sim: BUG: framework returned unknown action kind %q", action.Kind))
		}
	}
}
