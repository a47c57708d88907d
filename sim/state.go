package sim

import (
	"math/rand"
	"time"
)

// Sampler is the sample() contract probability distributions are consumed
// through. sim/distributions implements it for the eleven named
// distributions; tests may use a fixed-value stub.
type Sampler interface {
	Sample(rng *rand.Rand) time.Duration
}

// Integration holds the three distributions an endpoint draws integration
// delays from. A nil Integration, or a nil distribution within it, samples
// as zero.
type Integration struct {
	ReportingDelay Sampler
	ActionDelay    Sampler
	TriggerDelay   Sampler
	rng            *rand.Rand
}

func sampleOrZero(s Sampler, rng *rand.Rand) time.Duration {
	if s == nil {
		return 0
	}
	return s.Sample(rng)
}

// ReportingDelaySample draws a fresh reporting delay, or zero if unset.
func (in *Integration) ReportingDelaySample() time.Duration {
	if in == nil {
		return 0
	}
	return sampleOrZero(in.ReportingDelay, in.rng)
}

// ActionDelaySample draws a fresh action delay, or zero if unset.
func (in *Integration) ActionDelaySample() time.Duration {
	if in == nil {
		return 0
	}
	return sampleOrZero(in.ActionDelay, in.rng)
}

// TriggerDelaySample draws a fresh trigger delay, or zero if unset.
func (in *Integration) TriggerDelaySample() time.Duration {
	if in == nil {
		return 0
	}
	return sampleOrZero(in.TriggerDelay, in.rng)
}

// SimState holds one endpoint's (client or server) simulation state.
type SimState struct {
	Client bool

	Framework Framework

	// ScheduledAction holds at most one pending ScheduledAction per
	// machine; an absent key means none is pending.
	ScheduledAction map[MachineID]ScheduledAction
	// ScheduledInternal holds at most one pending internal timer deadline
	// per machine.
	ScheduledInternal map[MachineID]time.Duration

	// BlockingUntil >= now means outgoing is currently blocked; the
	// sentinel "not blocked" value is always one microsecond in the past.
	BlockingUntil      time.Duration
	BlockingBypassable bool

	LastSentTime time.Duration

	Integration *Integration

	rng *rand.Rand
}

// NewSimState creates a SimState for one endpoint. currentTime seeds the
// "not blocked" and "never sent" sentinels into the past relative to it.
func NewSimState(client bool, framework Framework, integration *Integration, currentTime time.Duration, rng *rand.Rand) *SimState {
	if integration != nil {
		integration.rng = rng
	}
	return &SimState{
		Client:            client,
		Framework:         framework,
		ScheduledAction:   make(map[MachineID]ScheduledAction),
		ScheduledInternal: make(map[MachineID]time.Duration),
		BlockingUntil:     currentTime - time.Microsecond,
		LastSentTime:      currentTime - 1000*time.Second,
		Integration:       integration,
		rng:               rng,
	}
}

// ReportingDelay draws this endpoint's reporting integration delay.
func (s *SimState) ReportingDelay() time.Duration { return s.Integration.ReportingDelaySample() }

// ActionDelay draws this endpoint's action integration delay.
func (s *SimState) ActionDelay() time.Duration { return s.Integration.ActionDelaySample() }

// TriggerDelay draws this endpoint's trigger integration delay.
func (s *SimState) TriggerDelay() time.Duration { return s.Integration.TriggerDelaySample() }
