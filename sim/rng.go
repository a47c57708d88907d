package sim

import (
	"hash/fnv"
	"math/rand"
)

// Subsystem name constants for PartitionedRNG, keeping each concern's
// random draws on its own isolated stream.
const (
	SubsystemFuzz    = "fuzz"
	SubsystemNetwork = "network"
)

// PartitionedRNG provides deterministic, isolated RNG streams per subsystem
// so that, e.g., the fuzz tie-breaker and the network delay sampler never
// perturb each other's draw sequence regardless of call order.
//
// Thread-safety: NOT thread-safe. The simulator is single-threaded.
type PartitionedRNG struct {
	masterSeed int64
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG seeded from masterSeed.
func NewPartitionedRNG(masterSeed int64) *PartitionedRNG {
	return &PartitionedRNG{
		masterSeed: masterSeed,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the (lazily created, cached) RNG for name. The same
// name always returns the same *rand.Rand instance.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(p.deriveSeed(name)))
	p.subsystems[name] = rng
	return rng
}

// deriveSeed derives a subsystem seed deterministically and
// order-independently from the master seed: masterSeed XOR fnv1a64(name).
func (p *PartitionedRNG) deriveSeed(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return p.masterSeed ^ int64(h.Sum64())
}

// NextFuzz draws the next 32-bit fuzz tag used to disambiguate SimEvents
// with identical Time.
func (p *PartitionedRNG) NextFuzz() uint32 {
	return p.ForSubsystem(SubsystemFuzz).Uint32()
}
