package sched

import (
	"hash/fnv"
	"math/rand"
)

// SeedKey identifies a reproducible run. Two runs with the same SeedKey and
// identical configuration must make identical randomized decisions.
type SeedKey int64

// Subsystem names for partitioned RNG derivation.
const (
	// SubsystemBalancer feeds weighted-random path selection.
	SubsystemBalancer = "balancer"

	// SubsystemTraffic feeds synthetic traffic generation.
	SubsystemTraffic = "traffic"
)

// PartitionedRNG hands out a deterministically-seeded RNG per subsystem so
// that, for example, adding traffic generation to a run does not perturb the
// load balancer's decision sequence. Each subsystem's seed is the master
// seed XOR an FNV-1a hash of the subsystem name.
//
// Not safe for concurrent use; each consumer holds its own subsystem stream.
type PartitionedRNG struct {
	key        SeedKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a master seed.
func NewPartitionedRNG(key SeedKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the RNG for the named subsystem, creating it on first
// use. The same name always returns the same *rand.Rand instance.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Key returns the master seed this PartitionedRNG was built from.
func (p *PartitionedRNG) Key() SeedKey { return p.key }

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
