package sched

import (
	"math/rand"

	"github.com/sirupsen/logrus"
)

// LoadBalancer spreads bulk traffic across the candidate paths instead of
// concentrating it on one link.
type LoadBalancer interface {
	// Select picks one path from a non-empty candidate list.
	Select(paths []RoutePath) PathID
}

// RoundRobinBalancer cycles through the path list, advancing its cursor by
// one on every call. The sequence is deterministic and reproducible as long
// as the path list does not change between calls; the cursor is reduced
// modulo the current list length, so a changed list degrades to a valid
// (phase-shifted) rotation rather than an out-of-range index.
type RoundRobinBalancer struct {
	cursor int
}

// Select implements LoadBalancer for RoundRobinBalancer.
func (rr *RoundRobinBalancer) Select(paths []RoutePath) PathID {
	if len(paths) == 0 {
		panic("RoundRobinBalancer.Select: empty path list")
	}
	target := paths[rr.cursor%len(paths)]
	rr.cursor++
	return target.PathID
}

// WeightedRandomBalancer selects a path with probability proportional to its
// available bandwidth. A uniform sample from [0, totalWeight) is consumed by
// walking the path list and subtracting each path's weight until it goes
// negative. Zero-weight paths are never selected while a positive-weight
// path exists; when every weight is zero the first path wins.
type WeightedRandomBalancer struct {
	rng *rand.Rand
}

// NewWeightedRandomBalancer creates a balancer drawing from the given RNG,
// typically a PartitionedRNG SubsystemBalancer stream so selections are
// reproducible under a fixed seed.
func NewWeightedRandomBalancer(rng *rand.Rand) *WeightedRandomBalancer {
	return &WeightedRandomBalancer{rng: rng}
}

// Select implements LoadBalancer for WeightedRandomBalancer.
func (wr *WeightedRandomBalancer) Select(paths []RoutePath) PathID {
	if len(paths) == 0 {
		panic("WeightedRandomBalancer.Select: empty path list")
	}
	var total float64
	for _, p := range paths {
		if p.AvailableBandwidthKbps > 0 {
			total += p.AvailableBandwidthKbps
		}
	}
	if total <= 0 {
		return paths[0].PathID
	}
	sample := wr.rng.Float64() * total
	for _, p := range paths {
		sample -= p.AvailableBandwidthKbps
		if sample < 0 {
			return p.PathID
		}
	}
	return paths[len(paths)-1].PathID
}

// ValidBalancerStrategies is the set of recognized load balancer names.
// Shared by bundle validation and NewLoadBalancer.
var ValidBalancerStrategies = map[string]bool{"": true, "round-robin": true, "weighted-random": true}

// NewLoadBalancer creates a load balancer by strategy name. Empty string
// defaults to round-robin. Panics on unrecognized names; bundle validation
// rejects them before construction.
func NewLoadBalancer(strategy string, rng *rand.Rand) LoadBalancer {
	switch strategy {
	case "", "round-robin":
		return &RoundRobinBalancer{}
	case "weighted-random":
		return NewWeightedRandomBalancer(rng)
	default:
		logrus.Panicf("unknown load balancer strategy %q", strategy)
		return nil
	}
}
