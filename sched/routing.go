package sched

// PathID names one discovered route through the mesh.
type PathID int

// RoutePath is a candidate route supplied by the external topology/discovery
// subsystem. The router treats it as read-only for the duration of one
// selection call.
type RoutePath struct {
	PathID                 PathID
	Hops                   []string // opaque hop identifiers
	TotalLatencyMs         float64
	AvailableBandwidthKbps float64
	ReliabilityScore       float64 // in [0,1]
}

// Router picks a path for each outgoing packet using a strategy keyed by
// traffic class and packet size:
//
//   - Emergency and Financial ride the most reliable path available.
//   - Educational bulk transfers (above the bulk threshold) go through the
//     load balancer so they spread across all paths.
//   - Everything else uses adaptive selection: paths that can plausibly
//     deliver the packet within one nominal second, lowest latency first.
type Router struct {
	balancer      LoadBalancer
	bulkThreshold int
}

// NewRouter creates a router delegating bulk traffic to the given balancer.
func NewRouter(balancer LoadBalancer, bulkThresholdBytes int) *Router {
	return &Router{balancer: balancer, bulkThreshold: bulkThresholdBytes}
}

// SelectPath chooses a candidate path for the packet. Returns
// ErrNoViablePath when the candidate list is empty or, for adaptive
// selection, when no path passes the capacity filter; the caller should
// defer and retry the packet.
func (r *Router) SelectPath(packetSize int, class TrafficClass, candidates []RoutePath) (PathID, error) {
	if len(candidates) == 0 {
		return 0, ErrNoViablePath
	}
	switch {
	case class == Emergency || class == Financial:
		return mostReliablePath(candidates), nil
	case class == Educational && r.isBulkTransfer(packetSize):
		return r.balancer.Select(candidates), nil
	default:
		return adaptivePath(packetSize, candidates)
	}
}

func (r *Router) isBulkTransfer(packetSize int) bool {
	return packetSize > r.bulkThreshold
}

// mostReliablePath returns the candidate with the maximum reliability score.
// Ties break to the first candidate encountered; candidates arrive as an
// ordered slice, so the tie-break is deterministic per call.
func mostReliablePath(candidates []RoutePath) PathID {
	best := candidates[0]
	for _, p := range candidates[1:] {
		if p.ReliabilityScore > best.ReliabilityScore {
			best = p
		}
	}
	return best.PathID
}

// adaptivePath filters candidates to those whose bytes-per-second capacity
// (kbps × 1000 / 8) exceeds the packet size, then picks the minimum total
// latency among survivors. An empty survivor set yields ErrNoViablePath
// rather than a fabricated path id.
func adaptivePath(packetSize int, candidates []RoutePath) (PathID, error) {
	var best *RoutePath
	for i := range candidates {
		p := &candidates[i]
		capacityBytes := p.AvailableBandwidthKbps * 1000 / 8
		if capacityBytes <= float64(packetSize) {
			continue
		}
		if best == nil || p.TotalLatencyMs < best.TotalLatencyMs {
			best = p
		}
	}
	if best == nil {
		return 0, ErrNoViablePath
	}
	return best.PathID, nil
}
