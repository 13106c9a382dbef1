package sched

import "time"

// SlotConfig groups frame clock parameters.
type SlotConfig struct {
	SlotDuration  time.Duration // duration of one slot (default 1ms)
	SlotsPerFrame int           // slots per frame (default 1000 = one second)
}

// QueueConfig groups admission parameters. Depths reflect each class's
// expected burstiness: bulk educational queues run deep, commercial shallow.
type QueueConfig struct {
	MaxPacketSize int                  // per-packet payload ceiling in bytes
	Depths        map[TrafficClass]int // per-class max queue depth
}

// PolicyConfig groups dequeue policy parameters.
type PolicyConfig struct {
	StarvationTimeout time.Duration // oldest-packet age that forces release
	StarvationScan    int           // max class queues inspected per tick
}

// BandwidthConfig groups the channel total and the per-class baseline table.
type BandwidthConfig struct {
	TotalKbps   float64
	Allocations []BandwidthAllocation
}

// RouterConfig groups path selection parameters.
type RouterConfig struct {
	BulkThresholdBytes int    // payload size above which Educational traffic is bulk
	Balancer           string // load balancer strategy name (see ValidBalancerStrategies)
}

// Config is the full static configuration surface, set at construction and
// never at runtime.
type Config struct {
	Slots      SlotConfig
	Partition  []SlotAssignment
	Queues     QueueConfig
	Policy     PolicyConfig
	Bandwidth  BandwidthConfig
	Congestion CongestionThresholds
	Router     RouterConfig
	Seed       int64
}

// DefaultConfig returns the standing configuration: a one-second frame of
// 1 ms slots, the default partition and bandwidth tables, 30 s starvation
// timeout and round-robin bulk balancing.
func DefaultConfig() Config {
	return Config{
		Slots: SlotConfig{
			SlotDuration:  time.Millisecond,
			SlotsPerFrame: 1000,
		},
		Partition: DefaultPartition(),
		Queues: QueueConfig{
			MaxPacketSize: MaxPacketSize,
			Depths: map[TrafficClass]int{
				Emergency:        64,
				CoreIntelligence: 256,
				Educational:      1024,
				Environmental:    256,
				Municipal:        128,
				Financial:        64,
				Commercial:       32,
			},
		},
		Policy: PolicyConfig{
			StarvationTimeout: 30 * time.Second,
			StarvationScan:    32,
		},
		Bandwidth: BandwidthConfig{
			TotalKbps:   500,
			Allocations: DefaultAllocations(),
		},
		Congestion: DefaultCongestionThresholds(),
		Router: RouterConfig{
			BulkThresholdBytes: 10 * 1000,
			Balancer:           "round-robin",
		},
		Seed: 42,
	}
}
