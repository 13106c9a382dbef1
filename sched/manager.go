// TrafficManager ties the frame clock, class queues, congestion detector,
// bandwidth allocator and router into the per-slot transmit pipeline.

package sched

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// TrafficManager mediates access to the shared channel. Producers enqueue
// concurrently; a single external transmit driver calls Tick once per slot.
// The tick sequence (advance clock, evaluate congestion, dequeue) is
// strictly ordered and never overlaps the next tick.
//
// Control-plane writes (metrics snapshots, mode toggles) each swap one
// component's state atomically under that component's lock, and a tick reads
// each component exactly once, so every tick observes fully-old or fully-new
// control state, never a partial transition.
type TrafficManager struct {
	cfg      Config
	clock    *FrameClock
	queues   *QueueSet
	policy   *DequeuePolicy
	detector *CongestionDetector
	alloc    *BandwidthAllocator
	router   *Router
	metrics  *Metrics
	now      func() time.Time

	// frameBytes accumulates transmitted payload bytes per class over the
	// current frame. Touched only by the tick owner.
	frameBytes [numTrafficClasses]int64
}

// ManagerOption configures optional TrafficManager behavior.
type ManagerOption func(*TrafficManager)

// WithNowFunc injects the wall-clock source, used by tests and the virtual
// clock of simulated runs. Defaults to time.Now.
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *TrafficManager) { m.now = now }
}

// WithMetrics injects a pre-built metrics set, letting callers choose the
// Prometheus registry. Defaults to collectors on the default registerer.
func WithMetrics(metrics *Metrics) ManagerOption {
	return func(m *TrafficManager) { m.metrics = metrics }
}

// NewTrafficManager validates the configuration and builds the pipeline.
// Structural configuration errors (bad partition, bad bandwidth table) fail
// here rather than surfacing as scheduling gaps later.
func NewTrafficManager(cfg Config, opts ...ManagerOption) (*TrafficManager, error) {
	schedule, err := NewSchedule(cfg.Slots.SlotsPerFrame, cfg.Partition)
	if err != nil {
		return nil, fmt.Errorf("slot partition: %w", err)
	}
	alloc, err := NewBandwidthAllocator(cfg.Bandwidth.TotalKbps, cfg.Bandwidth.Allocations)
	if err != nil {
		return nil, fmt.Errorf("bandwidth table: %w", err)
	}
	if !ValidBalancerStrategies[cfg.Router.Balancer] {
		return nil, fmt.Errorf("unknown load balancer strategy %q", cfg.Router.Balancer)
	}

	rng := NewPartitionedRNG(SeedKey(cfg.Seed))
	queues := NewQueueSet(cfg.Queues.MaxPacketSize, cfg.Queues.Depths)

	m := &TrafficManager{
		cfg:      cfg,
		clock:    NewFrameClock(cfg.Slots.SlotDuration, cfg.Slots.SlotsPerFrame),
		queues:   queues,
		policy:   NewDequeuePolicy(queues, schedule, cfg.Policy.StarvationTimeout, cfg.Policy.StarvationScan),
		detector: NewCongestionDetector(cfg.Congestion),
		alloc:    alloc,
		router:   NewRouter(NewLoadBalancer(cfg.Router.Balancer, rng.ForSubsystem(SubsystemBalancer)), cfg.Router.BulkThresholdBytes),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.metrics == nil {
		m.metrics = NewMetrics()
	}
	logrus.Infof("traffic manager ready: %d slots/frame, %d classes, %.0f kbps channel",
		cfg.Slots.SlotsPerFrame, len(cfg.Partition), cfg.Bandwidth.TotalKbps)
	return m, nil
}

// Enqueue admits a payload for its traffic class. Safe for concurrent
// producer calls; fails immediately (never blocks) with ErrPacketTooLarge,
// ErrQueueFull or ErrUnknownClass.
func (m *TrafficManager) Enqueue(payload []byte, class TrafficClass) error {
	if err := m.queues.Enqueue(payload, class, m.now()); err != nil {
		m.metrics.PacketsRejected.WithLabelValues(class.String(), rejectionReason(err)).Inc()
		return err
	}
	m.metrics.PacketsEnqueued.WithLabelValues(class.String()).Inc()
	if q := m.queues.Queue(class); q != nil {
		m.metrics.QueueDepth.WithLabelValues(class.String()).Set(float64(q.Len()))
		m.metrics.QueueBytes.WithLabelValues(class.String()).Set(float64(q.TotalBytes()))
	}
	return nil
}

// Tick runs one slot of the transmit pipeline and returns the payload to
// hand to the transmit driver, or ok=false when the channel sits idle this
// tick. Single-owner: only the transmit driver calls Tick, once per slot.
func (m *TrafficManager) Tick() (payload []byte, ok bool) {
	slot := m.clock.Advance()
	if slot == 0 {
		m.flushFrameUsage()
	}
	m.metrics.CongestionSeverity.Set(m.detector.Severity())

	pkt, starved := m.policy.NextPacket(m.now(), slot)
	if pkt == nil {
		m.metrics.IdleTicks.Inc()
		return nil, false
	}
	m.frameBytes[pkt.Class] += int64(len(pkt.Payload))
	class := pkt.Class.String()
	if starved {
		m.metrics.StarvationOverrides.WithLabelValues(class).Inc()
	}
	m.metrics.PacketsTransmitted.WithLabelValues(class).Inc()
	if q := m.queues.Queue(pkt.Class); q != nil {
		m.metrics.QueueDepth.WithLabelValues(class).Set(float64(q.Len()))
		m.metrics.QueueBytes.WithLabelValues(class).Set(float64(q.TotalBytes()))
	}
	return pkt.Payload, true
}

// flushFrameUsage converts the bytes each class transmitted over the
// completed frame into a bitrate and publishes it to the allocator's usage
// readings. Runs at every frame boundary, so an idle frame resets a class's
// reading to zero.
func (m *TrafficManager) flushFrameUsage() {
	frameSeconds := (m.cfg.Slots.SlotDuration * time.Duration(m.cfg.Slots.SlotsPerFrame)).Seconds()
	if frameSeconds <= 0 {
		return
	}
	for _, class := range ClassesByPriority {
		kbps := float64(m.frameBytes[class]) * 8 / 1000 / frameSeconds
		m.alloc.SetUsage(class, kbps)
		m.frameBytes[class] = 0
	}
}

// CurrentSlot returns the slot the frame clock is positioned at.
func (m *TrafficManager) CurrentSlot() int { return m.clock.CurrentSlot() }

// UpdateMetrics feeds a channel-health snapshot from the link monitor.
func (m *TrafficManager) UpdateMetrics(metrics CongestionMetrics) {
	m.detector.Update(metrics)
}

// GetCongestionResponse returns the graduated response for the last
// snapshot. Idempotent for an unchanged snapshot.
func (m *TrafficManager) GetCongestionResponse() Response {
	return m.detector.GetResponse()
}

// IsCongested reports whether any health metric breaches its threshold.
func (m *TrafficManager) IsCongested() bool {
	return m.detector.IsCongested()
}

// SelectPath picks a route for an outgoing packet from externally
// discovered candidates.
func (m *TrafficManager) SelectPath(packetSize int, class TrafficClass, candidates []RoutePath) (PathID, error) {
	return m.router.SelectPath(packetSize, class, candidates)
}

// SetOvernightMode toggles the overnight bulk-transfer projection.
func (m *TrafficManager) SetOvernightMode(enabled bool) {
	m.alloc.SetOvernightMode(enabled)
	logrus.Infof("overnight mode %v", enabled)
}

// ActivateEmergency switches the allocator to the emergency projection.
func (m *TrafficManager) ActivateEmergency() {
	m.alloc.ActivateEmergency()
	logrus.Warn("emergency bandwidth override activated")
}

// DeactivateEmergency restores baseline ceilings.
func (m *TrafficManager) DeactivateEmergency() {
	m.alloc.DeactivateEmergency()
	logrus.Info("emergency bandwidth override deactivated")
}

// Allocator exposes the bandwidth allocator for inspection.
func (m *TrafficManager) Allocator() *BandwidthAllocator { return m.alloc }

// Queue exposes a class queue for inspection, or nil when unconfigured.
func (m *TrafficManager) Queue(class TrafficClass) *ClassQueue { return m.queues.Queue(class) }

// Snapshot is a point-in-time view of manager state for the control plane.
type Snapshot struct {
	CurrentSlot    int                  `json:"current_slot"`
	QueueDepths    map[string]int       `json:"queue_depths"`
	QueueBytes     map[string]int64     `json:"queue_bytes"`
	Congested      bool                 `json:"congested"`
	Response       string               `json:"congestion_response"`
	Severity       float64              `json:"congestion_severity"`
	OvernightMode  bool                 `json:"overnight_mode"`
	Emergency      bool                 `json:"emergency_override"`
	Allocations    map[string]AllocView `json:"allocations"`
	TotalBandwidth float64              `json:"total_bandwidth_kbps"`
}

// AllocView is the JSON shape of one effective bandwidth allocation.
type AllocView struct {
	GuaranteedKbps float64 `json:"guaranteed_kbps"`
	MaximumKbps    float64 `json:"maximum_kbps"`
	UsageKbps      float64 `json:"current_usage_kbps"`
	Priority       string  `json:"priority"`
}

// Snapshot collects the current scheduler, queue and allocator state.
func (m *TrafficManager) Snapshot() Snapshot {
	snap := Snapshot{
		CurrentSlot:    m.clock.CurrentSlot(),
		QueueDepths:    make(map[string]int, numTrafficClasses),
		QueueBytes:     make(map[string]int64, numTrafficClasses),
		Congested:      m.detector.IsCongested(),
		Response:       m.detector.GetResponse().String(),
		Severity:       m.detector.Severity(),
		OvernightMode:  m.alloc.OvernightMode(),
		Emergency:      m.alloc.EmergencyOverride(),
		Allocations:    make(map[string]AllocView, numTrafficClasses),
		TotalBandwidth: m.alloc.TotalBandwidthKbps(),
	}
	for _, class := range ClassesByPriority {
		if q := m.queues.Queue(class); q != nil {
			snap.QueueDepths[class.String()] = q.Len()
			snap.QueueBytes[class.String()] = q.TotalBytes()
		}
		if alloc, ok := m.alloc.Allocation(class); ok {
			snap.Allocations[class.String()] = AllocView{
				GuaranteedKbps: alloc.GuaranteedKbps,
				MaximumKbps:    alloc.MaximumKbps,
				UsageKbps:      alloc.CurrentUsageKbps,
				Priority:       alloc.Priority.String(),
			}
		}
	}
	return snap
}
