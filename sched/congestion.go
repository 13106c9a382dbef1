package sched

import "sync"

// CongestionMetrics is a channel-health snapshot supplied by an external
// measurement source. The detector owns and overwrites the last snapshot;
// nothing else mutates it.
type CongestionMetrics struct {
	QueueDepthPercent         float64
	AverageLatencyMs          float64
	RetransmitRatePercent     float64
	ChannelUtilizationPercent float64
}

// CongestionThresholds configures when each metric counts as congested.
// The effective latency threshold is LatencyBaselineMs × LatencyMultiplier.
type CongestionThresholds struct {
	QueueDepthPercent         float64
	LatencyBaselineMs         float64
	LatencyMultiplier         float64
	RetransmitRatePercent     float64
	ChannelUtilizationPercent float64
}

// DefaultCongestionThresholds returns the standing thresholds: 80% queue
// depth, 1000 ms latency baseline doubled, 5% retransmits, 90% utilization.
func DefaultCongestionThresholds() CongestionThresholds {
	return CongestionThresholds{
		QueueDepthPercent:         80,
		LatencyBaselineMs:         1000,
		LatencyMultiplier:         2.0,
		RetransmitRatePercent:     5,
		ChannelUtilizationPercent: 90,
	}
}

// Response is the graduated congestion reaction the transmit driver applies.
type Response int

const (
	ResponseNormal Response = iota
	ResponseReducePacketSize
	ResponseIncreaseInterPacketGap
	ResponseActivateBackupPaths
	ResponseEmergencyPrioritization
)

func (r Response) String() string {
	switch r {
	case ResponseNormal:
		return "normal"
	case ResponseReducePacketSize:
		return "reduce-packet-size"
	case ResponseIncreaseInterPacketGap:
		return "increase-inter-packet-gap"
	case ResponseActivateBackupPaths:
		return "activate-backup-paths"
	case ResponseEmergencyPrioritization:
		return "emergency-prioritization"
	default:
		return "unknown"
	}
}

// CongestionDetector turns the last metrics snapshot into a graduated
// response. It holds no state beyond that snapshot: every query is a pure
// function of it and may be called any number of times per tick. Update
// swaps the whole snapshot under the lock, so a tick reading the detector
// sees either the fully-old or the fully-new metrics, never a mix.
type CongestionDetector struct {
	mu         sync.RWMutex
	thresholds CongestionThresholds
	last       CongestionMetrics
}

// NewCongestionDetector creates a detector with an all-zero (healthy)
// initial snapshot.
func NewCongestionDetector(thresholds CongestionThresholds) *CongestionDetector {
	return &CongestionDetector{thresholds: thresholds}
}

// Update replaces the metrics snapshot atomically.
func (d *CongestionDetector) Update(m CongestionMetrics) {
	d.mu.Lock()
	d.last = m
	d.mu.Unlock()
}

// Metrics returns the last snapshot.
func (d *CongestionDetector) Metrics() CongestionMetrics {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.last
}

// IsCongested reports whether any single metric exceeds its threshold.
func (d *CongestionDetector) IsCongested() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.congestedLocked()
}

func (d *CongestionDetector) congestedLocked() bool {
	t := d.thresholds
	m := d.last
	return m.QueueDepthPercent > t.QueueDepthPercent ||
		m.AverageLatencyMs > t.LatencyBaselineMs*t.LatencyMultiplier ||
		m.RetransmitRatePercent > t.RetransmitRatePercent ||
		m.ChannelUtilizationPercent > t.ChannelUtilizationPercent
}

// Severity scores the snapshot on [0,100]: each metric contributes up to 25
// points in proportion to how close it is to its threshold.
func (d *CongestionDetector) Severity() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.severityLocked()
}

func (d *CongestionDetector) severityLocked() float64 {
	t := d.thresholds
	m := d.last
	score := ratio(m.QueueDepthPercent, t.QueueDepthPercent)
	score += ratio(m.AverageLatencyMs, t.LatencyBaselineMs*t.LatencyMultiplier)
	score += ratio(m.RetransmitRatePercent, t.RetransmitRatePercent)
	score += ratio(m.ChannelUtilizationPercent, t.ChannelUtilizationPercent)
	score *= 25
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func ratio(metric, threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}
	r := metric / threshold
	if r > 1 {
		return 1
	}
	if r < 0 {
		return 0
	}
	return r
}

// GetResponse maps the severity score to a graduated response band:
// 0–30 reduce packet size, 31–60 widen inter-packet gaps, 61–80 activate
// backup paths, 81–100 emergency prioritization. When no metric breaches its
// threshold the response is always ResponseNormal regardless of severity.
func (d *CongestionDetector) GetResponse() Response {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.congestedLocked() {
		return ResponseNormal
	}
	switch severity := d.severityLocked(); {
	case severity <= 30:
		return ResponseReducePacketSize
	case severity <= 60:
		return ResponseIncreaseInterPacketGap
	case severity <= 80:
		return ResponseActivateBackupPaths
	default:
		return ResponseEmergencyPrioritization
	}
}
