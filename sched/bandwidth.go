package sched

import (
	"fmt"
	"sync"
)

// BandwidthAllocation carries a class's guaranteed floor and ceiling bitrate
// plus its current measured usage. The floor is a hard lower bound: no mode
// change ever reduces it. Emergency override collapses other classes'
// ceilings down to their floors instead.
type BandwidthAllocation struct {
	Class            TrafficClass
	GuaranteedKbps   float64
	MaximumKbps      float64
	CurrentUsageKbps float64
	Priority         Priority
}

// BandwidthAllocator manages per-class floor/ceiling bitrates over a fixed
// channel total, switchable between normal, overnight-bulk and emergency
// operating modes.
//
// The baseline table set at construction is immutable; the named modes are
// pure projections computed from it on read. Toggling a mode off therefore
// restores the exact pre-mode ceilings with no data loss.
type BandwidthAllocator struct {
	mu        sync.RWMutex
	totalKbps float64
	baseline  [numTrafficClasses]*BandwidthAllocation
	usage     [numTrafficClasses]float64
	overnight bool
	emergency bool
}

// NewBandwidthAllocator validates and installs the baseline table. Floors
// must not exceed ceilings, ceilings must not exceed the channel total, and
// the floors together must fit inside the total.
func NewBandwidthAllocator(totalKbps float64, allocations []BandwidthAllocation) (*BandwidthAllocator, error) {
	if totalKbps <= 0 {
		return nil, fmt.Errorf("total bandwidth must be positive, got %.1f kbps", totalKbps)
	}
	a := &BandwidthAllocator{totalKbps: totalKbps}
	var floorSum float64
	for i := range allocations {
		alloc := allocations[i]
		if int(alloc.Class) < 0 || int(alloc.Class) >= numTrafficClasses {
			return nil, fmt.Errorf("allocation for unknown class %d", int(alloc.Class))
		}
		if a.baseline[alloc.Class] != nil {
			return nil, fmt.Errorf("duplicate allocation for class %s", alloc.Class)
		}
		if alloc.GuaranteedKbps < 0 || alloc.GuaranteedKbps > alloc.MaximumKbps {
			return nil, fmt.Errorf("class %s: floor %.1f outside [0, ceiling %.1f]",
				alloc.Class, alloc.GuaranteedKbps, alloc.MaximumKbps)
		}
		if alloc.MaximumKbps > totalKbps {
			return nil, fmt.Errorf("class %s: ceiling %.1f exceeds channel total %.1f",
				alloc.Class, alloc.MaximumKbps, totalKbps)
		}
		floorSum += alloc.GuaranteedKbps
		a.baseline[alloc.Class] = &alloc
	}
	if floorSum > totalKbps {
		return nil, fmt.Errorf("guaranteed floors sum to %.1f kbps, exceeding channel total %.1f", floorSum, totalKbps)
	}
	return a, nil
}

// Allocation returns the effective allocation for a class under the current
// operating mode. The second return is false for classes with no baseline.
func (a *BandwidthAllocator) Allocation(class TrafficClass) (BandwidthAllocation, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if int(class) < 0 || int(class) >= numTrafficClasses || a.baseline[class] == nil {
		return BandwidthAllocation{}, false
	}
	alloc := *a.baseline[class]
	alloc.CurrentUsageKbps = a.usage[class]
	switch {
	case a.emergency && class == Emergency:
		alloc.MaximumKbps = a.totalKbps
	case a.emergency:
		alloc.MaximumKbps = alloc.GuaranteedKbps
	case a.overnight && class == Educational:
		alloc.MaximumKbps = a.totalKbps
	}
	return alloc, true
}

// SetOvernightMode lifts Educational's ceiling to the full channel total so
// bulk content sync can consume the channel overnight, and restores the
// configured baseline ceiling when disabled. No other class is touched.
func (a *BandwidthAllocator) SetOvernightMode(enabled bool) {
	a.mu.Lock()
	a.overnight = enabled
	a.mu.Unlock()
}

// ActivateEmergency gives Emergency the full channel and collapses every
// other class's ceiling down to its guaranteed floor. Floors themselves are
// never reduced.
func (a *BandwidthAllocator) ActivateEmergency() {
	a.mu.Lock()
	a.emergency = true
	a.mu.Unlock()
}

// DeactivateEmergency restores every class's baseline ceiling (or the
// overnight projection, if overnight mode is still on).
func (a *BandwidthAllocator) DeactivateEmergency() {
	a.mu.Lock()
	a.emergency = false
	a.mu.Unlock()
}

// SetUsage records a class's measured bitrate for reporting. Fed from the
// manager's per-frame transmission accounting.
func (a *BandwidthAllocator) SetUsage(class TrafficClass, kbps float64) {
	if int(class) < 0 || int(class) >= numTrafficClasses {
		return
	}
	a.mu.Lock()
	a.usage[class] = kbps
	a.mu.Unlock()
}

// OvernightMode reports whether the overnight-bulk projection is active.
func (a *BandwidthAllocator) OvernightMode() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.overnight
}

// EmergencyOverride reports whether the emergency projection is active.
func (a *BandwidthAllocator) EmergencyOverride() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.emergency
}

// TotalBandwidthKbps returns the rationed channel total.
func (a *BandwidthAllocator) TotalBandwidthKbps() float64 { return a.totalKbps }

// DefaultAllocations is the standing bandwidth table for a 500 kbps channel.
// Financial stays deliberately tiny (10/50 kbps, Priority Low): that channel
// carries asynchronous offline settlement only, never latency-sensitive
// trading, and the bound holds for any channel total.
func DefaultAllocations() []BandwidthAllocation {
	return []BandwidthAllocation{
		{Class: Emergency, GuaranteedKbps: 100, MaximumKbps: 500, Priority: Critical},
		{Class: CoreIntelligence, GuaranteedKbps: 100, MaximumKbps: 200, Priority: High},
		{Class: Educational, GuaranteedKbps: 50, MaximumKbps: 300, Priority: Medium},
		{Class: Environmental, GuaranteedKbps: 30, MaximumKbps: 100, Priority: Medium},
		{Class: Municipal, GuaranteedKbps: 30, MaximumKbps: 100, Priority: Low},
		{Class: Financial, GuaranteedKbps: 10, MaximumKbps: 50, Priority: Low},
		{Class: Commercial, GuaranteedKbps: 20, MaximumKbps: 100, Priority: BestEffort},
	}
}
