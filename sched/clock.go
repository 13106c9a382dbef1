package sched

import (
	"fmt"
	"sort"
	"sync/atomic"
	"time"
)

// SlotAssignment reserves an inclusive range of slots within one frame for a
// single traffic class. Assignments are created at configuration time and
// immutable thereafter; changing the partition means rebuilding the schedule.
type SlotAssignment struct {
	Class     TrafficClass
	StartSlot int
	EndSlot   int // inclusive
	Priority  Priority
}

// Schedule is the validated static partition of one frame among traffic
// classes. The union of all assignment ranges covers exactly
// [0, slotsPerFrame) with no gap and no overlap.
type Schedule struct {
	slotsPerFrame int
	assignments   []SlotAssignment // sorted by StartSlot
}

// NewSchedule validates the partition once at construction. A partition that
// leaves gaps, overlaps, or extends past the frame is a structural
// configuration error and fails fast here rather than manifesting as silent
// scheduling holes later.
func NewSchedule(slotsPerFrame int, assignments []SlotAssignment) (*Schedule, error) {
	if slotsPerFrame <= 0 {
		return nil, fmt.Errorf("slots per frame must be positive, got %d", slotsPerFrame)
	}
	if len(assignments) == 0 {
		return nil, fmt.Errorf("slot partition is empty")
	}
	sorted := make([]SlotAssignment, len(assignments))
	copy(sorted, assignments)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartSlot < sorted[j].StartSlot })

	for _, a := range sorted {
		if a.StartSlot > a.EndSlot {
			return nil, fmt.Errorf("class %s: start slot %d after end slot %d", a.Class, a.StartSlot, a.EndSlot)
		}
	}
	if sorted[0].StartSlot != 0 {
		return nil, fmt.Errorf("slot partition starts at %d, want 0", sorted[0].StartSlot)
	}
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		switch {
		case cur.StartSlot <= prev.EndSlot:
			return nil, fmt.Errorf("classes %s and %s overlap at slot %d", prev.Class, cur.Class, cur.StartSlot)
		case cur.StartSlot != prev.EndSlot+1:
			return nil, fmt.Errorf("gap in slot partition between %d and %d", prev.EndSlot, cur.StartSlot)
		}
	}
	last := sorted[len(sorted)-1]
	if last.EndSlot != slotsPerFrame-1 {
		return nil, fmt.Errorf("slot partition ends at %d, want %d", last.EndSlot, slotsPerFrame-1)
	}
	return &Schedule{slotsPerFrame: slotsPerFrame, assignments: sorted}, nil
}

// SlotsPerFrame returns the frame length in slots.
func (s *Schedule) SlotsPerFrame() int { return s.slotsPerFrame }

// Assignments returns the partition in StartSlot order.
func (s *Schedule) Assignments() []SlotAssignment { return s.assignments }

// ClassFor returns the traffic class owning the given slot.
func (s *Schedule) ClassFor(slot int) (TrafficClass, bool) {
	i := sort.Search(len(s.assignments), func(i int) bool { return s.assignments[i].EndSlot >= slot })
	if i < len(s.assignments) && s.assignments[i].StartSlot <= slot && slot <= s.assignments[i].EndSlot {
		return s.assignments[i].Class, true
	}
	return 0, false
}

// CanTransmit reports whether the slot lies inside the class's assigned
// window. A class may own more than one window.
func (s *Schedule) CanTransmit(class TrafficClass, slot int) bool {
	owner, ok := s.ClassFor(slot)
	return ok && owner == class
}

// FrameClock tracks the current slot within a repeating frame. The current
// slot is the clock's only mutable scheduling state; everything else is
// fixed at construction. Advance has a single caller (the tick owner) but
// CurrentSlot is read concurrently by the control plane, so the slot is
// published atomically.
type FrameClock struct {
	slotDuration  time.Duration
	slotsPerFrame int
	currentSlot   atomic.Int64
}

// NewFrameClock creates a clock positioned at slot 0.
func NewFrameClock(slotDuration time.Duration, slotsPerFrame int) *FrameClock {
	return &FrameClock{slotDuration: slotDuration, slotsPerFrame: slotsPerFrame}
}

// Advance moves the clock forward one slot, wrapping at the frame boundary,
// and returns the new current slot. This is the only clock mutation; the
// load-then-store is safe because the tick owner is the sole writer.
func (fc *FrameClock) Advance() int {
	next := (fc.currentSlot.Load() + 1) % int64(fc.slotsPerFrame)
	fc.currentSlot.Store(next)
	return int(next)
}

// CurrentSlot returns the slot the clock is positioned at.
func (fc *FrameClock) CurrentSlot() int { return int(fc.currentSlot.Load()) }

// SlotDuration returns the fixed duration of one slot.
func (fc *FrameClock) SlotDuration() time.Duration { return fc.slotDuration }

// DefaultPartition is the standing frame layout: 1000 slots of 1 ms, with
// Emergency holding an unconditional 10% share at the head of the frame.
// That share does not shrink when Emergency is idle; the capacity sits
// unused so emergency latency stays deterministically bounded.
func DefaultPartition() []SlotAssignment {
	return []SlotAssignment{
		{Class: Emergency, StartSlot: 0, EndSlot: 99, Priority: Critical},
		{Class: CoreIntelligence, StartSlot: 100, EndSlot: 299, Priority: High},
		{Class: Educational, StartSlot: 300, EndSlot: 499, Priority: Medium},
		{Class: Environmental, StartSlot: 500, EndSlot: 599, Priority: Medium},
		{Class: Municipal, StartSlot: 600, EndSlot: 699, Priority: Low},
		{Class: Financial, StartSlot: 700, EndSlot: 799, Priority: Low},
		{Class: Commercial, StartSlot: 800, EndSlot: 999, Priority: BestEffort},
	}
}
