package sched

import (
	"time"

	"github.com/sirupsen/logrus"
)

// DequeuePolicy selects the next packet to transmit for a slot tick. It
// combines the static slot schedule with an anti-starvation override: a
// class whose oldest packet has waited past the starvation timeout is
// serviced immediately, irrespective of whose slot window is current. That
// override is the liveness guarantee: no class can be denied transmission
// indefinitely, even if its window never arrives due to misconfiguration.
type DequeuePolicy struct {
	queues            *QueueSet
	schedule          *Schedule
	starvationTimeout time.Duration
	scanLimit         int
}

// NewDequeuePolicy wires the policy to its queues and schedule. scanLimit
// caps how many class queues the starvation scan inspects per call, bounding
// per-tick work.
func NewDequeuePolicy(queues *QueueSet, schedule *Schedule, starvationTimeout time.Duration, scanLimit int) *DequeuePolicy {
	return &DequeuePolicy{
		queues:            queues,
		schedule:          schedule,
		starvationTimeout: starvationTimeout,
		scanLimit:         scanLimit,
	}
}

// NextPacket returns the packet to transmit in the current slot, or nil when
// the channel should sit idle this tick. starved reports whether the packet
// was released by the anti-starvation override rather than its TDMA window.
//
// The starvation scan walks ClassesByPriority, Critical first, so the
// highest-priority starving class wins deterministically when several are
// starved at once. No work-stealing happens in step two: an empty owning
// queue leaves the slot idle so per-slot capacity stays predictable.
func (p *DequeuePolicy) NextPacket(now time.Time, currentSlot int) (pkt *QueuedPacket, starved bool) {
	scanned := 0
	for _, class := range ClassesByPriority {
		if scanned >= p.scanLimit {
			break
		}
		q := p.queues.Queue(class)
		if q == nil {
			continue
		}
		scanned++
		age, ok := q.AgeOfOldest(now)
		if !ok || age <= p.starvationTimeout {
			continue
		}
		if pkt := q.Pop(); pkt != nil {
			logrus.Debugf("starvation override: releasing %s packet aged %s in slot %d", class, age, currentSlot)
			return pkt, true
		}
	}

	owner, ok := p.schedule.ClassFor(currentSlot)
	if !ok {
		return nil, false
	}
	q := p.queues.Queue(owner)
	if q == nil {
		return nil, false
	}
	return q.Pop(), false
}

// StarvationTimeout returns the configured anti-starvation threshold.
func (p *DequeuePolicy) StarvationTimeout() time.Duration { return p.starvationTimeout }
