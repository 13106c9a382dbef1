// Implements the per-class packet queues: bounded FIFOs tracking depth,
// total bytes and the age of the oldest entry.

package sched

import (
	"sync"
	"time"
)

// MaxPacketSize is the hard per-packet payload ceiling (64 KiB). Larger
// payloads must be chunked by the producer before enqueue.
const MaxPacketSize = 64 * 1024

// QueuedPacket is one admitted payload waiting for its transmit slot.
// Created on admission, destroyed on dequeue. DeliveryAttempts exists for a
// future retransmission policy and plays no role in liveness here.
type QueuedPacket struct {
	Payload          []byte
	Class            TrafficClass
	EnqueueTime      time.Time
	DeliveryAttempts int
}

// ClassQueue is a bounded FIFO for a single traffic class. Enqueue is safe
// under concurrent producers; Pop is called only by the single scheduler
// owner, but takes the same lock so depth accounting stays exact.
type ClassQueue struct {
	mu         sync.Mutex
	class      TrafficClass
	maxDepth   int
	packets    []*QueuedPacket
	totalBytes int64
}

// NewClassQueue creates an empty queue bounded at maxDepth packets.
func NewClassQueue(class TrafficClass, maxDepth int) *ClassQueue {
	return &ClassQueue{class: class, maxDepth: maxDepth}
}

// Enqueue appends a packet to the back of the FIFO. Fails with ErrQueueFull
// at max depth; on failure no queue state changes.
func (q *ClassQueue) Enqueue(payload []byte, now time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.packets) >= q.maxDepth {
		return ErrQueueFull
	}
	q.packets = append(q.packets, &QueuedPacket{
		Payload:     payload,
		Class:       q.class,
		EnqueueTime: now,
	})
	q.totalBytes += int64(len(payload))
	return nil
}

// Pop removes and returns the front packet, or nil when empty.
func (q *ClassQueue) Pop() *QueuedPacket {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.packets) == 0 {
		return nil
	}
	pkt := q.packets[0]
	q.packets = q.packets[1:]
	q.totalBytes -= int64(len(pkt.Payload))
	return pkt
}

// Len returns the number of queued packets.
func (q *ClassQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.packets)
}

// TotalBytes returns the sum of queued payload sizes.
func (q *ClassQueue) TotalBytes() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.totalBytes
}

// AgeOfOldest returns now minus the front packet's enqueue time.
// The second return is false when the queue is empty.
func (q *ClassQueue) AgeOfOldest(now time.Time) (time.Duration, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.packets) == 0 {
		return 0, false
	}
	return now.Sub(q.packets[0].EnqueueTime), true
}

// Class returns the traffic class this queue serves.
func (q *ClassQueue) Class() TrafficClass { return q.class }

// MaxDepth returns the configured depth bound.
func (q *ClassQueue) MaxDepth() int { return q.maxDepth }

// QueueSet holds one ClassQueue per configured traffic class and applies
// the admission checks shared by all of them.
type QueueSet struct {
	maxPacketSize int
	queues        [numTrafficClasses]*ClassQueue
}

// NewQueueSet creates queues for every class present in depths. Classes
// absent from depths have no queue and reject enqueues with ErrUnknownClass.
func NewQueueSet(maxPacketSize int, depths map[TrafficClass]int) *QueueSet {
	qs := &QueueSet{maxPacketSize: maxPacketSize}
	for class, depth := range depths {
		if int(class) >= 0 && int(class) < numTrafficClasses {
			qs.queues[class] = NewClassQueue(class, depth)
		}
	}
	return qs
}

// Enqueue admits a payload into its class queue. Checks run in order:
// size ceiling, class existence, depth bound. Safe for concurrent producers.
func (qs *QueueSet) Enqueue(payload []byte, class TrafficClass, now time.Time) error {
	if len(payload) > qs.maxPacketSize {
		return ErrPacketTooLarge
	}
	q := qs.Queue(class)
	if q == nil {
		return ErrUnknownClass
	}
	return q.Enqueue(payload, now)
}

// Queue returns the queue for a class, or nil when none is configured.
func (qs *QueueSet) Queue(class TrafficClass) *ClassQueue {
	if int(class) < 0 || int(class) >= numTrafficClasses {
		return nil
	}
	return qs.queues[class]
}

// MaxPacketSize returns the admission payload ceiling in bytes.
func (qs *QueueSet) MaxPacketSize() int { return qs.maxPacketSize }
