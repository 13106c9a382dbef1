package sched

import "errors"

// Admission errors are reported synchronously to the producer at enqueue
// time. They never crash the scheduler and never partially mutate queue
// state.
var (
	// ErrPacketTooLarge rejects payloads above MaxPacketSize. Producers are
	// responsible for chunking.
	ErrPacketTooLarge = errors.New("payload exceeds max packet size")

	// ErrQueueFull rejects enqueues against a class queue at max depth.
	ErrQueueFull = errors.New("class queue at max depth")

	// ErrUnknownClass rejects enqueues for a class with no configured queue.
	ErrUnknownClass = errors.New("no queue configured for traffic class")
)

// ErrNoViablePath is returned by path selection when no candidate survives
// the capacity filter. Callers should defer and retry the packet rather than
// treat this as fatal.
var ErrNoViablePath = errors.New("no candidate path can carry the packet")
