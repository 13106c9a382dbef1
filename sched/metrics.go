// Prometheus instrumentation for the traffic manager: admission outcomes,
// transmissions, starvation overrides and channel health.

package sched

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsOption configures metrics construction.
type MetricsOption func(*metricsOptions)

type metricsOptions struct {
	registry prometheus.Registerer
}

// WithRegistry specifies the registerer used to create the metrics.
// Defaults to prometheus.DefaultRegisterer.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(o *metricsOptions) {
		o.registry = registry
	}
}

// Metrics holds the traffic manager's Prometheus collectors.
type Metrics struct {
	PacketsEnqueued     *prometheus.CounterVec
	PacketsRejected     *prometheus.CounterVec
	PacketsTransmitted  *prometheus.CounterVec
	StarvationOverrides *prometheus.CounterVec
	IdleTicks           prometheus.Counter
	QueueDepth          *prometheus.GaugeVec
	QueueBytes          *prometheus.GaugeVec
	CongestionSeverity  prometheus.Gauge
}

// NewMetrics creates and registers the manager's collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	o := metricsOptions{registry: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&o)
	}
	auto := promauto.With(o.registry)

	return &Metrics{
		PacketsEnqueued: auto.NewCounterVec(prometheus.CounterOpts{
			Name: "meshsched_packets_enqueued_total",
			Help: "Packets admitted into a class queue.",
		}, []string{"class"}),
		PacketsRejected: auto.NewCounterVec(prometheus.CounterOpts{
			Name: "meshsched_packets_rejected_total",
			Help: "Enqueue attempts rejected at admission.",
		}, []string{"class", "reason"}),
		PacketsTransmitted: auto.NewCounterVec(prometheus.CounterOpts{
			Name: "meshsched_packets_transmitted_total",
			Help: "Packets handed to the transmit driver.",
		}, []string{"class"}),
		StarvationOverrides: auto.NewCounterVec(prometheus.CounterOpts{
			Name: "meshsched_starvation_overrides_total",
			Help: "Packets released by the anti-starvation override.",
		}, []string{"class"}),
		IdleTicks: auto.NewCounter(prometheus.CounterOpts{
			Name: "meshsched_idle_ticks_total",
			Help: "Slot ticks where the channel sat idle.",
		}),
		QueueDepth: auto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "meshsched_queue_depth",
			Help: "Packets currently queued per class.",
		}, []string{"class"}),
		QueueBytes: auto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "meshsched_queue_bytes",
			Help: "Payload bytes currently queued per class.",
		}, []string{"class"}),
		CongestionSeverity: auto.NewGauge(prometheus.GaugeOpts{
			Name: "meshsched_congestion_severity",
			Help: "Last computed congestion severity score (0-100).",
		}),
	}
}

func rejectionReason(err error) string {
	switch err {
	case ErrPacketTooLarge:
		return "packet-too-large"
	case ErrQueueFull:
		return "queue-full"
	case ErrUnknownClass:
		return "unknown-class"
	default:
		return "other"
	}
}
