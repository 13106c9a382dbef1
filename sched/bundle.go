package sched

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigBundle holds operator overrides for the static configuration,
// loadable from a YAML file. Nil pointer fields mean "not set in YAML" and
// do not override the defaults. String and map fields use empty for
// "not set".
type ConfigBundle struct {
	SlotDurationMs      *int              `yaml:"slot_duration_ms"`
	SlotsPerFrame       *int              `yaml:"slots_per_frame"`
	MaxPacketSize       *int              `yaml:"max_packet_size"`
	StarvationTimeoutS  *int              `yaml:"starvation_timeout_s"`
	StarvationScan      *int              `yaml:"starvation_scan"`
	TotalBandwidthKbps  *float64          `yaml:"total_bandwidth_kbps"`
	BulkThresholdBytes  *int              `yaml:"bulk_threshold_bytes"`
	Balancer            string            `yaml:"balancer"`
	Seed                *int64            `yaml:"seed"`
	QueueDepths         map[string]int    `yaml:"queue_depths"`
	CongestionOverrides *CongestionBundle `yaml:"congestion"`
}

// CongestionBundle overrides individual congestion thresholds.
type CongestionBundle struct {
	QueueDepthPercent         *float64 `yaml:"queue_depth_percent"`
	LatencyBaselineMs         *float64 `yaml:"latency_baseline_ms"`
	LatencyMultiplier         *float64 `yaml:"latency_multiplier"`
	RetransmitRatePercent     *float64 `yaml:"retransmit_rate_percent"`
	ChannelUtilizationPercent *float64 `yaml:"channel_utilization_percent"`
}

// LoadConfigBundle reads and parses a YAML configuration file.
func LoadConfigBundle(path string) (*ConfigBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config bundle: %w", err)
	}
	var bundle ConfigBundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("parsing config bundle: %w", err)
	}
	return &bundle, nil
}

// Validate checks names and parameter ranges before the bundle is applied.
func (b *ConfigBundle) Validate() error {
	if !ValidBalancerStrategies[b.Balancer] {
		return fmt.Errorf("unknown load balancer strategy %q", b.Balancer)
	}
	if b.SlotsPerFrame != nil && *b.SlotsPerFrame <= 0 {
		return fmt.Errorf("slots_per_frame must be positive, got %d", *b.SlotsPerFrame)
	}
	if b.SlotDurationMs != nil && *b.SlotDurationMs <= 0 {
		return fmt.Errorf("slot_duration_ms must be positive, got %d", *b.SlotDurationMs)
	}
	if b.MaxPacketSize != nil && *b.MaxPacketSize <= 0 {
		return fmt.Errorf("max_packet_size must be positive, got %d", *b.MaxPacketSize)
	}
	if b.StarvationTimeoutS != nil && *b.StarvationTimeoutS <= 0 {
		return fmt.Errorf("starvation_timeout_s must be positive, got %d", *b.StarvationTimeoutS)
	}
	if b.TotalBandwidthKbps != nil && *b.TotalBandwidthKbps <= 0 {
		return fmt.Errorf("total_bandwidth_kbps must be positive, got %.1f", *b.TotalBandwidthKbps)
	}
	for name, depth := range b.QueueDepths {
		if _, err := ParseTrafficClass(name); err != nil {
			return fmt.Errorf("queue_depths: %w", err)
		}
		if depth <= 0 {
			return fmt.Errorf("queue_depths: depth for %s must be positive, got %d", name, depth)
		}
	}
	return nil
}

// Apply overlays the bundle's set fields onto cfg and returns the result.
// Call Validate first; Apply assumes a valid bundle.
func (b *ConfigBundle) Apply(cfg Config) Config {
	if b.SlotDurationMs != nil {
		cfg.Slots.SlotDuration = time.Duration(*b.SlotDurationMs) * time.Millisecond
	}
	if b.SlotsPerFrame != nil {
		cfg.Slots.SlotsPerFrame = *b.SlotsPerFrame
	}
	if b.MaxPacketSize != nil {
		cfg.Queues.MaxPacketSize = *b.MaxPacketSize
	}
	if b.StarvationTimeoutS != nil {
		cfg.Policy.StarvationTimeout = time.Duration(*b.StarvationTimeoutS) * time.Second
	}
	if b.StarvationScan != nil {
		cfg.Policy.StarvationScan = *b.StarvationScan
	}
	if b.TotalBandwidthKbps != nil {
		cfg.Bandwidth.TotalKbps = *b.TotalBandwidthKbps
	}
	if b.BulkThresholdBytes != nil {
		cfg.Router.BulkThresholdBytes = *b.BulkThresholdBytes
	}
	if b.Balancer != "" {
		cfg.Router.Balancer = b.Balancer
	}
	if b.Seed != nil {
		cfg.Seed = *b.Seed
	}
	for name, depth := range b.QueueDepths {
		class, _ := ParseTrafficClass(name)
		cfg.Queues.Depths[class] = depth
	}
	if c := b.CongestionOverrides; c != nil {
		if c.QueueDepthPercent != nil {
			cfg.Congestion.QueueDepthPercent = *c.QueueDepthPercent
		}
		if c.LatencyBaselineMs != nil {
			cfg.Congestion.LatencyBaselineMs = *c.LatencyBaselineMs
		}
		if c.LatencyMultiplier != nil {
			cfg.Congestion.LatencyMultiplier = *c.LatencyMultiplier
		}
		if c.RetransmitRatePercent != nil {
			cfg.Congestion.RetransmitRatePercent = *c.RetransmitRatePercent
		}
		if c.ChannelUtilizationPercent != nil {
			cfg.Congestion.ChannelUtilizationPercent = *c.ChannelUtilizationPercent
		}
	}
	return cfg
}
