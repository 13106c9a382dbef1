package sched

import "testing"

func TestCongestion_FreshDetectorIsHealthy(t *testing.T) {
	// GIVEN a detector with no snapshot applied
	d := NewCongestionDetector(DefaultCongestionThresholds())

	// THEN it reports healthy and Normal
	if d.IsCongested() {
		t.Error("IsCongested: got true, want false")
	}
	if got := d.GetResponse(); got != ResponseNormal {
		t.Errorf("GetResponse: got %s, want normal", got)
	}
}

func TestCongestion_SingleMetricBreachTriggers(t *testing.T) {
	cases := []struct {
		name    string
		metrics CongestionMetrics
	}{
		{"queue depth", CongestionMetrics{QueueDepthPercent: 81}},
		{"latency", CongestionMetrics{AverageLatencyMs: 2001}},
		{"retransmits", CongestionMetrics{RetransmitRatePercent: 5.1}},
		{"utilization", CongestionMetrics{ChannelUtilizationPercent: 91}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewCongestionDetector(DefaultCongestionThresholds())
			d.Update(tc.metrics)
			if !d.IsCongested() {
				t.Errorf("IsCongested(%s breach): got false, want true", tc.name)
			}
		})
	}
}

func TestCongestion_NearThresholdsStayNormal(t *testing.T) {
	// GIVEN every metric at 99% of its threshold (high severity, no breach)
	d := NewCongestionDetector(DefaultCongestionThresholds())
	d.Update(CongestionMetrics{
		QueueDepthPercent:         79.2,
		AverageLatencyMs:          1980,
		RetransmitRatePercent:     4.95,
		ChannelUtilizationPercent: 89.1,
	})

	// THEN severity is high but the response stays Normal
	if d.IsCongested() {
		t.Error("IsCongested: got true, want false")
	}
	if sev := d.Severity(); sev < 90 {
		t.Errorf("Severity: got %.1f, want >= 90", sev)
	}
	if got := d.GetResponse(); got != ResponseNormal {
		t.Errorf("GetResponse: got %s, want normal when nothing breaches", got)
	}
}

func TestCongestion_ResponseBands(t *testing.T) {
	cases := []struct {
		name    string
		metrics CongestionMetrics
		want    Response
	}{
		{
			// retransmits saturated: severity 25
			name:    "reduce packet size",
			metrics: CongestionMetrics{RetransmitRatePercent: 10},
			want:    ResponseReducePacketSize,
		},
		{
			// retransmits saturated (25) + depth at 64 of 80 (20): severity 45
			name:    "increase inter-packet gap",
			metrics: CongestionMetrics{RetransmitRatePercent: 10, QueueDepthPercent: 64},
			want:    ResponseIncreaseInterPacketGap,
		},
		{
			// retransmits (25) + depth saturated (25) + latency 1000/2000 (12.5): severity 62.5
			name:    "activate backup paths",
			metrics: CongestionMetrics{RetransmitRatePercent: 10, QueueDepthPercent: 85, AverageLatencyMs: 1000},
			want:    ResponseActivateBackupPaths,
		},
		{
			name: "emergency prioritization",
			metrics: CongestionMetrics{
				QueueDepthPercent:         95,
				AverageLatencyMs:          5000,
				RetransmitRatePercent:     20,
				ChannelUtilizationPercent: 99,
			},
			want: ResponseEmergencyPrioritization,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewCongestionDetector(DefaultCongestionThresholds())
			d.Update(tc.metrics)
			if got := d.GetResponse(); got != tc.want {
				t.Errorf("GetResponse: got %s, want %s (severity %.1f)", got, tc.want, d.Severity())
			}
		})
	}
}

func TestCongestion_SeverityClampedAt100(t *testing.T) {
	// GIVEN metrics far beyond every threshold
	d := NewCongestionDetector(DefaultCongestionThresholds())
	d.Update(CongestionMetrics{
		QueueDepthPercent:         400,
		AverageLatencyMs:          50000,
		RetransmitRatePercent:     80,
		ChannelUtilizationPercent: 300,
	})

	// THEN severity caps at 100
	if sev := d.Severity(); sev != 100 {
		t.Errorf("Severity: got %.1f, want 100", sev)
	}
}

func TestCongestion_ResponseIdempotentForSnapshot(t *testing.T) {
	// GIVEN one applied snapshot
	d := NewCongestionDetector(DefaultCongestionThresholds())
	d.Update(CongestionMetrics{RetransmitRatePercent: 10, QueueDepthPercent: 64})

	// WHEN querying the response twice with no state change
	first := d.GetResponse()
	second := d.GetResponse()

	// THEN both calls agree
	if first != second {
		t.Errorf("GetResponse not idempotent: %s then %s", first, second)
	}
}
