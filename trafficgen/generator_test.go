package trafficgen

import (
	"testing"
	"time"

	"github.com/citymesh/meshsched/sched"
)

func testSpecs() []ProducerSpec {
	return []ProducerSpec{
		{Class: sched.Environmental, RatePerSec: 50, MinBytes: 32, MaxBytes: 256},
		{Class: sched.Commercial, RatePerSec: 10, MinBytes: 512, MaxBytes: 1024},
	}
}

func TestGenerateArrivals_DeterministicForSeed(t *testing.T) {
	// GIVEN the same specs, horizon and seed
	a, err := GenerateArrivals(testSpecs(), 10*time.Second, 42)
	if err != nil {
		t.Fatalf("GenerateArrivals: %v", err)
	}
	b, err := GenerateArrivals(testSpecs(), 10*time.Second, 42)
	if err != nil {
		t.Fatalf("GenerateArrivals: %v", err)
	}

	// THEN the generated sequences are identical
	if len(a) != len(b) {
		t.Fatalf("lengths diverged: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("arrival %d diverged: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestGenerateArrivals_SortedWithinHorizonAndBounds(t *testing.T) {
	// GIVEN a 10-second horizon
	horizon := 10 * time.Second
	arrivals, err := GenerateArrivals(testSpecs(), horizon, 7)
	if err != nil {
		t.Fatalf("GenerateArrivals: %v", err)
	}
	if len(arrivals) == 0 {
		t.Fatal("no arrivals generated for positive rates")
	}

	bounds := map[sched.TrafficClass][2]int{
		sched.Environmental: {32, 256},
		sched.Commercial:    {512, 1024},
	}
	var prev time.Duration
	for i, a := range arrivals {
		if a.At < prev {
			t.Fatalf("arrival %d out of order: %s after %s", i, a.At, prev)
		}
		prev = a.At
		if a.At >= horizon {
			t.Fatalf("arrival %d past horizon: %s", i, a.At)
		}
		b, ok := bounds[a.Class]
		if !ok {
			t.Fatalf("arrival %d has unexpected class %s", i, a.Class)
		}
		if a.Size < b[0] || a.Size > b[1] {
			t.Fatalf("arrival %d size %d outside [%d, %d]", i, a.Size, b[0], b[1])
		}
	}
}

func TestGenerateArrivals_ProducerStreamsAreIsolated(t *testing.T) {
	// GIVEN a run with and without the Commercial producer
	both, err := GenerateArrivals(testSpecs(), 5*time.Second, 42)
	if err != nil {
		t.Fatalf("GenerateArrivals: %v", err)
	}
	only, err := GenerateArrivals(testSpecs()[:1], 5*time.Second, 42)
	if err != nil {
		t.Fatalf("GenerateArrivals: %v", err)
	}

	// THEN the Environmental sequence is unchanged by Commercial's presence
	var env []Arrival
	for _, a := range both {
		if a.Class == sched.Environmental {
			env = append(env, a)
		}
	}
	if len(env) != len(only) {
		t.Fatalf("Environmental arrival counts diverged: %d vs %d", len(env), len(only))
	}
	for i := range env {
		if env[i] != only[i] {
			t.Fatalf("Environmental arrival %d diverged: %+v vs %+v", i, env[i], only[i])
		}
	}
}

func TestGenerateArrivals_ZeroRateProducerSkipped(t *testing.T) {
	specs := []ProducerSpec{
		{Class: sched.Municipal, RatePerSec: 0, MinBytes: 10, MaxBytes: 20},
	}
	arrivals, err := GenerateArrivals(specs, 10*time.Second, 1)
	if err != nil {
		t.Fatalf("GenerateArrivals: %v", err)
	}
	if len(arrivals) != 0 {
		t.Errorf("zero-rate producer generated %d arrivals, want 0", len(arrivals))
	}
}

func TestGenerateArrivals_InvalidSizeBounds(t *testing.T) {
	specs := []ProducerSpec{
		{Class: sched.Municipal, RatePerSec: 1, MinBytes: 100, MaxBytes: 50},
	}
	if _, err := GenerateArrivals(specs, time.Second, 1); err == nil {
		t.Error("inverted size bounds accepted")
	}
}
