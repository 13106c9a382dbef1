package sched

import "testing"

func newAllocator(t *testing.T, totalKbps float64) *BandwidthAllocator {
	t.Helper()
	a, err := NewBandwidthAllocator(totalKbps, DefaultAllocations())
	if err != nil {
		t.Fatalf("NewBandwidthAllocator: %v", err)
	}
	return a
}

func TestBandwidth_OvernightModeLiftsEducationalCeiling(t *testing.T) {
	// GIVEN the default table on a 500 kbps channel
	a := newAllocator(t, 500)

	// WHEN overnight mode is enabled
	a.SetOvernightMode(true)

	// THEN Educational may consume the whole channel
	edu, _ := a.Allocation(Educational)
	if edu.MaximumKbps != 500 {
		t.Errorf("Educational ceiling in overnight mode: got %.0f, want 500", edu.MaximumKbps)
	}

	// AND no other class's allocation moved
	for _, class := range ClassesByPriority {
		if class == Educational {
			continue
		}
		got, _ := a.Allocation(class)
		a.SetOvernightMode(false)
		base, _ := a.Allocation(class)
		a.SetOvernightMode(true)
		if got.MaximumKbps != base.MaximumKbps || got.GuaranteedKbps != base.GuaranteedKbps {
			t.Errorf("class %s moved in overnight mode: got %+v, want %+v", class, got, base)
		}
	}

	// WHEN overnight mode is disabled again
	a.SetOvernightMode(false)

	// THEN the configured baseline ceiling is restored
	edu, _ = a.Allocation(Educational)
	if edu.MaximumKbps != 300 {
		t.Errorf("Educational ceiling restored: got %.0f, want 300", edu.MaximumKbps)
	}
}

func TestBandwidth_EmergencyOverrideCollapsesCeilings(t *testing.T) {
	// GIVEN the default table on a 500 kbps channel
	a := newAllocator(t, 500)

	// WHEN the emergency override activates
	a.ActivateEmergency()

	// THEN Emergency gets the whole channel and every other class is pinned
	// to its own floor, never below it
	em, _ := a.Allocation(Emergency)
	if em.MaximumKbps != 500 {
		t.Errorf("Emergency ceiling: got %.0f, want 500", em.MaximumKbps)
	}
	for _, class := range ClassesByPriority {
		if class == Emergency {
			continue
		}
		alloc, _ := a.Allocation(class)
		if alloc.MaximumKbps != alloc.GuaranteedKbps {
			t.Errorf("class %s ceiling under emergency: got %.0f, want floor %.0f",
				class, alloc.MaximumKbps, alloc.GuaranteedKbps)
		}
	}
}

func TestBandwidth_DeactivateEmergencyRestoresBaselines(t *testing.T) {
	// GIVEN an allocator that has been through an emergency
	a := newAllocator(t, 500)
	a.ActivateEmergency()

	// WHEN the override is lifted
	a.DeactivateEmergency()

	// THEN every ceiling matches the configured baseline exactly
	for _, want := range DefaultAllocations() {
		got, ok := a.Allocation(want.Class)
		if !ok {
			t.Fatalf("class %s missing after deactivation", want.Class)
		}
		if got.MaximumKbps != want.MaximumKbps || got.GuaranteedKbps != want.GuaranteedKbps {
			t.Errorf("class %s after deactivation: got %.0f/%.0f, want %.0f/%.0f",
				want.Class, got.GuaranteedKbps, got.MaximumKbps, want.GuaranteedKbps, want.MaximumKbps)
		}
	}
}

func TestBandwidth_EmergencyWinsOverOvernight(t *testing.T) {
	// GIVEN overnight mode active
	a := newAllocator(t, 500)
	a.SetOvernightMode(true)

	// WHEN the emergency override also activates
	a.ActivateEmergency()

	// THEN Educational collapses to its floor like everyone else
	edu, _ := a.Allocation(Educational)
	if edu.MaximumKbps != edu.GuaranteedKbps {
		t.Errorf("Educational under emergency+overnight: got %.0f, want floor %.0f",
			edu.MaximumKbps, edu.GuaranteedKbps)
	}

	// AND lifting the emergency re-applies the overnight projection
	a.DeactivateEmergency()
	edu, _ = a.Allocation(Educational)
	if edu.MaximumKbps != 500 {
		t.Errorf("Educational after emergency lifted, overnight still on: got %.0f, want 500", edu.MaximumKbps)
	}
}

func TestBandwidth_FinancialStaysTiny(t *testing.T) {
	// GIVEN default configuration over a range of channel totals
	for _, total := range []float64{500, 800, 1000, 2000} {
		a := newAllocator(t, total)

		// THEN the settlement channel keeps its standing bound
		fin, ok := a.Allocation(Financial)
		if !ok {
			t.Fatalf("no Financial allocation at total %.0f", total)
		}
		if fin.GuaranteedKbps > 20 {
			t.Errorf("total %.0f: Financial floor %.0f, want <= 20", total, fin.GuaranteedKbps)
		}
		if fin.MaximumKbps > 50 {
			t.Errorf("total %.0f: Financial ceiling %.0f, want <= 50", total, fin.MaximumKbps)
		}
		if fin.Priority != Low {
			t.Errorf("total %.0f: Financial priority %s, want low", total, fin.Priority)
		}
	}
}

func TestBandwidth_ConstructionValidation(t *testing.T) {
	cases := []struct {
		name        string
		total       float64
		allocations []BandwidthAllocation
	}{
		{
			name:        "zero total",
			total:       0,
			allocations: DefaultAllocations(),
		},
		{
			name:  "floor above ceiling",
			total: 500,
			allocations: []BandwidthAllocation{
				{Class: Emergency, GuaranteedKbps: 100, MaximumKbps: 50, Priority: Critical},
			},
		},
		{
			name:  "ceiling above total",
			total: 100,
			allocations: []BandwidthAllocation{
				{Class: Emergency, GuaranteedKbps: 50, MaximumKbps: 200, Priority: Critical},
			},
		},
		{
			name:  "duplicate class",
			total: 500,
			allocations: []BandwidthAllocation{
				{Class: Emergency, GuaranteedKbps: 10, MaximumKbps: 50, Priority: Critical},
				{Class: Emergency, GuaranteedKbps: 20, MaximumKbps: 60, Priority: Critical},
			},
		},
		{
			name:  "floors exceed total",
			total: 100,
			allocations: []BandwidthAllocation{
				{Class: Emergency, GuaranteedKbps: 60, MaximumKbps: 80, Priority: Critical},
				{Class: Commercial, GuaranteedKbps: 60, MaximumKbps: 80, Priority: BestEffort},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewBandwidthAllocator(tc.total, tc.allocations); err == nil {
				t.Errorf("NewBandwidthAllocator(%s): expected error, got nil", tc.name)
			}
		})
	}
}
