package sched

import "fmt"

// TrafficClass identifies one of the fixed traffic categories competing for
// the shared channel. The set is closed: queues, slot assignments and
// bandwidth allocations are all keyed by it.
type TrafficClass int

const (
	Emergency TrafficClass = iota
	CoreIntelligence
	Educational
	Environmental
	Municipal
	Financial
	Commercial

	numTrafficClasses int = iota
)

func (c TrafficClass) String() string {
	switch c {
	case Emergency:
		return "emergency"
	case CoreIntelligence:
		return "core-intelligence"
	case Educational:
		return "educational"
	case Environmental:
		return "environmental"
	case Municipal:
		return "municipal"
	case Financial:
		return "financial"
	case Commercial:
		return "commercial"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// ParseTrafficClass maps a class name (as used in YAML bundles and the
// control API) back to its TrafficClass.
func ParseTrafficClass(name string) (TrafficClass, error) {
	for _, c := range ClassesByPriority {
		if c.String() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown traffic class %q", name)
}

// Priority is descriptive metadata attached to slot assignments and
// bandwidth allocations. Higher values win tie-breaks; there is no separate
// priority-keyed scheduling structure.
type Priority int

const (
	BestEffort Priority = iota
	Low
	Medium
	High
	Critical
)

func (p Priority) String() string {
	switch p {
	case Critical:
		return "critical"
	case High:
		return "high"
	case Medium:
		return "medium"
	case Low:
		return "low"
	case BestEffort:
		return "best-effort"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// ClassesByPriority lists every traffic class in descending priority order,
// Critical first. The anti-starvation scan walks this slice so that when
// several classes are starved at once the highest-priority one is serviced
// first, deterministically.
var ClassesByPriority = [numTrafficClasses]TrafficClass{
	Emergency,
	CoreIntelligence,
	Educational,
	Environmental,
	Municipal,
	Financial,
	Commercial,
}
