package tank

import (
	"fmt"
	"sync"
)

// TypeHeatPumpPumped is the water heater type an integrated heat pump serves.
const TypeHeatPumpPumped = "WATERHEATER:HEATPUMP:PUMPEDCONDENSER"

// Ref names the water heater a unit serves. Index is cached by the tank model
// on first use.
type Ref struct {
	Type  string
	Name  string
	Index int
}

func (r Ref) Configured() bool { return r.Name != "" }

// Request carries the tank simulation arguments.
type Request struct {
	FlowRequest    bool
	LoadRequest    bool
	Load           float64 // W
	MaxCap         float64 // W
	MinCap         float64 // W
	OptCap         float64 // W
	FirstIteration bool
}

// Model is the water tank collaborator.
type Model interface {
	Simulate(ref *Ref, req Request) (callForHeat bool, err error)
}

// Schedule is a tank model whose call for heat is set by the driver each step.
type Schedule struct {
	mu      sync.Mutex
	names   []string
	calling map[string]bool
	probes  map[string]int
}

func NewSchedule() *Schedule {
	return &Schedule{calling: make(map[string]bool), probes: make(map[string]int)}
}

// Add registers a tank. Adding an existing tank is a no-op.
func (s *Schedule) Add(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.calling[name]; ok {
		return
	}
	s.names = append(s.names, name)
	s.calling[name] = false
}

func (s *Schedule) Set(name string, calling bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.calling[name]; !ok {
		return fmt.Errorf("water heater %q not found", name)
	}
	s.calling[name] = calling
	return nil
}

func (s *Schedule) Simulate(ref *Ref, req Request) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref.Index == 0 {
		for i, n := range s.names {
			if n == ref.Name {
				ref.Index = i + 1
				break
			}
		}
		if ref.Index == 0 {
			return false, fmt.Errorf("water heater %q not found", ref.Name)
		}
	} else if ref.Index > len(s.names) || s.names[ref.Index-1] != ref.Name {
		return false, fmt.Errorf("water heater index %d does not match %q", ref.Index, ref.Name)
	}

	s.probes[ref.Name]++
	return s.calling[ref.Name], nil
}

// Probes returns how many times a tank has been simulated.
func (s *Schedule) Probes(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.probes[name]
}
