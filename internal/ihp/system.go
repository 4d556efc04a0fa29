package ihp

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/ihp-controller/internal/coil"
	"github.com/thatsimonsguy/ihp-controller/internal/env"
	"github.com/thatsimonsguy/ihp-controller/internal/model"
	"github.com/thatsimonsguy/ihp-controller/internal/node"
	"github.com/thatsimonsguy/ihp-controller/internal/tank"
)

// Deps are the collaborators a System drives.
type Deps struct {
	Coils coil.Model
	Tanks tank.Model
	Env   *env.Environment
	Nodes *node.Network

	// SmallLoad is the load deadband in W. Zero means model.SmallLoad.
	SmallLoad float64
}

// System owns every integrated heat pump of a simulation run.
type System struct {
	mu        sync.RWMutex
	coils     coil.Model
	tanks     tank.Model
	env       *env.Environment
	nodes     *node.Network
	smallLoad float64

	units  []*Unit
	byName map[string]int
	loaded bool
}

func NewSystem(d Deps) *System {
	s := &System{
		coils:     d.Coils,
		tanks:     d.Tanks,
		env:       d.Env,
		nodes:     d.Nodes,
		smallLoad: d.SmallLoad,
		byName:    make(map[string]int),
	}
	if s.env == nil {
		s.env = env.New(0)
	}
	if s.nodes == nil {
		s.nodes = node.NewNetwork()
	}
	if s.smallLoad <= 0 {
		s.smallLoad = model.SmallLoad
	}
	return s
}

func (s *System) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *System) NumUnits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.units)
}

// UnitNames lists the units in load order; unit i has index i+1.
func (s *System) UnitNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.units))
	for i, u := range s.units {
		names[i] = u.Name
	}
	return names
}

// Reset drops every unit and returns the system to the unloaded state.
func (s *System) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units = nil
	s.byName = make(map[string]int)
	s.loaded = false
	log.Info().Msg("Integrated heat pump state reset")
}

// unit returns the unit at a 1-based index.
func (s *System) unit(index int) (*Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	if index < 1 || index > len(s.units) {
		return nil, &InvalidIndexError{Index: index, Count: len(s.units)}
	}
	return s.units[index-1], nil
}

// find returns the 1-based index of a unit name, or 0.
func (s *System) find(name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return 0, ErrNotLoaded
	}
	return s.byName[name], nil
}
