package env

import (
	"sync"
	"time"
)

// DefaultTimeStep is the HVAC system timestep used when none is configured.
const DefaultTimeStep = 15 * time.Minute

// Environment is the outdoor state shared by every unit in a run. The
// simulation driver updates it once per timestep.
type Environment struct {
	mu             sync.RWMutex
	outDryBulbTemp float64
	timeStep       time.Duration
}

func New(timeStep time.Duration) *Environment {
	if timeStep <= 0 {
		timeStep = DefaultTimeStep
	}
	return &Environment{timeStep: timeStep}
}

func (e *Environment) OutDryBulbTemp() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.outDryBulbTemp
}

func (e *Environment) SetOutDryBulbTemp(t float64) {
	e.mu.Lock()
	e.outDryBulbTemp = t
	e.mu.Unlock()
}

func (e *Environment) TimeStep() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.timeStep
}

func (e *Environment) SetTimeStep(d time.Duration) {
	e.mu.Lock()
	e.timeStep = d
	e.mu.Unlock()
}

// TimeStepSeconds is the system timestep in seconds.
func (e *Environment) TimeStepSeconds() float64 {
	return e.TimeStep().Seconds()
}
