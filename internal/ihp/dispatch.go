package ihp

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/ihp-controller/internal/coil"
	"github.com/thatsimonsguy/ihp-controller/internal/datadog"
	"github.com/thatsimonsguy/ihp-controller/internal/model"
)

// SimulateRequest carries one caller's operating conditions for a unit.
type SimulateRequest struct {
	CyclingScheme      int
	MaxCyclesPerHour   float64
	TimeConstant       float64 // s
	FanDelay           float64 // s
	CompressorOn       bool
	PartLoadFrac       float64
	SpeedNum           int
	SpeedRatio         float64
	SensLoad           float64 // W
	LatentLoad         float64 // W
	Caller             model.Caller
	FirstHVACIteration bool
	// OnOffAirFlowRatio defaults to 1 when nil.
	OnOffAirFlowRatio *float64
}

func (r SimulateRequest) params() coil.SimParams {
	ratio := 1.0
	if r.OnOffAirFlowRatio != nil {
		ratio = *r.OnOffAirFlowRatio
	}
	return coil.SimParams{
		CyclingScheme:     r.CyclingScheme,
		MaxCyclesPerHour:  r.MaxCyclesPerHour,
		TimeConstant:      r.TimeConstant,
		FanDelay:          r.FanDelay,
		CompressorOn:      r.CompressorOn,
		PartLoadFrac:      r.PartLoadFrac,
		SpeedNum:          r.SpeedNum,
		SpeedRatio:        r.SpeedRatio,
		SensLoad:          r.SensLoad,
		LatentLoad:        r.LatentLoad,
		OnOffAirFlowRatio: ratio,
	}
}

// SimulateUnit routes a caller to the coils of the unit's current mode. The
// owning caller simulates them; the other caller only syncs their nodes.
// index is the cached unit index: 0 resolves it from name.
func (s *System) SimulateUnit(name string, index *int, req SimulateRequest) error {
	idx, err := s.resolveIndex(name, index)
	if err != nil {
		return err
	}
	u, err := s.unit(idx)
	if err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := s.ensureSized(u); err != nil {
		return err
	}
	if err := s.flushRetired(u); err != nil {
		return err
	}

	r := routeFor(u.CurMode)
	if r.idle {
		for _, role := range r.roles {
			h := u.Coils.Handle(role)
			if h == 0 {
				continue
			}
			s.coils.SetActive(h, false)
			if err := s.coils.PassiveUpdate(h); err != nil {
				return fmt.Errorf("unit %q: update %s coil: %w", u.Name, role, err)
			}
		}
		return nil
	}

	for _, role := range r.roles {
		if h := u.Coils.Handle(role); h != 0 {
			s.coils.SetActive(h, true)
		}
	}

	if req.Caller != r.owner {
		for _, role := range r.roles {
			h := u.Coils.Handle(role)
			if h == 0 {
				continue
			}
			if err := s.coils.PassiveUpdate(h); err != nil {
				return fmt.Errorf("unit %q: update %s coil: %w", u.Name, role, err)
			}
		}
		return nil
	}

	p := req.params()
	for _, role := range r.roles {
		h := u.Coils.Handle(role)
		if h == 0 {
			continue
		}
		if err := s.coils.Simulate(h, p); err != nil {
			return fmt.Errorf("unit %q: simulate %s coil: %w", u.Name, role, err)
		}
		u.live[role] = true
		if r.captureHeat && role == r.heatRole {
			u.TotalHeatingEnergyRate = s.coils.Live(h).TotalHeatingEnergyRate
		}
	}

	datadog.Gauge("ihp.total_heating_rate", u.TotalHeatingEnergyRate, "unit:"+u.Name, "mode:"+u.CurMode.String())
	log.Debug().
		Str("unit", u.Name).
		Str("mode", u.CurMode.String()).
		Str("caller", req.Caller.String()).
		Int("speed", req.SpeedNum).
		Float64("speed_ratio", req.SpeedRatio).
		Float64("heating_rate_w", u.TotalHeatingEnergyRate).
		Msg("Unit simulated")
	return nil
}

// flushRetired deactivates and syncs coils the last mode change left behind.
func (s *System) flushRetired(u *Unit) error {
	for len(u.retired) > 0 {
		role := u.retired[0]
		u.retired = u.retired[1:]
		h := u.Coils.Handle(role)
		if h == 0 {
			continue
		}
		s.coils.SetActive(h, false)
		if err := s.coils.PassiveUpdate(h); err != nil {
			return fmt.Errorf("unit %q: flush %s coil: %w", u.Name, role, err)
		}
	}
	return nil
}

// resolveIndex checks a cached unit index against name, filling it in on
// first use.
func (s *System) resolveIndex(name string, index *int) (int, error) {
	if index == nil || *index == 0 {
		idx, err := s.find(name)
		if err != nil {
			return 0, err
		}
		if idx == 0 {
			log.Error().Str("unit", name).Msg("Integrated heat pump not found")
			return 0, &LookupError{Op: "SimulateUnit", Type: model.UnitType, Name: name}
		}
		if index != nil {
			*index = idx
		}
		return idx, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return 0, ErrNotLoaded
	}
	idx := *index
	if idx < 1 || idx > len(s.units) {
		return 0, &InvalidIndexError{Index: idx, Count: len(s.units), Name: name}
	}
	if stored := s.units[idx-1].Name; name != "" && name != stored {
		return 0, &InvalidIndexError{Index: idx, Count: len(s.units), Name: name, Stored: stored}
	}
	return idx, nil
}
