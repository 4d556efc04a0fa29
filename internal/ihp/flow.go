package ihp

import (
	"math"

	"github.com/thatsimonsguy/ihp-controller/internal/coil"
	"github.com/thatsimonsguy/ihp-controller/internal/model"
)

// interpolate blends the rated values of speed n-1 and n by ratio. Speed 1
// (or below) is the speed 1 rating as is.
func interpolate(rated func(speed int) float64, speedNum int, speedRatio float64) float64 {
	if speedNum <= 1 {
		return rated(1)
	}
	return speedRatio*rated(speedNum) + (1-speedRatio)*rated(speedNum-1)
}

// AirVolFlow is the unit's air volume flow in m³/s for the given speed.
func (s *System) AirVolFlow(index, speedNum int, speedRatio float64, caller model.Caller) (float64, error) {
	return s.airFlow(index, speedNum, speedRatio, caller,
		func(h coil.Handle, sp int) float64 { return s.coils.RatedAirVolFlow(h, sp) },
		func(o coil.Output) float64 { return o.AirVolFlowRate },
		func(u *Unit) float64 { return math.Min(u.MaxCoolAirVolFlow, u.MaxHeatAirVolFlow) })
}

// AirMassFlow is the unit's air mass flow in kg/s for the given speed.
func (s *System) AirMassFlow(index, speedNum int, speedRatio float64, caller model.Caller) (float64, error) {
	return s.airFlow(index, speedNum, speedRatio, caller,
		func(h coil.Handle, sp int) float64 { return s.coils.RatedAirMassFlow(h, sp) },
		func(o coil.Output) float64 { return o.AirMassFlowRate },
		func(u *Unit) float64 { return math.Min(u.MaxCoolAirMassFlow, u.MaxHeatAirMassFlow) })
}

func (s *System) airFlow(
	index, speedNum int,
	speedRatio float64,
	caller model.Caller,
	rated func(coil.Handle, int) float64,
	live func(coil.Output) float64,
	ceiling func(*Unit) float64,
) (float64, error) {
	u, err := s.unit(index)
	if err != nil {
		return 0, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := s.ensureSized(u); err != nil {
		return 0, err
	}

	r := routeFor(u.CurMode)
	h := u.Coils.Handle(r.airRole)
	if h == 0 {
		return 0, nil
	}

	ratedFlow := func() float64 {
		return interpolate(func(sp int) float64 { return rated(h, sp) }, speedNum, speedRatio) * r.flowScale(u)
	}

	var flow float64
	switch r.air {
	case airNone:
		flow = 0
	case airOwnerOnly:
		if caller == r.owner {
			flow = ratedFlow()
		}
	case airAlways:
		flow = ratedFlow()
	case airShared:
		if caller != r.owner && u.live[r.airRole] {
			flow = live(s.coils.Live(h))
		} else {
			flow = ratedFlow()
		}
	}

	return math.Min(flow, ceiling(u)), nil
}

// WaterVolFlow is the unit's water volume flow in m³/s. The loop that owns
// the mode gets the rated flow; otherwise it is what the water coil last
// reported.
func (s *System) WaterVolFlow(index, speedNum int, speedRatio float64, caller model.Caller) (float64, error) {
	u, err := s.unit(index)
	if err != nil {
		return 0, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := s.ensureSized(u); err != nil {
		return 0, err
	}

	r := routeFor(u.CurMode)
	h := u.Coils.Handle(r.waterRole)
	if h == 0 {
		return 0, nil
	}

	switch r.water {
	case waterRated:
		return interpolate(func(sp int) float64 { return s.coils.RatedWaterVolFlow(h, sp) }, speedNum, speedRatio), nil
	case waterLive:
		return s.coils.Live(h).WaterVolFlowRate, nil
	default:
		return 0, nil
	}
}

// LowSpeed is the lowest speed the current mode may run at.
func (s *System) LowSpeed(index int) (int, error) {
	u, err := s.unit(index)
	if err != nil {
		return 0, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return routeFor(u.CurMode).minSpeed(u), nil
}

// MaxSpeed is the speed count of the coil that sets the current mode's speed.
func (s *System) MaxSpeed(index int) (int, error) {
	u, err := s.unit(index)
	if err != nil {
		return 0, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	h := u.Coils.Handle(routeFor(u.CurMode).speedRole)
	if h == 0 {
		return 0, nil
	}
	return s.coils.NumSpeeds(h), nil
}
