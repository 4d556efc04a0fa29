package ihp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/ihp-controller/internal/model"
	"github.com/thatsimonsguy/ihp-controller/internal/node"
	"github.com/thatsimonsguy/ihp-controller/internal/tank"
)

// CurrentMode returns the mode fixed by the last DecideMode.
func (s *System) CurrentMode(index int) (model.Mode, error) {
	u, err := s.unit(index)
	if err != nil {
		return model.ModeIdle, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := s.ensureSized(u); err != nil {
		return u.CurMode, err
	}
	return u.CurMode, nil
}

// lookup finds a unit by type and name for the coil-style queries, logging a
// severe error when it is missing. Only model.UnitType matches.
func (s *System) lookup(op, coilType, name string) (*Unit, error) {
	idx, err := s.find(name)
	if err != nil {
		return nil, err
	}
	if idx == 0 || !strings.EqualFold(coilType, model.UnitType) {
		log.Error().
			Str("op", op).
			Str("coil_type", coilType).
			Str("name", name).
			Msg("Could not find integrated heat pump")
		return nil, &LookupError{Op: op, Type: coilType, Name: name}
	}
	return s.unit(idx)
}

// CoilIndex returns the 1-based index of the named unit, or 0.
func (s *System) CoilIndex(coilType, name string) (int, error) {
	if _, err := s.lookup("CoilIndex", coilType, name); err != nil {
		return 0, err
	}
	idx, _ := s.find(name)
	return idx, nil
}

// CoilInletNode returns the unit's air inlet node, or 0.
func (s *System) CoilInletNode(coilType, name string) (node.ID, error) {
	u, err := s.lookup("CoilInletNode", coilType, name)
	if err != nil {
		return 0, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.AirInlet, nil
}

// CoilCapacity returns the rated capacity of the coil that serves mode.
// Idle and dedicated water heating report the DWH coil, or the SCWH coil
// when the unit has no DWH coil. An unknown name yields CapacitySentinel.
func (s *System) CoilCapacity(coilType, name string, mode model.Mode) (float64, error) {
	u, err := s.lookup("CoilCapacity", coilType, name)
	if err != nil {
		return CapacitySentinel, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := s.ensureSized(u); err != nil {
		return CapacitySentinel, err
	}

	r := routeFor(mode)
	h := u.Coils.Handle(r.capacityRole)
	if h == 0 && r.hasFallback {
		h = u.Coils.Handle(r.capacityFallback)
	}
	if h == 0 {
		return 0, nil
	}
	return s.coils.RatedCapacity(h), nil
}

// PartLoadCurve returns the part load curve index of the unit's DWH coil,
// or of its SCWH coil when there is no DWH coil.
func (s *System) PartLoadCurve(coilType, name string) (int, error) {
	u, err := s.lookup("PartLoadCurve", coilType, name)
	if err != nil {
		return 0, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	h := u.Coils.Handle(model.RoleDWH)
	if h == 0 {
		h = u.Coils.Handle(model.RoleSCWH)
	}
	if h == 0 {
		return 0, nil
	}
	return s.coils.PartLoadCurveIndex(h), nil
}

// SetControlledZoneTemp records the zone temperature used by the next decision.
func (s *System) SetControlledZoneTemp(index int, temp float64) error {
	u, err := s.unit(index)
	if err != nil {
		return err
	}
	u.mu.Lock()
	u.ControlledZoneTemp = temp
	u.mu.Unlock()
	return nil
}

// AttachTank associates a water heater with the named unit. A unit loaded
// without one must already have every combined coil and its water nodes.
func (s *System) AttachTank(name string, ref tank.Ref) error {
	u, err := s.lookup("AttachTank", model.UnitType, name)
	if err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	if ref.Configured() {
		var errs []error
		for _, role := range model.CoilRoles() {
			if role.RequiresTank() && !u.Coils.Configured(role) {
				errs = append(errs, &ConfigurationError{Unit: u.Name, Role: role.String(),
					Err: fmt.Errorf("required coil not specified for water heater %q", ref.Name)})
			}
		}
		if u.WaterInlet == 0 || u.WaterOutlet == 0 {
			errs = append(errs, &ConfigurationError{Unit: u.Name,
				Err: fmt.Errorf("water inlet and outlet nodes are required with water heater %q", ref.Name)})
		}
		if len(errs) > 0 {
			return errors.Join(errs...)
		}
	}
	u.Tank = ref
	log.Info().
		Str("unit", u.Name).
		Str("tank", ref.Name).
		Msg("Water heater attached")
	return nil
}
